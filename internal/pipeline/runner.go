package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/docloc/internal/docsite"
	"github.com/dgallion1/docloc/internal/locale"
	"github.com/dgallion1/docloc/internal/manifest"
	"github.com/dgallion1/docloc/internal/rewrite"
	"gopkg.in/yaml.v3"
)

// Options selects what a Runner builds.
type Options struct {
	SrcDir  string
	DstDir  string
	Locales []string
	Exclude []string
}

// Runner builds one locale after the other and keeps a job per locale.
type Runner struct {
	opts     Options
	replacer rewrite.Replacer
	log      *slog.Logger

	jobs []*Job
}

// NewRunner creates a runner.
func NewRunner(opts Options, replacer rewrite.Replacer, log *slog.Logger) *Runner {
	return &Runner{
		opts:     opts,
		replacer: replacer,
		log:      log,
	}
}

// Locales returns the locales to build: the requested ones, else every
// locale found in the source tree.
func (r *Runner) Locales() ([]string, error) {
	if len(r.opts.Locales) > 0 {
		return r.opts.Locales, nil
	}
	locales, err := locale.Discover(r.opts.SrcDir)
	if err != nil {
		return nil, err
	}
	if len(locales) == 0 {
		return nil, fmt.Errorf("no locales found in %s", r.opts.SrcDir)
	}
	return locales, nil
}

// BuildDocs copies every locale into the destination and writes the
// aggregate table of contents, help-map and helpset of each locale that
// does not have them yet.
func (r *Runner) BuildDocs(ctx context.Context) error {
	locales, err := r.Locales()
	if err != nil {
		return err
	}
	rw, err := rewrite.New(r.opts.SrcDir, r.opts.DstDir, r.opts.Exclude, r.replacer, r.log)
	if err != nil {
		return err
	}

	for _, loc := range locales {
		if err := r.run(ctx, loc, rw, func() (rewrite.Decorator, error) { return nil, nil }); err != nil {
			return err
		}
	}

	r.log.Info("writing aggregate manifests", "locales", len(locales))
	return r.writeAggregates(locales)
}

// BuildWebsite publishes the documentation as a website: every page gets the
// navigation tree of its locale and the help manifests are left out.
func (r *Runner) BuildWebsite(ctx context.Context) error {
	if err := docsite.CheckDestination(r.opts.SrcDir, r.opts.DstDir); err != nil {
		return err
	}
	locales, err := r.Locales()
	if err != nil {
		return err
	}
	exclude := append(append([]string{}, docsite.Manifests...), r.opts.Exclude...)
	rw, err := rewrite.New(r.opts.SrcDir, r.opts.DstDir, exclude, r.replacer, r.log)
	if err != nil {
		return err
	}

	for _, loc := range locales {
		err := r.run(ctx, loc, rw, func() (rewrite.Decorator, error) {
			tree, err := docsite.LoadTree(r.opts.SrcDir, loc, r.log)
			if err != nil {
				return nil, err
			}
			return docsite.NewChrome(tree, loc), nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// run executes the job of one locale. prepare runs in the scanning phase and
// returns the page decorator.
func (r *Runner) run(ctx context.Context, loc string, rw *rewrite.Rewriter, prepare func() (rewrite.Decorator, error)) error {
	job := NewJob(loc)
	r.jobs = append(r.jobs, job)
	log := r.log.With("locale", loc)

	job.SetStatus(StatusScanning, "scanning")
	if _, err := rw.BaseImages(); err != nil {
		job.Fail(err)
		return fmt.Errorf("%s: %w", loc, err)
	}
	deco, err := prepare()
	if err != nil {
		job.Fail(err)
		return fmt.Errorf("%s: %w", loc, err)
	}

	job.SetStatus(StatusRewriting, "rewriting")
	log.Info("copying locale")
	if err := rw.CopyLocale(ctx, loc, deco, &job.Progress); err != nil {
		job.Fail(err)
		return fmt.Errorf("%s: %w", loc, err)
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("locale complete",
		"files", job.Progress.Files,
		"pages", job.Progress.Pages,
		"images_copied", job.Progress.ImagesCopied,
		"images_shared", job.Progress.ImagesShared,
		"kept", job.Progress.Kept,
		"warnings", job.Progress.Warnings,
		"duration_ms", job.UpdatedAt.Sub(job.CreatedAt).Milliseconds(),
	)
	return nil
}

func (r *Runner) writeAggregates(locales []string) error {
	read := func(rel string) (string, error) {
		data, err := os.ReadFile(filepath.Join(r.opts.SrcDir, filepath.FromSlash(rel)))
		if err != nil {
			return "", fmt.Errorf("read template: %w", err)
		}
		return string(data), nil
	}
	contentsTmpl, err := read(manifest.ContentsTemplate)
	if err != nil {
		return err
	}
	mapTmpl, err := read(manifest.MapTemplate)
	if err != nil {
		return err
	}
	helpsetTmpl, err := read(manifest.HelpsetTemplate)
	if err != nil {
		return err
	}

	baseFiles, err := manifest.ListFiles(filepath.Join(r.opts.SrcDir, locale.Base))
	if err != nil {
		return err
	}

	for _, loc := range locales {
		log := r.log.With("locale", loc)

		labels, err := manifest.LoadLabels(r.opts.SrcDir, loc, log)
		if err != nil {
			return err
		}
		if err := r.writeIfAbsent(filepath.Join(loc, "contents.xml"), manifest.SynthesizeContents(contentsTmpl, labels, log)); err != nil {
			return err
		}

		localFiles, err := manifest.ListFiles(filepath.Join(r.opts.SrcDir, loc))
		if err != nil {
			return err
		}
		if err := r.writeIfAbsent("map_"+loc+".jhm", manifest.SynthesizeMap(mapTmpl, loc, localFiles, baseFiles)); err != nil {
			return err
		}

		if err := r.writeIfAbsent("doc_"+loc+".hs", manifest.SynthesizeHelpset(helpsetTmpl, loc)); err != nil {
			return err
		}
	}
	return nil
}

// writeIfAbsent writes text to rel under the destination unless the file
// already exists.
func (r *Runner) writeIfAbsent(rel, text string) error {
	p := filepath.Join(r.opts.DstDir, rel)
	if _, err := os.Stat(p); err == nil {
		r.log.Debug("aggregate exists, kept", "file", rel)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	r.log.Info("aggregate written", "file", rel)
	return nil
}

// Jobs returns snapshots of the jobs run so far, in run order.
func (r *Runner) Jobs() []JobSnapshot {
	out := make([]JobSnapshot, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Snapshot())
	}
	return out
}

// Report is the YAML summary of a run.
type Report struct {
	Command  string        `yaml:"command"`
	Source   string        `yaml:"source"`
	Dest     string        `yaml:"destination"`
	Finished time.Time     `yaml:"finished"`
	Jobs     []JobSnapshot `yaml:"jobs"`
}

// WriteReport writes the YAML report of the run to path.
func (r *Runner) WriteReport(path, command string) error {
	rep := Report{
		Command:  command,
		Source:   r.opts.SrcDir,
		Dest:     r.opts.DstDir,
		Finished: time.Now().UTC(),
		Jobs:     r.Jobs(),
	}
	data, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
