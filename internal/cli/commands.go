package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/dgallion1/docloc/internal/imagemap"
	"github.com/dgallion1/docloc/internal/locale"
	"github.com/dgallion1/docloc/internal/pipeline"
	"github.com/dgallion1/docloc/internal/preview"
	"github.com/dgallion1/docloc/internal/rewrite"
	"github.com/dgallion1/docloc/internal/website"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func installTreeFlags(cmd *cobra.Command) {
	cmd.Flags().String("src", "doc", "documentation source tree")
	cmd.Flags().StringSlice("locale", nil, "locales to build (default: all found in the source tree)")
	cmd.Flags().StringSlice("exclude", nil, "glob patterns of files not to copy")
}

func (a *App) installDoc() {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Copy the documentation of every locale and write its help manifests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.runner(cmd)
			return a.finish(r, "doc", r.BuildDocs(cmd.Context()))
		},
	}
	installTreeFlags(cmd)
	cmd.Flags().String("dst", "build", "destination directory")
	a.rootCmd.AddCommand(cmd)
}

func (a *App) installWWW() {
	cmd := &cobra.Command{
		Use:   "www",
		Short: "Publish the documentation as a website with navigation trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.runner(cmd)
			return a.finish(r, "www", r.BuildWebsite(cmd.Context()))
		},
	}
	installTreeFlags(cmd)
	cmd.Flags().String("dst", "build", "destination directory")
	a.rootCmd.AddCommand(cmd)
}

func (a *App) installSite() {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Build the translated project website",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return website.NewBuilder(a.config.WWWDir, a.config.DstDir, a.log).Build(cmd.Context())
		},
	}
	cmd.Flags().String("www", "www", "website source tree")
	cmd.Flags().String("dst", "build", "destination directory")
	a.rootCmd.AddCommand(cmd)
}

// scanEntry is one image of the scan output.
type scanEntry struct {
	Width          int  `yaml:"width"`
	Height         int  `yaml:"height"`
	LocaleSpecific bool `yaml:"locale_specific"`
}

func (a *App) installScan() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Print the locale-specific images of each locale as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			locales := a.config.Locales
			if len(locales) == 0 {
				found, err := locale.Discover(a.config.SrcDir)
				if err != nil {
					return err
				}
				locales = found
			}

			base := filepath.Join(a.config.SrcDir, locale.Base)
			out := make(map[string]map[string]scanEntry, len(locales))
			for _, loc := range locales {
				m, err := imagemap.Scan(filepath.Join(a.config.SrcDir, loc), base)
				if err != nil {
					return fmt.Errorf("%s: %w", loc, err)
				}
				images := make(map[string]scanEntry, len(m))
				for k, asset := range m {
					images[k.Rel()] = scanEntry{
						Width:          asset.Width,
						Height:         asset.Height,
						LocaleSpecific: asset.LocaleSpecific,
					}
				}
				out[loc] = images
				a.log.Debug("scanned locale", "locale", loc, "images", len(images))
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(out); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	installTreeFlags(cmd)
	a.rootCmd.AddCommand(cmd)
}

func (a *App) installServe() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a built website for preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("dir", "build", "directory to serve")
	cmd.Flags().String("addr", ":8090", "listen address")
	a.rootCmd.AddCommand(cmd)
}

// serve blocks until ctx is cancelled or the server fails.
func (a *App) serve(ctx context.Context) error {
	srv := preview.NewServer(a.config.ServeDir, a.log)

	httpServer := &http.Server{
		Addr:         a.config.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting preview server", "addr", a.config.Addr, "dir", a.config.ServeDir)
		errCh <- httpServer.ListenAndServe()
	}()

	// Graceful shutdown.
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (a *App) runner(cmd *cobra.Command) *pipeline.Runner {
	replacer := rewrite.NewReplacer(a.config.Policy(), cmd.InOrStdin(), cmd.OutOrStdout())
	return pipeline.NewRunner(pipeline.Options{
		SrcDir:  a.config.SrcDir,
		DstDir:  a.config.DstDir,
		Locales: a.config.Locales,
		Exclude: a.config.Exclude,
	}, replacer, a.log)
}

// finish writes the run report when one is configured and returns the run
// error.
func (a *App) finish(r *pipeline.Runner, command string, runErr error) error {
	if a.config.Report != "" {
		if err := r.WriteReport(a.config.Report, command); err != nil {
			a.log.Error("cannot write report", "error", err)
			if runErr == nil {
				return err
			}
		}
	}
	if runErr != nil {
		return runErr
	}
	a.log.Info("build complete", "command", command, "locales", len(r.Jobs()))
	return nil
}
