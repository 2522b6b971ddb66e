package rewrite

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrAborted is returned when a run stops because a destination file
// already exists and the policy says to abort.
var ErrAborted = errors.New("aborted on user request")

// Policy decides what happens to destination files that already exist.
type Policy string

const (
	PolicyOverwrite Policy = "overwrite"
	PolicySkip      Policy = "skip"
	PolicyAbort     Policy = "abort"
	PolicyAsk       Policy = "ask"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(s)); p {
	case PolicyOverwrite, PolicySkip, PolicyAbort, PolicyAsk:
		return p, nil
	}
	return "", fmt.Errorf("unknown replace policy %q (want overwrite, skip, abort or ask)", s)
}

// Replacer is asked before an existing destination file is overwritten.
type Replacer interface {
	Replace(rel string) (bool, error)
}

// NewReplacer returns the Replacer for a policy. The ask policy prompts on
// out and reads answers from in.
func NewReplacer(p Policy, in io.Reader, out io.Writer) Replacer {
	switch p {
	case PolicyOverwrite:
		return fixed(true)
	case PolicyAbort:
		return abort{}
	case PolicyAsk:
		return &prompter{in: bufio.NewScanner(in), out: out}
	default:
		return fixed(false)
	}
}

type fixed bool

func (f fixed) Replace(string) (bool, error) {
	return bool(f), nil
}

type abort struct{}

func (abort) Replace(rel string) (bool, error) {
	return false, fmt.Errorf("%s already exists: %w", rel, ErrAborted)
}

// prompter asks once per file until the user answers for all files.
type prompter struct {
	in     *bufio.Scanner
	out    io.Writer
	answer *bool
}

const promptText = "Replace ([y]es, [Y]es to all, [n]o, [N]o to all, [a]bort)? "

func (p *prompter) Replace(rel string) (bool, error) {
	if p.answer != nil {
		return *p.answer, nil
	}
	fmt.Fprintf(p.out, "%s already exists.\n", rel)
	for {
		fmt.Fprint(p.out, promptText)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return false, fmt.Errorf("read answer: %w", err)
			}
			return false, fmt.Errorf("no answer for %s: %w", rel, ErrAborted)
		}
		switch strings.TrimSpace(p.in.Text()) {
		case "y":
			return true, nil
		case "Y":
			p.remember(true)
			return true, nil
		case "n":
			return false, nil
		case "N":
			p.remember(false)
			return false, nil
		case "a":
			return false, ErrAborted
		}
	}
}

func (p *prompter) remember(v bool) {
	p.answer = &v
}
