package fuzzy

import (
	"fmt"

	fzf "github.com/junegunn/fzf/src"
)

// FzfRunner defines the interface for running fzf
type FzfRunner interface {
	Run(opts *fzf.Options) (int, error)
}

// DefaultFzfRunner implements the FzfRunner interface using the real fzf library
type DefaultFzfRunner struct{}

// Run executes fzf with the given options
func (r *DefaultFzfRunner) Run(opts *fzf.Options) (int, error) {
	return fzf.Run(opts)
}

// Picker selects one or more values from a list of options
type Picker interface {
	SetOptions(options []Option) error
	SetPrompt(prompt string)
	Select() (string, error)
	SelectMany() ([]string, error)
}

// FzfFinder implements fuzzy finding using the fzf library
type FzfFinder struct {
	options  []Option
	prompt   string
	runner   FzfRunner
	fallback func(prompt string) *Finder
}

// NewFzf creates a new fzf-style fuzzy finder
func NewFzf(prompt string) *FzfFinder {
	return NewFzfWithRunner(prompt, &DefaultFzfRunner{})
}

// NewFzfWithRunner creates a new fzf-style fuzzy finder with a custom runner (for testing)
func NewFzfWithRunner(prompt string, runner FzfRunner) *FzfFinder {
	return &FzfFinder{
		prompt:   prompt,
		options:  make([]Option, 0),
		runner:   runner,
		fallback: New,
	}
}

// SetOptions sets the available options for selection
func (f *FzfFinder) SetOptions(options []Option) error {
	if options == nil {
		return fmt.Errorf("options cannot be nil")
	}

	f.options = make([]Option, len(options))
	copy(f.options, options)
	return nil
}

// SetPrompt sets the display prompt
func (f *FzfFinder) SetPrompt(prompt string) {
	f.prompt = prompt
}

// Select picks exactly one option
func (f *FzfFinder) Select() (string, error) {
	selected, err := f.run(false)
	if err != nil {
		return "", err
	}
	return selected[0], nil
}

// SelectMany picks one or more options, marked with tab in fzf
func (f *FzfFinder) SelectMany() ([]string, error) {
	return f.run(true)
}

func (f *FzfFinder) run(multi bool) ([]string, error) {
	if len(f.options) == 0 {
		return nil, ErrNoOptions
	}

	args := []string{
		"--prompt=" + f.prompt + " ",
		"--height=40%",
		"--layout=reverse",
		"--cycle",
		"--no-mouse",
		"--tiebreak=length",
		"--border=none",
	}
	if multi {
		args = append(args, "--multi", "--marker=+")
	} else {
		args = append(args, "--no-multi")
	}

	opts, err := fzf.ParseOptions(true, args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fzf options: %w", err)
	}

	byDisplay := make(map[string]string, len(f.options))
	input := make(chan string, len(f.options))
	for _, option := range f.options {
		line := option.display()
		byDisplay[line] = option.Value
		input <- line
	}
	close(input)

	output := make(chan string)
	done := make(chan []string)
	go func() {
		var lines []string
		for line := range output {
			lines = append(lines, line)
		}
		done <- lines
	}()

	opts.Input = input
	opts.Output = output

	exitCode, err := f.runner.Run(opts)
	close(output)
	lines := <-done

	if err != nil {
		finder := f.fallback(f.prompt)
		for _, option := range f.options {
			finder.AddOption(option.Value, option.Description)
		}
		if multi {
			return finder.SelectMany()
		}
		value, err := finder.Select()
		if err != nil {
			return nil, err
		}
		return []string{value}, nil
	}

	switch exitCode {
	case fzf.ExitOk:
	case fzf.ExitInterrupt, fzf.ExitNoMatch:
		return nil, ErrCancelled
	default:
		return nil, fmt.Errorf("fzf exited with code %d", exitCode)
	}

	var selected []string
	for _, line := range lines {
		if value, ok := byDisplay[line]; ok {
			selected = append(selected, value)
		}
	}
	if len(selected) == 0 {
		return nil, ErrCancelled
	}
	return selected, nil
}

var _ Picker = (*FzfFinder)(nil)
