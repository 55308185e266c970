package fuzzy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

var (
	// ErrNoOptions is returned when a picker has nothing to offer
	ErrNoOptions = errors.New("no options available")
	// ErrCancelled is returned when the user leaves the picker without choosing
	ErrCancelled = errors.New("selection cancelled")
)

// Option represents a selectable option in the fuzzy finder
type Option struct {
	Value       string
	Description string
}

func (o Option) display() string {
	if o.Description == "" {
		return o.Value
	}
	return fmt.Sprintf("%s  │  %s", o.Value, o.Description)
}

// IsInteractive reports whether stdin and stdout are both terminals
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Finder is a line based picker. It reads choices from in and is used when
// fzf cannot run.
type Finder struct {
	prompt  string
	options []Option
	in      *bufio.Reader
	out     io.Writer
}

// New creates a finder on stdin and stdout
func New(prompt string) *Finder {
	return NewWithIO(prompt, os.Stdin, os.Stdout)
}

// NewWithIO creates a finder reading from in and writing to out
func NewWithIO(prompt string, in io.Reader, out io.Writer) *Finder {
	return &Finder{
		prompt:  prompt,
		options: make([]Option, 0),
		in:      bufio.NewReader(in),
		out:     out,
	}
}

// AddOption adds an option to the fuzzy finder
func (f *Finder) AddOption(value, description string) {
	f.options = append(f.options, Option{
		Value:       value,
		Description: description,
	})
}

// Options returns all available options
func (f *Finder) Options() []Option {
	return f.options
}

// SetPrompt updates the prompt message
func (f *Finder) SetPrompt(prompt string) {
	f.prompt = prompt
}

// Select asks for one option. The user types an option value or a list
// number to pick it, or text to narrow the list down; a filter matching a
// single option selects it. An exact value wins over a list number.
func (f *Finder) Select() (string, error) {
	if len(f.options) == 0 {
		return "", ErrNoOptions
	}

	candidates := f.options
	for {
		_, _ = fmt.Fprintln(f.out, f.prompt)
		_, _ = fmt.Fprintln(f.out, strings.Repeat("-", 50))
		f.list(candidates)
		_, _ = fmt.Fprintf(f.out, "\nFilter or select (1-%d): ", len(candidates))

		input, err := f.readLine()
		if err != nil {
			return "", err
		}
		if input == "" {
			candidates = f.options
			continue
		}

		if value, ok := matchValue(f.options, input); ok {
			return value, nil
		}
		if selection, err := strconv.Atoi(input); err == nil {
			if selection >= 1 && selection <= len(candidates) {
				return candidates[selection-1].Value, nil
			}
			_, _ = fmt.Fprintf(f.out, "Selection %d is out of range (1-%d)\n\n", selection, len(candidates))
			continue
		}

		filtered := filterOptions(f.options, input)
		switch len(filtered) {
		case 0:
			_, _ = fmt.Fprintf(f.out, "No options match filter: %s\n\n", input)
			candidates = f.options
		case 1:
			_, _ = fmt.Fprintf(f.out, "Auto-selecting: %s\n", filtered[0].Value)
			return filtered[0].Value, nil
		default:
			candidates = filtered
		}
	}
}

// SelectMany asks for any number of options as a list of exact values or
// list numbers separated by commas or spaces. An exact value wins over a
// list number. Values are returned once each, in the order they were given.
func (f *Finder) SelectMany() ([]string, error) {
	if len(f.options) == 0 {
		return nil, ErrNoOptions
	}

	for {
		_, _ = fmt.Fprintln(f.out, f.prompt)
		_, _ = fmt.Fprintln(f.out, strings.Repeat("-", 50))
		f.list(f.options)
		_, _ = fmt.Fprint(f.out, "\nSelect one or more (e.g. 1,3): ")

		input, err := f.readLine()
		if err != nil {
			return nil, err
		}

		selected, err := f.parseMany(input)
		if err != nil {
			_, _ = fmt.Fprintf(f.out, "%v\n\n", err)
			continue
		}
		return selected, nil
	}
}

func (f *Finder) parseMany(input string) ([]string, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, errors.New("nothing selected")
	}

	seen := make(map[string]bool)
	var selected []string
	for _, field := range fields {
		value, ok := f.lookup(field)
		if !ok {
			return nil, fmt.Errorf("unknown option: %s", field)
		}
		if !seen[value] {
			seen[value] = true
			selected = append(selected, value)
		}
	}
	return selected, nil
}

func (f *Finder) lookup(field string) (string, bool) {
	if value, ok := matchValue(f.options, field); ok {
		return value, true
	}
	if n, err := strconv.Atoi(field); err == nil && n >= 1 && n <= len(f.options) {
		return f.options[n-1].Value, true
	}
	return "", false
}

func matchValue(options []Option, input string) (string, bool) {
	for _, option := range options {
		if option.Value == input {
			return option.Value, true
		}
	}
	return "", false
}

func (f *Finder) list(options []Option) {
	for i, option := range options {
		_, _ = fmt.Fprintf(f.out, "%d. %s", i+1, option.Value)
		if option.Description != "" {
			_, _ = fmt.Fprintf(f.out, " - %s", option.Description)
		}
		_, _ = fmt.Fprintln(f.out)
	}
}

func (f *Finder) readLine() (string, error) {
	input, err := f.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || input == "") {
		if errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// filterOptions filters options based on the input string
func filterOptions(options []Option, filter string) []Option {
	filter = strings.ToLower(filter)
	var filtered []Option

	for _, option := range options {
		if strings.Contains(strings.ToLower(option.Value), filter) ||
			strings.Contains(strings.ToLower(option.Description), filter) {
			filtered = append(filtered, option)
		}
	}

	return filtered
}
