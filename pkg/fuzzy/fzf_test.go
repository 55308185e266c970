package fuzzy

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	fzf "github.com/junegunn/fzf/src"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFzfRunner implements FzfRunner for testing. It drains the input and
// emits every line for which Pick returns true.
type MockFzfRunner struct {
	Pick      func(line string) bool
	ExitCode  int
	Err       error
	CallCount int
	LastOpts  *fzf.Options
	Seen      []string
}

// Run executes the mock function
func (m *MockFzfRunner) Run(opts *fzf.Options) (int, error) {
	m.CallCount++
	m.LastOpts = opts

	for line := range opts.Input {
		m.Seen = append(m.Seen, line)
		if m.Err == nil && m.Pick != nil && m.Pick(line) {
			opts.Output <- line
		}
	}
	return m.ExitCode, m.Err
}

var testOptions = []Option{
	{Value: "hazard", Description: "A clinical hazard"},
	{Value: "severity:major", Description: "Major harm"},
	{Value: "mitigated"},
}

func TestNewFzf(t *testing.T) {
	finder := NewFzf("Test prompt")
	require.NotNil(t, finder)
	assert.Equal(t, "Test prompt", finder.prompt)
	assert.Empty(t, finder.options)
	assert.IsType(t, &DefaultFzfRunner{}, finder.runner)
}

func TestFzfSetOptions(t *testing.T) {
	finder := NewFzf("Test")

	assert.Error(t, finder.SetOptions(nil))

	options := []Option{
		{Value: "option1", Description: "First option"},
		{Value: "option2", Description: "Second option"},
	}
	require.NoError(t, finder.SetOptions(options))
	require.Len(t, finder.options, 2)

	options[0].Value = "changed"
	assert.Equal(t, "option1", finder.options[0].Value)
}

func TestFzfSetPrompt(t *testing.T) {
	finder := NewFzf("Initial prompt")
	finder.SetPrompt("New prompt")
	assert.Equal(t, "New prompt", finder.prompt)
}

func TestFzfSelectWithNoOptions(t *testing.T) {
	runner := &MockFzfRunner{}
	finder := NewFzfWithRunner("Test", runner)

	_, err := finder.Select()
	assert.ErrorIs(t, err, ErrNoOptions)
	assert.Zero(t, runner.CallCount)
}

func TestFzfSelect(t *testing.T) {
	runner := &MockFzfRunner{
		Pick: func(line string) bool { return strings.HasPrefix(line, "severity:major") },
	}
	finder := NewFzfWithRunner("Label:", runner)
	require.NoError(t, finder.SetOptions(testOptions))

	value, err := finder.Select()
	require.NoError(t, err)
	assert.Equal(t, "severity:major", value)
	assert.Equal(t, 1, runner.CallCount)
	assert.Equal(t, []string{
		"hazard  │  A clinical hazard",
		"severity:major  │  Major harm",
		"mitigated",
	}, runner.Seen)
}

func TestFzfSelectMany(t *testing.T) {
	runner := &MockFzfRunner{
		Pick: func(line string) bool { return !strings.HasPrefix(line, "severity") },
	}
	finder := NewFzfWithRunner("Labels:", runner)
	require.NoError(t, finder.SetOptions(testOptions))

	values, err := finder.SelectMany()
	require.NoError(t, err)
	assert.Equal(t, []string{"hazard", "mitigated"}, values)
}

func TestFzfCancelled(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
	}{
		{name: "interrupt", exitCode: fzf.ExitInterrupt},
		{name: "no match", exitCode: fzf.ExitNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := NewFzfWithRunner("Test", &MockFzfRunner{ExitCode: tt.exitCode})
			require.NoError(t, finder.SetOptions(testOptions))

			_, err := finder.Select()
			assert.ErrorIs(t, err, ErrCancelled)
		})
	}
}

func TestFzfFallsBackOnError(t *testing.T) {
	runner := &MockFzfRunner{Err: errors.New("no terminal")}
	finder := NewFzfWithRunner("Label:", runner)
	require.NoError(t, finder.SetOptions(testOptions))

	out := new(bytes.Buffer)
	finder.fallback = func(prompt string) *Finder {
		return NewWithIO(prompt, strings.NewReader("3\n1,2\n"), out)
	}

	value, err := finder.Select()
	require.NoError(t, err)
	assert.Equal(t, "mitigated", value)
	assert.Contains(t, out.String(), "Label:")

	finder.fallback = func(prompt string) *Finder {
		return NewWithIO(prompt, strings.NewReader("1,2\n"), out)
	}
	values, err := finder.SelectMany()
	require.NoError(t, err)
	assert.Equal(t, []string{"hazard", "severity:major"}, values)
}

func TestFzfFallbackSelectsHazardByNumber(t *testing.T) {
	runner := &MockFzfRunner{Err: errors.New("no terminal")}
	finder := NewFzfWithRunner("Select hazard:", runner)
	require.NoError(t, finder.SetOptions([]Option{
		{Value: "12", Description: "Insulin overdose"},
		{Value: "7", Description: "Wrong patient record"},
		{Value: "3", Description: "Lost referral"},
	}))

	finder.fallback = func(prompt string) *Finder {
		return NewWithIO(prompt, strings.NewReader("7\n"), new(bytes.Buffer))
	}
	value, err := finder.Select()
	require.NoError(t, err)
	assert.Equal(t, "7", value)

	finder.fallback = func(prompt string) *Finder {
		return NewWithIO(prompt, strings.NewReader("7, 12\n"), new(bytes.Buffer))
	}
	values, err := finder.SelectMany()
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "12"}, values)
}
