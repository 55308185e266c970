package fuzzy

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFinder(input string) (*Finder, *bytes.Buffer) {
	out := new(bytes.Buffer)
	finder := NewWithIO("Select hazard:", strings.NewReader(input), out)
	finder.AddOption("12", "Insulin overdose")
	finder.AddOption("7", "Wrong patient record")
	finder.AddOption("3", "Lost referral")
	return finder, out
}

func TestFinder_AddOption(t *testing.T) {
	finder := NewWithIO("prompt", strings.NewReader(""), new(bytes.Buffer))
	finder.AddOption("hazard", "A clinical hazard")

	require.Len(t, finder.Options(), 1)
	assert.Equal(t, Option{Value: "hazard", Description: "A clinical hazard"}, finder.Options()[0])
}

func TestFinder_Select(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "by number", input: "2\n", expected: "7"},
		{name: "unique filter auto-selects", input: "overdose\n", expected: "12"},
		{name: "filter then number", input: "r\n2\n", expected: "7"},
		{name: "out of range then valid", input: "9\n3\n", expected: "3"},
		{name: "no match then number", input: "zzz\n1\n", expected: "12"},
		{name: "last line without newline", input: "1", expected: "12"},
		{name: "value beyond list length", input: "12\n", expected: "12"},
		{name: "value inside list length", input: "7\n", expected: "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder, out := newTestFinder(tt.input)
			value, err := finder.Select()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
			assert.Contains(t, out.String(), "Select hazard:")
		})
	}
}

func TestFinder_SelectCancelled(t *testing.T) {
	finder, _ := newTestFinder("")
	_, err := finder.Select()
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestFinder_SelectNoOptions(t *testing.T) {
	finder := NewWithIO("prompt", strings.NewReader("1\n"), new(bytes.Buffer))

	_, err := finder.Select()
	assert.ErrorIs(t, err, ErrNoOptions)

	_, err = finder.SelectMany()
	assert.ErrorIs(t, err, ErrNoOptions)
}

func TestFinder_SelectMany(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "numbers", input: "1,3\n", expected: []string{"12", "3"}},
		{name: "spaces and duplicates", input: "3 1 3\n", expected: []string{"3", "12"}},
		{name: "values", input: "7, 12\n", expected: []string{"7", "12"}},
		{name: "retry after unknown", input: "1,9\n2\n", expected: []string{"7"}},
		{name: "retry after empty", input: "\n1\n", expected: []string{"12"}},
		{name: "values and numbers mixed", input: "12 2\n", expected: []string{"12", "7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder, _ := newTestFinder(tt.input)
			values, err := finder.SelectMany()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, values)
		})
	}
}

func TestFinder_ValueWinsOverNumber(t *testing.T) {
	newFinder := func(input string) *Finder {
		finder := NewWithIO("Select hazard:", strings.NewReader(input), new(bytes.Buffer))
		finder.AddOption("2", "Second hazard")
		finder.AddOption("1", "First hazard")
		return finder
	}

	value, err := newFinder("1\n").Select()
	require.NoError(t, err)
	assert.Equal(t, "1", value)

	values, err := newFinder("1,2\n").SelectMany()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, values)
}

func TestFilterOptions(t *testing.T) {
	options := []Option{
		{Value: "hazard", Description: "A clinical hazard"},
		{Value: "severity:major", Description: "Major harm"},
		{Value: "mitigated"},
	}

	assert.Len(t, filterOptions(options, "HAZARD"), 1)
	assert.Len(t, filterOptions(options, "major"), 1)
	assert.Len(t, filterOptions(options, "a"), 3)
	assert.Empty(t, filterOptions(options, "nothing"))
}

func TestOptionDisplay(t *testing.T) {
	assert.Equal(t, "hazard", Option{Value: "hazard"}.display())
	assert.Equal(t, "hazard  │  A clinical hazard", Option{Value: "hazard", Description: "A clinical hazard"}.display())
}
