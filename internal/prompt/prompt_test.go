package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keysearch/internal/document"
	"github.com/dshills/keysearch/internal/find"
)

var proposal = find.Proposal{
	Match:       find.Match{Fragment: 1, Offset: 4, Length: 3},
	Matched:     "bar",
	Replacement: "BAR",
	Original:    "foo bar",
	Preview:     "foo BAR",
}

func TestAsk(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  find.Decision
		stop  bool
	}{
		{"yes", "y\n", find.DecideReplace, false},
		{"no", "n\n", find.DecideSkip, false},
		{"all", "all\n", find.DecideReplaceAll, false},
		{"quit", "q\n", 0, true},
		{"retry after junk", "x\n\nY\n", find.DecideReplace, false},
		{"end of input", "", 0, true},
		{"no trailing newline", "a", find.DecideReplaceAll, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewReader(strings.NewReader(tt.input), &out)

			d, err := p.Ask("f.txt", proposal)
			if tt.stop {
				assert.ErrorIs(t, err, document.ErrStop)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestAsk_Display(t *testing.T) {
	var out bytes.Buffer
	p := NewReader(strings.NewReader("y\n"), &out)

	_, err := p.Ask("f.txt", proposal)
	require.NoError(t, err)

	want := "f.txt:2:5: foo bar\n" +
		"               ^^^\n" +
		"        -> foo BAR\n" +
		question
	assert.Equal(t, want, out.String())
}

func TestAsk_RepeatsQuestion(t *testing.T) {
	var out bytes.Buffer
	p := NewReader(strings.NewReader("?\nn\n"), &out)

	_, err := p.Ask("f.txt", proposal)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out.String(), question))
}

func TestDecider_DrivesReplace(t *testing.T) {
	var out bytes.Buffer
	p := NewReader(strings.NewReader("n\ny\nq\n"), &out)

	doc := document.New([]string{"a a", "a a"})
	r, err := find.NewReplacer("a", "b", find.PromptOnReplace)
	require.NoError(t, err)

	n, err := document.Replace(doc, r, find.Position{}, p.Decider("doc"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "a b\na a", doc.String())
	assert.Contains(t, out.String(), "doc:2:1: a a")
}

func TestParse(t *testing.T) {
	for _, k := range []rune{'y', 'Y', ' '} {
		d, ok, stop := Parse(k)
		assert.True(t, ok)
		assert.False(t, stop)
		assert.Equal(t, find.DecideReplace, d)
	}
	for _, k := range []rune{'q', 0x1b, 0x03} {
		_, ok, stop := Parse(k)
		assert.False(t, ok)
		assert.True(t, stop)
	}
	_, ok, stop := Parse('z')
	assert.False(t, ok)
	assert.False(t, stop)
}
