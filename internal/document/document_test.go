package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoundTrip(t *testing.T) {
	for _, text := range []string{"", "one", "one\ntwo", "one\n", "\n\n"} {
		assert.Equal(t, text, Parse(text).String(), "round trip %q", text)
	}
	assert.Equal(t, 2, Parse("one\n").Len())
}

func TestDocumentLines(t *testing.T) {
	src := []string{"a", "b"}
	d := New(src)
	src[0] = "changed"
	assert.Equal(t, "a", d.Line(0), "New must copy its input")

	d.SetLine(1, "B")
	d.SetLine(5, "ignored")
	assert.Equal(t, []string{"a", "B"}, d.Lines())
	assert.Equal(t, "", d.Line(-1))
	assert.Equal(t, "", d.Line(2))

	lines := d.Lines()
	lines[0] = "x"
	assert.Equal(t, "a", d.Line(0), "Lines must return a copy")
}
