package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/notify"
)

func TestFindWrapped(t *testing.T) {
	tests := []struct {
		name   string
		opts   find.Options
		cursor find.Position
		want   []pos
	}{
		{"forward", find.FromCursor, find.Position{Fragment: 2, Offset: 0}, []pos{{2, 1}, {2, 11}, {0, 0}, {0, 14}}},
		{"backward", find.FromCursor | find.FindBackwards, find.Position{Fragment: 0, Offset: 5}, []pos{{0, 0}, {2, 11}, {2, 1}, {0, 14}}},
		{"no cursor", 0, find.Position{Fragment: 2, Offset: 0}, []pos{{0, 0}, {0, 14}, {2, 1}, {2, 11}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBoundary(tt.cursor, tt.opts.Has(find.FindBackwards))
			s, err := find.New("This", tt.opts|find.CaseSensitive, find.WithValidator(b))
			require.NoError(t, err)

			hits, err := FindWrapped(New(thisDoc), s, tt.cursor, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, positions(hits))
			assert.Equal(t, len(tt.want), s.MatchCount())
		})
	}
}

func TestBoundary(t *testing.T) {
	b := NewBoundary(find.Position{Fragment: 1, Offset: 6}, false)
	assert.True(t, b.Validate(1, "", 9, 1), "disarmed boundary accepts everything")

	b.Observe(notify.Event{Kind: notify.KindReplaced, Fragment: 1, Offset: 0, Length: 2, ReplacedLength: 0})
	assert.Equal(t, find.Position{Fragment: 1, Offset: 4}, b.Start())
	b.Observe(notify.Event{Kind: notify.KindReplaced, Fragment: 0, Offset: 0, Length: 2})
	b.Observe(notify.Event{Kind: notify.KindReplaced, Fragment: 1, Offset: 5, Length: 1, ReplacedLength: 3})
	b.Observe(notify.Event{Kind: notify.KindHighlight, Fragment: 1, Offset: 0, Length: 3})
	assert.Equal(t, find.Position{Fragment: 1, Offset: 4}, b.Start())

	b.Arm()
	assert.True(t, b.Validate(0, "", 50, 1))
	assert.True(t, b.Validate(1, "", 3, 1))
	assert.False(t, b.Validate(1, "", 4, 1))
	assert.False(t, b.Validate(2, "", 0, 1))

	back := NewBoundary(find.Position{Fragment: 1, Offset: 4}, true)
	back.Arm()
	assert.True(t, back.Validate(1, "", 5, 1))
	assert.False(t, back.Validate(1, "", 4, 1))
	assert.False(t, back.Validate(0, "", 9, 1))
}

func TestReplaceWrapped(t *testing.T) {
	doc := New([]string{"ab ab ab", "ab"})
	cursor := find.Position{Fragment: 0, Offset: 3}
	b := NewBoundary(cursor, false)

	n := notify.New()
	n.SubscribeKind(notify.KindReplaced, b.Observe)

	var seen []pos
	decide := func(p find.Proposal) (find.Decision, error) {
		seen = append(seen, pos{int(p.Fragment), p.Offset})
		return find.DecideReplace, nil
	}

	r, err := find.NewReplacer("ab", "", find.FromCursor|find.PromptOnReplace, find.WithValidator(b), find.WithNotifier(n))
	require.NoError(t, err)

	count, err := ReplaceWrapped(doc, r, cursor, b, decide)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, "  \n", doc.String())
	assert.Equal(t, []pos{{0, 3}, {0, 4}, {1, 0}, {0, 0}}, seen)
	assert.Equal(t, find.Position{Fragment: 0, Offset: 1}, b.Start())
}

func TestReplaceWrapped_StopDoesNotWrap(t *testing.T) {
	doc := New([]string{"a", "a"})
	cursor := find.Position{Fragment: 1}
	b := NewBoundary(cursor, false)

	r, err := find.NewReplacer("a", "b", find.FromCursor|find.PromptOnReplace, find.WithValidator(b))
	require.NoError(t, err)

	calls := 0
	count, err := ReplaceWrapped(doc, r, cursor, b, func(find.Proposal) (find.Decision, error) {
		calls++
		return 0, ErrStop
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "a\na", doc.String())
}
