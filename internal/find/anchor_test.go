package find

import (
	"reflect"
	"testing"
)

func TestLocate_Anchored(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		pattern   string
		start     int
		backwards bool
		want      []int
	}{
		{"caret second line", "foo\nbar", "^bar", 0, false, []int{4, 7}},
		{"dollar second line", "foo bar\nbaz foo\n", "foo$", 0, false, []int{12, 15}},
		{"empty line", "a\n\nb", "^$", 0, false, []int{2, 2}},
		{"caret mid line skipped", "foo\nfoo", "^foo", 1, false, []int{4, 7}},
		{"dollar inside line", "ab\ncd", "b$", 1, false, []int{1, 2}},
		{"backward last line", "bx\nby", "^b", 5, true, []int{3, 5}},
		{"backward earlier line", "bx\nby", "^b", 2, true, []int{0, 2}},
		{"groups shifted", "x\nkey=val", `^(\w+)=(\w+)$`, 0, false, []int{2, 9, 2, 5, 6, 9}},
		{"no match", "foo\nbar", "^baz", 0, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MustCompile(tt.pattern, RegularExpression)
			got := p.Locate(tt.text, tt.start, tt.backwards)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Locate(%q, %d) = %v, want %v", tt.text, tt.start, got, tt.want)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	lines := splitLines("ab\n\ncd")
	want := []line{{0, "ab"}, {3, ""}, {4, "cd"}}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("splitLines = %v, want %v", lines, want)
	}

	for pos, idx := range map[int]int{0: 0, 2: 0, 3: 1, 4: 2, 6: 2} {
		if got := lineAt(lines, pos); got != idx {
			t.Errorf("lineAt(%d) = %d, want %d", pos, got, idx)
		}
	}
}
