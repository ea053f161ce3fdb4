package find

import "strings"

// Expand substitutes back-references in template using the match spans in
// loc (as returned by Pattern.Locate) over text. \0 is the whole match and
// \1 to \9 are capture groups; a reference to a group that does not exist
// or did not participate expands to nothing. \\ produces one backslash.
// Any other backslash is copied through.
func Expand(template, text string, loc []int) string {
	if !strings.Contains(template, `\`) {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '\\' || i+1 == len(template) {
			b.WriteByte(c)
			continue
		}

		next := template[i+1]
		switch {
		case next >= '0' && next <= '9':
			b.WriteString(group(text, loc, int(next-'0')))
			i++
		case next == '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func group(text string, loc []int, n int) string {
	if 2*n+1 >= len(loc) || loc[2*n] < 0 || loc[2*n+1] > len(text) {
		return ""
	}
	return text[loc[2*n]:loc[2*n+1]]
}
