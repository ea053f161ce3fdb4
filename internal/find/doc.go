// Package find implements search and replace sessions over a sequence of
// caller-owned text fragments.
//
// A Session holds a compiled Pattern, a set of Options and the text of the
// current fragment. The caller drives it:
//
//	s, _ := find.New("needle", find.CaseSensitive)
//	for i, line := range lines {
//		s.SetData(find.FragmentID(i), line, find.DefaultStart)
//		for {
//			res, _ := s.Find()
//			if res == find.NoMatch {
//				break
//			}
//			m := s.Current()
//			// highlight line[m.Offset : m.End()]
//		}
//	}
//
// Patterns are either literal strings or regular expressions (compiled with
// coregex). Both honour case sensitivity, whole-word matching and backward
// search. Expressions that use ^ or $ are matched line by line within a
// fragment so the anchors refer to line boundaries.
//
// With the Incremental option a session caches the match of every pattern
// prefix it has seen, so growing or shrinking the live pattern by a
// character reuses earlier work. Cache entries become dirty when their
// fragment's text changes and are then recomputed instead of trusted.
//
// A Replacer extends a Session with a replacement template, optional
// back-references (\0 to \9) and prompt-on-replace decisions.
//
// Sessions are single-threaded. Events are published through an optional
// notify.Notifier.
package find
