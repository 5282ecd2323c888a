// Package exclude decides which paths under a root the indexer skips.
//
// Patterns follow gitignore syntax and are matched against the path
// relative to the root:
//
//	*.log               basename anywhere
//	build/              directories named build, and their contents
//	docs/*.md           anchored at the root
//	**/node_modules/**  the directory node_modules anywhere, and its contents
//	!keep.log           re-include (only when no parent is excluded)
//
// Patterns starting with "/" or "~/" are absolute filesystem paths. They
// exclude that path and everything below it, for whichever root contains it.
//
// Usage:
//
//	m, err := exclude.Compile("/home/me", []string{"**/.git/**", "~/Library/Caches"}, exclude.Options{})
//	if m.Skip("src/.git", true) {
//	    // do not descend
//	}
package exclude
