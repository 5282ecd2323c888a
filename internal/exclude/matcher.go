package exclude

import (
	"path/filepath"
	"strings"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
)

// Options tunes a compiled Matcher.
type Options struct {
	// IncludeHidden keeps entries whose name starts with ".".
	IncludeHidden bool
	// Home expands "~/" in absolute patterns. Empty leaves them unexpanded.
	Home string
}

// Matcher is the compiled exclude predicate for one root. It is immutable
// after Compile and safe for concurrent use.
type Matcher struct {
	root          string
	rules         []*rule
	prefixes      []string // root-relative paths excluded by absolute patterns
	excludeAll    bool     // the root itself lies under an absolute exclude
	includeHidden bool
}

// Compile builds the predicate for root from patterns.
func Compile(root string, patterns []string, opts Options) (*Matcher, error) {
	root = filepath.Clean(root)
	m := &Matcher{root: root, includeHidden: opts.IncludeHidden}

	for _, p := range patterns {
		trimmed := strings.TrimSpace(p)
		if isAbsolutePattern(trimmed) {
			m.addAbsolute(expandHome(trimmed, opts.Home))
			continue
		}
		r, err := parseRule(p)
		if err != nil {
			return nil, cerrors.New(cerrors.ErrCodeInvalidPattern, err.Error(), err).
				WithDetail("pattern", p)
		}
		if r != nil {
			m.rules = append(m.rules, r)
		}
	}
	return m, nil
}

// Root returns the root the matcher was compiled for.
func (m *Matcher) Root() string { return m.root }

func isAbsolutePattern(p string) bool {
	return strings.HasPrefix(p, "/") || strings.HasPrefix(p, "~/")
}

func expandHome(p, home string) string {
	if home != "" && strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}

func (m *Matcher) addAbsolute(abs string) {
	abs = filepath.Clean(abs)
	if abs == m.root || strings.HasPrefix(m.root, strings.TrimSuffix(abs, "/")+"/") {
		m.excludeAll = true
		return
	}
	if rel, ok := relativeTo(m.root, abs); ok {
		m.prefixes = append(m.prefixes, rel)
	}
}

// Match reports whether rel itself is excluded by a pattern, without looking
// at its parents. The walker uses it because it never descends into an
// excluded directory.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if m.excludeAll {
		return true
	}
	rel = filepath.ToSlash(rel)
	for _, p := range m.prefixes {
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}

	excluded := false
	for _, r := range m.rules {
		if r.matches(rel, isDir) {
			excluded = !r.negation
		}
	}
	return excluded
}

// Excluded reports whether rel or any of its parent directories is
// excluded. A negated pattern cannot re-include a path under an excluded
// directory.
func (m *Matcher) Excluded(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	for i := 0; i < len(rel); i++ {
		if rel[i] == '/' && m.Match(rel[:i], true) {
			return true
		}
	}
	return m.Match(rel, isDir)
}

// Skip is the walker's per-entry decision: true means neither record nor
// descend. Hidden names are skipped unless IncludeHidden was set.
func (m *Matcher) Skip(rel string, isDir bool) bool {
	if !m.includeHidden && IsHidden(baseName(rel)) {
		return true
	}
	return m.Match(rel, isDir)
}

// IsHidden reports whether a single path component is a dotfile.
func IsHidden(name string) bool {
	return len(name) > 1 && name[0] == '.' && name != ".."
}

// HasHiddenComponent reports whether any component of rel is hidden.
func HasHiddenComponent(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if IsHidden(part) {
			return true
		}
	}
	return false
}

func baseName(rel string) string {
	if i := strings.LastIndexAny(rel, `/`+string(filepath.Separator)); i >= 0 {
		return rel[i+1:]
	}
	return rel
}

// relativeTo returns p relative to root when p lies strictly under it.
func relativeTo(root, p string) (string, bool) {
	prefix := strings.TrimSuffix(root, "/") + "/"
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	return filepath.ToSlash(strings.TrimPrefix(p, prefix)), true
}
