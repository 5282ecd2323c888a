package exclude

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// compiledCacheSize bounds the number of distinct patterns kept compiled.
// The watch loop recompiles the same set every run.
const compiledCacheSize = 512

var compiledCache, _ = lru.New[string, *rule](compiledCacheSize)

// rule is one compiled gitignore pattern.
type rule struct {
	pattern  string
	negation bool
	dirOnly  bool // trailing "/"
	basename bool // no "/" in pattern: matched against the last component

	full *regexp.Regexp
	// self matches the directory named by a "dir/**" pattern, which
	// otherwise would only match its contents.
	self *regexp.Regexp
}

// parseRule compiles a single pattern. Empty lines and comments return nil.
func parseRule(pattern string) (*rule, error) {
	raw := pattern
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return nil, nil
	}
	if r, ok := compiledCache.Get(raw); ok {
		return r, nil
	}

	r := &rule{pattern: pattern}
	switch {
	case strings.HasPrefix(pattern, `\#`), strings.HasPrefix(pattern, `\!`):
		pattern = pattern[1:]
	case strings.HasPrefix(pattern, "!"):
		r.negation = true
		pattern = pattern[1:]
	}

	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimRight(pattern, "/")
	}
	pattern = strings.TrimPrefix(pattern, "/")
	if pattern == "" {
		return nil, fmt.Errorf("pattern %q matches nothing", raw)
	}

	contents := false
	if strings.HasSuffix(pattern, "/**") {
		contents = true
		pattern = strings.TrimSuffix(pattern, "/**")
	}
	r.basename = !contents && !strings.Contains(pattern, "/")

	body := patternToRegex(pattern)
	var err error
	if contents {
		if r.full, err = regexp.Compile("^" + body + "/.*$"); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", raw, err)
		}
		r.self = regexp.MustCompile("^" + body + "$")
	} else if r.full, err = regexp.Compile("^" + body + "$"); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", raw, err)
	}

	compiledCache.Add(raw, r)
	return r, nil
}

// matches reports whether the rule matches rel (slash separated, relative
// to the root) itself. Parents are the caller's concern.
func (r *rule) matches(rel string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	if r.basename {
		name := rel
		if i := strings.LastIndexByte(rel, '/'); i >= 0 {
			name = rel[i+1:]
		}
		return r.full.MatchString(name)
	}
	if r.full.MatchString(rel) {
		return true
	}
	return isDir && r.self != nil && r.self.MatchString(rel)
}

// patternToRegex converts a gitignore glob to a regex body.
func patternToRegex(pattern string) string {
	var b strings.Builder

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case '*':
			if strings.HasPrefix(pattern[i:], "**/") && (i == 0 || pattern[i-1] == '/') {
				// Zero or more directories.
				b.WriteString("(?:.*/)?")
				i += 3
				continue
			}
			if strings.HasPrefix(pattern[i:], "**") && (i == 0 || pattern[i-1] == '/') {
				b.WriteString(".*")
				i += 2
				continue
			}
			b.WriteString("[^/]*")
			i++
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			j := strings.IndexByte(pattern[i+1:], ']')
			if j < 0 {
				b.WriteString(`\[`)
				i++
				continue
			}
			class := pattern[i+1 : i+1+j]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += j + 2
		case '\\':
			if i+1 < len(pattern) {
				b.WriteString(regexp.QuoteMeta(string(pattern[i+1])))
				i += 2
				continue
			}
			b.WriteString(`\\`)
			i++
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}

	return b.String()
}
