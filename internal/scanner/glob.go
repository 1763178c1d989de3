package scanner

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// glob matches a slash-separated relative path. Patterns without a slash
// match the base name only, like .gitignore entries.
type glob struct {
	source string
	re     *regexp.Regexp
	path   bool
}

func compileGlobs(patterns []string) ([]glob, error) {
	out := make([]glob, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(filepath.ToSlash(p))
		if p == "" {
			continue
		}
		re, err := regexp.Compile(globToRegex(strings.TrimPrefix(p, "./")))
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", p, err)
		}
		out = append(out, glob{source: p, re: re, path: strings.Contains(p, "/")})
	}
	return out, nil
}

func (g glob) match(rel, base string) bool {
	if g.path {
		return g.re.MatchString(rel)
	}
	return g.re.MatchString(base)
}

func excluded(globs []glob, rel, base string, dir bool) bool {
	for _, g := range globs {
		if g.match(rel, base) {
			return true
		}
		// "**/build/**" must prune the build directory itself
		if dir && g.path && g.re.MatchString(rel+"/") {
			return true
		}
	}
	return false
}

func globToRegex(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	r := []rune(glob)
	for i := 0; i < len(r); i++ {
		switch r[i] {
		case '*':
			if i+1 < len(r) && r[i+1] == '*' {
				if i+2 < len(r) && r[i+2] == '/' {
					b.WriteString("(?:.*/)?")
					i += 2
					continue
				}
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '.', '+', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			b.WriteString("\\")
			b.WriteRune(r[i])
		default:
			b.WriteRune(r[i])
		}
	}
	b.WriteString("$")
	return b.String()
}

// Relevant reports whether a slash-separated path relative to the scan root
// would be scanned. isDir checks whether a directory would be descended.
func (s *Scanner) Relevant(rel string, isDir bool) bool {
	base := path.Base(rel)
	if excluded(s.exclude, rel, base, isDir) {
		return false
	}
	return isDir || s.included(rel, base)
}
