// Package syntax extracts literal values from source files and classifies them
// against the pattern library.
package syntax

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Literal is one string or numeric constant found in a file.
type Literal struct {
	Value   string
	Line    int
	Numeric bool
	Binding string // assignment target, keyword argument or map key
}

// Extractor turns file contents into literals.
type Extractor interface {
	Extract(path string, src []byte) ([]Literal, error)
}

// SyntaxError is returned by extractors when a file does not parse.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// ExtractorFor picks an extractor by file extension.
func ExtractorFor(path string) Extractor {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return goExtractor{}
	case ".py", ".pyw", ".pyi":
		return pythonExtractor{}
	default:
		return genericExtractor{}
	}
}
