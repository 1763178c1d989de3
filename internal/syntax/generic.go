package syntax

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

// genericExtractor is a lenient line lexer for languages without a dedicated
// parser. It picks up single-line quoted strings. Malformed source is never
// an error; only a line too long to buffer is.
type genericExtractor struct{}

// maxLineSize bounds a single line read by the generic lexer.
const maxLineSize = 4 * 1024 * 1024

var genericLiteral = regexp.MustCompile(`(?:([A-Za-z_$][\w.$-]*)["']?\s*(?::|=|:=)\s*)?("(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|` + "`[^`]*`" + `)`)

func (genericExtractor) Extract(_ string, src []byte) ([]Literal, error) {
	var out []Literal
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		for _, m := range genericLiteral.FindAllStringSubmatch(sc.Text(), -1) {
			binding := m[1]
			if i := strings.LastIndex(binding, "."); i >= 0 {
				binding = binding[i+1:]
			}
			quoted := m[2]
			out = append(out, Literal{
				Value:   unescapeGeneric(quoted[1 : len(quoted)-1]),
				Line:    line,
				Binding: binding,
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &SyntaxError{Line: line + 1, Msg: "read: " + err.Error()}
	}
	return out, nil
}

func unescapeGeneric(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			b.WriteString(pyEscape(s[i]))
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
