package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

type pythonExtractor struct{}

func (pythonExtractor) Extract(_ string, src []byte) ([]Literal, error) {
	lx := &pyLexer{src: src, line: 1}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.lits, nil
}

type pyTokKind int

const (
	pyName pyTokKind = iota
	pyString
	pyNumber
	pyOp
	pyNewline
)

type pyTok struct {
	kind  pyTokKind
	text  string
	depth int
	line  int
}

type pyLexer struct {
	src    []byte
	pos    int
	line   int
	open   []pyBracket
	recent []pyTok // last few significant tokens
	stmt   []pyTok // tokens of the current logical line
	lits   []Literal
}

type pyBracket struct {
	ch   byte
	line int
}

var pyClosers = map[byte]byte{')': '(', ']': '[', '}': '{'}

func (lx *pyLexer) run() error {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == '\n':
			lx.line++
			lx.pos++
			if len(lx.open) == 0 {
				if err := lx.endStatement(); err != nil {
					return err
				}
				lx.push(pyTok{kind: pyNewline})
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			lx.pos++
		case c == '#':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		case c == '\\':
			// explicit line continuation
			lx.pos++
			if lx.pos < len(lx.src) && lx.src[lx.pos] == '\r' {
				lx.pos++
			}
			if lx.pos < len(lx.src) && lx.src[lx.pos] == '\n' {
				lx.pos++
				lx.line++
				continue
			}
			return &SyntaxError{Line: lx.line, Msg: "unexpected character after line continuation character"}
		case c == '"' || c == '\'':
			if err := lx.readString(""); err != nil {
				return err
			}
		case isPyIdentStart(c):
			name := lx.readName()
			if lx.pos < len(lx.src) && (lx.src[lx.pos] == '"' || lx.src[lx.pos] == '\'') && isStringPrefix(name) {
				if err := lx.readString(name); err != nil {
					return err
				}
				continue
			}
			lx.push(pyTok{kind: pyName, text: name})
		case isDigit(c) || (c == '.' && lx.pos+1 < len(lx.src) && isDigit(lx.src[lx.pos+1])):
			lx.readNumber()
		case c == '(' || c == '[' || c == '{':
			lx.open = append(lx.open, pyBracket{ch: c, line: lx.line})
			lx.pos++
			lx.push(pyTok{kind: pyOp, text: string(c)})
		case c == ')' || c == ']' || c == '}':
			if len(lx.open) == 0 || lx.open[len(lx.open)-1].ch != pyClosers[c] {
				return &SyntaxError{Line: lx.line, Msg: fmt.Sprintf("unmatched '%c'", c)}
			}
			lx.open = lx.open[:len(lx.open)-1]
			lx.pos++
			lx.push(pyTok{kind: pyOp, text: string(c)})
		default:
			lx.readOp()
		}
	}
	if len(lx.open) > 0 {
		b := lx.open[len(lx.open)-1]
		return &SyntaxError{Line: b.line, Msg: fmt.Sprintf("'%c' was never closed", b.ch)}
	}
	return lx.endStatement()
}

func (lx *pyLexer) endStatement() error {
	toks := lx.stmt
	lx.stmt = nil
	if len(toks) == 0 {
		return nil
	}
	return checkLogicalLine(toks)
}

func (lx *pyLexer) push(t pyTok) {
	t.depth = len(lx.open)
	if t.line == 0 {
		t.line = lx.line
	}
	if t.kind != pyNewline {
		lx.stmt = append(lx.stmt, t)
	}
	lx.recent = append(lx.recent, t)
	if len(lx.recent) > 6 {
		lx.recent = lx.recent[len(lx.recent)-6:]
	}
}

// back returns the n-th previous token, 1 being the most recent.
func (lx *pyLexer) back(n int) (pyTok, bool) {
	if n > len(lx.recent) {
		return pyTok{}, false
	}
	return lx.recent[len(lx.recent)-n], true
}

// binding works out what name a literal about to be pushed is bound to.
func (lx *pyLexer) binding() string {
	prev, ok := lx.back(1)
	if !ok || prev.kind != pyOp {
		return ""
	}
	switch prev.text {
	case "=":
		name, ok := lx.back(2)
		if !ok || name.kind != pyName {
			return ""
		}
		// annotated assignment: name: type = value
		if colon, ok := lx.back(3); ok && colon.kind == pyOp && colon.text == ":" {
			if target, ok := lx.back(4); ok && target.kind == pyName && target.depth == 0 {
				return target.text
			}
		}
		return name.text
	case ":":
		key, ok := lx.back(2)
		if ok && key.kind == pyString && key.depth > 0 {
			return key.text
		}
	}
	return ""
}

func (lx *pyLexer) readName() string {
	start := lx.pos
	for lx.pos < len(lx.src) && isPyIdentPart(lx.src[lx.pos]) {
		lx.pos++
	}
	return string(lx.src[start:lx.pos])
}

func (lx *pyLexer) readNumber() {
	start := lx.pos
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if isPyIdentPart(c) || c == '.' {
			lx.pos++
			continue
		}
		if (c == '+' || c == '-') && lx.pos > start {
			prev := lx.src[lx.pos-1]
			raw := strings.ToLower(string(lx.src[start:lx.pos]))
			if (prev == 'e' || prev == 'E') && !strings.HasPrefix(raw, "0x") {
				lx.pos++
				continue
			}
		}
		break
	}
	raw := strings.ReplaceAll(string(lx.src[start:lx.pos]), "_", "")
	value := raw
	if n, err := strconv.ParseInt(raw, 0, 64); err == nil {
		value = strconv.FormatInt(n, 10)
	}
	lx.lits = append(lx.lits, Literal{Value: value, Line: lx.line, Numeric: true, Binding: lx.binding()})
	lx.push(pyTok{kind: pyNumber, text: value})
}

func (lx *pyLexer) readString(prefix string) error {
	startLine := lx.line
	raw := strings.ContainsAny(prefix, "rR")
	quote := lx.src[lx.pos]
	triple := lx.pos+2 < len(lx.src) && lx.src[lx.pos+1] == quote && lx.src[lx.pos+2] == quote
	if triple {
		lx.pos += 3
	} else {
		lx.pos++
	}

	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return &SyntaxError{Line: startLine, Msg: "unterminated string literal"}
		}
		c := lx.src[lx.pos]
		if c == quote {
			if !triple {
				lx.pos++
				break
			}
			if lx.pos+2 < len(lx.src) && lx.src[lx.pos+1] == quote && lx.src[lx.pos+2] == quote {
				lx.pos += 3
				break
			}
		}
		if c == '\n' {
			if !triple {
				return &SyntaxError{Line: startLine, Msg: "unterminated string literal"}
			}
			lx.line++
		}
		if c == '\\' && lx.pos+1 < len(lx.src) {
			next := lx.src[lx.pos+1]
			lx.pos += 2
			if next == '\n' {
				lx.line++
				if raw {
					b.WriteString("\\\n")
				}
				continue
			}
			if raw {
				b.WriteByte('\\')
				b.WriteByte(next)
				continue
			}
			b.WriteString(pyEscape(next))
			continue
		}
		b.WriteByte(c)
		lx.pos++
	}

	value := b.String()
	lx.lits = append(lx.lits, Literal{Value: value, Line: startLine, Binding: lx.binding()})
	lx.push(pyTok{kind: pyString, text: value, line: startLine})
	return nil
}

func (lx *pyLexer) readOp() {
	c := lx.src[lx.pos]
	if lx.pos+1 < len(lx.src) {
		two := string(lx.src[lx.pos : lx.pos+2])
		switch two {
		case "==", "!=", "<=", ">=", ":=", "->", "+=", "-=", "*=", "/=", "**", "//", "<<", ">>", "|=", "&=":
			lx.pos += 2
			lx.push(pyTok{kind: pyOp, text: two})
			return
		}
	}
	lx.pos++
	lx.push(pyTok{kind: pyOp, text: string(c)})
}

func pyEscape(c byte) string {
	switch c {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	}
	return string(c)
}

func isStringPrefix(name string) bool {
	switch strings.ToLower(name) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func isPyIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isPyIdentPart(c byte) bool {
	return isPyIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
