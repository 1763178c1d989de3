package syntax

import "fmt"

// Statement checks run over the tokens of one logical Python line. They
// reject the malformed statements a tokenizer alone accepts: compound
// headers without a colon, nameless def/class and broken assignments.

var pyKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

var pyCompound = map[string]bool{
	"if": true, "elif": true, "else": true, "while": true, "for": true,
	"with": true, "try": true, "except": true, "finally": true,
	"def": true, "class": true,
}

func pyErr(t pyTok, format string, args ...interface{}) error {
	return &SyntaxError{Line: t.line, Msg: fmt.Sprintf(format, args...)}
}

func isPyOp(t pyTok, text string) bool {
	return t.kind == pyOp && t.text == text
}

func isPyKeyword(t pyTok, text string) bool {
	return t.kind == pyName && t.text == text
}

// topLevel calls fn for each token outside brackets, with its index. fn
// returning false stops the walk.
func topLevel(toks []pyTok, fn func(i int, t pyTok) bool) {
	nest := 0
	for i, t := range toks {
		if t.kind == pyOp {
			switch t.text {
			case "(", "[", "{":
				nest++
				continue
			case ")", "]", "}":
				nest--
				continue
			}
		}
		if nest == 0 && !fn(i, t) {
			return
		}
	}
}

func checkLogicalLine(toks []pyTok) error {
	start := 0
	var parts [][]pyTok
	topLevel(toks, func(i int, t pyTok) bool {
		if isPyOp(t, ";") {
			parts = append(parts, toks[start:i])
			start = i + 1
		}
		return true
	})
	parts = append(parts, toks[start:])

	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		if err := checkStatement(part); err != nil {
			return err
		}
	}
	return nil
}

func checkStatement(toks []pyTok) error {
	first := toks[0]
	if isPyOp(first, "@") || first.kind != pyName {
		return checkSimple(toks)
	}
	switch first.text {
	case "async":
		if len(toks) < 2 || !(isPyKeyword(toks[1], "def") || isPyKeyword(toks[1], "for") || isPyKeyword(toks[1], "with")) {
			return pyErr(first, "invalid syntax after 'async'")
		}
		return checkStatement(toks[1:])
	case "def", "class":
		if len(toks) < 2 || toks[1].kind != pyName || pyKeywords[toks[1].text] {
			return pyErr(first, "expected name after '%s'", first.text)
		}
		if len(toks) < 3 {
			return pyErr(first, "expected ':' after '%s' statement", first.text)
		}
		next := toks[2]
		if !isPyOp(next, "(") && !isPyOp(next, "[") && !(first.text == "class" && isPyOp(next, ":")) {
			return pyErr(next, "invalid syntax in '%s' statement", first.text)
		}
	}
	if pyCompound[first.text] {
		return checkCompound(toks)
	}
	return checkSimple(toks)
}

// headerColon finds the colon ending a compound statement header, skipping
// colons that belong to lambdas.
func headerColon(toks []pyTok) int {
	lambdas := 0
	colon := -1
	topLevel(toks, func(i int, t pyTok) bool {
		switch {
		case isPyKeyword(t, "lambda"):
			lambdas++
		case isPyOp(t, ":"):
			if lambdas > 0 {
				lambdas--
				return true
			}
			colon = i
			return false
		}
		return true
	})
	return colon
}

func checkCompound(toks []pyTok) error {
	kw := toks[0]
	colon := headerColon(toks)
	if colon < 0 {
		return pyErr(kw, "expected ':' after '%s' statement", kw.text)
	}
	header := toks[1:colon]

	switch kw.text {
	case "else", "try", "finally":
		if len(header) > 0 {
			return pyErr(header[0], "expected ':' after '%s'", kw.text)
		}
	case "if", "elif", "while", "with":
		if len(header) == 0 {
			return pyErr(kw, "missing expression after '%s'", kw.text)
		}
	case "for":
		hasIn := false
		topLevel(header, func(_ int, t pyTok) bool {
			hasIn = isPyKeyword(t, "in")
			return !hasIn
		})
		if !hasIn {
			return pyErr(kw, "expected 'in' in 'for' statement")
		}
	}

	if body := toks[colon+1:]; len(body) > 0 {
		if body[0].kind == pyName && pyCompound[body[0].text] {
			return pyErr(body[0], "compound statement after ':' on the same line")
		}
		return checkSimple(body)
	}
	return nil
}

// checkSimple validates the assignment shape of a simple statement:
// every target non-empty and assignable, and a value after the last '='.
func checkSimple(toks []pyTok) error {
	var targets [][]pyTok
	start := 0
	topLevel(toks, func(i int, t pyTok) bool {
		if isPyKeyword(t, "lambda") {
			// '=' past here are lambda defaults
			return false
		}
		if isPyOp(t, "=") {
			targets = append(targets, toks[start:i])
			start = i + 1
		}
		return true
	})
	if len(targets) == 0 {
		return nil
	}
	if start >= len(toks) {
		return pyErr(toks[len(toks)-1], "expected value after '='")
	}

	for _, target := range targets {
		if len(target) == 0 {
			return pyErr(toks[0], "invalid syntax: empty assignment target")
		}
		if err := checkTarget(target); err != nil {
			return err
		}
	}
	return nil
}

func checkTarget(target []pyTok) error {
	var err error
	last := -1
	topLevel(target, func(i int, t pyTok) bool {
		// an annotation follows the first top-level ':'
		if isPyOp(t, ":") {
			return false
		}
		if t.kind == pyName && pyKeywords[t.text] {
			err = pyErr(t, "cannot assign to keyword '%s'", t.text)
			return false
		}
		last = i
		return true
	})
	if err != nil {
		return err
	}
	if last >= 0 {
		if t := target[last]; t.kind == pyString || t.kind == pyNumber {
			return pyErr(t, "cannot assign to literal")
		}
	}
	return nil
}
