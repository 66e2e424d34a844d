package plotscript

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tkEOF tokenKind = iota
	tkNewline
	tkIdent
	tkNumber
	tkString
	tkPunct
)

type token struct {
	kind tokenKind
	text string
	num  float64
	line int
	col  int
}

func (t token) String() string {
	switch t.kind {
	case tkEOF:
		return "end of script"
	case tkNewline:
		return "end of line"
	case tkString:
		return strconv.Quote(t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// lex splits a script into tokens. Newlines inside brackets are dropped so
// expressions may span lines; ';' is returned as a newline.
func lex(src string) ([]token, error) {
	var out []token
	rs := []rune(src)
	line, col := 1, 1
	depth := 0
	i := 0

	advance := func() rune {
		r := rs[i]
		i++
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		return r
	}

	for i < len(rs) {
		r := rs[i]
		startLine, startCol := line, col
		switch {
		case r == '#':
			for i < len(rs) && rs[i] != '\n' {
				advance()
			}
		case r == '\n' || r == ';':
			advance()
			if depth == 0 {
				out = append(out, token{kind: tkNewline, text: string(r), line: startLine, col: startCol})
			}
		case unicode.IsSpace(r):
			advance()
		case unicode.IsLetter(r) || r == '_':
			var sb strings.Builder
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_') {
				sb.WriteRune(advance())
			}
			out = append(out, token{kind: tkIdent, text: sb.String(), line: startLine, col: startCol})
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			var sb strings.Builder
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.' || rs[i] == 'e' || rs[i] == 'E' ||
				((rs[i] == '-' || rs[i] == '+') && sb.Len() > 0 && strings.ContainsAny(sb.String()[sb.Len()-1:], "eE"))) {
				sb.WriteRune(advance())
			}
			v, err := strconv.ParseFloat(sb.String(), 64)
			if err != nil {
				return nil, &ScriptError{Line: startLine, Col: startCol, Msg: fmt.Sprintf("bad number %q", sb.String())}
			}
			out = append(out, token{kind: tkNumber, text: sb.String(), num: v, line: startLine, col: startCol})
		case r == '\'' || r == '"':
			quote := advance()
			var sb strings.Builder
			closed := false
			for i < len(rs) {
				c := advance()
				if c == '\\' && i < len(rs) {
					sb.WriteRune(unescape(advance()))
					continue
				}
				if c == quote {
					closed = true
					break
				}
				if c == '\n' {
					break
				}
				sb.WriteRune(c)
			}
			if !closed {
				return nil, &ScriptError{Line: startLine, Col: startCol, Msg: "unterminated string"}
			}
			out = append(out, token{kind: tkString, text: sb.String(), line: startLine, col: startCol})
		case strings.ContainsRune("()[],:=+-*/", r):
			advance()
			switch r {
			case '(', '[':
				depth++
			case ')', ']':
				if depth > 0 {
					depth--
				}
			}
			out = append(out, token{kind: tkPunct, text: string(r), line: startLine, col: startCol})
		default:
			return nil, &ScriptError{Line: startLine, Col: startCol, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	out = append(out, token{kind: tkEOF, line: line, col: col})
	return out, nil
}

func unescape(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	default:
		return r
	}
}

// quote renders s as a single-quoted script string.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
