package scanner

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string // identifier name, punctuation or decoded literal value
	line int
	// bad is set on literals that are not terminated before the end of the file or line.
	bad bool
}

type comment struct {
	text    string
	endLine int
	// next is the index of the first token following the comment.
	next int
}

// lexer splits C-family sources (Go, Java, Kotlin, JavaScript, C) into the few tokens marker
// recognition needs. Everything that is not an identifier, a string literal or a comment is
// returned as single character punctuation.
type lexer struct {
	src  string
	pos  int
	line int

	tokens   []token
	comments []comment
}

func lex(src string) *lexer {
	l := &lexer{src: src, line: 1}
	l.run()
	return l
}

func (l *lexer) run() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			l.pos++
		case strings.HasPrefix(l.src[l.pos:], "//"):
			l.lineComment()
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			l.blockComment()
		case strings.HasPrefix(l.src[l.pos:], `"""`):
			l.rawString(`"""`)
		case c == '"' || c == '\'':
			l.quotedString(c)
		case c == '`':
			l.rawString("`")
		case isIdentStart(c):
			l.ident()
		case c >= utf8.RuneSelf:
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			if unicode.IsLetter(r) {
				l.ident()
				continue
			}
			l.pos += size
		default:
			l.tokens = append(l.tokens, token{kind: tokPunct, text: string(c), line: l.line})
			l.pos++
		}
	}
}

func (l *lexer) lineComment() {
	start := l.pos + 2
	end := strings.IndexByte(l.src[start:], '\n')
	if end < 0 {
		end = len(l.src)
	} else {
		end += start
	}
	l.addComment(strings.TrimSpace(l.src[start:end]), l.line, l.line)
	l.pos = end
}

func (l *lexer) blockComment() {
	startLine := l.line
	start := l.pos + 2
	end := strings.Index(l.src[start:], "*/")
	var body string
	if end < 0 {
		body = l.src[start:]
		l.pos = len(l.src)
	} else {
		body = l.src[start : start+end]
		l.pos = start + end + 2
	}
	l.line += strings.Count(body, "\n")

	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	l.addComment(strings.Join(lines, " "), startLine, l.line)
}

// addComment merges a comment into the previous one when both are on consecutive lines with
// no token in between.
func (l *lexer) addComment(text string, startLine, endLine int) {
	if n := len(l.comments); n > 0 {
		prev := &l.comments[n-1]
		if prev.endLine == startLine-1 && prev.next == len(l.tokens) {
			if text != "" && prev.text != "" {
				prev.text += " "
			}
			prev.text += text
			prev.endLine = endLine
			return
		}
	}
	l.comments = append(l.comments, comment{text: text, endLine: endLine, next: len(l.tokens)})
}

func (l *lexer) quotedString(quote byte) {
	line := l.line
	var b strings.Builder
	i := l.pos + 1
	for {
		if i >= len(l.src) || l.src[i] == '\n' {
			l.tokens = append(l.tokens, token{kind: tokString, text: b.String(), line: line, bad: true})
			l.pos = i
			return
		}
		c := l.src[i]
		if c == quote {
			l.pos = i + 1
			l.tokens = append(l.tokens, token{kind: tokString, text: b.String(), line: line})
			return
		}
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(l.src) && l.src[i+1] == '\n' {
			l.line++
		}
		i += unescape(&b, l.src[i:])
	}
}

func (l *lexer) rawString(delim string) {
	line := l.line
	start := l.pos + len(delim)
	end := strings.Index(l.src[start:], delim)
	if end < 0 {
		l.line += strings.Count(l.src[start:], "\n")
		l.tokens = append(l.tokens, token{kind: tokString, text: l.src[start:], line: line, bad: true})
		l.pos = len(l.src)
		return
	}
	body := l.src[start : start+end]
	l.line += strings.Count(body, "\n")
	l.tokens = append(l.tokens, token{kind: tokString, text: strings.ReplaceAll(body, "\r\n", "\n"), line: line})
	l.pos = start + end + len(delim)
}

func (l *lexer) ident() {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		l.pos += size
	}
	l.tokens = append(l.tokens, token{kind: tokIdent, text: l.src[start:l.pos], line: l.line})
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// unescape decodes the escape sequence at the start of s into b and returns its length.
func unescape(b *strings.Builder, s string) int {
	if len(s) < 2 {
		return len(s)
	}
	switch s[1] {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'a':
		b.WriteByte('\a')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case 'u':
		if len(s) >= 6 {
			if v, err := strconv.ParseUint(s[2:6], 16, 32); err == nil {
				b.WriteRune(rune(v))
				return 6
			}
		}
		b.WriteByte('u')
	case 'x':
		if len(s) >= 4 {
			if v, err := strconv.ParseUint(s[2:4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				return 4
			}
		}
		b.WriteByte('x')
	case '\n':
		// Line continuation.
	default:
		b.WriteByte(s[1])
	}
	return 2
}
