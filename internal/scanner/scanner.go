// Package scanner extracts translatable string occurrences from source files.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/log"
)

// ExtractionWarning reports a marker call that could not be extracted. The occurrence is skipped.
type ExtractionWarning struct {
	Location catalog.Location
	Marker   string
	Msg      string
}

func (w ExtractionWarning) Error() string {
	return fmt.Sprintf("%s: %s: %s", w.Location, w.Marker, w.Msg)
}

// Scanner finds marker calls in source files.
type Scanner struct {
	// Root makes reported file names relative to it, using forward slashes.
	Root string
	// Markers overrides DefaultMarkers.
	Markers []Marker
}

// Scan calls fn for every occurrence found in files, in file order then textual order.
// Malformed marker calls are returned as warnings. Only I/O failures and cancellation are errors.
func (s Scanner) Scan(ctx context.Context, files []string, fn func(catalog.Occurrence)) (warnings []ExtractionWarning, err error) {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return warnings, err
		}

		src, err := os.ReadFile(f)
		if err != nil {
			return warnings, fmt.Errorf("could not read source file: %v", err)
		}

		name := s.relative(f)
		w := s.ScanSource(name, string(src), fn)
		for _, warn := range w {
			log.Warningf(ctx, "Skipping translatable string: %v", warn)
		}
		log.Debugf(ctx, "Scanned %s", name)
		warnings = append(warnings, w...)
	}

	return warnings, nil
}

// ScanSource extracts occurrences from the content of one file reported as name.
func (s Scanner) ScanSource(name, src string, fn func(catalog.Occurrence)) (warnings []ExtractionWarning) {
	markers := s.Markers
	if markers == nil {
		markers = DefaultMarkers
	}
	byName := make(map[string]Marker, len(markers))
	for _, m := range markers {
		byName[m.Name] = m
	}

	l := lex(src)
	toks := l.tokens
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind != tokIdent {
			continue
		}
		m, ok := byName[t.text]
		if !ok || i+1 >= len(toks) || !isPunct(toks[i+1], "(") || isDeclaration(toks, i) {
			continue
		}

		loc := catalog.Location{File: name, Line: t.line}
		occ, warn := extract(m, toks, i+2)
		if warn != "" {
			warnings = append(warnings, ExtractionWarning{Location: loc, Marker: m.Name, Msg: warn})
			continue
		}
		occ.Location = loc
		occ.Comment = commentFor(l.comments, toks, i)
		fn(occ)
	}

	return warnings
}

func (s Scanner) relative(path string) string {
	if s.Root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(s.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// keywords that may precede a call expression.
var callPrefixes = map[string]bool{
	"return": true, "case": true, "throw": true, "else": true, "yield": true,
	"await": true, "go": true, "defer": true, "in": true,
}

// isDeclaration reports whether the identifier at i names a function being declared
// (func tr(...), fun tr(...), String tr(...), func (a *App) tr(...)). Members of other
// values (x.tr(...)) are still calls.
func isDeclaration(toks []token, i int) bool {
	if i == 0 {
		return false
	}
	prev := toks[i-1]
	if isPunct(prev, ")") {
		return isMethodReceiver(toks, i-1)
	}
	return prev.kind == tokIdent && !callPrefixes[prev.text]
}

// isMethodReceiver reports whether the ")" at end closes the receiver of a Go method declaration.
func isMethodReceiver(toks []token, end int) bool {
	depth := 0
	for j := end; j >= 0; j-- {
		switch {
		case isPunct(toks[j], ")"):
			depth++
		case isPunct(toks[j], "("):
			depth--
			if depth == 0 {
				return j > 0 && toks[j-1].kind == tokIdent && toks[j-1].text == "func"
			}
		}
	}
	return false
}

// extract parses the arguments of a marker call starting at the token following "(".
func extract(m Marker, toks []token, i int) (catalog.Occurrence, string) {
	var occ catalog.Occurrence

	args, ok := splitArgs(toks, i)
	if !ok {
		return occ, "unterminated call"
	}

	required := 0
	for n, r := range m.Args {
		if r != Ignored {
			required = n + 1
		}
	}
	if len(args) < required {
		return occ, fmt.Sprintf("expected at least %d arguments, got %d", required, len(args))
	}

	for n, role := range m.Args {
		if !m.needsLiteral(n) {
			continue
		}
		value, msg := literal(args[n])
		if msg != "" {
			return occ, fmt.Sprintf("argument %d: %s", n+1, msg)
		}
		switch role {
		case Context:
			occ.Key.Context = value
		case Singular:
			occ.Key.Singular = value
		case Plural:
			occ.Key.Plural = value
		}
	}

	if occ.Key.Singular == "" {
		return occ, "empty source string"
	}
	for _, v := range []string{occ.Key.Context, occ.Key.Singular, occ.Key.Plural} {
		if strings.Contains(v, catalog.ContextSeparator) || strings.Contains(v, catalog.PluralSeparator) {
			return occ, "string contains a reserved control character"
		}
	}
	if m.hasRole(Plural) && occ.Key.Plural == "" {
		return occ, "empty plural form"
	}

	return occ, ""
}

func (m Marker) hasRole(r Role) bool {
	for _, a := range m.Args {
		if a == r {
			return true
		}
	}
	return false
}

// splitArgs returns the top level arguments of a call, up to its closing parenthesis.
func splitArgs(toks []token, i int) (args [][]token, ok bool) {
	depth := 0
	var cur []token
	for ; i < len(toks); i++ {
		t := toks[i]
		if t.kind == tokPunct {
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth == 0 {
					if len(cur) > 0 || len(args) > 0 {
						args = append(args, cur)
					}
					return args, true
				}
				depth--
			case ",":
				if depth == 0 {
					args = append(args, cur)
					cur = nil
					continue
				}
			}
		}
		cur = append(cur, t)
	}
	return nil, false
}

// literal returns the value of an argument made of string literals joined with "+".
func literal(arg []token) (string, string) {
	if len(arg) == 0 {
		return "", "missing argument"
	}
	var b strings.Builder
	for n, t := range arg {
		if n%2 == 1 {
			if !isPunct(t, "+") {
				return "", "not a string literal"
			}
			continue
		}
		if t.kind != tokString {
			return "", "not a string literal"
		}
		if t.bad {
			return "", "unterminated string literal"
		}
		b.WriteString(t.text)
	}
	if len(arg)%2 == 0 {
		return "", "not a string literal"
	}
	return b.String(), ""
}

// commentFor returns the comment ending on the marker line or the line before it, provided
// nothing but tokens of the marker line separate them.
func commentFor(comments []comment, toks []token, i int) string {
	line := toks[i].line
	for n := len(comments) - 1; n >= 0; n-- {
		c := comments[n]
		if c.next > i {
			continue
		}
		if c.endLine != line && c.endLine != line-1 {
			return ""
		}
		for _, t := range toks[c.next:i] {
			if t.line != line {
				return ""
			}
		}
		return c.text
	}
	return ""
}

func isPunct(t token, s string) bool {
	return t.kind == tokPunct && t.text == s
}
