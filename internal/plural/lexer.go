package plural

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokN
	tokNumber
	tokOperator
)

type token struct {
	kind  tokenKind
	text  string
	value uint32
	pos   int
}

// operators sorted so that two-character ones are matched first.
var operators = []string{"||", "&&", "==", "!=", "<=", ">=", "<", ">", "+", "-", "*", "/", "%", "!", "?", ":", "(", ")"}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == 'n':
			tokens = append(tokens, token{kind: tokN, text: "n", pos: i})
			i++
		case c >= '0' && c <= '9':
			start := i
			for i < len(expr) && expr[i] >= '0' && expr[i] <= '9' {
				i++
			}
			v, err := strconv.ParseUint(expr[start:i], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("number %q at %d is out of range", expr[start:i], start)
			}
			tokens = append(tokens, token{kind: tokNumber, text: expr[start:i], value: uint32(v), pos: start})
		default:
			matched := false
			for _, op := range operators {
				if len(expr)-i >= len(op) && expr[i:i+len(op)] == op {
					tokens = append(tokens, token{kind: tokOperator, text: op, pos: i})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("unexpected character %q at %d", c, i)
			}
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(expr)}), nil
}
