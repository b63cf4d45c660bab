// Package plural compiles gettext Plural-Forms rules into a small stack program that selects
// the plural slot for a count without re-parsing the textual rule.
package plural

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxForms is the highest number of plural forms a rule may declare.
const MaxForms = 255

// DefaultRule is used by catalogs that do not declare a Plural-Forms header.
const DefaultRule = "nplurals=2; plural=(n != 1);"

// Rule is a compiled Plural-Forms rule.
type Rule struct {
	NPlurals int
	Expr     string

	program Program
}

// Parse compiles a Plural-Forms header value such as "nplurals=2; plural=(n != 1);".
func Parse(rule string) (*Rule, error) {
	var (
		r           Rule
		hasNPlurals bool
		hasPlural   bool
	)

	for _, part := range strings.Split(rule, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("invalid plural forms %q: %q is not an assignment", rule, part)
		}
		switch strings.TrimSpace(name) {
		case "nplurals":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid plural forms %q: nplurals is not a number", rule)
			}
			if n < 1 || n > MaxForms {
				return nil, fmt.Errorf("invalid plural forms %q: nplurals must be between 1 and %d", rule, MaxForms)
			}
			r.NPlurals = n
			hasNPlurals = true
		case "plural":
			r.Expr = strings.TrimSpace(value)
			hasPlural = true
		default:
			return nil, fmt.Errorf("invalid plural forms %q: unknown field %q", rule, name)
		}
	}

	if !hasNPlurals {
		return nil, fmt.Errorf("invalid plural forms %q: missing nplurals", rule)
	}
	if !hasPlural {
		return nil, fmt.Errorf("invalid plural forms %q: missing plural expression", rule)
	}

	p, err := compile(r.Expr)
	if err != nil {
		return nil, fmt.Errorf("invalid plural forms %q: %v", rule, err)
	}
	r.program = p

	return &r, nil
}

// Default returns the rule of Germanic languages, used when a catalog declares none.
func Default() *Rule {
	r, err := Parse(DefaultRule)
	if err != nil {
		panic("default plural rule does not compile: " + err.Error())
	}
	return r
}

// Load rebuilds a rule from a compiled program, validating it first.
func Load(nplurals int, code []byte) (*Rule, error) {
	if nplurals < 1 || nplurals > MaxForms {
		return nil, fmt.Errorf("invalid number of plural forms %d", nplurals)
	}
	p := Program(code)
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Rule{NPlurals: nplurals, program: append(Program(nil), p...)}, nil
}

// Program returns the compiled form of the rule.
func (r *Rule) Program() Program {
	return r.program
}

// Index returns the plural slot to use for n, always in [0, NPlurals).
func (r *Rule) Index(n uint32) int {
	v, err := r.program.Eval(n)
	if err != nil || v < 0 {
		return 0
	}
	if v >= int64(r.NPlurals) {
		return r.NPlurals - 1
	}
	return int(v)
}

func (r *Rule) String() string {
	if r.Expr == "" {
		return fmt.Sprintf("nplurals=%d; (compiled)", r.NPlurals)
	}
	return fmt.Sprintf("nplurals=%d; plural=%s;", r.NPlurals, r.Expr)
}

var errUnexpectedEnd = errors.New("unexpected end of expression")
