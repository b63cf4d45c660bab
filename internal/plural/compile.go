package plural

import (
	"encoding/binary"
	"fmt"
)

// compiler is a recursive descent parser over the C subset allowed in Plural-Forms
// expressions, emitting stack code while it parses.
type compiler struct {
	tokens []token
	pos    int
	code   Program
}

func compile(expr string) (Program, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	c := compiler{tokens: tokens}
	if err := c.ternary(); err != nil {
		return nil, err
	}
	if t := c.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at %d", t.text, t.pos)
	}
	return c.code, nil
}

func (c *compiler) peek() token {
	return c.tokens[c.pos]
}

func (c *compiler) accept(ops ...string) (string, bool) {
	t := c.peek()
	if t.kind != tokOperator {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			c.pos++
			return op, true
		}
	}
	return "", false
}

func (c *compiler) expect(op string) error {
	if _, ok := c.accept(op); ok {
		return nil
	}
	t := c.peek()
	if t.kind == tokEOF {
		return fmt.Errorf("%w: expected %q", errUnexpectedEnd, op)
	}
	return fmt.Errorf("expected %q at %d, got %q", op, t.pos, t.text)
}

func (c *compiler) emit(op Op) {
	c.code = append(c.code, byte(op))
}

func (c *compiler) emitOperand(op Op, v uint32) int {
	c.emit(op)
	at := len(c.code)
	c.code = binary.LittleEndian.AppendUint32(c.code, v)
	return at
}

func (c *compiler) patch(at int) {
	binary.LittleEndian.PutUint32(c.code[at:], uint32(len(c.code)))
}

// ternary := or ( "?" ternary ":" ternary )?
func (c *compiler) ternary() error {
	if err := c.or(); err != nil {
		return err
	}
	if _, ok := c.accept("?"); !ok {
		return nil
	}
	jz := c.emitOperand(OpJumpIfZero, 0)
	if err := c.ternary(); err != nil {
		return err
	}
	jmp := c.emitOperand(OpJump, 0)
	if err := c.expect(":"); err != nil {
		return err
	}
	c.patch(jz)
	if err := c.ternary(); err != nil {
		return err
	}
	c.patch(jmp)
	return nil
}

func (c *compiler) binop(next func() error, ops map[string]Op) error {
	if err := next(); err != nil {
		return err
	}
	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	for {
		op, ok := c.accept(keys...)
		if !ok {
			return nil
		}
		if err := next(); err != nil {
			return err
		}
		c.emit(ops[op])
	}
}

func (c *compiler) or() error {
	return c.binop(c.and, map[string]Op{"||": OpOr})
}

func (c *compiler) and() error {
	return c.binop(c.equality, map[string]Op{"&&": OpAnd})
}

func (c *compiler) equality() error {
	return c.binop(c.relational, map[string]Op{"==": OpEq, "!=": OpNe})
}

func (c *compiler) relational() error {
	return c.binop(c.additive, map[string]Op{"<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe})
}

func (c *compiler) additive() error {
	return c.binop(c.multiplicative, map[string]Op{"+": OpAdd, "-": OpSub})
}

func (c *compiler) multiplicative() error {
	return c.binop(c.unary, map[string]Op{"*": OpMul, "/": OpDiv, "%": OpMod})
}

func (c *compiler) unary() error {
	if _, ok := c.accept("!"); ok {
		if err := c.unary(); err != nil {
			return err
		}
		c.emit(OpNot)
		return nil
	}
	return c.primary()
}

func (c *compiler) primary() error {
	t := c.peek()
	switch t.kind {
	case tokN:
		c.pos++
		c.emit(OpN)
		return nil
	case tokNumber:
		c.pos++
		c.emitOperand(OpPush, t.value)
		return nil
	case tokEOF:
		return errUnexpectedEnd
	}
	if _, ok := c.accept("("); ok {
		if err := c.ternary(); err != nil {
			return err
		}
		return c.expect(")")
	}
	return fmt.Errorf("unexpected %q at %d", t.text, t.pos)
}
