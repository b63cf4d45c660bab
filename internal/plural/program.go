package plural

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Op is an instruction of a compiled rule. OpPush, OpJumpIfZero and OpJump are followed by a
// little-endian uint32 operand; jump operands are absolute offsets in the program.
type Op byte

// Instructions of the plural stack machine.
const (
	OpN Op = iota + 1
	OpPush
	OpNot
	OpMul
	OpDiv
	OpMod
	OpAdd
	OpSub
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpAnd
	OpOr
	OpJumpIfZero
	OpJump
)

func (op Op) hasOperand() bool {
	return op == OpPush || op == OpJumpIfZero || op == OpJump
}

// Program is the byte code of a compiled rule.
type Program []byte

var errStack = errors.New("invalid plural program: stack underflow")

// Eval runs the program for n.
func (p Program) Eval(n uint32) (int64, error) {
	var stack []int64
	pop := func() (int64, error) {
		if len(stack) == 0 {
			return 0, errStack
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	for pc := 0; pc < len(p); {
		op := Op(p[pc])
		pc++

		var operand uint32
		if op.hasOperand() {
			if pc+4 > len(p) {
				return 0, fmt.Errorf("invalid plural program: truncated operand at %d", pc)
			}
			operand = binary.LittleEndian.Uint32(p[pc:])
			pc += 4
		}

		switch op {
		case OpN:
			stack = append(stack, int64(n))
			continue
		case OpPush:
			stack = append(stack, int64(operand))
			continue
		case OpJump:
			pc = int(operand)
			continue
		case OpJumpIfZero:
			v, err := pop()
			if err != nil {
				return 0, err
			}
			if v == 0 {
				pc = int(operand)
			}
			continue
		case OpNot:
			v, err := pop()
			if err != nil {
				return 0, err
			}
			stack = append(stack, boolToInt(v == 0))
			continue
		}

		b, err := pop()
		if err != nil {
			return 0, err
		}
		a, err := pop()
		if err != nil {
			return 0, err
		}
		var r int64
		switch op {
		case OpMul:
			r = a * b
		case OpDiv:
			if b != 0 {
				r = a / b
			}
		case OpMod:
			if b != 0 {
				r = a % b
			}
		case OpAdd:
			r = a + b
		case OpSub:
			r = a - b
		case OpLt:
			r = boolToInt(a < b)
		case OpLe:
			r = boolToInt(a <= b)
		case OpGt:
			r = boolToInt(a > b)
		case OpGe:
			r = boolToInt(a >= b)
		case OpEq:
			r = boolToInt(a == b)
		case OpNe:
			r = boolToInt(a != b)
		case OpAnd:
			r = boolToInt(a != 0 && b != 0)
		case OpOr:
			r = boolToInt(a != 0 || b != 0)
		default:
			return 0, fmt.Errorf("invalid plural program: unknown instruction %d at %d", op, pc-1)
		}
		stack = append(stack, r)
	}

	if len(stack) != 1 {
		return 0, fmt.Errorf("invalid plural program: %d values left on the stack", len(stack))
	}
	return stack[0], nil
}

// validate checks that instructions are known, operands complete and jumps go forward to an
// instruction boundary. Forward-only jumps guarantee that evaluation terminates.
func (p Program) validate() error {
	if len(p) == 0 {
		return errors.New("invalid plural program: empty")
	}

	boundaries := make(map[int]bool)
	var jumps [][2]int
	for pc := 0; pc < len(p); {
		boundaries[pc] = true
		op := Op(p[pc])
		if op < OpN || op > OpJump {
			return fmt.Errorf("invalid plural program: unknown instruction %d at %d", op, pc)
		}
		start := pc
		pc++
		if op.hasOperand() {
			if pc+4 > len(p) {
				return fmt.Errorf("invalid plural program: truncated operand at %d", pc)
			}
			if op != OpPush {
				jumps = append(jumps, [2]int{start, int(binary.LittleEndian.Uint32(p[pc:]))})
			}
			pc += 4
		}
	}
	boundaries[len(p)] = true

	for _, j := range jumps {
		if j[1] <= j[0] || !boundaries[j[1]] {
			return fmt.Errorf("invalid plural program: bad jump target %d at %d", j[1], j[0])
		}
	}

	for _, n := range []uint32{0, 1, 2, 5, 11, 21, 101, 1000} {
		if _, err := p.Eval(n); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
