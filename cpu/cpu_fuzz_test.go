package cpu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var fuzzErrors = []error{
	ErrStackOverflow,
	ErrStackUnderflow,
	ErrAddressOutOfRange,
	ErrUnsupportedOpcode,
	ErrKeyOutOfRange,
}

func FuzzCpu(f *testing.F) {
	for rv := range 0x10 {
		f.Add(uint16(rv<<12), uint16(0xfff), byte(rv), uint8(rv))
		f.Add(uint16(rv<<12|0xfff), uint16(0xffe), byte(0xff), uint8(0))
		f.Add(uint16(rv<<12|0x0ee), uint16(0x300), byte(0x10), uint8(STACK_LIMIT))
	}

	f.Fuzz(func(t *testing.T, opcode uint16, index uint16, value byte, depth uint8) {
		assert := assert.New(t)

		code := Code(opcode)

		cpu := NewCpu()
		cpu.Random = func() byte { return value ^ 0x5a }
		cpu.Pc = 0x3a4
		cpu.I = index
		for n := range REGISTER_COUNT {
			cpu.Register[n] = value + byte(n)
		}
		for n := range int(depth) % (STACK_LIMIT + 1) {
			assert.NoError(cpu.Stack.Push(uint16(0x200 + 2*n)))
		}
		cpu.Keypad[value&0xf] = true
		cpu.Delay = value
		cpu.Sound = value >> 1

		before := state(cpu)
		err := cpu.Execute(code)

		code_str := fmt.Sprintf("0x%04x (%v) i:0x%03x value:0x%02x depth:%d\ncpu:%v",
			opcode, code, index, value, depth, cpu.String())

		if err != nil {
			assert.True(errors.Is(err, ErrOpcode(code)), code_str)
			known := false
			for _, sentinel := range fuzzErrors {
				if errors.Is(err, sentinel) {
					known = true
					break
				}
			}
			assert.True(known, "%v: %v", code_str, err)
			assert.Equal(before, state(cpu), code_str)
			return
		}

		assert.NotEqual(OP_UNKNOWN, code.Family(), code_str)
		assert.Equal(before.Ticks+1, cpu.Ticks, code_str)
		assert.LessOrEqual(cpu.Stack.Depth(), STACK_LIMIT, code_str)

		// Only the destination register and the flag may change.
		x := code.X()
		for n := range REGISTER_COUNT {
			reg := Register(n)
			if reg == x || reg == VF {
				continue
			}
			switch code.Family() {
			case OP_LD_VX_MEM:
				if reg < x {
					continue
				}
			}
			assert.Equal(before.Register[n], cpu.Register[n], "%v: %v", code_str, reg)
		}

		switch code.Family() {
		case OP_JP, OP_CALL:
			assert.Equal(code.NNN(), cpu.Pc, code_str)
		case OP_JP_V0:
			assert.Equal(code.NNN()+uint16(before.Register[V0]), cpu.Pc, code_str)
		case OP_RET:
			assert.Equal(before.Stack.Depth()-1, cpu.Stack.Depth(), code_str)
		case OP_SE_BYTE, OP_SNE_BYTE, OP_SE_REG, OP_SNE_REG, OP_SKP, OP_SKNP:
			pc_delta := cpu.Pc - before.Pc
			assert.True(pc_delta == 2 || pc_delta == 4, code_str)
		case OP_LD_VX_K:
			// A key is always held down.
			assert.Equal(before.Pc+2, cpu.Pc, code_str)
			assert.Equal(value&0xf, cpu.Register[x], code_str)
		case OP_RND:
			assert.Equal((value^0x5a)&code.KK(), cpu.Register[x], code_str)
		default:
			assert.Equal(before.Pc+2, cpu.Pc, code_str)
		}
	})
}
