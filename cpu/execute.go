// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"log"
)

// FetchCode fetches the instruction at the PC.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	if int(cpu.Pc)+1 >= MEMORY_SIZE {
		err = ErrAddressOutOfRange
		return
	}

	hi := uint16(cpu.Memory[cpu.Pc])
	lo := uint16(cpu.Memory[cpu.Pc+1])
	code = Code((hi << 8) | lo)

	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)

	return
}

// checkRange verifies that count bytes starting at addr are inside memory.
func checkRange(addr uint16, count int) (err error) {
	if int(addr)+count > MEMORY_SIZE {
		err = ErrAddressOutOfRange
	}
	return
}

// Execute executes a single decoded instruction, as if fetched from the PC.
// On error, no CPU state is modified.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()
	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Pc, code)
	}

	next_pc := cpu.Pc + OPCODE_SIZE

	x := code.X()
	y := code.Y()
	vx := cpu.Register[x]
	vy := cpu.Register[y]

	switch code.Family() {
	case OP_NOP:
		// pass
	case OP_CLS:
		cpu.display.Clear()
	case OP_RET:
		next_pc, err = cpu.Stack.Pop()
		if err != nil {
			return
		}
	case OP_JP:
		next_pc = code.NNN()
	case OP_CALL:
		err = cpu.Stack.Push(next_pc)
		if err != nil {
			return
		}
		next_pc = code.NNN()
	case OP_SE_BYTE:
		if vx == code.KK() {
			next_pc += OPCODE_SIZE
		}
	case OP_SNE_BYTE:
		if vx != code.KK() {
			next_pc += OPCODE_SIZE
		}
	case OP_SE_REG:
		if vx == vy {
			next_pc += OPCODE_SIZE
		}
	case OP_SNE_REG:
		if vx != vy {
			next_pc += OPCODE_SIZE
		}
	case OP_LD_BYTE:
		cpu.Register[x] = code.KK()
	case OP_ADD_BYTE:
		cpu.Register[x] = vx + code.KK()
	case OP_LD_REG:
		cpu.Register[x] = vy
	case OP_OR:
		cpu.Register[x] = vx | vy
	case OP_AND:
		cpu.Register[x] = vx & vy
	case OP_XOR:
		cpu.Register[x] = vx ^ vy
	case OP_ADD_REG:
		sum := uint16(vx) + uint16(vy)
		cpu.Register[x] = byte(sum)
		cpu.setFlag(sum > 0xff)
	case OP_SUB:
		cpu.Register[x] = vx - vy
		cpu.setFlag(vx >= vy)
	case OP_SUBN:
		cpu.Register[x] = vy - vx
		cpu.setFlag(vy >= vx)
	case OP_SHR:
		cpu.Register[x] = vx >> 1
		cpu.Register[VF] = vx & 0x01
	case OP_SHL:
		cpu.Register[x] = vx << 1
		cpu.Register[VF] = (vx >> 7) & 0x01
	case OP_LD_I:
		cpu.I = code.NNN()
	case OP_JP_V0:
		next_pc = code.NNN() + uint16(cpu.Register[V0])
	case OP_RND:
		random := cpu.Random
		if random == nil {
			random = randomByte
		}
		cpu.Register[x] = random() & code.KK()
	case OP_DRW:
		err = cpu.draw(vx, vy, code.N())
		if err != nil {
			return
		}
	case OP_SKP, OP_SKNP:
		if int(vx) >= KEY_COUNT {
			err = ErrKeyOutOfRange
			return
		}
		if cpu.Keypad[vx] == (code.Family() == OP_SKP) {
			next_pc += OPCODE_SIZE
		}
	case OP_LD_VX_DT:
		cpu.Register[x] = cpu.Delay
	case OP_LD_VX_K:
		pressed := false
		for key, down := range cpu.Keypad {
			if down {
				cpu.Register[x] = byte(key)
				pressed = true
				break
			}
		}
		if !pressed {
			// Re-execute on the next tick.
			next_pc = cpu.Pc
		}
	case OP_LD_DT_VX:
		cpu.Delay = vx
	case OP_LD_ST_VX:
		cpu.Sound = vx
	case OP_ADD_I_VX:
		cpu.I += uint16(vx)
	case OP_LD_F_VX:
		cpu.I = FONT_BASE + uint16(vx)*FONT_GLYPH_SIZE
	case OP_LD_B_VX:
		err = checkRange(cpu.I, 3)
		if err != nil {
			return
		}
		cpu.Memory[cpu.I+0] = vx / 100
		cpu.Memory[cpu.I+1] = (vx / 10) % 10
		cpu.Memory[cpu.I+2] = vx % 10
	case OP_LD_MEM_VX:
		err = checkRange(cpu.I, int(x)+1)
		if err != nil {
			return
		}
		copy(cpu.Memory[cpu.I:], cpu.Register[:x+1])
	case OP_LD_VX_MEM:
		err = checkRange(cpu.I, int(x)+1)
		if err != nil {
			return
		}
		copy(cpu.Register[:x+1], cpu.Memory[cpu.I:])
	default:
		err = ErrUnsupportedOpcode
		return
	}

	cpu.Pc = next_pc
	cpu.Ticks++

	return
}

// setFlag sets vf to 1 or 0.
func (cpu *Cpu) setFlag(flag bool) {
	if flag {
		cpu.Register[VF] = 1
	} else {
		cpu.Register[VF] = 0
	}
}

// draw XORs an n row sprite from memory at I onto the display at (col, row).
// Coordinates wrap at the display edges. vf is set if any lit pixel was
// turned off.
func (cpu *Cpu) draw(col, row byte, rows uint8) (err error) {
	err = checkRange(cpu.I, int(rows))
	if err != nil {
		return
	}

	collision := false
	for dy := range int(rows) {
		sprite := cpu.Memory[int(cpu.I)+dy]
		for dx := range 8 {
			if sprite&(0x80>>dx) == 0 {
				continue
			}
			if cpu.display.flip(int(col)+dx, int(row)+dy) {
				collision = true
			}
		}
	}

	cpu.setFlag(collision)

	return
}
