package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCpuLdByte(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	for x := range REGISTER_COUNT {
		value := byte(0x11 * x)
		err := cpu.Execute(MakeCode(0x6, uint8(x), 0, 0) | Code(value))
		assert.NoError(err)

		got, err := cpu.GetRegister(x)
		assert.NoError(err)
		assert.Equal(value, got, "v%x", x)
	}

	assert.Equal(uint16(PROGRAM_START+REGISTER_COUNT*OPCODE_SIZE), cpu.Pc)
	assert.Equal(REGISTER_COUNT, cpu.Ticks)
}

func TestCpuAddByte(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Register[VF] = 0x33
	cpu.Register[V2] = 0xf0

	assert.NoError(cpu.Execute(0x7220))
	assert.Equal(byte(0x10), cpu.Register[V2])
	// No flag change on immediate add.
	assert.Equal(byte(0x33), cpu.Register[VF])
}

func TestCpuAddReg(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		vx, vy byte
		sum    byte
		flag   byte
	}){
		{0xb7, 0x9d, 0x54, 1},
		{0xb7, 0x1f, 0xd6, 0},
		{0xff, 0x01, 0x00, 1},
		{0x00, 0x00, 0x00, 0},
	}

	for _, entry := range table {
		cpu := NewCpu()
		cpu.Register[V1] = entry.vx
		cpu.Register[V2] = entry.vy

		assert.NoError(cpu.Execute(0x8124))
		assert.Equal(entry.sum, cpu.Register[V1])
		assert.Equal(entry.vy, cpu.Register[V2])
		assert.Equal(entry.flag, cpu.Register[VF])
	}
}

func TestCpuSub(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code   Code
		vx, vy byte
		result byte
		flag   byte
	}){
		{0x8125, 0xb7, 0x1f, 0x98, 1},
		{0x8125, 0xa0, 0xb5, 0xeb, 0},
		{0x8125, 0x42, 0x42, 0x00, 1},
		{0x8127, 0x1f, 0xb7, 0x98, 1},
		{0x8127, 0xb5, 0xa0, 0xeb, 0},
	}

	for _, entry := range table {
		cpu := NewCpu()
		cpu.Register[V1] = entry.vx
		cpu.Register[V2] = entry.vy

		assert.NoError(cpu.Execute(entry.code))
		assert.Equal(entry.result, cpu.Register[V1], "%v", entry.code)
		assert.Equal(entry.flag, cpu.Register[VF], "%v", entry.code)
	}
}

func TestCpuShift(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code   Code
		vx     byte
		result byte
		flag   byte
	}){
		{0x8306, 0b10101010, 0b01010101, 0},
		{0x8306, 0b01010101, 0b00101010, 1},
		{0x830e, 0b10101010, 0b01010100, 1},
		{0x830e, 0b01010101, 0b10101010, 0},
	}

	for _, entry := range table {
		cpu := NewCpu()
		cpu.Register[V3] = entry.vx

		assert.NoError(cpu.Execute(entry.code))
		assert.Equal(entry.result, cpu.Register[V3], "%v", entry.code)
		assert.Equal(entry.flag, cpu.Register[VF], "%v", entry.code)
	}
}

func TestCpuFlagWrittenLast(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Register[VF] = 0xff
	cpu.Register[V1] = 0x01

	// add vf, v1: the carry wins over the sum.
	assert.NoError(cpu.Execute(0x8f14))
	assert.Equal(byte(1), cpu.Register[VF])

	cpu.Register[VF] = 0x81
	assert.NoError(cpu.Execute(0x8f06))
	assert.Equal(byte(1), cpu.Register[VF])
}

func TestCpuLogic(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Register[V0] = 0b1100
	cpu.Register[V1] = 0b1010

	assert.NoError(cpu.Execute(0x8011))
	assert.Equal(byte(0b1110), cpu.Register[V0])

	cpu.Register[V0] = 0b1100
	assert.NoError(cpu.Execute(0x8012))
	assert.Equal(byte(0b1000), cpu.Register[V0])

	cpu.Register[V0] = 0b1100
	assert.NoError(cpu.Execute(0x8013))
	assert.Equal(byte(0b0110), cpu.Register[V0])

	assert.NoError(cpu.Execute(0x8010))
	assert.Equal(byte(0b1010), cpu.Register[V0])
}

func TestCpuSkip(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code Code
		skip bool
	}){
		{0x3005, true},  // se v0, 5
		{0x3006, false}, // se v0, 6
		{0x4005, false}, // sne v0, 5
		{0x4006, true},  // sne v0, 6
		{0x5010, true},  // se v0, v1
		{0x5120, false}, // se v1, v2
		{0x9010, false}, // sne v0, v1
		{0x9120, true},  // sne v1, v2
	}

	for _, entry := range table {
		cpu := NewCpu()
		cpu.Register[V0] = 5
		cpu.Register[V1] = 5
		cpu.Register[V2] = 6

		assert.NoError(cpu.Execute(entry.code))
		expected := uint16(PROGRAM_START + OPCODE_SIZE)
		if entry.skip {
			expected += OPCODE_SIZE
		}
		assert.Equal(expected, cpu.Pc, "%v", entry.code)
	}
}

func TestCpuJump(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.NoError(cpu.Execute(0x1456))
	assert.Equal(uint16(0x456), cpu.Pc)

	cpu.Register[V0] = 0x10
	assert.NoError(cpu.Execute(0xb300))
	assert.Equal(uint16(0x310), cpu.Pc)
}

func TestCpuCallRet(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Pc = 0x234
	depth := cpu.Stack.Depth()

	assert.NoError(cpu.Execute(0x2800))
	assert.Equal(uint16(0x800), cpu.Pc)
	assert.Equal(depth+1, cpu.Stack.Depth())

	assert.NoError(cpu.Execute(0x00ee))
	assert.Equal(uint16(0x236), cpu.Pc)
	assert.Equal(depth, cpu.Stack.Depth())
}

func TestCpuStackErrors(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()

	err := cpu.Execute(0x00ee)
	assert.ErrorIs(err, ErrStackUnderflow)
	assert.ErrorIs(err, ErrOpcode(0))
	assert.Equal(uint16(PROGRAM_START), cpu.Pc)
	assert.Equal(0, cpu.Ticks)

	for range STACK_LIMIT {
		assert.NoError(cpu.Execute(0x2400))
	}

	before := state(cpu)
	err = cpu.Execute(0x2400)
	assert.ErrorIs(err, ErrStackOverflow)
	assert.Equal(before, state(cpu))
}

func TestCpuLdI(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.NoError(cpu.Execute(0xa123))
	assert.Equal(uint16(0x123), cpu.I)

	cpu.Register[V4] = 0x10
	assert.NoError(cpu.Execute(0xf41e))
	assert.Equal(uint16(0x133), cpu.I)

	cpu.I = 0xffff
	cpu.Register[V4] = 0x02
	assert.NoError(cpu.Execute(0xf41e))
	assert.Equal(uint16(0x0001), cpu.I)
}

func TestCpuRnd(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Random = func() byte { return 0xa5 }

	assert.NoError(cpu.Execute(0xc70f))
	assert.Equal(byte(0x05), cpu.Register[V7])

	assert.NoError(cpu.Execute(0xc7ff))
	assert.Equal(byte(0xa5), cpu.Register[V7])
}

func TestCpuDrawCollision(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.I = 0x300
	cpu.Memory[0x300] = 0b11110000
	cpu.Memory[0x301] = 0b10010000
	cpu.Register[V0] = 10
	cpu.Register[V1] = 5

	assert.NoError(cpu.Execute(0xd012))
	assert.Equal(byte(0), cpu.Register[VF])

	display := cpu.Display()
	assert.Equal(6, display.Lit())
	assert.True(display.Pixel(10, 5))
	assert.True(display.Pixel(13, 5))
	assert.False(display.Pixel(11, 6))
	assert.True(display.Pixel(13, 6))

	assert.NoError(cpu.Execute(0xd012))
	assert.Equal(byte(1), cpu.Register[VF])

	display = cpu.Display()
	assert.Equal(0, display.Lit())
}

func TestCpuDrawWrap(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.I = 0x300
	cpu.Memory[0x300] = 0b11000000
	cpu.Memory[0x301] = 0b11000000
	cpu.Register[V0] = 63
	cpu.Register[V1] = 31

	assert.NoError(cpu.Execute(0xd012))
	assert.Equal(byte(0), cpu.Register[VF])

	display := cpu.Display()
	assert.Equal(4, display.Lit())
	assert.True(display.Pixel(63, 31))
	assert.True(display.Pixel(0, 31))
	assert.True(display.Pixel(63, 0))
	assert.True(display.Pixel(0, 0))
}

func TestCpuDrawEmpty(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Register[VF] = 1

	assert.NoError(cpu.Execute(0xd010))
	assert.Equal(byte(0), cpu.Register[VF])

	display := cpu.Display()
	assert.Equal(0, display.Lit())
}

func TestCpuDrawOutOfRange(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.I = MEMORY_SIZE - 2

	before := state(cpu)
	err := cpu.Execute(0xd013)
	assert.ErrorIs(err, ErrAddressOutOfRange)
	assert.Equal(before, state(cpu))
}

func TestCpuCls(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.I = FONT_BASE
	assert.NoError(cpu.Execute(0xd005))

	display := cpu.Display()
	assert.NotEqual(0, display.Lit())

	assert.NoError(cpu.Execute(0x00e0))
	display = cpu.Display()
	assert.Equal(0, display.Lit())
}

func TestCpuKeys(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Register[V5] = 0xa

	assert.NoError(cpu.Execute(0xe59e))
	assert.Equal(uint16(PROGRAM_START+2), cpu.Pc)
	assert.NoError(cpu.Execute(0xe5a1))
	assert.Equal(uint16(PROGRAM_START+6), cpu.Pc)

	assert.NoError(cpu.SetKey(0xa, true))
	assert.NoError(cpu.Execute(0xe59e))
	assert.Equal(uint16(PROGRAM_START+10), cpu.Pc)
	assert.NoError(cpu.Execute(0xe5a1))
	assert.Equal(uint16(PROGRAM_START+12), cpu.Pc)

	cpu.Register[V5] = KEY_COUNT
	before := state(cpu)
	err := cpu.Execute(0xe59e)
	assert.ErrorIs(err, ErrKeyOutOfRange)
	assert.Equal(before, state(cpu))
}

func TestCpuKeyWait(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Pc = 0x300

	for range 3 {
		assert.NoError(cpu.Execute(0xf30a))
		assert.Equal(uint16(0x300), cpu.Pc)
	}
	assert.Equal(3, cpu.Ticks)
	assert.Equal(byte(0), cpu.Register[V3])

	assert.NoError(cpu.SetKey(0x7, true))
	assert.NoError(cpu.SetKey(0xc, true))
	assert.NoError(cpu.Execute(0xf30a))
	assert.Equal(uint16(0x302), cpu.Pc)
	assert.Equal(byte(0x7), cpu.Register[V3])
}

func TestCpuTimerOps(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Register[V2] = 0x30

	assert.NoError(cpu.Execute(0xf215))
	assert.Equal(byte(0x30), cpu.Delay)
	assert.NoError(cpu.Execute(0xf218))
	assert.Equal(byte(0x30), cpu.Sound)
	assert.True(cpu.Sounding())

	cpu.TickTimers()
	assert.NoError(cpu.Execute(0xf607))
	assert.Equal(byte(0x2f), cpu.Register[V6])
}

func TestCpuTickTimers(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Delay = 2
	cpu.Sound = 1

	cpu.TickTimers()
	assert.Equal(byte(1), cpu.Delay)
	assert.Equal(byte(0), cpu.Sound)
	assert.False(cpu.Sounding())

	for range 3 {
		cpu.TickTimers()
		assert.Equal(byte(0), cpu.Delay)
		assert.Equal(byte(0), cpu.Sound)
	}
}

func TestCpuFont(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	for digit := range 16 {
		cpu.Register[V9] = byte(digit)
		assert.NoError(cpu.Execute(0xf929))
		assert.Equal(uint16(FONT_BASE+digit*FONT_GLYPH_SIZE), cpu.I)
		assert.Equal(FONTSET[digit*FONT_GLYPH_SIZE], cpu.Memory[cpu.I])
	}
}

func TestCpuBcd(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		value  byte
		digits [3]byte
	}){
		{0, [3]byte{0, 0, 0}},
		{7, [3]byte{0, 0, 7}},
		{42, [3]byte{0, 4, 2}},
		{100, [3]byte{1, 0, 0}},
		{254, [3]byte{2, 5, 4}},
		{255, [3]byte{2, 5, 5}},
	}

	for _, entry := range table {
		cpu := NewCpu()
		cpu.I = 0x400
		cpu.Register[V1] = entry.value

		assert.NoError(cpu.Execute(0xf133))
		assert.Equal(entry.digits[:], cpu.Memory[0x400:0x403], "%d", entry.value)
	}

	cpu := NewCpu()
	cpu.I = MEMORY_SIZE - 2
	before := state(cpu)
	err := cpu.Execute(0xf133)
	assert.ErrorIs(err, ErrAddressOutOfRange)
	assert.Equal(before, state(cpu))
}

func TestCpuStoreLoad(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	for n := range REGISTER_COUNT {
		cpu.Register[n] = byte(0x10 + n)
	}
	cpu.I = 0x500

	assert.NoError(cpu.Execute(0xf355))
	assert.Equal([]byte{0x10, 0x11, 0x12, 0x13, 0x00}, cpu.Memory[0x500:0x505])
	assert.Equal(uint16(0x500), cpu.I)

	clear(cpu.Register[:])
	assert.NoError(cpu.Execute(0xf265))
	assert.Equal(byte(0x10), cpu.Register[V0])
	assert.Equal(byte(0x11), cpu.Register[V1])
	assert.Equal(byte(0x12), cpu.Register[V2])
	assert.Equal(byte(0x00), cpu.Register[V3])

	cpu.I = MEMORY_SIZE - 4
	before := state(cpu)
	err := cpu.Execute(0xf455)
	assert.ErrorIs(err, ErrAddressOutOfRange)
	assert.Equal(before, state(cpu))

	err = cpu.Execute(0xf465)
	assert.ErrorIs(err, ErrAddressOutOfRange)
	assert.Equal(before, state(cpu))

	assert.NoError(cpu.Execute(0xf365))
}

func TestCpuUnsupported(t *testing.T) {
	assert := assert.New(t)

	codes := []Code{0x0123, 0x00ff, 0x5121, 0x800f, 0x9128, 0xe000, 0xf0ff, 0xf000}
	for _, code := range codes {
		cpu := NewCpu()
		before := state(cpu)

		err := cpu.Execute(code)
		assert.ErrorIs(err, ErrUnsupportedOpcode, "%04x", uint16(code))

		var eo ErrOpcode
		assert.True(errors.As(err, &eo))
		assert.Equal(ErrOpcode(code), eo)
		assert.Equal(before, state(cpu))
	}
}

func TestCpuFetch(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.NoError(cpu.Load([]byte{0x6a, 0x2b, 0x12, 0x00}))

	code, err := cpu.FetchCode()
	assert.NoError(err)
	assert.Equal(Code(0x6a2b), code)

	assert.NoError(cpu.Tick())
	assert.Equal(byte(0x2b), cpu.Register[VA])
	assert.Equal(uint16(0x202), cpu.Pc)

	assert.NoError(cpu.Tick())
	assert.Equal(uint16(0x200), cpu.Pc)
	assert.Equal(2, cpu.Ticks)

	cpu.Pc = MEMORY_SIZE - 1
	_, err = cpu.FetchCode()
	assert.ErrorIs(err, ErrAddressOutOfRange)

	err = cpu.Tick()
	assert.ErrorIs(err, ErrAddressOutOfRange)
	assert.Equal(uint16(MEMORY_SIZE-1), cpu.Pc)

	cpu.Pc = MEMORY_SIZE - 2
	_, err = cpu.FetchCode()
	assert.NoError(err)
}

// state returns a comparable copy of the CPU.
func state(cpu *Cpu) (snapshot Cpu) {
	snapshot = *cpu
	snapshot.Random = nil
	return
}
