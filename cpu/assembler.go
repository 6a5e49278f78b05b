// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":          "0",
	"PROGRAM_START":   fmt.Sprintf("%#x", PROGRAM_START),
	"DISPLAY_WIDTH":   fmt.Sprintf("%d", DISPLAY_WIDTH),
	"DISPLAY_HEIGHT":  fmt.Sprintf("%d", DISPLAY_HEIGHT),
	"FONT_SIZE":       fmt.Sprintf("%d", FONT_SIZE),
	"FONT_GLYPH_SIZE": fmt.Sprintf("%d", FONT_GLYPH_SIZE),
}

var (
	reCharacter = regexp.MustCompile(`'\\?[^']'`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel     = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// Assembler is a single pass macro assembler for CHIP-8 programs,
// using the Cowgod mnemonics.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]uint16   // Map of jump labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansions int // Count of macro expansions, for local labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	return
}

// rangeOf returns the value of a word, which must be in [low, high].
func (asm *Assembler) rangeOf(word string, low, high int64) (value uint16, err error) {
	v64, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if v64 < low || v64 > high {
		err = ErrValueRange
		return
	}

	value = uint16(v64)
	return
}

// registerOf returns the register named by a word.
func registerOf(word string) (reg Register, err error) {
	word = strings.ToLower(word)
	if len(word) != 2 || word[0] != 'v' {
		err = ErrRegisterInvalid
		return
	}

	index, perr := strconv.ParseUint(word[1:], 16, 4)
	if perr != nil {
		err = ErrRegisterInvalid
		return
	}

	reg = Register(index)
	return
}

// isRegister is true if the word names a register.
func isRegister(word string) bool {
	_, err := registerOf(word)
	return err == nil
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v64 int64
		v64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// splitWords splits a line into words. Commas separate operands.
func splitWords(line string) []string {
	return strings.Fields(strings.ReplaceAll(line, ",", " "))
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint16, 16)
		}
		asm.Label[label] = asm.currentAddress()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		local := fmt.Sprintf("%v_%v_", name, asm.expansions)
		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = ErrMacro{Macro: name, Line: lineno, Err: err}
				err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = ErrMacro{Macro: name, Line: lineno, Err: err}
				err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddress gets the load address of the next opcode.
func (asm *Assembler) currentAddress() uint16 {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Address + uint16(len(last.Bytes))
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.expansions = 0
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("asm: %v: %v", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		if addr > 0xfff {
			err = ErrValueRange
			return
		}
		op.Bytes[0] |= byte(addr>>8) & 0xf
		op.Bytes[1] |= byte(addr)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// argCount checks that exactly count operands are present.
func argCount(args []string, count int) (err error) {
	switch {
	case len(args) < count:
		err = ErrOpcodeValueMissing
	case len(args) > count:
		err = ErrOpcodeExtraArgs
	}
	return
}

// aluMap maps the register-register ALU mnemonics to their low digit.
var aluMap = map[string]uint8{
	"or":   0x1,
	"and":  0x2,
	"xor":  0x3,
	"sub":  0x5,
	"subn": 0x7,
}

// ldMap maps the 'ld' forms that take a single register to their low byte.
var ldMap = map[string]uint8{
	"dt":  0x15,
	"st":  0x18,
	"f":   0x29,
	"b":   0x33,
	"[i]": 0x55,
}

// ldFromMap maps the 'ld vx, ...' special sources to their low byte.
var ldFromMap = map[string]uint8{
	"dt":  0x07,
	"k":   0x0a,
	"[i]": 0x65,
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var bytes []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words
	address := asm.currentAddress()

	defer func() {
		if err != nil || len(bytes) == 0 {
			return
		}
		if int(address)+len(bytes) > MEMORY_SIZE {
			err = ErrRomTooLarge
			return
		}
		opcode := Opcode{LineNo: lineno, Address: address, Words: initial_words, Bytes: bytes, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	emit := func(code Code) {
		bytes = append(bytes, byte(uint16(code)>>8), byte(code))
	}

	// addressOf resolves an address operand, deferring labels to link time.
	addressOf := func(word string) (addr uint16, err error) {
		if isRegister(word) {
			err = ErrOperandInvalid
			return
		}
		addr, err = asm.rangeOf(word, 0, 0xfff)
		if _, ok := err.(ErrParseNumber); ok && reLabel.MatchString(word) {
			label = word
			addr = 0
			err = nil
		}
		return
	}

	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	switch mnemonic {
	case ".byte":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var value uint16
			value, err = asm.rangeOf(arg, -0x80, 0xff)
			if err != nil {
				return
			}
			bytes = append(bytes, byte(value))
		}
	case ".word":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var value uint16
			value, err = asm.rangeOf(arg, -0x8000, 0xffff)
			if err != nil {
				return
			}
			emit(Code(value))
		}
	case "nop", "cls", "ret":
		err = argCount(args, 0)
		if err != nil {
			return
		}
		emit(map[string]Code{"nop": 0x0000, "cls": 0x00e0, "ret": 0x00ee}[mnemonic])
	case "sys", "call":
		err = argCount(args, 1)
		if err != nil {
			return
		}
		var addr uint16
		addr, err = addressOf(args[0])
		if err != nil {
			return
		}
		digit := uint16(0x0)
		if mnemonic == "call" {
			digit = 0x2
		}
		emit(Code(digit<<12 | addr))
	case "jp":
		if len(args) == 2 {
			var reg Register
			reg, err = registerOf(args[0])
			if err != nil {
				return
			}
			if reg != V0 {
				err = ErrRegisterInvalid
				return
			}
			args = args[1:]
		} else {
			err = argCount(args, 1)
			if err != nil {
				return
			}
		}
		var addr uint16
		addr, err = addressOf(args[0])
		if err != nil {
			return
		}
		digit := uint16(0x1)
		if len(words) == 3 {
			digit = 0xb
		}
		emit(Code(digit<<12 | addr))
	case "se", "sne":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		var x, y Register
		x, err = registerOf(args[0])
		if err != nil {
			return
		}
		if isRegister(args[1]) {
			y, _ = registerOf(args[1])
			digit := uint8(0x5)
			if mnemonic == "sne" {
				digit = 0x9
			}
			emit(MakeCode(digit, uint8(x), uint8(y), 0))
			break
		}
		var kk uint16
		kk, err = asm.rangeOf(args[1], -0x80, 0xff)
		if err != nil {
			return
		}
		digit := uint16(0x3)
		if mnemonic == "sne" {
			digit = 0x4
		}
		emit(Code(digit<<12 | uint16(x)<<8 | kk&0xff))
	case "ld":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		dst := strings.ToLower(args[0])
		src := strings.ToLower(args[1])
		if dst == "i" {
			var addr uint16
			addr, err = addressOf(args[1])
			if err != nil {
				return
			}
			emit(Code(0xa000 | addr))
			break
		}
		if low, ok := ldMap[dst]; ok {
			var x Register
			x, err = registerOf(src)
			if err != nil {
				return
			}
			emit(Code(0xf000 | uint16(x)<<8 | uint16(low)))
			break
		}
		var x Register
		x, err = registerOf(dst)
		if err != nil {
			err = ErrOperandInvalid
			return
		}
		if low, ok := ldFromMap[src]; ok {
			emit(Code(0xf000 | uint16(x)<<8 | uint16(low)))
			break
		}
		if isRegister(src) {
			y, _ := registerOf(src)
			emit(MakeCode(0x8, uint8(x), uint8(y), 0x0))
			break
		}
		var kk uint16
		kk, err = asm.rangeOf(args[1], -0x80, 0xff)
		if err != nil {
			return
		}
		emit(Code(0x6000 | uint16(x)<<8 | kk&0xff))
	case "add":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		if strings.ToLower(args[0]) == "i" {
			var x Register
			x, err = registerOf(args[1])
			if err != nil {
				return
			}
			emit(Code(0xf01e | uint16(x)<<8))
			break
		}
		var x Register
		x, err = registerOf(args[0])
		if err != nil {
			return
		}
		if isRegister(args[1]) {
			y, _ := registerOf(args[1])
			emit(MakeCode(0x8, uint8(x), uint8(y), 0x4))
			break
		}
		var kk uint16
		kk, err = asm.rangeOf(args[1], -0x80, 0xff)
		if err != nil {
			return
		}
		emit(Code(0x7000 | uint16(x)<<8 | kk&0xff))
	case "or", "and", "xor", "sub", "subn":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		var x, y Register
		x, err = registerOf(args[0])
		if err != nil {
			return
		}
		y, err = registerOf(args[1])
		if err != nil {
			return
		}
		emit(MakeCode(0x8, uint8(x), uint8(y), aluMap[mnemonic]))
	case "shr", "shl":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		var x, y Register
		x, err = registerOf(args[0])
		if err != nil {
			return
		}
		if len(args) == 2 {
			y, err = registerOf(args[1])
			if err != nil {
				return
			}
		}
		digit := uint8(0x6)
		if mnemonic == "shl" {
			digit = 0xe
		}
		emit(MakeCode(0x8, uint8(x), uint8(y), digit))
	case "rnd":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		var x Register
		x, err = registerOf(args[0])
		if err != nil {
			return
		}
		var kk uint16
		kk, err = asm.rangeOf(args[1], 0, 0xff)
		if err != nil {
			return
		}
		emit(Code(0xc000 | uint16(x)<<8 | kk))
	case "drw":
		err = argCount(args, 3)
		if err != nil {
			return
		}
		var x, y Register
		x, err = registerOf(args[0])
		if err != nil {
			return
		}
		y, err = registerOf(args[1])
		if err != nil {
			return
		}
		var n uint16
		n, err = asm.rangeOf(args[2], 0, 0xf)
		if err != nil {
			return
		}
		emit(MakeCode(0xd, uint8(x), uint8(y), uint8(n)))
	case "skp", "sknp":
		err = argCount(args, 1)
		if err != nil {
			return
		}
		var x Register
		x, err = registerOf(args[0])
		if err != nil {
			return
		}
		low := uint16(0x9e)
		if mnemonic == "sknp" {
			low = 0xa1
		}
		emit(Code(0xe000 | uint16(x)<<8 | low))
	default:
		err = ErrOpcodeInvalid
		return
	}

	return
}
