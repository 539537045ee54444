package funccompiler

import (
	"encoding/binary"
	"math"
)

// Marshal packs {header, names, literals, line-offsets, source, object}
// into one flat byte slice, the single heap block spec §4.10 step 5
// installs under the function's name. The layout is a sequence of
// length-prefixed sections so Unmarshal can walk it back out without a
// separate side table.
func (o *Object) Marshal() []byte {
	var strs []string
	strs = append(strs, o.Header.Name, o.Header.RetName, o.Header.LeftArg, o.Header.RightArg)
	strs = append(strs, o.Header.Locals...)

	var buf []byte
	putU32 := func(v uint32) {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		buf = append(buf, b...)
	}
	putStr := func(s string) {
		putU32(uint32(len(s)))
		buf = append(buf, s...)
	}

	putU32(uint32(len(o.Header.Locals)))
	for _, s := range strs {
		putStr(s)
	}
	putStr(o.HeaderLine)

	putU32(uint32(len(o.Source)))
	for _, s := range o.Source {
		putStr(s)
	}

	putU32(uint32(len(o.Lits)))
	for _, f := range o.Lits {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(f))
		buf = append(buf, b...)
	}

	putU32(uint32(len(o.LineOffsets)))
	for _, off := range o.LineOffsets {
		putU32(uint32(off))
	}

	putU32(uint32(len(o.Code)))
	buf = append(buf, o.Code...)

	return buf
}

// Unmarshal is Marshal's inverse, used when the evaluator loads a
// function object back out of its heap block to run it.
func Unmarshal(buf []byte) *Object {
	pos := 0
	getU32 := func() uint32 {
		v := binary.LittleEndian.Uint32(buf[pos:])
		pos += 4
		return v
	}
	getStr := func() string {
		n := int(getU32())
		s := string(buf[pos : pos+n])
		pos += n
		return s
	}

	nLocals := int(getU32())
	name := getStr()
	ret := getStr()
	left := getStr()
	right := getStr()
	locals := make([]string, nLocals)
	for i := range locals {
		locals[i] = getStr()
	}

	h := &Header{Name: name, RetName: ret, LeftArg: left, RightArg: right, Locals: locals}
	h.Frame = assignFrame(h)
	headerLine := getStr()

	nSrc := int(getU32())
	src := make([]string, nSrc)
	for i := range src {
		src[i] = getStr()
	}

	nLits := int(getU32())
	lits := make([]float64, nLits)
	for i := range lits {
		lits[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[pos:]))
		pos += 8
	}

	nOff := int(getU32())
	offsets := make([]int, nOff)
	for i := range offsets {
		offsets[i] = int(getU32())
	}

	nCode := int(getU32())
	code := append([]byte(nil), buf[pos:pos+nCode]...)
	pos += nCode

	return &Object{Header: h, HeaderLine: headerLine, Source: src, Code: code, Lits: lits, LineOffsets: offsets}
}
