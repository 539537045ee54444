package lexer

import (
	"testing"

	"github.com/sigfpe8/toy-apl/internal/bytecode"
)

func TestUTF8RoundTrip(t *testing.T) {
	for _, r := range []rune{'A', '⍳', '⎕', 0x1F600} {
		buf := make([]byte, 4)
		n := EncodeRune(buf, r)
		if n == 0 {
			t.Fatalf("encode failed for %U", r)
		}
		got, m := DecodeRune(buf[:n])
		if got != r || m != n {
			t.Fatalf("round trip failed: got %U/%d want %U/%d", got, m, r, n)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, n := DecodeRune([]byte{0xC0}); n != 0 {
		t.Fatalf("expected decode failure on truncated sequence")
	}
	if _, n := DecodeRune([]byte{0xC0, 0x00}); n != 0 {
		t.Fatalf("expected decode failure on bad continuation byte")
	}
}

func TestTokenizeNumberGroup(t *testing.T) {
	toks, err := Tokenize("1 2 3", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 1 || toks[0].Kind != KArr || len(toks[0].Nums) != 3 {
		t.Fatalf("got %+v", toks)
	}
}

func TestTokenizeHighMinusAndExponent(t *testing.T) {
	toks, err := Tokenize("¯1.5E¯2", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 1 || toks[0].Kind != KNum {
		t.Fatalf("got %+v", toks)
	}
	if toks[0].Num != -1.5e-2 {
		t.Fatalf("got %v", toks[0].Num)
	}
}

func TestTokenizeStringAndChar(t *testing.T) {
	toks, err := Tokenize("'ab' 'x' 'it''s'", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 3 {
		t.Fatalf("got %+v", toks)
	}
	if toks[0].Kind != KStr || toks[0].Str != "ab" {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[1].Kind != KChr || toks[1].Chr != 'x' {
		t.Fatalf("got %+v", toks[1])
	}
	if toks[2].Kind != KStr || toks[2].Str != "it's" {
		t.Fatalf("got %+v", toks[2])
	}
}

func TestCompileLineReversesOrder(t *testing.T) {
	buf := bytecode.NewBuffer(0)
	if err := CompileLine("1+2", 1, buf, nil); err != nil {
		t.Fatal(err)
	}
	// Source order is NUM(1) PLUS NUM(2); reverse-order storage puts
	// NUM(2) first in the buffer.
	if buf.Code[0] != byte(bytecode.OpNum) {
		t.Fatalf("expected first byte to be OpNum (rightmost operand), got %v", buf.Code[0])
	}
}

func TestCompileFunctionLineBranchSuppressesNL(t *testing.T) {
	buf := bytecode.NewBuffer(0)
	if err := CompileFunctionLine("→", 1, buf, nil); err != nil {
		t.Fatal(err)
	}
	// last byte (source-order end of the line) must be the branch op,
	// not an NL, since the line's last token is a bare →.
	last := buf.Code[len(buf.Code)-1]
	if last == byte(bytecode.OpNL) {
		t.Fatalf("did not expect trailing NL after a branch line")
	}
}
