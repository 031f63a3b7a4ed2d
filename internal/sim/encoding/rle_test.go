package encoding

import (
	"reflect"
	"testing"
)

func TestRLE_RoundTrip(t *testing.T) {
	in := make([]uint16, 0, 300)
	in = append(in, 1, 1, 1, 2, 2, 3)
	for i := 0; i < 200; i++ {
		in = append(in, 7)
	}
	in = append(in, 9, 10, 10, 10, 0)

	out, err := DecodeRLE(EncodeRLE(in), 0)
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip mismatch: got %v want %v", out, in)
	}
}

func TestRLE_Empty(t *testing.T) {
	if enc := EncodeRLE(nil); enc != "" {
		t.Fatalf("expected empty encoding, got %q", enc)
	}
	out, err := DecodeRLE("", 0)
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty decode, got %v", out)
	}
}

func TestRLE_MaxLenBound(t *testing.T) {
	in := make([]uint16, 100)
	enc := EncodeRLE(in)
	if _, err := DecodeRLE(enc, 99); err == nil {
		t.Fatalf("expected error when decoded length exceeds bound")
	}
	if out, err := DecodeRLE(enc, 100); err != nil || len(out) != 100 {
		t.Fatalf("decode within bound: %v len=%d", err, len(out))
	}
}

func TestRLE_RejectsGarbage(t *testing.T) {
	if _, err := DecodeRLE("not base64!!", 0); err == nil {
		t.Fatalf("expected base64 error")
	}
}
