package order

import (
	"errors"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	c := Codec{Key: 0x5ad1e5}
	for _, id := range []int64{1, 42, 99_999, 1 << 40} {
		code := c.Encode(id)
		got, err := c.Decode(code)
		if err != nil {
			t.Fatalf("decode %q: %v", code, err)
		}
		if got != id {
			t.Fatalf("round trip %d -> %q -> %d", id, code, got)
		}
	}
}

func TestCodecHidesSequence(t *testing.T) {
	c := Codec{Key: 0x5ad1e5}
	if c.Encode(1) == c.Encode(2) {
		t.Fatal("distinct ids must encode differently")
	}
	for _, id := range []int64{1, 2, 3} {
		code := c.Encode(id)
		if len(code) != 17 {
			t.Fatalf("expected fixed-length code, got %q", code)
		}
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	c := Codec{Key: 0x5ad1e5}
	for _, bad := range []string{"", "SW", "not-a-code", "SWAAAAAAAAAAAAAZZ", c.Encode(7) + "X"} {
		if _, err := c.Decode(bad); !errors.Is(err, ErrBadCode) {
			t.Fatalf("expected ErrBadCode for %q, got %v", bad, err)
		}
	}
}

func TestCodecRejectsTamperedChecksum(t *testing.T) {
	c := Codec{Key: 0x5ad1e5}
	code := c.Encode(1234)
	tampered := code[:len(code)-2] + "00"
	if tampered == code {
		t.Skip("checksum happened to collide")
	}
	if _, err := c.Decode(tampered); !errors.Is(err, ErrBadCode) {
		t.Fatalf("expected ErrBadCode, got %v", err)
	}
}
