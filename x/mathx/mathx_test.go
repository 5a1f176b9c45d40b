package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Fatalf("Clamp(5,0,3) = %d", got)
	}
	if got := Clamp(-1, 0, 3); got != 0 {
		t.Fatalf("Clamp(-1,0,3) = %d", got)
	}
	// Swapped bounds.
	if got := Clamp(5, 3, 0); got != 3 {
		t.Fatalf("Clamp(5,3,0) = %d", got)
	}
}

func TestSatAddU16(t *testing.T) {
	cases := []struct {
		c    uint16
		n    uint32
		want uint16
	}{
		{0, 0, 0},
		{10, 5, 15},
		{0xFFFE, 1, 0xFFFF},
		{0xFFFF, 1, 0xFFFF},
		{0xFFF0, 0x100000, 0xFFFF},
		{0xFFFF, 0xFFFFFFFF, 0xFFFF}, // near-2^32 sum must saturate, not wrap
		{0x1, 0xFFFFFFFF, 0xFFFF},
	}
	for _, c := range cases {
		if got := SatAddU16(c.c, c.n); got != c.want {
			t.Errorf("SatAddU16(%d,%d) = %d, want %d", c.c, c.n, got, c.want)
		}
	}
}
