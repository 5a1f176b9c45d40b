package conv

import "testing"

func TestAppendInt(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{-1, "-1"},
		{1234567890123, "1234567890123"},
		{-9223372036854775807, "-9223372036854775807"},
	}
	for _, c := range cases {
		if got := string(AppendInt(nil, c.n)); got != c.want {
			t.Errorf("AppendInt(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestAppendUintPrefix(t *testing.T) {
	got := AppendUint([]byte("E "), 65535)
	if string(got) != "E 65535" {
		t.Fatalf("got %q", got)
	}
}
