package common

import "testing"

func TestMakeRandDigits_LengthAndCharset(t *testing.T) {
	const n = OtpCodeLength
	s, err := MakeRandDigits(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n {
		t.Fatalf("expected %d digits, got %d (%q)", n, len(s), s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit character in %q", s)
		}
	}
}

func TestMakeRandDigits_ZeroSize(t *testing.T) {
	s, err := MakeRandDigits(0)
	if err != nil {
		t.Fatalf("unexpected error for n=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for n=0, got %q", s)
	}
}

func TestMakeRandDigits_EntropyHint(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		s, err := MakeRandDigits(OtpCodeLength)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[s] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("20 generated codes were all identical; generator looks broken")
	}
}
