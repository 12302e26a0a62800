package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "8.3.1", "8.3.1", 0},
		{"less", "8.3.0", "8.3.1", -1},
		{"greater", "8.3.2", "8.3.1", 1},
		{"trailing zero padding", "8.3", "8.3.0", 0},
		{"numeric not lexicographic", "8.10", "8.9", 1},
		{"major wins", "9.0", "8.99.99", 1},
		{"leading v stripped", "v1.2.3", "1.2.3", 0},
		{"leading V stripped", "V2.0", "2.0", 0},
		{"plus separator", "1.2+build7", "1.2.7", 0},
		{"dash separator", "1.2-rc3", "1.2.3", 0},
		{"whitespace trimmed", "  8.3 ", "8.3", 0},
		{"empty strings", "", "", 0},
		{"empty vs zero", "", "0.0.0", 0},
		{"garbage is zero", "abc", "0", 0},
		{"garbage below numeric", "abc", "1", -1},
		{"mixed token keeps digits", "10.6c", "10.6", 0},
		{"single component", "18", "17", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func TestCompare_Antisymmetric(t *testing.T) {
	pairs := [][2]string{
		{"8.3", "8.3.1"},
		{"1.0", "2.0"},
		{"v3.2.1", "3.2"},
		{"abc", "1.2-rc1"},
		{"", "0.1"},
	}
	for _, p := range pairs {
		assert.Equal(t, -Compare(p[1], p[0]), Compare(p[0], p[1]), "pair %v", p)
	}
}

func TestCompare_Reflexive(t *testing.T) {
	for _, v := range []string{"", "0", "8.3.1", "v1.2-rc1+meta", "garbage"} {
		assert.Zero(t, Compare(v, v), "version %q", v)
	}
}

func FuzzCompare(f *testing.F) {
	f.Add("8.3.1", "8.3")
	f.Add("v1.2-rc1", "1.2+build9")
	f.Add("", "\x00\x01")
	f.Add("999999999999999999999", "1")
	f.Fuzz(func(t *testing.T, a, b string) {
		// Never panics, always a sign, and antisymmetric.
		got := Compare(a, b)
		if got < -1 || got > 1 {
			t.Fatalf("Compare(%q, %q) = %d, out of range", a, b, got)
		}
		if rev := Compare(b, a); rev != -got {
			t.Fatalf("Compare(%q, %q) = %d but reverse = %d", a, b, got, rev)
		}
	})
}

func BenchmarkCompare(b *testing.B) {
	pairs := [][2]string{
		{"8.3.1", "8.3"},
		{"v1.2-rc1+meta", "1.2.0"},
		{"10.0.0", "9.99.99"},
		{"garbage", "1.0"},
	}
	for b.Loop() {
		for _, p := range pairs {
			Compare(p[0], p[1])
		}
	}
}
