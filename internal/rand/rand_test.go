package rand

import "testing"

func TestLetterBytes(t *testing.T) {
	buf := LetterBytes(1024)
	if len(buf) != 1024 {
		t.Fatalf("expected 1024 bytes, got %d", len(buf))
	}
	for _, b := range buf {
		if (b < 'a' || b > 'z') && (b < '0' || b > '9') {
			t.Fatalf("byte %q outside the letter range", b)
		}
	}
}

func TestBytesLength(t *testing.T) {
	for _, n := range []int{0, 1, 20, 4096} {
		if got := len(Bytes(n)); got != n {
			t.Fatalf("expected %d bytes, got %d", n, got)
		}
	}
}

func benchmarkBytes(b *testing.B, size int) {
	for n := 0; n < b.N; n++ {
		_ = Bytes(size)
	}
}

func BenchmarkBytes20(b *testing.B)      { benchmarkBytes(b, 20) }
func BenchmarkBytes1000(b *testing.B)    { benchmarkBytes(b, 1000) }
func BenchmarkBytes1000000(b *testing.B) { benchmarkBytes(b, 1000000) }

func benchmarkLetterBytes(b *testing.B, size int) {
	for n := 0; n < b.N; n++ {
		_ = LetterBytes(size)
	}
}

func BenchmarkLetterBytes20(b *testing.B)      { benchmarkLetterBytes(b, 20) }
func BenchmarkLetterBytes1000(b *testing.B)    { benchmarkLetterBytes(b, 1000) }
func BenchmarkLetterBytes1000000(b *testing.B) { benchmarkLetterBytes(b, 1000000) }
