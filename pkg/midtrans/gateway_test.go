package midtrans

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateItemName(t *testing.T) {
	short := "Pupuk NPK 25kg"
	if got := truncateItemName(short); got != short {
		t.Fatalf("short name must pass through, got %q", got)
	}

	long := strings.Repeat("a", 60)
	if got := truncateItemName(long); len(got) != maxItemNameLen {
		t.Fatalf("expected %d bytes, got %d", maxItemNameLen, len(got))
	}
}

func TestTruncateItemNameKeepsRunesWhole(t *testing.T) {
	// 48 ASCII bytes followed by multi-byte runes straddling the byte cap.
	name := strings.Repeat("a", 48) + "日本語"

	got := truncateItemName(name)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated name is not valid UTF-8: %q", got)
	}
	if len(got) > maxItemNameLen {
		t.Fatalf("truncated name exceeds the cap at %d bytes", len(got))
	}
	if got != strings.Repeat("a", 48) {
		t.Fatalf("expected the split rune dropped, got %q", got)
	}
}
