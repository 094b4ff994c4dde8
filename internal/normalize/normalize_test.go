package normalize

import "testing"

func TestCleanISBN(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"hyphenated ISBN-13", "978-89-123-4567-1", "9788912345671"},
		{"already clean", "9788912345671", "9788912345671"},
		{"with prefix text", "ISBN 89-123-4567-1", "8912345671"},
		{"empty", "", ""},
		{"no digits", "n/a", ""},
		{"whitespace and dots", " 978.89.123.4567.1 ", "9788912345671"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanISBN(tt.input); got != tt.want {
				t.Errorf("CleanISBN(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanISBN_Idempotent(t *testing.T) {
	inputs := []string{"978-89-123-4567-1", "", "abc123", "  89 123 "}
	for _, in := range inputs {
		once := CleanISBN(in)
		twice := CleanISBN(once)
		if once != twice {
			t.Errorf("CleanISBN not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"plain", "15000", 15000},
		{"grouped", "15,000", 15000},
		{"currency suffix", "15000원", 15000},
		{"currency prefix", "₩15,000", 15000},
		{"decimal dropped", "150.00", 15000},
		{"negative sign dropped", "-15000", 15000},
		{"empty", "", 0},
		{"unparseable", "무료", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanPrice(tt.input); got != tt.want {
				t.Errorf("CleanPrice(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanPrice_Idempotent(t *testing.T) {
	// Re-cleaning the string rendering of a cleaned price returns the same value.
	for _, in := range []string{"15,000원", "0", "999", ""} {
		n := CleanPrice(in)
		if again := CleanPrice(FormatPrice(in)); again != n {
			t.Errorf("CleanPrice round-trip for %q: %d != %d", in, again, n)
		}
	}
}

func TestCompareAuthors(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"exact", "김민준", "김민준", true},
		{"comma order", "Kim, Minjun", "Minjun Kim", true},
		{"case and spacing", "MINJUN KIM", "minjunkim", true},
		{"single in list", "Kim", "Kim, Lee, Park", true},
		{"list contains single reversed", "Kim, Lee, Park", "Kim", true},
		{"different authors", "Kim", "Lee", false},
		{"left empty", "", "Kim", false},
		{"right empty", "Kim", "", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareAuthors(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareAuthors(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareAuthors_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Kim, Minjun", "Minjun Kim"},
		{"Kim", "Kim, Lee, Park"},
		{"", "Kim"},
		{"저자A", "저자B"},
	}
	for _, p := range pairs {
		if CompareAuthors(p[0], p[1]) != CompareAuthors(p[1], p[0]) {
			t.Errorf("CompareAuthors not symmetric for %q, %q", p[0], p[1])
		}
	}
}

func TestTitleMatch(t *testing.T) {
	if !TitleMatch("달러구트 꿈 백화점", "달러구트 꿈 백화점 1") {
		t.Error("expected containment match")
	}
	if TitleMatch("전혀 다른 책", "달러구트 꿈 백화점") {
		t.Error("expected no match for unrelated titles")
	}
}

func TestFormatPubDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"20240115", "2024-01-15"},
		{"2024-01-15", "2024-01-15"},
		{"202401", "202401"},
		{"2024011a", "2024011a"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatPubDate(tt.input); got != tt.want {
			t.Errorf("FormatPubDate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"15000", "15,000"},
		{"1234567", "1,234,567"},
		{"999", "999"},
		{"", "0"},
		{"무료", "0"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.input); got != tt.want {
			t.Errorf("FormatPrice(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
