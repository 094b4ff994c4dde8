package charset

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// euckrBytes encodes a UTF-8 string as EUC-KR for use as fixture data.
func euckrBytes(t *testing.T, s string) []byte {
	t.Helper()
	out, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return out
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want string
	}{
		{"utf-8 BOM", []byte{0xEF, 0xBB, 0xBF, 'a', 'b'}, "utf-8-sig"},
		{"plain ascii", []byte("title,isbn,price,author\n"), "utf-8"},
		{"empty", nil, "utf-8"},
		{"korean double-byte pair", []byte{'a', 0xC1, 0xA6, 'b'}, "cp949"},
		{"single high byte only", []byte{'a', 0xC1, 'b', 'c'}, "utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.head); got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect_EUCKRFixture(t *testing.T) {
	head := euckrBytes(t, "제목,ISBN,가격,저자\n")
	if got := Detect(head); got != "cp949" {
		t.Errorf("Detect(euc-kr bytes) = %q, want cp949", got)
	}
}

func TestCandidates_Order(t *testing.T) {
	cands := Candidates()
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Name != "utf-8" || cands[1].Name != "cp949" {
		t.Errorf("unexpected candidate order: %v, %v", cands[0].Name, cands[1].Name)
	}
}

func TestDecode_UTF8(t *testing.T) {
	utf8Cand := Candidates()[0]

	text, err := utf8Cand.Decode([]byte("제목,저자"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "제목,저자" {
		t.Errorf("Decode = %q", text)
	}
	if !Acceptable(text) {
		t.Error("valid utf-8 should be acceptable")
	}
}

func TestDecode_UTF8SkipsBOM(t *testing.T) {
	utf8Cand := Candidates()[0]
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("title")...)

	text, err := utf8Cand.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "title" {
		t.Errorf("Decode = %q, want BOM stripped", text)
	}
}

func TestDecode_EUCKRBytesRejectedAsUTF8(t *testing.T) {
	data := euckrBytes(t, "제목,저자")
	utf8Cand := Candidates()[0]

	text, err := utf8Cand.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if Acceptable(text) {
		t.Error("euc-kr bytes decoded as utf-8 should contain replacement characters")
	}
}

func TestDecode_EUCKRRoundTrip(t *testing.T) {
	const want = "제목,ISBN,가격,저자"
	data := euckrBytes(t, want)
	cp949 := Candidates()[1]

	text, err := cp949.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != want {
		t.Errorf("Decode = %q, want %q", text, want)
	}
	if !Acceptable(text) {
		t.Error("clean euc-kr decode should be acceptable")
	}
}

func TestAcceptable_RejectsAstralPlane(t *testing.T) {
	if Acceptable("book \U0001F4DA title") {
		t.Error("code points outside the BMP should be rejected")
	}
	if Acceptable(strings.Repeat("a", 10) + "�") {
		t.Error("replacement character should be rejected")
	}
}
