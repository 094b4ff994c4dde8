// Package charset handles the text encodings seen in real-world CSV exports
// of Korean book data.
//
// Spreadsheet tools in the wild export CJK text as UTF-8, CP949, or EUC-KR
// with no declared charset. A wrong fixed assumption corrupts data silently,
// so decoding is empirical: Detect gives a cheap advisory guess from the
// file header, and Candidates supplies the decoders a caller tries in
// priority order, rejecting any decode whose output shows mojibake.
package charset

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// utf8BOM is the UTF-8 byte-order-mark signature.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Candidate pairs an encoding label with its decoder.
type Candidate struct {
	Name string
	enc  encoding.Encoding
}

// Candidates returns the trial decoders in priority order.
//
// x/text's EUC-KR transform implements the Windows-949 superset, so the
// single cp949 candidate covers both the cp949 and euc-kr export flavors.
func Candidates() []Candidate {
	return []Candidate{
		{Name: "utf-8", enc: unicode.UTF8},
		{Name: "cp949", enc: korean.EUCKR},
	}
}

// Decode converts raw bytes to a string using the candidate's decoder.
// Invalid byte sequences become U+FFFD in the output rather than an error;
// callers detect mis-decodes with Acceptable.
func (c Candidate) Decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	out, _, err := transform.Bytes(c.enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.Name, err)
	}
	return string(out), nil
}

// Acceptable reports whether decoded text is free of mis-decode signals:
// replacement characters and code points outside the basic multilingual
// plane, neither of which occurs in legitimate book CSV data.
func Acceptable(text string) bool {
	for _, r := range text {
		if r == utf8.RuneError || r == '￾' || r == '￿' || r > 0xFFFF {
			return false
		}
	}
	return true
}

// Detect guesses the encoding of a file from its first bytes (callers pass
// up to the first 4096). The guess is advisory only; the authoritative
// decision is the trial-decode loop over Candidates.
//
// A UTF-8 BOM is recognized deterministically. Otherwise an adjacent byte
// pair in the 0xA1-0xFE range signals a double-byte CJK encoding and yields
// the Korean guess. Detect never fails; with no signal it returns "utf-8".
func Detect(head []byte) string {
	if bytes.HasPrefix(head, utf8BOM) {
		return "utf-8-sig"
	}
	for i := 0; i+1 < len(head); i++ {
		if head[i] >= 0xA1 && head[i] <= 0xFE && head[i+1] >= 0xA1 && head[i+1] <= 0xFE {
			return "cp949"
		}
	}
	return "utf-8"
}
