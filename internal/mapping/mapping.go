// Package mapping maps arbitrary CSV column names onto the four canonical
// book fields: title, isbn, price, author.
//
// Auto-detection is keyword driven: each canonical field carries an ordered
// list of substrings tried against the column names, and the first column
// containing one wins. Real exports name the same field 제목, 타이틀, or
// Title depending on the tool that produced them, so the keyword sets are
// deliberately loose and can be overridden from a YAML file for data
// sources the defaults do not cover.
package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field labels used in user-facing messages.
const (
	labelTitle  = "도서명"
	labelISBN   = "ISBN"
	labelPrice  = "가격"
	labelAuthor = "작가명"
)

// Mapping assigns a source column name to each canonical field. An empty
// value means unmapped. Once validation starts the mapping is frozen; the
// session layer enforces that.
type Mapping struct {
	Title  string `json:"title"`
	ISBN   string `json:"isbn"`
	Price  string `json:"price"`
	Author string `json:"author"`
}

// MappingError reports canonical fields left unmapped at confirmation time.
// It blocks entry into the validation step and is recoverable by correcting
// the mapping.
type MappingError struct {
	Missing []string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("필드 매핑 필요: %s 필드를 매핑해주세요", strings.Join(e.Missing, ", "))
}

// Confirm validates that every canonical field is mapped. All four fields
// are required, title included.
func (m Mapping) Confirm() error {
	var missing []string
	if m.Title == "" {
		missing = append(missing, labelTitle)
	}
	if m.ISBN == "" {
		missing = append(missing, labelISBN)
	}
	if m.Price == "" {
		missing = append(missing, labelPrice)
	}
	if m.Author == "" {
		missing = append(missing, labelAuthor)
	}
	if len(missing) > 0 {
		return &MappingError{Missing: missing}
	}
	return nil
}

// KeywordSet holds the detection substrings per canonical field, in match
// priority order.
type KeywordSet struct {
	Title  []string `yaml:"title"`
	ISBN   []string `yaml:"isbn"`
	Price  []string `yaml:"price"`
	Author []string `yaml:"author"`
}

// DefaultKeywords returns the built-in detection keywords.
func DefaultKeywords() KeywordSet {
	return KeywordSet{
		Title:  []string{"제목", "타이틀", "title"},
		ISBN:   []string{"isbn"},
		Price:  []string{"가격", "재정가", "price"},
		Author: []string{"저자", "작가", "author"},
	}
}

// LoadKeywords reads a keyword set from a YAML file. Fields omitted in the
// file keep their default keywords.
func LoadKeywords(path string) (KeywordSet, error) {
	kw := DefaultKeywords()

	data, err := os.ReadFile(path)
	if err != nil {
		return kw, fmt.Errorf("read keywords file: %w", err)
	}

	var override KeywordSet
	if err := yaml.Unmarshal(data, &override); err != nil {
		return kw, fmt.Errorf("parse keywords file: %w", err)
	}

	if len(override.Title) > 0 {
		kw.Title = override.Title
	}
	if len(override.ISBN) > 0 {
		kw.ISBN = override.ISBN
	}
	if len(override.Price) > 0 {
		kw.Price = override.Price
	}
	if len(override.Author) > 0 {
		kw.Author = override.Author
	}
	return kw, nil
}

// AutoDetect proposes a mapping for the given columns. Per field, keywords
// are tried in order and the first column containing one is chosen; a field
// with no matching column stays empty. Matching is case-insensitive for
// Latin keywords and exact for Korean ones.
func AutoDetect(columns []string, kw KeywordSet) Mapping {
	return Mapping{
		Title:  firstMatch(columns, kw.Title),
		ISBN:   firstMatch(columns, kw.ISBN),
		Price:  firstMatch(columns, kw.Price),
		Author: firstMatch(columns, kw.Author),
	}
}

// firstMatch returns the first column containing any keyword, honoring
// keyword priority order before column order.
func firstMatch(columns []string, keywords []string) string {
	for _, kw := range keywords {
		lowerKw := strings.ToLower(kw)
		for _, col := range columns {
			if strings.Contains(strings.ToLower(col), lowerKw) {
				return col
			}
		}
	}
	return ""
}
