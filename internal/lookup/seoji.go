package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultSeojiURL is the National Library of Korea bibliographic API.
const DefaultSeojiURL = "https://www.nl.go.kr/seoji/SearchApi.do"

// seojiResponse is the subset of the upstream payload we consume.
type seojiResponse struct {
	TotalCount string     `json:"TOTAL_COUNT"`
	Docs       []seojiDoc `json:"docs"`
}

type seojiDoc struct {
	Title            string `json:"TITLE"`
	Author           string `json:"AUTHOR"`
	PrePrice         string `json:"PRE_PRICE"`
	Publisher        string `json:"PUBLISHER"`
	EAISBN           string `json:"EA_ISBN"`
	BookIntroduction string `json:"BOOK_INTRODUCTION"`
	PublishPredate   string `json:"PUBLISH_PREDATE"`
	InputDate        string `json:"INPUT_DATE"`
}

// SeojiClient queries the seoji API and adapts its payload to Record.
type SeojiClient struct {
	baseURL string
	certKey string
	httpc   *http.Client
}

// NewSeojiClient builds a client for the seoji API. certKey is the API
// authentication key; timeout bounds each lookup and surfaces as a lookup
// error when exceeded.
func NewSeojiClient(baseURL, certKey string, timeout time.Duration) *SeojiClient {
	if baseURL == "" {
		baseURL = DefaultSeojiURL
	}
	return &SeojiClient{
		baseURL: baseURL,
		certKey: certKey,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Lookup queries one ISBN and returns the first matching record, or
// (nil, nil) when the upstream has no entry for it.
func (c *SeojiClient) Lookup(ctx context.Context, isbn string) (*Record, error) {
	if c.certKey == "" {
		return nil, fmt.Errorf("API 인증 정보가 설정되지 않았습니다")
	}

	q := url.Values{}
	q.Set("cert_key", c.certKey)
	q.Set("result_style", "json")
	q.Set("page_no", "1")
	q.Set("page_size", "1")
	q.Set("isbn", isbn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("seoji request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API 응답 오류: %d", resp.StatusCode)
	}

	var payload seojiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode seoji response: %w", err)
	}

	if len(payload.Docs) == 0 || payload.TotalCount == "0" {
		return nil, nil
	}

	return payload.Docs[0].toRecord(isbn), nil
}

// toRecord adapts one upstream document to the /api/search record shape.
// searchedISBN fills in when the document carries no ISBN of its own.
func (d seojiDoc) toRecord(searchedISBN string) *Record {
	isbn := d.EAISBN
	if isbn == "" {
		isbn = searchedISBN
	}

	pubdate := d.PublishPredate
	if pubdate == "" {
		pubdate = d.InputDate
	}

	return &Record{
		Title:       d.Title,
		Author:      stripAuthorPrefix(d.Author),
		Discount:    d.PrePrice,
		Publisher:   d.Publisher,
		ISBN:        isbn,
		Description: d.BookIntroduction,
		PubDate:     pubdate,
	}
}

// stripAuthorPrefix removes the "저자 :" prefix seoji prepends to author
// names.
func stripAuthorPrefix(author string) string {
	trimmed := strings.TrimSpace(author)
	if rest, ok := strings.CutPrefix(trimmed, "저자"); ok {
		rest = strings.TrimSpace(rest)
		if after, ok := strings.CutPrefix(rest, ":"); ok {
			return strings.TrimSpace(after)
		}
	}
	return trimmed
}
