// Package review defines the review records served by a remote source, the
// page payload they arrive in, and the capability used to fetch them.
package review

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a single review as decoded from a page payload.
type Record struct {
	AvatarURL *string  `json:"avatar_url,omitempty"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Rating    int      `json:"rating"`
	PhotoURLs []string `json:"photo_urls,omitempty"`
	Text      string   `json:"text"`
	Created   string   `json:"created"`
}

// HasAvatar returns true if the record references an avatar image.
func (r Record) HasAvatar() bool {
	return r.AvatarURL != nil && *r.AvatarURL != ""
}

// Avatar returns the avatar URL or an empty string.
func (r Record) Avatar() string {
	if r.AvatarURL == nil {
		return ""
	}
	return *r.AvatarURL
}

// Page is one response of the reviews endpoint. Count is the total number of
// reviews the server holds, not the length of Items.
type Page struct {
	Count int      `json:"count"`
	Items []Record `json:"items"`
}

// wirePage mirrors Page with pointer fields so missing keys can be told
// apart from zero values.
type wirePage struct {
	Count *int      `json:"count"`
	Items *[]Record `json:"items"`
}

// DecodePage parses a page payload. Any malformed input, including a payload
// without "count" or "items", yields an error wrapping ErrDecode.
func DecodePage(data []byte) (Page, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var w wirePage
	if err := dec.Decode(&w); err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	switch {
	case w.Count == nil:
		return Page{}, fmt.Errorf("%w: missing count", ErrDecode)
	case w.Items == nil:
		return Page{}, fmt.Errorf("%w: missing items", ErrDecode)
	case *w.Count < 0:
		return Page{}, fmt.Errorf("%w: negative count %d", ErrDecode, *w.Count)
	}

	return Page{Count: *w.Count, Items: *w.Items}, nil
}

// EncodePage is the inverse of DecodePage. Used by sources that assemble
// pages locally.
func EncodePage(p Page) ([]byte, error) {
	if p.Items == nil {
		p.Items = []Record{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}
	return data, nil
}
