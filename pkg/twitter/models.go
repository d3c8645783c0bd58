package twitter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Item is one tweet as returned by a timeline or favorites page. Raw keeps
// the full payload so the archive holds everything the API sent.
type Item struct {
	ID            string
	CreatedAt     time.Time
	Raw           json.RawMessage
	Media         []MediaAttachment
	ExtendedMedia []MediaAttachment
	// HasExtended is true when the payload carries extended_entities.media
	HasExtended bool
}

// MediaAttachment is one entry of an entities or extended_entities media list
type MediaAttachment struct {
	URL      string
	Index    int
	Extended bool
}

// SkippedItem is a page entry that could not be decoded. ID is empty when
// the payload carried none.
type SkippedItem struct {
	ID  string
	Err error
}

// Page is one batch of items plus the cursor for the next request
type Page struct {
	Items      []Item
	Skipped    []SkippedItem
	NextCursor string
}

// Len counts every entry the API returned, decodable or not
func (p *Page) Len() int {
	return len(p.Items) + len(p.Skipped)
}

type wireMedia struct {
	MediaURL      string `json:"media_url"`
	MediaURLHTTPS string `json:"media_url_https"`
}

type wireTweet struct {
	ID        json.Number `json:"id"`
	IDStr     string      `json:"id_str"`
	CreatedAt string      `json:"created_at"`
	Entities  struct {
		Media []wireMedia `json:"media"`
	} `json:"entities"`
	ExtendedEntities *struct {
		Media *[]wireMedia `json:"media"`
	} `json:"extended_entities"`
}

// createdAtLayouts are tried in order. The API uses the Ruby layout.
var createdAtLayouts = []string{
	time.RubyDate,
	time.RFC3339,
}

// ParseCreatedAt parses a tweet timestamp, keeping its offset
func ParseCreatedAt(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range createdAtLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("unrecognised created_at %q: %w", s, lastErr)
}

// ParseItem decodes the fields the archiver needs from a raw tweet
func ParseItem(raw json.RawMessage) (Item, error) {
	var wire wireTweet
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Item{}, fmt.Errorf("decode tweet: %w", err)
	}

	id := wire.IDStr
	if id == "" {
		id = wire.ID.String()
	}
	if id == "" {
		return Item{}, fmt.Errorf("tweet has no id")
	}

	createdAt, err := ParseCreatedAt(wire.CreatedAt)
	if err != nil {
		return Item{}, fmt.Errorf("tweet %s: %w", id, err)
	}

	item := Item{
		ID:        id,
		CreatedAt: createdAt,
		Raw:       append(json.RawMessage(nil), raw...),
		Media:     attachments(wire.Entities.Media, false),
	}

	if wire.ExtendedEntities != nil && wire.ExtendedEntities.Media != nil {
		item.HasExtended = true
		item.ExtendedMedia = attachments(*wire.ExtendedEntities.Media, true)
	}

	return item, nil
}

func attachments(list []wireMedia, extended bool) []MediaAttachment {
	if len(list) == 0 {
		return nil
	}
	out := make([]MediaAttachment, 0, len(list))
	for i, m := range list {
		url := m.MediaURL
		if url == "" {
			url = m.MediaURLHTTPS
		}
		out = append(out, MediaAttachment{URL: url, Index: i, Extended: extended})
	}
	return out
}

// rawID pulls just the id out of a payload ParseItem rejected
func rawID(raw json.RawMessage) string {
	var wire struct {
		ID    json.RawMessage `json:"id"`
		IDStr string          `json:"id_str"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return ""
	}
	if wire.IDStr != "" {
		return wire.IDStr
	}
	return strings.Trim(string(wire.ID), `"`)
}

// nextCursor returns max_id for the request after ids: one below the
// lowest id seen. Empty when no id is numeric.
func nextCursor(ids []string) string {
	var lowest uint64
	found := false
	for _, s := range ids {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			continue
		}
		if !found || id < lowest {
			lowest = id
			found = true
		}
	}
	if !found || lowest == 0 {
		return ""
	}
	return strconv.FormatUint(lowest-1, 10)
}

type rateLimitEntry struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

type rateLimitResponse struct {
	Resources map[string]map[string]rateLimitEntry `json:"resources"`
}

type apiErrorResponse struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}
