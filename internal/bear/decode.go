package bear

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
)

// NoteSummary is one entry of a notes listing.
type NoteSummary struct {
	Title      string `json:"title"`
	Identifier string `json:"identifier"`
}

// String formats the summary as "title (ID: identifier)".
func (n NoteSummary) String() string {
	return fmt.Sprintf("%s (ID: %s)", n.Title, n.Identifier)
}

// unescapeField returns the form-unescaped value of key. Bear encodes note
// bodies once more on top of the query encoding; values that fail to unescape
// are returned as received.
func unescapeField(res url.Values, key string) string {
	raw := res.Get(key)
	if raw == "" {
		return ""
	}
	v, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}
	return v
}

// decodeNotes parses a JSON array of notes. Missing or malformed input yields
// an empty list.
func decodeNotes(logger *slog.Logger, raw string) []string {
	if raw == "" {
		return []string{}
	}
	var notes []NoteSummary
	if err := json.Unmarshal([]byte(raw), &notes); err != nil {
		logger.Warn("ignoring malformed notes payload", "error", err)
		return []string{}
	}
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.String())
	}
	return out
}

// decodeTagNames extracts the name of every tag object that has one.
func decodeTagNames(logger *slog.Logger, raw string) []string {
	if raw == "" {
		return []string{}
	}
	var tags []map[string]any
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		logger.Warn("ignoring malformed tags payload", "error", err)
		return []string{}
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if name, ok := t["name"].(string); ok {
			out = append(out, name)
		}
	}
	return out
}
