package source

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extractor parses an API response body into image URLs.
type Extractor func(body []byte) ([]string, error)

// JSONField extracts one URL from an object field, as in {"url": "..."}.
func JSONField(field string) Extractor {
	return func(body []byte) ([]string, error) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("parse object: %w", err)
		}
		raw, ok := obj[field]
		if !ok {
			return nil, fmt.Errorf("field %q missing", field)
		}
		var url string
		if err := json.Unmarshal(raw, &url); err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		return nonEmpty([]string{url}), nil
	}
}

// JSONStrings extracts a top-level array of URL strings.
func JSONStrings() Extractor {
	return func(body []byte) ([]string, error) {
		var urls []string
		if err := json.Unmarshal(body, &urls); err != nil {
			return nil, fmt.Errorf("parse list: %w", err)
		}
		return nonEmpty(urls), nil
	}
}

// JSONObjects extracts field from every object of a top-level array, as in
// [{"id": "x", "url": "..."}].
func JSONObjects(field string) Extractor {
	return func(body []byte) ([]string, error) {
		var objs []map[string]json.RawMessage
		if err := json.Unmarshal(body, &objs); err != nil {
			return nil, fmt.Errorf("parse list: %w", err)
		}
		urls := make([]string, 0, len(objs))
		for _, obj := range objs {
			var url string
			if raw, ok := obj[field]; ok && json.Unmarshal(raw, &url) == nil {
				urls = append(urls, url)
			}
		}
		return nonEmpty(urls), nil
	}
}

// nonEmpty drops blank entries. Duplicates are kept.
func nonEmpty(urls []string) []string {
	out := urls[:0]
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
