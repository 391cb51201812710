package content

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a front-matter
// block but never closed it.
var ErrMissingClosingDelimiter = errors.New("front-matter start delimiter found but closing delimiter is missing")

// splitFrontMatter separates `---` delimited YAML front-matter from the
// markdown body. had is false when the document does not open with a delimiter.
func splitFrontMatter(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line without a trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			return content[start : len(content)-len("---")], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// parseFields decodes raw front-matter into a map.
func parseFields(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// stringField returns a scalar field as a trimmed string.
func stringField(fields map[string]any, key string) (string, bool, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", false, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		return s, s != "", nil
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(val), true, nil
	case time.Time:
		return val.Format(time.RFC3339), true, nil
	default:
		return "", false, fmt.Errorf("field %q must be a string, got %T", key, v)
	}
}

func boolField(fields map[string]any, key string) (bool, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %q must be a boolean, got %T", key, v)
	}
	return b, nil
}

// tagsField accepts either a list of scalars or a single string.
// Duplicates are dropped case-insensitively, keeping the first spelling.
func tagsField(fields map[string]any, key string) ([]string, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return nil, nil
	}
	var raw []string
	switch val := v.(type) {
	case string:
		raw = []string{val}
	case []any:
		for i, item := range val {
			switch s := item.(type) {
			case string:
				raw = append(raw, s)
			case int, int64, float64, bool:
				raw = append(raw, fmt.Sprint(s))
			default:
				return nil, fmt.Errorf("field %q item %d must be a string, got %T", key, i, item)
			}
		}
	default:
		return nil, fmt.Errorf("field %q must be a list of strings, got %T", key, v)
	}

	seen := make(map[string]bool, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		k := strings.ToLower(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		tags = append(tags, t)
	}
	return tags, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// timeField parses an ISO-8601 timestamp. Values without an offset are
// interpreted in loc.
func timeField(fields map[string]any, key string, loc *time.Location) (time.Time, bool, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return time.Time{}, false, nil
	}
	switch val := v.(type) {
	case time.Time:
		return val, true, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false, nil
		}
		t, err := parseTimestamp(s, loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("field %q: %w", key, err)
		}
		return t, true, nil
	default:
		return time.Time{}, false, fmt.Errorf("field %q must be an ISO-8601 timestamp, got %T", key, v)
	}
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as an ISO-8601 timestamp", s)
}
