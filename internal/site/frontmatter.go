package site

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var fence = []byte("---")

// SplitFrontMatter separates a leading YAML block delimited by "---" lines
// from the body. Content without front matter comes back unchanged.
func SplitFrontMatter(content []byte) (map[string]any, []byte, error) {
	data := map[string]any{}

	rest, ok := bytes.CutPrefix(content, fence)
	if !ok {
		return data, content, nil
	}
	rest, ok = cutLineEnd(rest)
	if !ok {
		return data, content, nil
	}

	var raw []byte
	for len(rest) > 0 {
		line, next, _ := bytes.Cut(rest, []byte("\n"))
		if bytes.Equal(bytes.TrimRight(line, "\r"), fence) {
			if err := yaml.Unmarshal(raw, &data); err != nil {
				return nil, nil, fmt.Errorf("invalid front matter: %w", err)
			}
			if data == nil {
				data = map[string]any{}
			}
			return data, next, nil
		}
		raw = append(raw, line...)
		raw = append(raw, '\n')
		rest = next
	}

	return nil, nil, fmt.Errorf("unterminated front matter")
}

func cutLineEnd(b []byte) ([]byte, bool) {
	if rest, ok := bytes.CutPrefix(b, []byte("\r\n")); ok {
		return rest, true
	}
	return bytes.CutPrefix(b, []byte("\n"))
}
