package skills

import (
	"strings"

	"github.com/pkg/errors"
)

// ParseMetadataFallback is the degraded front matter parser. It does not
// understand YAML; it scans top-level "key: value" lines and extracts only name
// and description, stripping one pair of matching quotes. Nested keys, block
// scalars and every other field are ignored.
//
// It exists for repositories whose descriptors are known to be flat and is only
// used when explicitly selected.
func ParseMetadataFallback(content []byte) (*Metadata, error) {
	block, _, err := SplitFrontMatter(content)
	if err != nil {
		return nil, err
	}

	values := map[string]string{}
	for _, line := range strings.Split(block, "\n") {
		if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key != "name" && key != "description" {
			continue
		}
		if _, seen := values[key]; seen {
			continue
		}
		values[key] = unquote(strings.TrimSpace(value))
	}

	// an empty name is left to the naming checks, as with the YAML parser
	name, ok := values["name"]
	if !ok {
		return nil, errors.New("front matter requires name")
	}
	description, ok := values["description"]
	if !ok {
		return nil, errors.New("front matter requires description")
	}

	return &Metadata{Name: name, Description: description}, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
