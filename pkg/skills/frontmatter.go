package skills

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

// Front matter parse failures. They are wrapped with detail where useful, so
// compare with errors.Cause.
var (
	ErrMissingFrontMatter   = errors.New("missing front matter")
	ErrFrontMatterNotClosed = errors.New("front matter not closed")
	ErrFrontMatterNotMap    = errors.New("front matter is not a mapping")
)

// MetadataParser parses SKILL.md content into Metadata
type MetadataParser func(content []byte) (*Metadata, error)

// SplitFrontMatter returns the front matter block and the body that follows it.
// The first non-empty line must be the "---" delimiter and the block ends at the
// next line that is exactly "---" once surrounding whitespace is trimmed.
func SplitFrontMatter(content []byte) (block string, body string, err error) {
	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")

	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.TrimSpace(line) != frontMatterDelimiter {
			return "", "", ErrMissingFrontMatter
		}
		start = i
		break
	}
	if start == -1 {
		return "", "", ErrMissingFrontMatter
	}

	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterDelimiter {
			return strings.Join(lines[start+1:i], "\n"), strings.Join(lines[i+1:], "\n"), nil
		}
	}
	return "", "", ErrFrontMatterNotClosed
}

// ParseMetadata parses the YAML front matter of a SKILL.md file. It never
// panics; every failure comes back as a descriptive error for the caller to
// record.
func ParseMetadata(content []byte) (*Metadata, error) {
	block, _, err := SplitFrontMatter(content)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, errors.Wrap(err, "invalid front matter yaml")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, ErrFrontMatterNotMap
	}
	mapping := doc.Content[0]

	var raw map[string]any
	if err := mapping.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "invalid front matter yaml")
	}

	name, err := requiredString(raw, "name")
	if err != nil {
		return nil, err
	}
	description, err := requiredString(raw, "description")
	if err != nil {
		return nil, err
	}

	meta := &Metadata{}
	if err := mapping.Decode(meta); err != nil {
		// optional keys are malformed; keep the required ones
		meta = &Metadata{}
	}
	meta.Name = name
	meta.Description = description
	return meta, nil
}

func requiredString(raw map[string]any, key string) (string, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return "", errors.Errorf("front matter requires %s", key)
	}
	s, ok := value.(string)
	if !ok {
		return "", errors.Errorf("front matter field %s must be a string, got %T", key, value)
	}
	return s, nil
}
