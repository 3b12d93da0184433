package skills

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillkit/pkg/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// IndexEntry is one skill in the generated index
type IndexEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
	Tier        string `json:"tier"`
}

// BuildIndex reads every descriptor under root and returns the index entries
// sorted by tier, then name. Any unreadable or invalid descriptor fails the
// whole build and every failure is reported.
func BuildIndex(ctx context.Context, root string, parse MetadataParser, opts ...DiscoveryOption) ([]IndexEntry, error) {
	var entries []IndexEntry
	err := telemetry.WithSpan(ctx, "skills.index", func(ctx context.Context) error {
		var err error
		entries, err = buildIndex(ctx, root, parse, opts...)
		telemetry.SetAttributes(ctx, attribute.Int("skills.indexed", len(entries)))
		return err
	}, attribute.String("skills.root", root))
	return entries, err
}

func buildIndex(ctx context.Context, root string, parse MetadataParser, opts ...DiscoveryOption) ([]IndexEntry, error) {
	if parse == nil {
		parse = ParseMetadata
	}

	discovery, err := NewDiscovery(root, opts...)
	if err != nil {
		return nil, err
	}
	found, err := discovery.Discover(ctx)
	if err != nil {
		return nil, err
	}

	var result *multierror.Error
	entries := make([]IndexEntry, 0, len(found))
	for _, skill := range found {
		content, err := os.ReadFile(skill.DescriptorPath)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "failed to read %s", skill.DescriptorPath))
			continue
		}
		meta, err := parse(content)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "%s", skill.DescriptorPath))
			continue
		}
		entries = append(entries, IndexEntry{
			Name:        meta.Name,
			Description: meta.Description,
			Path:        filepath.ToSlash(skill.Dir),
			Tier:        skill.Tier,
		})
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Tier != entries[j].Tier {
			return entries[i].Tier < entries[j].Tier
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// WriteIndex atomically replaces path with entries as indented JSON
func WriteIndex(path string, entries []IndexEntry) error {
	if entries == nil {
		entries = []IndexEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal index")
	}
	data = append(data, '\n')

	return writeFileAtomic(path, data, 0o644)
}
