package skills

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// ErrRootNotFound is returned when the skills root is unset, missing, not a
// directory or holds no SKILL.md at all
var ErrRootNotFound = errors.New("skills root not found")

// DefaultIgnorePatterns are path segments that never contain skills
var DefaultIgnorePatterns = []string{
	"__pycache__",
	".pytest_cache",
	".mypy_cache",
	".ruff_cache",
	".venv",
	".git",
	"node_modules",
	"*.egg-info",
}

// DefaultEntryScripts are the entry script locations probed, in order, relative to a skill directory
var DefaultEntryScripts = []string{
	"scripts/run.py",
	"scripts/run",
}

// Discovery walks a skills root and locates every SKILL.md below it
type Discovery struct {
	root         string
	ignore       []glob.Glob
	entryScripts []string
}

// DiscoveryOption is a function that configures a Discovery
type DiscoveryOption func(*Discovery) error

// WithIgnorePatterns replaces the path segment patterns skipped during the walk
func WithIgnorePatterns(patterns ...string) DiscoveryOption {
	return func(d *Discovery) error {
		compiled := make([]glob.Glob, 0, len(patterns))
		for _, p := range patterns {
			g, err := glob.Compile(p)
			if err != nil {
				return errors.Wrapf(err, "invalid ignore pattern %q", p)
			}
			compiled = append(compiled, g)
		}
		d.ignore = compiled
		return nil
	}
}

// WithEntryScripts replaces the entry script locations probed in each skill directory
func WithEntryScripts(paths ...string) DiscoveryOption {
	return func(d *Discovery) error {
		d.entryScripts = paths
		return nil
	}
}

// NewDiscovery creates a new skill discovery instance for root
func NewDiscovery(root string, opts ...DiscoveryOption) (*Discovery, error) {
	d := &Discovery{
		root:         root,
		entryScripts: DefaultEntryScripts,
	}
	if err := WithIgnorePatterns(DefaultIgnorePatterns...)(d); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Root returns the skills root this discovery walks
func (d *Discovery) Root() string {
	return d.root
}

// CheckRoot verifies the skills root exists and is a directory
func (d *Discovery) CheckRoot() error {
	if d.root == "" {
		return errors.Wrap(ErrRootNotFound, "empty path")
	}
	info, err := os.Stat(d.root)
	if err != nil {
		return errors.Wrapf(ErrRootNotFound, "%s", d.root)
	}
	if !info.IsDir() {
		return errors.Wrapf(ErrRootNotFound, "%s is not a directory", d.root)
	}
	return nil
}

// Discover returns every skill below the root, sorted by relative directory.
// A root without any descriptor is reported as ErrRootNotFound.
func (d *Discovery) Discover(ctx context.Context) ([]Skill, error) {
	if err := d.CheckRoot(); err != nil {
		return nil, err
	}

	var found []Skill
	err := doublestar.GlobWalk(os.DirFS(d.root), "**/"+skillFileName, func(p string, entry os.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || d.Ignored(p) {
			return nil
		}
		found = append(found, d.newSkill(path.Dir(p)))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk skills root %s", d.root)
	}
	if len(found) == 0 {
		return nil, errors.Wrapf(ErrRootNotFound, "no %s below %s", skillFileName, d.root)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].RelDir < found[j].RelDir
	})
	return found, nil
}

// Ignored reports whether any segment of the slash-separated path matches an ignore pattern
func (d *Discovery) Ignored(p string) bool {
	for _, segment := range strings.Split(p, "/") {
		for _, g := range d.ignore {
			if g.Match(segment) {
				return true
			}
		}
	}
	return false
}

func (d *Discovery) newSkill(relDir string) Skill {
	dir := filepath.Join(d.root, filepath.FromSlash(relDir))
	skill := Skill{
		Dir:            dir,
		RelDir:         relDir,
		Tier:           TierFromRelDir(relDir),
		DescriptorPath: filepath.Join(dir, skillFileName),
	}

	for _, candidate := range d.entryScripts {
		entryPath := filepath.Join(dir, filepath.FromSlash(candidate))
		if info, err := os.Stat(entryPath); err == nil && info.Mode().IsRegular() {
			skill.EntryScript = entryPath
			break
		}
	}

	return skill
}
