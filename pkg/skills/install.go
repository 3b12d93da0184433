package skills

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// InstallMode says how a skill is placed into an agent skill directory
type InstallMode string

// InstallMode constants
const (
	InstallSymlink InstallMode = "symlink"
	InstallCopy    InstallMode = "copy"
)

// ParseInstallMode parses an install mode name
func ParseInstallMode(s string) (InstallMode, error) {
	switch InstallMode(s) {
	case InstallSymlink, InstallCopy:
		return InstallMode(s), nil
	default:
		return "", errors.Errorf("invalid install mode %q, must be one of: symlink, copy", s)
	}
}

// Installer places the skills of one source directory into agent skill directories
type Installer struct {
	fs            afero.Fs
	mode          InstallMode
	discoveryOpts []DiscoveryOption
}

// InstallerOption is a function that configures an Installer
type InstallerOption func(*Installer)

// WithInstallFs replaces the filesystem targets are written to
func WithInstallFs(fs afero.Fs) InstallerOption {
	return func(i *Installer) {
		i.fs = fs
	}
}

// WithInstallMode sets whether skills are symlinked or copied
func WithInstallMode(mode InstallMode) InstallerOption {
	return func(i *Installer) {
		i.mode = mode
	}
}

// WithInstallDiscoveryOptions passes options through to discovery of the source
func WithInstallDiscoveryOptions(opts ...DiscoveryOption) InstallerOption {
	return func(i *Installer) {
		i.discoveryOpts = append(i.discoveryOpts, opts...)
	}
}

// NewInstaller creates an Installer that symlinks on the OS filesystem by default
func NewInstaller(opts ...InstallerOption) *Installer {
	i := &Installer{
		fs:   afero.NewOsFs(),
		mode: InstallSymlink,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// InstallResult lists what an install run placed
type InstallResult struct {
	Skills  []string
	Targets []string
}

// Install places every skill directly below source into each target directory,
// replacing whatever already exists under the skill's name. A source that is
// missing or holds no skills is reported as ErrRootNotFound.
func (i *Installer) Install(ctx context.Context, source string, targets []string) (*InstallResult, error) {
	absSource, err := filepath.Abs(source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve source %s", source)
	}
	discovery, err := NewDiscovery(absSource, i.discoveryOpts...)
	if err != nil {
		return nil, err
	}
	found, err := discovery.Discover(ctx)
	if err != nil {
		return nil, err
	}

	result := &InstallResult{Targets: targets}
	for _, skill := range found {
		// nested descriptors belong to the skill above them
		if strings.Contains(skill.RelDir, "/") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		for _, target := range targets {
			dest := filepath.Join(target, skill.DirName())
			if err := i.installSkill(discovery, skill.Dir, dest); err != nil {
				return result, err
			}
			logger.G(ctx).WithField("skill", skill.DirName()).WithField("destination", dest).WithField("mode", i.mode).Debug("installed skill")
		}
		result.Skills = append(result.Skills, skill.DirName())
	}
	return result, nil
}

func (i *Installer) installSkill(discovery *Discovery, src, dest string) error {
	if err := i.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(dest))
	}
	// RemoveAll drops a symlink without following it
	if err := i.fs.RemoveAll(dest); err != nil {
		return errors.Wrapf(err, "failed to replace %s", dest)
	}

	if i.mode == InstallSymlink {
		linker, ok := i.fs.(afero.Linker)
		if !ok {
			return errors.Errorf("filesystem %s does not support symlinks", i.fs.Name())
		}
		return errors.Wrapf(linker.SymlinkIfPossible(src, dest), "failed to link %s", dest)
	}
	return i.copyTree(discovery, src, dest)
}

func (i *Installer) copyTree(discovery *Discovery, src, dest string) error {
	return afero.Walk(i.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if skillRel, err := filepath.Rel(discovery.Root(), path); err == nil && discovery.Ignored(filepath.ToSlash(skillRel)) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dest, rel)

		switch {
		case info.IsDir():
			return errors.Wrapf(i.fs.MkdirAll(target, info.Mode().Perm()), "failed to create %s", target)
		case info.Mode()&os.ModeSymlink != 0:
			return i.copyLink(path, target)
		default:
			return i.copyFile(path, target, info.Mode().Perm())
		}
	})
}

func (i *Installer) copyLink(path, target string) error {
	reader, ok := i.fs.(afero.LinkReader)
	if !ok {
		return errors.Errorf("cannot read symlink %s on %s", path, i.fs.Name())
	}
	link, err := reader.ReadlinkIfPossible(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read symlink %s", path)
	}
	linker, ok := i.fs.(afero.Linker)
	if !ok {
		return errors.Errorf("filesystem %s does not support symlinks", i.fs.Name())
	}
	return errors.Wrapf(linker.SymlinkIfPossible(link, target), "failed to link %s", target)
}

func (i *Installer) copyFile(path, target string, perm os.FileMode) error {
	in, err := i.fs.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer in.Close()

	out, err := i.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", target)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to copy %s", path)
	}
	return errors.Wrapf(out.Close(), "failed to close %s", target)
}
