package skills

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RunType says whether a new skill is instruction-only or backed by an entry script
type RunType string

// RunType constants
const (
	RunTypeInstruction RunType = "instruction"
	RunTypeScript      RunType = "script"
)

// CreateSkillRequest describes a skill to scaffold
type CreateSkillRequest struct {
	Name          string
	Description   string
	Tier          string
	RunType       RunType
	OutRoot       string
	License       string
	Author        string
	Tags          []string
	Compatibility string
	MakeTests     bool
	TestsDir      string
}

// Dir returns the directory the skill will be created in
func (r CreateSkillRequest) Dir() string {
	return filepath.Join(r.OutRoot, "."+r.Tier, r.Name)
}

// Validate checks the request before anything is written
func (r CreateSkillRequest) Validate() error {
	if err := ValidateSkillName(r.Name); err != nil {
		return err
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("description is required")
	}
	if !slices.Contains(Tiers, r.Tier) {
		return errors.Errorf("invalid tier %q, must be one of: %s", r.Tier, strings.Join(Tiers, ", "))
	}
	if r.RunType != RunTypeInstruction && r.RunType != RunTypeScript {
		return errors.Errorf("invalid run type %q, must be one of: instruction, script", r.RunType)
	}
	if r.MakeTests && r.TestsDir == "" {
		return errors.New("tests directory is required when generating tests")
	}
	return nil
}

// ValidateSkillName returns an error describing the first naming rule name breaks
func ValidateSkillName(name string) error {
	if problems := CheckName(name); len(problems) > 0 {
		return errors.New("skill " + problems[0])
	}
	return nil
}

// ParseTags splits a comma-separated tag list, dropping blanks
func ParseTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

var skillBodyTemplate = template.Must(template.New("skill").Parse(`
# {{ .Name }}

## What this skill does
- Describe the behaviour of {{ .Name }} here.
{{ if .Script }}
## Scripts
- Check: ` + "`python3 scripts/run.py --cwd . --json`" + `
- Apply: ` + "`python3 scripts/run.py --cwd . --json --apply`" + `
{{ end }}
## Troubleshooting
See [references/REFERENCE.md](references/REFERENCE.md).
`))

// RenderSkillMD renders the SKILL.md for a request
func RenderSkillMD(r CreateSkillRequest) (string, error) {
	meta := Metadata{
		Name:          r.Name,
		Description:   r.Description,
		License:       r.License,
		Compatibility: r.Compatibility,
	}
	if r.Author != "" || len(r.Tags) > 0 {
		meta.Metadata = &MetadataInfo{Author: r.Author, Tags: r.Tags}
	}

	frontMatter, err := yaml.Marshal(meta)
	if err != nil {
		return "", errors.Wrap(err, "failed to render front matter")
	}

	var body bytes.Buffer
	if err := skillBodyTemplate.Execute(&body, map[string]any{
		"Name":   r.Name,
		"Script": r.RunType == RunTypeScript,
	}); err != nil {
		return "", errors.Wrap(err, "failed to render skill body")
	}

	return frontMatterDelimiter + "\n" + string(frontMatter) + frontMatterDelimiter + "\n" + body.String(), nil
}

const referenceTemplate = `# Reference

Detailed usage and troubleshooting notes for this skill.
`

const runScriptTemplate = `#!/usr/bin/env python3
"""Entry script implementing the skill script contract."""

from __future__ import annotations

import argparse
import json
import sys
from pathlib import Path

SUCCESS = 0
PRECONDITION = 3


def main() -> int:
    parser = argparse.ArgumentParser(description=__doc__)
    parser.add_argument("--cwd", type=Path, default=Path())
    parser.add_argument("--json", action="store_true")
    parser.add_argument("--apply", action="store_true")
    parser.add_argument("--verbose", action="store_true")
    args = parser.parse_args()

    if not args.cwd.is_dir():
        report = {"ok": False, "summary": f"cwd not found: {args.cwd}", "changed": False}
        code = PRECONDITION
    else:
        report = {"ok": True, "summary": "nothing to do", "changed": False}
        code = SUCCESS

    if args.json:
        sys.stdout.write(json.dumps(report) + "\n")
    else:
        sys.stdout.write(report["summary"] + "\n")
    return code


if __name__ == "__main__":
    raise SystemExit(main())
`

// CreateSkill writes the scaffold for r and returns the paths it created.
// It refuses to touch an existing skill directory.
func CreateSkill(r CreateSkillRequest) ([]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	dir := r.Dir()
	if _, err := os.Stat(dir); err == nil {
		return nil, errors.Errorf("%s already exists", dir)
	}

	skillMD, err := RenderSkillMD(r)
	if err != nil {
		return nil, err
	}

	files := []scaffoldFile{
		{path: filepath.Join(dir, skillFileName), content: skillMD, perm: 0o644},
		{path: filepath.Join(dir, referencesDir, "REFERENCE.md"), content: referenceTemplate, perm: 0o644},
	}
	if r.RunType == RunTypeScript {
		files = append(files, scaffoldFile{path: filepath.Join(dir, "scripts", "run.py"), content: runScriptTemplate, perm: 0o755})
		if r.MakeTests {
			testContent, err := RenderCompanionTest(r.Name)
			if err != nil {
				return nil, err
			}
			files = append(files, scaffoldFile{path: filepath.Join(r.TestsDir, TestFileName(r.Name)), content: testContent, perm: 0o644})
		}
	}

	created := make([]string, 0, len(files))
	for _, f := range files {
		if err := f.write(); err != nil {
			return created, err
		}
		created = append(created, f.path)
	}
	return created, nil
}

type scaffoldFile struct {
	path    string
	content string
	perm    os.FileMode
}

func (f scaffoldFile) write() error {
	return writeFileAtomic(f.path, []byte(f.content), f.perm)
}
