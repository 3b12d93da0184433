package skills

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"text/template"

	"github.com/aymanbagabas/go-udiff"
	"github.com/pkg/errors"
)

var companionTestTemplate = template.Must(template.New("companion").Parse(`from __future__ import annotations

import json
import subprocess
import sys
from pathlib import Path


REPO_ROOT = Path(__file__).resolve().parents[2]
SKILL_NAME = "{{ .Name }}"
TIERS = [".curated", ".experimental", ".system"]


def find_skill_dir() -> Path:
    for tier in TIERS:
        path = REPO_ROOT / "skills" / tier / SKILL_NAME
        if path.exists():
            return path
    raise AssertionError(
        f"Skill directory not found for {SKILL_NAME} under skills/{TIERS}"
    )


def run_script(*args: str) -> subprocess.CompletedProcess[str]:
    skill_dir = find_skill_dir()
    script = skill_dir / "scripts" / "run.py"
    assert script.exists(), f"Missing entry script: {script}"
    return subprocess.run(
        [sys.executable, str(script), *args],
        cwd=str(REPO_ROOT),
        text=True,
        capture_output=True,
        check=False,
    )


def parse_json_stdout(proc: subprocess.CompletedProcess[str]) -> dict:
    assert proc.stdout.strip(), "stdout is empty in --json mode"
    obj = json.loads(proc.stdout)
    assert isinstance(obj, dict), "JSON output must be an object"
    for key in ("ok", "summary", "changed"):
        assert key in obj, f"JSON missing required key: {key}"
    assert isinstance(obj["ok"], bool)
    assert isinstance(obj["summary"], str)
    assert isinstance(obj["changed"], bool)
    return obj


def test_help_works():
    proc = run_script("--help")
    assert proc.returncode == 0, proc.stderr


def test_json_contract_dry_run():
    proc = run_script("--json", "--cwd", str(REPO_ROOT))
    assert proc.returncode in (0, 3), (
        f"unexpected exit={proc.returncode} stderr={proc.stderr}"
    )
    obj = parse_json_stdout(proc)
    assert obj["changed"] is False

    if proc.returncode == 0:
        assert obj["ok"] is True
    if proc.returncode == 3:
        assert obj["ok"] is False


def test_json_contract_invalid_cwd_is_precondition_failure():
    bad = REPO_ROOT / ".tmp" / "does-not-exist"
    proc = run_script("--json", "--cwd", str(bad))
    assert proc.returncode == 3, (
        f"expected exit=3, got {proc.returncode} stderr={proc.stderr}"
    )
    obj = parse_json_stdout(proc)
    assert obj["ok"] is False
    assert obj["changed"] is False
`))

// RenderCompanionTest renders the pytest skeleton that exercises a
// script-backed skill's contract
func RenderCompanionTest(name string) (string, error) {
	var buf bytes.Buffer
	if err := companionTestTemplate.Execute(&buf, map[string]string{"Name": name}); err != nil {
		return "", errors.Wrap(err, "failed to render companion test")
	}
	return buf.String(), nil
}

// StaleTest is an existing companion test that differs from what would be generated
type StaleTest struct {
	Path string
	Diff string
}

// TestGenResult summarises a companion test generation run
type TestGenResult struct {
	Created []string
	Skipped []string
	Stale   []StaleTest
}

// GenerateTests writes a companion test for every script-backed skill under
// skillsRoot. Existing files are kept unless overwrite is set; kept files whose
// content has drifted are reported as stale with a unified diff.
func GenerateTests(ctx context.Context, skillsRoot, testsDir string, overwrite bool, opts ...DiscoveryOption) (*TestGenResult, error) {
	discovery, err := NewDiscovery(skillsRoot, opts...)
	if err != nil {
		return nil, err
	}
	found, err := discovery.Discover(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(testsDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create tests directory %s", testsDir)
	}

	result := &TestGenResult{}
	for _, skill := range found {
		if !skill.ScriptBacked() {
			continue
		}

		name := skill.DirName()
		content, err := RenderCompanionTest(name)
		if err != nil {
			return result, err
		}

		testPath := filepath.Join(testsDir, TestFileName(name))
		if existing, err := os.ReadFile(testPath); err == nil && !overwrite {
			result.Skipped = append(result.Skipped, testPath)
			if string(existing) != content {
				result.Stale = append(result.Stale, StaleTest{
					Path: testPath,
					Diff: udiff.Unified(testPath, testPath+" (generated)", string(existing), content),
				})
			}
			continue
		}

		if err := writeFileAtomic(testPath, []byte(content), 0o644); err != nil {
			return result, err
		}
		result.Created = append(result.Created, testPath)
	}

	return result, nil
}
