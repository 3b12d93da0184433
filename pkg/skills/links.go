package skills

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CheckBodyLinks parses the markdown body of a SKILL.md and warns about every
// relative link or image whose target does not exist in the skill directory.
// URLs with a scheme, absolute paths and in-page fragments are not checked.
func CheckBodyLinks(skill Skill, body []byte) []Issue {
	doc := goldmark.New().Parser().Parse(text.NewReader(body))

	var issues []Issue
	seen := map[string]bool{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		var dest string
		switch node := n.(type) {
		case *ast.Link:
			dest = string(node.Destination)
		case *ast.Image:
			dest = string(node.Destination)
		default:
			return ast.WalkContinue, nil
		}

		target, ok := localLinkTarget(dest)
		if !ok || seen[target] {
			return ast.WalkContinue, nil
		}
		seen[target] = true

		if _, err := os.Stat(filepath.Join(skill.Dir, filepath.FromSlash(target))); err != nil {
			issues = append(issues, newWarning(KindStructural, skill.DescriptorPath, "broken link to %s", target))
		}
		return ast.WalkContinue, nil
	})

	return issues
}

func localLinkTarget(dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	return u.Path, true
}
