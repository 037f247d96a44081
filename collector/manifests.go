package collector

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/go-github/v74/github"

	"github.com/github-tools/github-org-stats/gh"
)

// manifestFiles maps well-known dependency manifests to their
// ecosystem label in the report.
var manifestFiles = []struct {
	filename  string
	ecosystem string
}{
	{"package.json", "npm"},
	{"requirements.txt", "pip"},
	{"Gemfile", "gem"},
	{"pom.xml", "maven"},
	{"build.gradle", "gradle"},
	{"Cargo.toml", "cargo"},
	{"go.mod", "go"},
}

// dependencies probes each well-known manifest. npm and pip manifests
// are parsed into dependency names; the rest just report presence.
func (c *Collector) dependencies(ctx context.Context, owner, name string) map[string][]string {
	deps := make(map[string][]string)

	for _, mf := range manifestFiles {
		content, ok := c.fileContent(ctx, owner, name, mf.filename)
		if !ok {
			continue
		}
		switch mf.ecosystem {
		case "npm":
			deps[mf.ecosystem] = parsePackageJSON(content)
		case "pip":
			deps[mf.ecosystem] = parseRequirements(content)
		default:
			deps[mf.ecosystem] = []string{"present"}
		}
	}

	if len(deps) == 0 {
		return nil
	}
	return deps
}

// submodules parses .gitmodules into its entries. Missing file or
// parse trouble yields nil.
func (c *Collector) submodules(ctx context.Context, owner, name string) []Submodule {
	content, ok := c.fileContent(ctx, owner, name, ".gitmodules")
	if !ok {
		return nil
	}
	return ParseGitmodules(content)
}

func (c *Collector) fileContent(ctx context.Context, owner, name, path string) (string, bool) {
	return gh.Call(ctx, c.client, "GetContents", owner+"/"+name+"/"+path,
		func(ctx context.Context) (string, *github.Response, error) {
			file, _, resp, err := c.client.GH.Repositories.GetContents(ctx, owner, name, path, nil)
			if err != nil {
				return "", resp, err
			}
			if file == nil {
				return "", resp, nil
			}
			content, err := file.GetContent()
			return content, resp, err
		})
}

// parsePackageJSON extracts the dependency names from package.json.
func parsePackageJSON(content string) []string {
	var pkg struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return []string{}
	}
	names := make([]string, 0, len(pkg.Dependencies))
	for dep := range pkg.Dependencies {
		names = append(names, dep)
	}
	return names
}

// parseRequirements extracts package names from requirements.txt,
// stripping version constraints and comments.
func parseRequirements(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, sep := range []string{"==", ">=", "<="} {
			if i := strings.Index(line, sep); i >= 0 {
				line = line[:i]
			}
		}
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names
}

// ParseGitmodules parses the INI-ish .gitmodules format into submodule
// entries.
func ParseGitmodules(content string) []Submodule {
	var submodules []Submodule
	var current *Submodule

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "[submodule"):
			if current != nil {
				submodules = append(submodules, *current)
			}
			name := ""
			if i := strings.Index(line, `"`); i >= 0 {
				if j := strings.Index(line[i+1:], `"`); j >= 0 {
					name = line[i+1 : i+1+j]
				}
			}
			current = &Submodule{Name: name}
		case current != nil && strings.Contains(line, "="):
			parts := strings.SplitN(line, "=", 2)
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			switch key {
			case "path":
				current.Path = value
			case "url":
				current.URL = value
			}
		}
	}
	if current != nil {
		submodules = append(submodules, *current)
	}
	return submodules
}
