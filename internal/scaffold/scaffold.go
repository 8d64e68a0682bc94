// Package scaffold initialises a project with editable copies of the
// bundled catalog, a gatekeep.yaml manifest and an .env.example.
package scaffold

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
	"github.com/gatekeep-ai/gatekeep/internal/config"
)

// EnvExampleFile is the environment template written by Init.
const EnvExampleFile = ".env.example"

// Catalog directories copied from the bundled defaults, in order.
var catalogDirs = []string{catalog.GovernanceDir, catalog.PersonasDir, catalog.StandardsDir}

// Action describes what Init did for one path.
type Action string

const (
	Created Action = "created"
	Skipped Action = "skipped"
)

// Step is the outcome for one path.
type Step struct {
	// Path is relative to the project root; directories end in "/".
	Path   string
	Action Action
}

// Message is the CLI line for the step.
func (s Step) Message() string {
	if s.Action == Skipped {
		return fmt.Sprintf("  · %s already exists, skipping", s.Path)
	}
	return fmt.Sprintf("  ✓ Created %s", s.Path)
}

// Manifest is the gatekeep.yaml written into new projects.
type Manifest struct {
	Project ManifestProject `yaml:"project"`
}

type ManifestProject struct {
	Name       string             `yaml:"name"`
	Standards  []string           `yaml:"standards"`
	Governance ManifestGovernance `yaml:"governance"`
}

type ManifestGovernance struct {
	BudgetLimit float64 `yaml:"budget_limit"`
}

// DefaultManifest is the starter project manifest.
func DefaultManifest() Manifest {
	return Manifest{Project: ManifestProject{
		Name:       "my-project",
		Standards:  []string{"owasp-top10", "cis-aws-2.0"},
		Governance: ManifestGovernance{BudgetLimit: 30},
	}}
}

// Init populates root. Existing catalog directories and files are left
// alone, so running Init twice is safe.
func Init(root string) ([]Step, error) {
	return InitFrom(catalog.Bundled(), root)
}

// InitFrom is Init with an explicit source tree.
func InitFrom(src fs.FS, root string) ([]Step, error) {
	var steps []Step

	for _, dir := range catalogDirs {
		dst := filepath.Join(root, dir)
		label := dir + "/"
		if exists(dst) {
			steps = append(steps, Step{Path: label, Action: Skipped})
			continue
		}
		if _, err := fs.Stat(src, dir); err != nil {
			// Nothing bundled for this directory.
			continue
		}
		if err := copyTree(src, dir, dst); err != nil {
			return steps, fmt.Errorf("copy %s: %w", dir, err)
		}
		steps = append(steps, Step{Path: label, Action: Created})
	}

	manifest := filepath.Join(root, config.ProjectFileName)
	if !exists(manifest) {
		data, err := yaml.Marshal(DefaultManifest())
		if err != nil {
			return steps, fmt.Errorf("encode %s: %w", config.ProjectFileName, err)
		}
		if err := os.WriteFile(manifest, data, 0644); err != nil {
			return steps, fmt.Errorf("write %s: %w", config.ProjectFileName, err)
		}
		steps = append(steps, Step{Path: config.ProjectFileName, Action: Created})
	}

	envExample := filepath.Join(root, EnvExampleFile)
	if !exists(envExample) {
		content := "OPENROUTER_API_KEY=" + config.PlaceholderAPIKey + "\n"
		if err := os.WriteFile(envExample, []byte(content), 0644); err != nil {
			return steps, fmt.Errorf("write %s: %w", EnvExampleFile, err)
		}
		steps = append(steps, Step{Path: EnvExampleFile, Action: Created})
	}

	return steps, nil
}

func copyTree(src fs.FS, from, to string) error {
	return fs.WalkDir(src, from, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(from, filepath.FromSlash(p))
		if err != nil {
			return err
		}
		target := filepath.Join(to, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
