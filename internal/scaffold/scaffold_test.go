package scaffold

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
	"github.com/gatekeep-ai/gatekeep/internal/config"
)

func TestInit_CreatesProject(t *testing.T) {
	root := t.TempDir()

	steps, err := Init(root)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	wantPaths := []string{"governance/", "personas/", "standards/", config.ProjectFileName, EnvExampleFile}
	if len(steps) != len(wantPaths) {
		t.Fatalf("Init() returned %d steps, want %d: %+v", len(steps), len(wantPaths), steps)
	}
	for i, want := range wantPaths {
		if steps[i].Path != want || steps[i].Action != Created {
			t.Errorf("step %d = %+v, want created %s", i, steps[i], want)
		}
	}

	for _, f := range []string{
		"governance/security.yaml",
		"personas/personas.yaml",
		"standards/versions.yaml",
		"standards/cis-aws-2.0/iam.yaml",
	} {
		if _, err := os.Stat(filepath.Join(root, f)); err != nil {
			t.Errorf("expected %s to exist: %v", f, err)
		}
	}

	env, err := os.ReadFile(filepath.Join(root, EnvExampleFile))
	if err != nil {
		t.Fatalf("read .env.example: %v", err)
	}
	if string(env) != "OPENROUTER_API_KEY=your_openrouter_api_key_here\n" {
		t.Errorf(".env.example = %q", env)
	}

	if !catalog.HasProjectCatalog(root) {
		t.Error("initialised project should be discovered as a catalog")
	}
	cat, err := catalog.Open(root)
	if err != nil {
		t.Fatalf("catalog.Open() error = %v", err)
	}
	if _, ok := cat.Persona("sentinel"); !ok {
		t.Error("copied catalog should contain sentinel")
	}
}

func TestInit_ManifestLoadsAsConfig(t *testing.T) {
	root := t.TempDir()
	if _, err := Init(root); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	cfg, err := config.LoadFromPath(filepath.Join(root, config.ProjectFileName))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Project.Name != "my-project" {
		t.Errorf("Project.Name = %q", cfg.Project.Name)
	}
	if len(cfg.Project.Standards) != 2 || cfg.Project.Standards[0] != "owasp-top10" || cfg.Project.Standards[1] != "cis-aws-2.0" {
		t.Errorf("Project.Standards = %v", cfg.Project.Standards)
	}
	if cfg.Project.Governance.BudgetLimit != 30 {
		t.Errorf("BudgetLimit = %v, want 30", cfg.Project.Governance.BudgetLimit)
	}
}

func TestInit_Idempotent(t *testing.T) {
	root := t.TempDir()
	if _, err := Init(root); err != nil {
		t.Fatalf("first Init() error = %v", err)
	}

	custom := filepath.Join(root, config.ProjectFileName)
	if err := os.WriteFile(custom, []byte("project:\n  name: mine\n"), 0644); err != nil {
		t.Fatal(err)
	}

	steps, err := Init(root)
	if err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("second Init() returned %d steps, want 3 skips: %+v", len(steps), steps)
	}
	for _, s := range steps {
		if s.Action != Skipped {
			t.Errorf("step %+v should be skipped", s)
		}
	}
	if got := steps[0].Message(); got != "  · governance/ already exists, skipping" {
		t.Errorf("Message() = %q", got)
	}

	data, _ := os.ReadFile(custom)
	if string(data) != "project:\n  name: mine\n" {
		t.Error("existing gatekeep.yaml was overwritten")
	}
}

func TestInitFrom_PartialSource(t *testing.T) {
	root := t.TempDir()
	src := fstest.MapFS{
		"governance/only.yaml": {Data: []byte("principles: []\n")},
	}

	steps, err := InitFrom(src, root)
	if err != nil {
		t.Fatalf("InitFrom() error = %v", err)
	}
	if steps[0].Path != "governance/" || steps[0].Action != Created {
		t.Errorf("first step = %+v", steps[0])
	}
	if got := steps[0].Message(); got != "  ✓ Created governance/" {
		t.Errorf("Message() = %q", got)
	}
	if _, err := os.Stat(filepath.Join(root, "personas")); !os.IsNotExist(err) {
		t.Error("personas/ should not be created when the source has none")
	}
}
