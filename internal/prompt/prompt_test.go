package prompt

import (
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
)

func bundledBundle(t *testing.T, name string) *catalog.Bundle {
	t.Helper()
	c, err := catalog.OpenBundled()
	if err != nil {
		t.Fatalf("OpenBundled() error = %v", err)
	}
	b, err := c.Bundle(name)
	if err != nil {
		t.Fatalf("Bundle(%s) error = %v", name, err)
	}
	return b
}

func TestFormatGovernance(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		got, err := FormatGovernance(nil)
		if err != nil {
			t.Fatalf("FormatGovernance() error = %v", err)
		}
		if got != NoGovernance {
			t.Errorf("FormatGovernance(nil) = %q, want %q", got, NoGovernance)
		}
	})

	t.Run("sections keep order", func(t *testing.T) {
		var a, b yaml.Node
		if err := yaml.Unmarshal([]byte("zeta: 1\nalpha: 2\n"), &a); err != nil {
			t.Fatal(err)
		}
		if err := yaml.Unmarshal([]byte("rules:\n  - one\n"), &b); err != nil {
			t.Fatal(err)
		}
		docs := []catalog.GovernanceDoc{
			{File: "first.yaml", Content: a.Content[0]},
			{File: "second.yaml", Content: b.Content[0]},
		}

		got, err := FormatGovernance(docs)
		if err != nil {
			t.Fatalf("FormatGovernance() error = %v", err)
		}
		want := "# first.yaml\n\nzeta: 1\nalpha: 2\n\n\n# second.yaml\n\nrules:\n  - one\n"
		if got != want {
			t.Errorf("FormatGovernance() = %q, want %q", got, want)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		docs := []catalog.GovernanceDoc{
			{File: "empty.yaml", Content: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
		got, err := FormatGovernance(docs)
		if err != nil {
			t.Fatalf("FormatGovernance() error = %v", err)
		}
		if want := "# empty.yaml\n\n{}\n"; got != want {
			t.Errorf("FormatGovernance() = %q, want %q", got, want)
		}
	})

	t.Run("bundled security", func(t *testing.T) {
		b := bundledBundle(t, "sentinel")
		got, err := FormatGovernance(b.Governance)
		if err != nil {
			t.Fatalf("FormatGovernance() error = %v", err)
		}
		if !strings.Contains(got, "# security.yaml") || !strings.Contains(got, "principles") {
			t.Errorf("FormatGovernance() missing security content: %q", got)
		}
	})
}

func TestFormatStandards(t *testing.T) {
	if got := FormatStandards(nil); got != NoStandards {
		t.Errorf("FormatStandards(nil) = %q, want %q", got, NoStandards)
	}

	std := &catalog.Standard{
		ID: "acme",
		Domains: []catalog.Domain{{
			Name: "ops",
			Controls: []catalog.Control{
				{ID: "OPS-1", Severity: "high", Requirement: "Page a human"},
			},
		}},
	}
	got := FormatStandards([]*catalog.Standard{std})
	want := "# acme (vunknown)\n\n## ops\n- [OPS-1] (high) Page a human"
	if got != want {
		t.Errorf("FormatStandards() = %q, want %q", got, want)
	}

	b := bundledBundle(t, "sentinel")
	got = FormatStandards(b.Standards)
	for _, s := range []string{"# CIS AWS Foundations Benchmark (v2.0.0)", "## iam", "- [1.4] (critical)", "# OWASP Top 10 (v2021)"} {
		if !strings.Contains(got, s) {
			t.Errorf("FormatStandards() missing %q", s)
		}
	}
	// iam has eleven controls; only ten are listed.
	if strings.Contains(got, "[1.20]") {
		t.Error("FormatStandards() listed more than ten iam controls")
	}
}

func TestBuildSystemPromptWithEmptyDocuments(t *testing.T) {
	fsys := fstest.MapFS{
		catalog.PersonasFile: {Data: []byte(`personas:
  p:
    character: P
    domain: ops
    traits: calm
    governance: [g.yaml, empty.yaml]
    standards: [s]
`)},
		"governance/g.yaml":         {Data: []byte("rule: 1\n")},
		"governance/empty.yaml":     {Data: []byte("")},
		"standards/s/manifest.yaml": {Data: []byte("standard:\n  name: S\n  version: \"1\"\n  files: [empty.yaml, x.yaml]\n")},
		"standards/s/empty.yaml":    {Data: []byte("")},
		"standards/s/x.yaml":        {Data: []byte("controls:\n  - id: X1\n    requirement: r\n    severity: high\n")},
	}
	c, err := catalog.New(fsys, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b, err := c.Bundle("p")
	if err != nil {
		t.Fatalf("Bundle(p) error = %v", err)
	}

	got, err := BuildSystemPrompt(b)
	if err != nil {
		t.Fatalf("BuildSystemPrompt() error = %v", err)
	}
	for _, want := range []string{
		"ORGANIZATIONAL GOVERNANCE (STANDARD enforcement):\n# g.yaml\n\nrule: 1\n\n\n# empty.yaml\n\n{}\n",
		"REGULATORY STANDARDS (MUST ENFORCE):\n# S (v1)\n\n## empty\n\n## x\n- [X1] (high) r\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("BuildSystemPrompt() missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatStandardsCapsControls(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(rt, "controls")
		controls := make([]catalog.Control, n)
		for i := range controls {
			controls[i] = catalog.Control{ID: fmt.Sprintf("C-%d", i), Severity: "low", Requirement: "r"}
		}
		std := &catalog.Standard{ID: "x", Version: "1", Domains: []catalog.Domain{{Name: "d", Controls: controls}}}

		got := strings.Count(FormatStandards([]*catalog.Standard{std}), "\n- [")
		want := min(n, MaxControlsPerDomain)
		if got != want {
			rt.Fatalf("listed %d controls for %d, want %d", got, n, want)
		}
	})
}

func TestBuildSystemPrompt(t *testing.T) {
	tests := []struct {
		name     string
		persona  string
		contains []string
		excludes []string
	}{
		{
			name:    "sentinel has governance and standards",
			persona: "sentinel",
			contains: []string{
				"You are Sentinel, providing application and cloud security guidance.",
				"CHARACTER TRAITS:",
				"ORGANIZATIONAL GOVERNANCE (STRICT enforcement):",
				"REGULATORY STANDARDS (MUST ENFORCE):",
				"RESPONSE STYLE:",
			},
		},
		{
			name:     "auditor mentions cost",
			persona:  "auditor",
			contains: []string{"Auditor", "cost-control.yaml"},
		},
		{
			name:     "architect uses standard mode",
			persona:  "architect",
			contains: []string{"ORGANIZATIONAL GOVERNANCE (STANDARD enforcement):"},
			excludes: []string{"REGULATORY STANDARDS"},
		},
		{
			name:     "guide has no governance",
			persona:  "guide",
			contains: []string{"Guide"},
			excludes: []string{"GOVERNANCE", NoGovernance, "REGULATORY STANDARDS"},
		},
		{
			name:     "reviewer has standards only",
			persona:  "reviewer",
			contains: []string{"Reviewer", "REGULATORY STANDARDS"},
			excludes: []string{"ORGANIZATIONAL GOVERNANCE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSystemPrompt(bundledBundle(t, tt.persona))
			if err != nil {
				t.Fatalf("BuildSystemPrompt() error = %v", err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("prompt missing %q", s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("prompt unexpectedly contains %q", s)
				}
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage("Is this safe?", ""); got != "Is this safe?" {
		t.Errorf("UserMessage() = %q", got)
	}
	want := "Context: AWS Lambda\n\nIs this safe?"
	if got := UserMessage("Is this safe?", "AWS Lambda"); got != want {
		t.Errorf("UserMessage() = %q, want %q", got, want)
	}
}
