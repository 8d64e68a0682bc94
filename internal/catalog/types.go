package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona is one persona entry from personas/personas.yaml.
type Persona struct {
	// Name is the map key the persona was declared under.
	Name           string   `yaml:"-"`
	Character      string   `yaml:"character"`
	Domain         string   `yaml:"domain"`
	Role           string   `yaml:"role"`
	Model          string   `yaml:"model"`
	Models         []string `yaml:"models"`
	Emoji          string   `yaml:"emoji"`
	Traits         string   `yaml:"traits"`
	Governance     []string `yaml:"governance"`
	Standards      []string `yaml:"standards"`
	GovernanceMode string   `yaml:"governance_mode"`
}

// DisplayName returns the character name, falling back to the key.
func (p *Persona) DisplayName() string {
	if p.Character != "" {
		return p.Character
	}
	return p.Name
}

// ShortModel returns the model id after its last "/".
func (p *Persona) ShortModel() string {
	return ShortModel(p.Model)
}

// ShortModel trims a provider prefix such as "openai/".
func ShortModel(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}

// personaList decodes the personas mapping in declaration order.
type personaList []Persona

func (l *personaList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("personas: expected mapping, got %s", kindName(value))
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, body := value.Content[i], value.Content[i+1]
		p := Persona{}
		if body.Kind != 0 && body.Tag != "!!null" {
			if err := body.Decode(&p); err != nil {
				return fmt.Errorf("persona %s: %w", key.Value, err)
			}
		}
		p.Name = key.Value
		*l = append(*l, p)
	}
	return nil
}

// Route maps a keyword to one persona, or to a test/production pair.
// Keywords are lowercased when decoded.
type Route struct {
	Keyword  string
	Personas []string
}

// Routing holds keyword routes in declaration order.
type Routing struct {
	Default  string
	Keywords []Route
}

// DefaultPersona is used when no keyword matches and routing.default is unset.
const DefaultPersona = "reviewer"

func (r *Routing) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Default  string    `yaml:"default"`
		Keywords yaml.Node `yaml:"keywords"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	r.Default = raw.Default

	kw := &raw.Keywords
	if kw.Kind == 0 || kw.Tag == "!!null" {
		return nil
	}
	if kw.Kind != yaml.MappingNode {
		return fmt.Errorf("routing.keywords: expected mapping, got %s", kindName(kw))
	}

	for i := 0; i+1 < len(kw.Content); i += 2 {
		key, target := kw.Content[i], kw.Content[i+1]
		route := Route{Keyword: strings.ToLower(key.Value)}
		switch target.Kind {
		case yaml.ScalarNode:
			route.Personas = []string{target.Value}
		case yaml.SequenceNode:
			if err := target.Decode(&route.Personas); err != nil {
				return fmt.Errorf("routing.keywords.%s: %w", key.Value, err)
			}
		default:
			return fmt.Errorf("routing.keywords.%s: expected persona name or list, got %s", key.Value, kindName(target))
		}
		if route.Keyword == "" || len(route.Personas) == 0 {
			continue
		}
		r.Keywords = append(r.Keywords, route)
	}
	return nil
}

// DefaultOrFallback returns routing.default or DefaultPersona.
func (r *Routing) DefaultOrFallback() string {
	if r.Default != "" {
		return r.Default
	}
	return DefaultPersona
}

// ReviewStep is one persona in the team review with its prompt prefix.
type ReviewStep struct {
	Persona string
	Prompt  string
}

// TeamReview is workflows.team_review.
type TeamReview struct {
	Steps []ReviewStep
}

func (t *TeamReview) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Personas yaml.Node `yaml:"personas"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	n := &raw.Personas
	if n.Kind == 0 || n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("workflows.team_review.personas: expected mapping, got %s", kindName(n))
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		t.Steps = append(t.Steps, ReviewStep{
			Persona: n.Content[i].Value,
			Prompt:  n.Content[i+1].Value,
		})
	}
	return nil
}

// GateCheck is one phase-one check of the deployment gate.
type GateCheck struct {
	Persona string `yaml:"persona"`
	// Label prefixes the check result in the approver's context.
	Label  string `yaml:"label"`
	Prompt string `yaml:"prompt"`
}

// DeploymentGate is workflows.deployment_gate.
type DeploymentGate struct {
	Checks []GateCheck `yaml:"checks"`
	// Approvers maps a lowercased environment to a persona. The "default"
	// entry covers every other environment.
	Approvers map[string]string `yaml:"approvers"`
}

// DefaultGateChecks are used when deployment_gate.checks is empty.
var DefaultGateChecks = []GateCheck{
	{Persona: "auditor", Label: "Cost", Prompt: "Cost check for deployment"},
	{Persona: "sentinel", Label: "Security", Prompt: "Security check for deployment"},
}

// WithDefaults fills missing checks and approvers.
func (g DeploymentGate) WithDefaults() DeploymentGate {
	out := DeploymentGate{
		Checks:    g.Checks,
		Approvers: map[string]string{"production": "guardian", "default": "tester"},
	}
	if len(out.Checks) == 0 {
		out.Checks = append([]GateCheck(nil), DefaultGateChecks...)
	}
	for env, persona := range g.Approvers {
		if persona != "" {
			out.Approvers[strings.ToLower(env)] = persona
		}
	}
	return out
}

// Approver returns the persona that signs off on env.
func (g DeploymentGate) Approver(env string) string {
	d := g.WithDefaults()
	if p, ok := d.Approvers[strings.ToLower(strings.TrimSpace(env))]; ok {
		return p
	}
	return d.Approvers["default"]
}

// Workflows is the workflows section of personas.yaml.
type Workflows struct {
	TeamReview     TeamReview     `yaml:"team_review"`
	DeploymentGate DeploymentGate `yaml:"deployment_gate"`
}

// GovernanceDoc is one governance/<file> document.
type GovernanceDoc struct {
	File string
	// Content is the document's root node, order preserved.
	Content *yaml.Node
}

// Control is a single standard requirement.
type Control struct {
	ID          string `yaml:"id"`
	Requirement string `yaml:"requirement"`
	Severity    string `yaml:"severity"`
}

// Domain groups the controls from one standard file.
type Domain struct {
	Name     string
	Controls []Control
}

// Standard is a loaded standard with its domains in manifest order.
type Standard struct {
	ID      string
	Name    string
	Version string
	Files   []string
	Domains []Domain
}

// VersionStatus is the install status of a standard.
type VersionStatus string

const (
	StatusCurrent      VersionStatus = "current"
	StatusOutdated     VersionStatus = "outdated"
	StatusNotInstalled VersionStatus = "not_installed"
)

// StandardVersion is one entry from standards/versions.yaml.
type StandardVersion struct {
	ID        string
	Installed string        `yaml:"installed"`
	Latest    string        `yaml:"latest"`
	Status    VersionStatus `yaml:"status"`
}

type versionList []StandardVersion

func (l *versionList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("standards: expected mapping, got %s", kindName(value))
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		v := StandardVersion{}
		if body := value.Content[i+1]; body.Kind == yaml.MappingNode {
			if err := body.Decode(&v); err != nil {
				return fmt.Errorf("standard %s: %w", value.Content[i].Value, err)
			}
		}
		v.ID = value.Content[i].Value
		*l = append(*l, v)
	}
	return nil
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "nothing"
	}
}
