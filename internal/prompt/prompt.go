// Package prompt turns a persona bundle into the system prompt sent with
// every question.
package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
)

// Placeholder texts for empty sections.
const (
	NoGovernance = "No specific governance rules loaded."
	NoStandards  = "No regulatory standards applicable."
)

// MaxControlsPerDomain caps the controls listed for each standard domain.
const MaxControlsPerDomain = 10

// DefaultGovernanceMode is used when a persona has no governance_mode.
const DefaultGovernanceMode = "standard"

const responseStyle = `RESPONSE STYLE:
- Stay in character with appropriate personality
- Enforce governance and standards strictly
- Provide actionable, domain-specific advice
- Flag violations clearly with control IDs when applicable
- Be helpful but maintain character voice
- Keep responses focused and concise
`

// FormatGovernance renders each governance document as a "# file" header,
// a blank line and its YAML, with sections separated by blank lines.
func FormatGovernance(docs []catalog.GovernanceDoc) (string, error) {
	if len(docs) == 0 {
		return NoGovernance, nil
	}

	sections := make([]string, 0, len(docs))
	for _, doc := range docs {
		body, err := encodeNode(doc.Content)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", doc.File, err)
		}
		sections = append(sections, "# "+doc.File+"\n\n"+body)
	}
	return strings.Join(sections, "\n\n"), nil
}

func encodeNode(n *yaml.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatStandards renders each standard's header and up to
// MaxControlsPerDomain controls per domain.
func FormatStandards(stds []*catalog.Standard) string {
	if len(stds) == 0 {
		return NoStandards
	}

	var lines []string
	for _, std := range stds {
		name := std.Name
		if name == "" {
			name = std.ID
		}
		version := std.Version
		if version == "" {
			version = "unknown"
		}
		lines = append(lines, fmt.Sprintf("# %s (v%s)", name, version))

		for _, domain := range std.Domains {
			lines = append(lines, "\n## "+domain.Name)
			controls := domain.Controls
			if len(controls) > MaxControlsPerDomain {
				controls = controls[:MaxControlsPerDomain]
			}
			for _, c := range controls {
				lines = append(lines, fmt.Sprintf("- [%s] (%s) %s", c.ID, c.Severity, c.Requirement))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// BuildSystemPrompt composes the persona's system prompt. Governance and
// standards sections are omitted when empty.
func BuildSystemPrompt(b *catalog.Bundle) (string, error) {
	p := b.Persona

	governance, err := FormatGovernance(b.Governance)
	if err != nil {
		return "", err
	}
	standards := FormatStandards(b.Standards)

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, providing %s guidance.\n\n", p.Character, p.Domain)
	fmt.Fprintf(&sb, "CHARACTER TRAITS:\n%s\n\n", p.Traits)

	if governance != NoGovernance {
		mode := p.GovernanceMode
		if mode == "" {
			mode = DefaultGovernanceMode
		}
		fmt.Fprintf(&sb, "ORGANIZATIONAL GOVERNANCE (%s enforcement):\n%s\n\n", strings.ToUpper(mode), governance)
	}

	if standards != NoStandards {
		fmt.Fprintf(&sb, "REGULATORY STANDARDS (MUST ENFORCE):\n%s\n\n", standards)
	}

	sb.WriteString(responseStyle)
	return sb.String(), nil
}

// UserMessage prefixes the question with its context block, if any.
func UserMessage(question, context string) string {
	if context == "" {
		return question
	}
	return "Context: " + context + "\n\n" + question
}
