package persona

import (
	"context"
	"strings"

	"github.com/gatekeep-ai/gatekeep/pkg/models"
)

// Finding is one persona's answer within a workflow.
type Finding struct {
	Persona string
	// Label names the check in the deployment gate; empty for team review.
	Label    string
	Response string
	Err      error
}

// Text returns the response, or "Error: ..." when the call failed.
func (f Finding) Text() string {
	if f.Err != nil {
		return "Error: " + f.Err.Error()
	}
	return f.Response
}

// TeamReview asks every persona in workflows.team_review to review
// content concurrently. A failing persona only affects its own finding.
// Findings keep workflow order.
func (e *Engine) TeamReview(ctx context.Context, content, contextText string) []Finding {
	steps := e.catalog.Workflows().TeamReview.Steps
	findings := make([]Finding, len(steps))

	g := e.group()
	for i, step := range steps {
		g.Go(func() error {
			question := step.Prompt + ": " + content
			resp, err := e.consult(ctx, models.KindTeamReview, step.Persona, question, contextText)
			findings[i] = Finding{Persona: step.Persona, Response: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Debug("team review complete", "personas", len(findings))
	return findings
}

// GateResult is the outcome of a deployment gate run.
type GateResult struct {
	Environment string
	Checks      []Finding
	Approver    string
	Approval    string
}

// DeploymentGate runs the pre-deployment checks concurrently, then asks
// the environment's approver for a decision with the check results as
// context. Check failures are passed to the approver; an approval failure
// is returned.
func (e *Engine) DeploymentGate(ctx context.Context, plan string, env models.Environment, contextText string) (*GateResult, error) {
	gate := e.catalog.Workflows().DeploymentGate.WithDefaults()

	checks := make([]Finding, len(gate.Checks))
	g := e.group()
	for i, check := range gate.Checks {
		g.Go(func() error {
			question := check.Prompt + ": " + plan
			resp, err := e.consult(ctx, models.KindGateCheck, check.Persona, question, contextText)
			checks[i] = Finding{Persona: check.Persona, Label: check.Label, Response: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	lines := make([]string, 0, len(checks))
	for _, c := range checks {
		label := c.Label
		if label == "" {
			label = c.Persona
		}
		lines = append(lines, label+": "+c.Text())
	}
	approvalContext := strings.Join(lines, "\n") + "\n" + contextText

	approver := gate.Approver(string(env))
	question := "Approve deployment to " + string(env) + "?\n\nPlan: " + plan

	e.logger.Debug("deployment gate approval", "environment", env, "approver", approver)
	approval, err := e.consult(ctx, models.KindGateApproval, approver, question, approvalContext)
	if err != nil {
		return nil, err
	}

	return &GateResult{
		Environment: string(env),
		Checks:      checks,
		Approver:    approver,
		Approval:    approval,
	}, nil
}
