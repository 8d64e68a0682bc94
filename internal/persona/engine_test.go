package persona

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"pgregory.net/rapid"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
	"github.com/gatekeep-ai/gatekeep/internal/llm"
	"github.com/gatekeep-ai/gatekeep/pkg/models"
)

// fakeClient answers every request through respond and keeps a log.
type fakeClient struct {
	mu       sync.Mutex
	requests []llm.Request
	respond  func(req llm.Request) (string, error)
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.respond == nil {
		return &llm.Response{Content: "ok", Model: req.Model}, nil
	}
	content, err := f.respond(req)
	if err != nil {
		return nil, err
	}
	return &llm.Response{Content: content, Model: req.Model}, nil
}

func (f *fakeClient) calls() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []*models.Consultation
}

func (m *memoryRecorder) Record(ctx context.Context, c *models.Consultation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, c)
	return nil
}

func newTestEngine(t *testing.T, client llm.Client, opts ...Option) *Engine {
	t.Helper()
	cat, err := catalog.OpenBundled()
	if err != nil {
		t.Fatalf("OpenBundled() error = %v", err)
	}
	return New(cat, client, opts...)
}

// personaOf extracts the character name from a system prompt.
func personaOf(system string) string {
	rest := strings.TrimPrefix(system, "You are ")
	if i := strings.Index(rest, ","); i >= 0 {
		return rest[:i]
	}
	return ""
}

func TestBuildSystemPromptUnknown(t *testing.T) {
	e := newTestEngine(t, &fakeClient{})

	_, err := e.BuildSystemPrompt("nonexistent")
	if !errors.Is(err, ErrUnknownPersona) {
		t.Fatalf("BuildSystemPrompt() error = %v, want ErrUnknownPersona", err)
	}
	if err.Error() != "unknown persona: nonexistent" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestRoute(t *testing.T) {
	e := newTestEngine(t, &fakeClient{})

	tests := []struct {
		question string
		want     string
	}{
		{"Is this security configuration safe?", "sentinel"},
		{"What will this cost?", "auditor"},
		{"How should I design this API?", "architect"},
		{"Can you review this code?", "reviewer"},
		{"Can I deploy to staging?", "tester"},
		{"Deploy to production please", "guardian"},
		{"DEPLOY TO PROD", "guardian"},
		{"Something completely unrelated to any keyword", "reviewer"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			if got := e.Route(tt.question); got != tt.want {
				t.Errorf("Route(%q) = %q, want %q", tt.question, got, tt.want)
			}
		})
	}
}

func TestRouteAlwaysNamesKnownPersona(t *testing.T) {
	e := newTestEngine(t, &fakeClient{})

	rapid.Check(t, func(rt *rapid.T) {
		q := rapid.String().Draw(rt, "question")
		name := e.Route(q)
		if _, ok := e.Catalog().Persona(name); !ok {
			rt.Fatalf("Route(%q) = %q, not a known persona", q, name)
		}
	})
}

func TestConsult(t *testing.T) {
	client := &fakeClient{respond: func(req llm.Request) (string, error) {
		return "Looks secure.", nil
	}}
	e := newTestEngine(t, client)

	got, err := e.Consult(context.Background(), "sentinel", "Is this safe?", "")
	if err != nil {
		t.Fatalf("Consult() error = %v", err)
	}
	if got != "Looks secure." {
		t.Errorf("Consult() = %q", got)
	}

	calls := client.calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Model != "anthropic/claude-3.5-sonnet" {
		t.Errorf("model = %q", calls[0].Model)
	}
	if personaOf(calls[0].System) != "Sentinel" {
		t.Errorf("system prompt persona = %q", personaOf(calls[0].System))
	}
	if calls[0].Prompt != "Is this safe?" {
		t.Errorf("prompt = %q", calls[0].Prompt)
	}
}

func TestConsultWithContext(t *testing.T) {
	client := &fakeClient{}
	e := newTestEngine(t, client)

	if _, err := e.Consult(context.Background(), "auditor", "Estimate spend", "3 m5.large"); err != nil {
		t.Fatalf("Consult() error = %v", err)
	}
	calls := client.calls()
	if want := "Context: 3 m5.large\n\nEstimate spend"; calls[0].Prompt != want {
		t.Errorf("prompt = %q, want %q", calls[0].Prompt, want)
	}
}

func TestConsultUnknownPersona(t *testing.T) {
	client := &fakeClient{}
	e := newTestEngine(t, client)

	_, err := e.Consult(context.Background(), "nonexistent", "q", "")
	if !errors.Is(err, ErrUnknownPersona) {
		t.Fatalf("Consult() error = %v, want ErrUnknownPersona", err)
	}
	if len(client.calls()) != 0 {
		t.Error("expected no model call for unknown persona")
	}
}

func TestConsultPropagatesError(t *testing.T) {
	client := &fakeClient{respond: func(req llm.Request) (string, error) {
		return "", &llm.APIError{StatusCode: 500, Body: "upstream down"}
	}}
	e := newTestEngine(t, client)

	_, err := e.Consult(context.Background(), "architect", "q", "")
	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Consult() error = %v, want *llm.APIError", err)
	}
}

func TestConsultConsensus(t *testing.T) {
	client := &fakeClient{respond: func(req llm.Request) (string, error) {
		if req.Model == "openai/gpt-4o" {
			return "", errors.New("boom")
		}
		return "LGTM", nil
	}}
	e := newTestEngine(t, client)

	got, err := e.Consult(context.Background(), "reviewer", "Review this function", "")
	if err != nil {
		t.Fatalf("Consult() error = %v", err)
	}

	want := "👀 Peer Review (Multi-LLM Consensus)\n\n" +
		"**claude-3.5-sonnet**:\nLGTM\n\n" +
		"**gpt-4o**: Error — boom\n\n" +
		"---\n*Consensus review from multiple perspectives*"
	if got != want {
		t.Errorf("Consult(reviewer) =\n%q\nwant\n%q", got, want)
	}

	calls := client.calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	for _, c := range calls {
		if personaOf(c.System) != "Reviewer" || c.Prompt != "Review this function" {
			t.Errorf("unexpected consensus request %+v", c)
		}
	}
}

func TestTeamReview(t *testing.T) {
	client := &fakeClient{respond: func(req llm.Request) (string, error) {
		who := personaOf(req.System)
		if who == "Sentinel" {
			return "", errors.New("timeout")
		}
		return who + " says fine", nil
	}}
	e := newTestEngine(t, client)

	findings := e.TeamReview(context.Background(), "add a cache layer", "")
	if len(findings) != 3 {
		t.Fatalf("TeamReview() returned %d findings, want 3", len(findings))
	}

	want := []struct {
		persona string
		text    string
	}{
		{"auditor", "Auditor says fine"},
		{"sentinel", "Error: timeout"},
		{"architect", "Architect says fine"},
	}
	for i, w := range want {
		if findings[i].Persona != w.persona {
			t.Errorf("finding %d persona = %q, want %q", i, findings[i].Persona, w.persona)
		}
		if findings[i].Text() != w.text {
			t.Errorf("finding %d text = %q, want %q", i, findings[i].Text(), w.text)
		}
	}

	prompts := map[string]string{}
	for _, c := range client.calls() {
		prompts[personaOf(c.System)] = c.Prompt
	}
	if prompts["Auditor"] != "Review for cost implications: add a cache layer" {
		t.Errorf("auditor prompt = %q", prompts["Auditor"])
	}
}

func TestDeploymentGate(t *testing.T) {
	tests := []struct {
		env          models.Environment
		wantApprover string
	}{
		{models.EnvProduction, "guardian"},
		{models.EnvTest, "tester"},
		{models.Environment("Production"), "guardian"},
	}

	for _, tt := range tests {
		t.Run(string(tt.env), func(t *testing.T) {
			client := &fakeClient{respond: func(req llm.Request) (string, error) {
				switch personaOf(req.System) {
				case "Auditor":
					return "within budget", nil
				case "Sentinel":
					return "no findings", nil
				default:
					return "APPROVED", nil
				}
			}}
			e := newTestEngine(t, client)

			res, err := e.DeploymentGate(context.Background(), "roll out v2", tt.env, "canary first")
			if err != nil {
				t.Fatalf("DeploymentGate() error = %v", err)
			}
			if res.Approver != tt.wantApprover {
				t.Errorf("Approver = %q, want %q", res.Approver, tt.wantApprover)
			}
			if res.Approval != "APPROVED" || res.Environment != string(tt.env) {
				t.Errorf("result = %+v", res)
			}
			if len(res.Checks) != 2 || res.Checks[0].Persona != "auditor" || res.Checks[1].Persona != "sentinel" {
				t.Fatalf("checks = %+v", res.Checks)
			}

			calls := client.calls()
			if len(calls) != 3 {
				t.Fatalf("expected 3 calls, got %d", len(calls))
			}
			approval := calls[2]
			wantPrompt := "Context: Cost: within budget\nSecurity: no findings\ncanary first\n\n" +
				"Approve deployment to " + string(tt.env) + "?\n\nPlan: roll out v2"
			if approval.Prompt != wantPrompt {
				t.Errorf("approval prompt = %q, want %q", approval.Prompt, wantPrompt)
			}
		})
	}
}

func TestDeploymentGateCheckFailureReachesApprover(t *testing.T) {
	client := &fakeClient{respond: func(req llm.Request) (string, error) {
		if personaOf(req.System) == "Auditor" {
			return "", errors.New("quota exceeded")
		}
		return "ok", nil
	}}
	e := newTestEngine(t, client)

	res, err := e.DeploymentGate(context.Background(), "plan", models.EnvTest, "")
	if err != nil {
		t.Fatalf("DeploymentGate() error = %v", err)
	}
	if res.Checks[0].Err == nil {
		t.Error("expected auditor check error")
	}

	last := client.calls()[2]
	if !strings.Contains(last.Prompt, "Cost: Error: quota exceeded") {
		t.Errorf("approval prompt missing check error: %q", last.Prompt)
	}
}

func TestDeploymentGateApprovalFailure(t *testing.T) {
	client := &fakeClient{respond: func(req llm.Request) (string, error) {
		if personaOf(req.System) == "Guardian" {
			return "", errors.New("guardian offline")
		}
		return "ok", nil
	}}
	e := newTestEngine(t, client)

	if _, err := e.DeploymentGate(context.Background(), "plan", models.EnvProduction, ""); err == nil {
		t.Fatal("expected approval error")
	}
}

func TestRecorder(t *testing.T) {
	rec := &memoryRecorder{}
	client := &fakeClient{respond: func(req llm.Request) (string, error) {
		if req.Model == "openai/gpt-4o" {
			return "", errors.New("boom")
		}
		return "fine", nil
	}}
	e := newTestEngine(t, client, WithRecorder(rec))

	if _, err := e.Consult(context.Background(), "reviewer", "q", "ctx"); err != nil {
		t.Fatalf("Consult() error = %v", err)
	}

	if len(rec.records) != 2 {
		t.Fatalf("recorded %d consultations, want 2", len(rec.records))
	}
	failed := 0
	for _, r := range rec.records {
		if r.Kind != models.KindConsensus || r.Persona != "reviewer" || r.Context != "ctx" {
			t.Errorf("unexpected record %+v", r)
		}
		if r.Failed() {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("failed records = %d, want 1", failed)
	}
}

func TestMaxConcurrency(t *testing.T) {
	var inFlight, peak int32
	client := &fakeClient{respond: func(req llm.Request) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return "ok", nil
	}}
	e := newTestEngine(t, client, WithMaxConcurrency(1))

	findings := e.TeamReview(context.Background(), "x", "")
	if len(findings) != 3 {
		t.Fatalf("findings = %d", len(findings))
	}
	if peak != 1 {
		t.Errorf("peak concurrency = %d, want 1", peak)
	}
}

func TestWithDefaultModel(t *testing.T) {
	fsys := fstest.MapFS{
		catalog.PersonasFile: {Data: []byte("personas:\n  plain:\n    character: Plain\n    domain: things\n")},
	}
	cat, err := catalog.New(fsys, "")
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	client := &fakeClient{}
	e := New(cat, client, WithDefaultModel("openai/gpt-4o-mini"))

	if _, err := e.Consult(context.Background(), "plain", "hi", ""); err != nil {
		t.Fatalf("Consult() error = %v", err)
	}
	if got := client.calls()[0].Model; got != "openai/gpt-4o-mini" {
		t.Errorf("model = %q, want openai/gpt-4o-mini", got)
	}
}

func TestConsensusWithoutEmoji(t *testing.T) {
	fsys := fstest.MapFS{
		catalog.PersonasFile: {Data: []byte("personas:\n  panel:\n    character: Panel\n    domain: review\n    model: consensus\n    models: [x/one]\n")},
	}
	cat, err := catalog.New(fsys, "")
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	e := New(cat, &fakeClient{})

	got, err := e.Consult(context.Background(), "panel", "hi", "")
	if err != nil {
		t.Fatalf("Consult() error = %v", err)
	}
	want := "👁️ Peer Review (Multi-LLM Consensus)\n\n**one**:\nok\n\n---\n*Consensus review from multiple perspectives*"
	if got != want {
		t.Errorf("Consult(panel) = %q, want %q", got, want)
	}
}
