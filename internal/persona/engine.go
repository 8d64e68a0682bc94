// Package persona consults personas: it builds each persona's system
// prompt, calls the model, and runs the multi-persona workflows.
package persona

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
	"github.com/gatekeep-ai/gatekeep/internal/llm"
	"github.com/gatekeep-ai/gatekeep/internal/logging"
	"github.com/gatekeep-ai/gatekeep/internal/prompt"
	"github.com/gatekeep-ai/gatekeep/pkg/models"
)

// ErrUnknownPersona is returned for names missing from the catalog.
var ErrUnknownPersona = errors.New("unknown persona")

// ConsensusModel is the persona model value that triggers a multi-model review.
const ConsensusModel = "consensus"

// DefaultModel is used when neither the persona nor the engine sets one.
const DefaultModel = "anthropic/claude-3.5-sonnet"

// DefaultConsensusEmoji heads a consensus review for personas without an emoji.
const DefaultConsensusEmoji = "👁️"

// DefaultConsensusModels are queried when a consensus persona lists none.
var DefaultConsensusModels = []string{"anthropic/claude-3.5-sonnet", "openai/gpt-4o"}

// Recorder persists completed consultations.
type Recorder interface {
	Record(ctx context.Context, c *models.Consultation) error
}

// Engine consults personas from a catalog through an llm.Client.
type Engine struct {
	catalog        *catalog.Catalog
	client         llm.Client
	logger         *slog.Logger
	recorder       Recorder
	defaultModel   string
	maxConcurrency int
	now            func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder records every consultation to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithDefaultModel sets the model for personas without one.
func WithDefaultModel(model string) Option {
	return func(e *Engine) {
		if model != "" {
			e.defaultModel = model
		}
	}
}

// WithMaxConcurrency bounds concurrent calls per fan-out. Zero means no bound.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) { e.maxConcurrency = n }
}

// New creates an Engine.
func New(cat *catalog.Catalog, client llm.Client, opts ...Option) *Engine {
	e := &Engine{
		catalog:      cat,
		client:       client,
		logger:       logging.NewNop(),
		defaultModel: DefaultModel,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// BuildSystemPrompt returns the full system prompt for a persona.
func (e *Engine) BuildSystemPrompt(name string) (string, error) {
	bundle, err := e.catalog.Bundle(name)
	if errors.Is(err, catalog.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrUnknownPersona, name)
	}
	if err != nil {
		return "", err
	}
	return prompt.BuildSystemPrompt(bundle)
}

// Consult asks one persona a question. Personas whose model is
// "consensus" are answered by every model in their models list.
func (e *Engine) Consult(ctx context.Context, name, question, contextText string) (string, error) {
	return e.consult(ctx, models.KindAsk, name, question, contextText)
}

func (e *Engine) consult(ctx context.Context, kind models.ConsultationKind, name, question, contextText string) (string, error) {
	p, ok := e.catalog.Persona(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPersona, name)
	}

	system, err := e.BuildSystemPrompt(name)
	if err != nil {
		return "", err
	}

	model := p.Model
	if model == "" {
		model = e.defaultModel
	}
	if model == ConsensusModel {
		return e.consensus(ctx, p, system, question, contextText), nil
	}

	return e.query(ctx, kind, name, model, system, question, contextText)
}

// query performs one model call and records it.
func (e *Engine) query(ctx context.Context, kind models.ConsultationKind, name, model, system, question, contextText string) (string, error) {
	e.logger.Debug("consulting persona", "persona", name, "model", model, "kind", kind)

	start := e.now()
	resp, err := e.client.Complete(ctx, llm.Request{
		Model:  model,
		System: system,
		Prompt: prompt.UserMessage(question, contextText),
	})
	elapsed := e.now().Sub(start)

	rec := &models.Consultation{
		Kind:      kind,
		Persona:   name,
		Model:     model,
		Question:  question,
		Context:   contextText,
		Duration:  elapsed,
		CreatedAt: e.now(),
	}
	if err != nil {
		e.logger.Warn("persona call failed", "persona", name, "model", model, "error", err)
		rec.Error = err.Error()
		e.record(ctx, rec)
		return "", err
	}
	rec.Response = resp.Content
	e.record(ctx, rec)
	return resp.Content, nil
}

func (e *Engine) record(ctx context.Context, c *models.Consultation) {
	if e.recorder == nil {
		return
	}
	// A cancelled request still gets its failure recorded.
	if err := e.recorder.Record(context.WithoutCancel(ctx), c); err != nil {
		e.logger.Warn("recording consultation failed", "persona", c.Persona, "error", err)
	}
}

type modelResult struct {
	model   string
	content string
	err     error
}

// consensus queries every configured model concurrently and merges the
// answers. Individual model failures are reported inline.
func (e *Engine) consensus(ctx context.Context, p catalog.Persona, system, question, contextText string) string {
	modelIDs := p.Models
	if len(modelIDs) == 0 {
		modelIDs = DefaultConsensusModels
	}

	results := make([]modelResult, len(modelIDs))
	g := e.group()
	for i, model := range modelIDs {
		g.Go(func() error {
			content, err := e.query(ctx, models.KindConsensus, p.Name, model, system, question, contextText)
			results[i] = modelResult{model: model, content: content, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var sb strings.Builder
	emoji := p.Emoji
	if emoji == "" {
		emoji = DefaultConsensusEmoji
	}
	fmt.Fprintf(&sb, "%s Peer Review (Multi-LLM Consensus)\n\n", emoji)
	for _, r := range results {
		name := catalog.ShortModel(r.model)
		if r.err != nil {
			fmt.Fprintf(&sb, "**%s**: Error — %s\n\n", name, r.err)
			continue
		}
		fmt.Fprintf(&sb, "**%s**:\n%s\n\n", name, r.content)
	}
	sb.WriteString("---\n*Consensus review from multiple perspectives*")
	return sb.String()
}

// group returns an errgroup honouring the concurrency bound.
func (e *Engine) group() *errgroup.Group {
	g := &errgroup.Group{}
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}
	return g
}
