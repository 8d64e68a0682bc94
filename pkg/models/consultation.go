package models

import "time"

// ConsultationKind identifies which workflow produced a consultation.
type ConsultationKind string

const (
	// KindAsk is a direct question to one persona.
	KindAsk ConsultationKind = "ask"
	// KindConsensus is one model's answer inside a multi-model review.
	KindConsensus ConsultationKind = "consensus"
	// KindTeamReview is one persona's answer inside a team review.
	KindTeamReview ConsultationKind = "team_review"
	// KindGateCheck is a phase-one deployment gate check.
	KindGateCheck ConsultationKind = "gate_check"
	// KindGateApproval is the phase-two deployment gate decision.
	KindGateApproval ConsultationKind = "gate_approval"
)

// Valid returns true if the kind is a known value.
func (k ConsultationKind) Valid() bool {
	switch k {
	case KindAsk, KindConsensus, KindTeamReview, KindGateCheck, KindGateApproval:
		return true
	default:
		return false
	}
}

// Consultation is one completed persona call.
type Consultation struct {
	// ID is the unique identifier for this record.
	ID string `json:"id"`
	// Kind is the workflow that issued the call.
	Kind ConsultationKind `json:"kind"`
	// Persona is the persona name that answered.
	Persona string `json:"persona"`
	// Model is the remote model identifier used.
	Model string `json:"model"`
	// Question is the user message sent, without context.
	Question string `json:"question"`
	// Context is the optional context block.
	Context string `json:"context,omitempty"`
	// Response is the model's answer. Empty when Error is set.
	Response string `json:"response,omitempty"`
	// Error contains the error message if the call failed.
	Error string `json:"error,omitempty"`
	// Duration is the wall time of the call.
	Duration time.Duration `json:"duration"`
	// CreatedAt is when the call completed.
	CreatedAt time.Time `json:"created_at"`
}

// Failed reports whether the consultation ended in an error.
func (c *Consultation) Failed() bool {
	return c.Error != ""
}
