package models

import "testing"

func TestConsultationKind_Valid(t *testing.T) {
	tests := []struct {
		kind ConsultationKind
		want bool
	}{
		{KindAsk, true},
		{KindConsensus, true},
		{KindTeamReview, true},
		{KindGateCheck, true},
		{KindGateApproval, true},
		{ConsultationKind(""), false},
		{ConsultationKind("chat"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Valid(); got != tt.want {
				t.Errorf("ConsultationKind(%q).Valid() = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestConsultation_Failed(t *testing.T) {
	ok := &Consultation{Response: "fine"}
	if ok.Failed() {
		t.Error("expected successful consultation not to be failed")
	}

	bad := &Consultation{Error: "timeout"}
	if !bad.Failed() {
		t.Error("expected consultation with error to be failed")
	}
}
