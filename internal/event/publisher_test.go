package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestDisabledPublisherIsNoop(t *testing.T) {
	p, err := NewPublisher("", "", nil)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer p.Close()

	if p.Enabled() {
		t.Fatalf("expected publisher without url to be disabled")
	}
	if p.exchange != DefaultExchange {
		t.Fatalf("expected default exchange, got %s", p.exchange)
	}
	if err := p.PublishSubmission(context.Background(), domain.SubmissionEvent{UserID: "u1"}); err != nil {
		t.Fatalf("disabled publish should succeed, got %v", err)
	}
}

func TestEnvelopeShape(t *testing.T) {
	at := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	body, err := json.Marshal(Envelope{
		Type:       SubmissionRoutingKey,
		OccurredAt: at,
		Payload:    domain.SubmissionEvent{UserID: "u1", QuizID: "quiz-1", Score: 20},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Type    string `json:"type"`
		Payload struct {
			UserID string `json:"userId"`
			Score  int    `json:"score"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != "quiz.submitted" || decoded.Payload.UserID != "u1" || decoded.Payload.Score != 20 {
		t.Fatalf("unexpected envelope %s", body)
	}
}
