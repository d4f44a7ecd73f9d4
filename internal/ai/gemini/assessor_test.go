package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/talent-matcher/internal/domain"
)

type stubGenerator struct {
	response    string
	err         error
	lastSystem  string
	lastMessage string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, message string) (string, error) {
	s.lastSystem = system
	s.lastMessage = message
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func testPair() (*domain.Candidate, *domain.Opportunity) {
	return &domain.Candidate{ID: "c1", Skills: []string{"Go", "SQL"}, Location: "Berlin"},
		&domain.Opportunity{ID: "o1", Title: "Backend Engineer", RequiredSkills: []string{"Go"}}
}

func TestAssessorAssess(t *testing.T) {
	stub := &stubGenerator{response: `{"match_score": 80}`}
	core, logs := observer.New(zapcore.DebugLevel)
	assessor := NewAssessor(stub, 0, zap.New(core))

	c, o := testPair()
	raw, err := assessor.Assess(context.Background(), c, o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw != `{"match_score": 80}` {
		t.Fatalf("expected raw response to be returned untouched, got %q", raw)
	}

	if stub.lastSystem != systemPrompt || !strings.Contains(stub.lastSystem, `"fit_level"`) {
		t.Fatalf("expected embedded system prompt to be sent")
	}

	if !strings.Contains(stub.lastMessage, `"required_skills": [`) || !strings.Contains(stub.lastMessage, `"skills": [`) {
		t.Fatalf("expected both records in message, got %s", stub.lastMessage)
	}

	if strings.Contains(stub.lastMessage, "{{") {
		t.Fatalf("placeholders left in message: %s", stub.lastMessage)
	}

	entries := logs.FilterMessage("gemini assessment request").All()
	if len(entries) != 1 {
		t.Fatalf("expected request log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["candidate_id"] != "c1" || fields["opportunity_id"] != "o1" || fields["ai_model"] != "stub-model" {
		t.Fatalf("unexpected log fields: %v", fields)
	}

	if assessor.Model() != "stub-model" {
		t.Fatalf("unexpected model: %s", assessor.Model())
	}
}

func TestAssessorPropagatesGeneratorError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("quota")}
	assessor := NewAssessor(stub, 10, nil)

	c, o := testPair()
	if _, err := assessor.Assess(context.Background(), c, o); err == nil {
		t.Fatal("expected error")
	}
}

func TestAssessorRequiresRecords(t *testing.T) {
	assessor := NewAssessor(&stubGenerator{}, 10, nil)
	_, o := testPair()
	if _, err := assessor.Assess(context.Background(), nil, o); err == nil {
		t.Fatal("expected error for nil candidate")
	}
}
