package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

//go:embed prompt.md
var systemPrompt string

const (
	defaultMaxLogLength = 200
	messageTemplate     = "Candidate:\n{{CANDIDATE_JSON}}\n\nOpportunity:\n{{OPPORTUNITY_JSON}}\n\nJSON Response:"
)

// Assessor asks Gemini for a free-form assessment of a pair. The answer is
// returned untouched; parsing happens elsewhere.
type Assessor struct {
	generator contentGenerator
	model     string
	log       *zap.Logger
	maxLogLen int
}

// NewAssessor wires an assessor to generator.
func NewAssessor(generator contentGenerator, maxLogLength int, log *zap.Logger) *Assessor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	model := ""
	if named, ok := generator.(interface{ Model() string }); ok {
		model = named.Model()
	}

	return &Assessor{
		generator: generator,
		model:     model,
		log:       logger.WithCommonFields(log, providerName, model),
		maxLogLen: maxLogLength,
	}
}

// Assess renders the pair into the prompt and returns the raw answer.
func (a *Assessor) Assess(ctx context.Context, candidate *domain.Candidate, opportunity *domain.Opportunity) (string, error) {
	if a == nil || a.generator == nil {
		return "", errors.New("gemini assessor is not initialized")
	}
	if candidate == nil {
		return "", fmt.Errorf("candidate is required")
	}
	if opportunity == nil {
		return "", fmt.Errorf("opportunity is required")
	}

	candidateJSON, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidate payload: %w", err)
	}

	opportunityJSON, err := json.MarshalIndent(opportunity, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal opportunity payload: %w", err)
	}

	message := buildMessage(string(candidateJSON), string(opportunityJSON))
	log := logger.WithFields(a.log, logger.PairFields(candidate.ID, opportunity.ID)...)

	log.Debug("gemini assessment request",
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, systemPrompt, message)
	if err != nil {
		return "", err
	}

	log.Debug("gemini assessment response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	return raw, nil
}

// Model returns the model behind the assessor.
func (a *Assessor) Model() string {
	if a == nil {
		return ""
	}
	return a.model
}

func buildMessage(candidateJSON, opportunityJSON string) string {
	return strings.NewReplacer(
		"{{CANDIDATE_JSON}}", candidateJSON,
		"{{OPPORTUNITY_JSON}}", opportunityJSON,
	).Replace(messageTemplate)
}
