package shortlist

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"ai-shortlist/domain"
)

// Completer is the single-shot model-inference collaborator: one text
// prompt in, one text completion out. Providers live in infrastructure;
// tests substitute deterministic stubs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const evaluationPrompt = `You are an expert HR recruiter and AI assistant. Analyze the following job description and candidate resume to provide a comprehensive evaluation.

JOB DESCRIPTION:
%s

CANDIDATE RESUME:
%s

Please provide your analysis in the following JSON format:
{
  "matchScore": number (0-100),
  "skills": ["skill1", "skill2", "skill3"],
  "experience": "X years",
  "highlights": ["highlight1", "highlight2"],
  "insights": "Detailed explanation of why this candidate matches or doesn't match the role",
  "strengths": ["strength1", "strength2"],
  "concerns": ["concern1", "concern2"]
}

Focus on:
- Technical skills alignment
- Experience level match
- Project relevance
- Leadership potential
- Cultural fit indicators

Be objective and provide specific examples from the resume that support your evaluation. Return ONLY the raw JSON without any markdown formatting, code blocks, or additional text.`

const (
	fallbackInsights = "Error analyzing candidate"
	fallbackConcern  = "Error in AI analysis"
	clampedConcern   = "Reported match score was outside 0-100 and was clamped"
)

// Evaluator scores one candidate's extracted text against a job
// description via the model-inference collaborator. Evaluate never fails
// its caller: malformed or missing model output degrades to the fallback
// evaluation so a batch can keep going. The second return value is false
// when that degradation happened.
type Evaluator struct {
	completer Completer
	logger    *zap.Logger
}

func NewEvaluator(completer Completer, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{completer: completer, logger: logger}
}

func (e *Evaluator) Evaluate(ctx context.Context, jobDescription, candidateText, candidateLabel string) (domain.Evaluation, bool) {
	prompt := fmt.Sprintf(evaluationPrompt, jobDescription, candidateText)

	raw, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		e.logger.Warn("model completion failed",
			zap.String("candidate", candidateLabel),
			zap.Error(err),
		)
		return FallbackEvaluation(), false
	}

	eval, err := parseEvaluation(raw)
	if err != nil {
		e.logger.Warn("model response could not be parsed",
			zap.String("candidate", candidateLabel),
			zap.Error(err),
		)
		return FallbackEvaluation(), false
	}

	e.logger.Debug("candidate evaluated",
		zap.String("candidate", candidateLabel),
		zap.Int("match_score", eval.MatchScore),
		zap.Int("skills", len(eval.Skills)),
	)

	return eval, true
}

// FallbackEvaluation is the defined result for any per-candidate failure:
// zero score, empty lists and a concern flagging the failure.
func FallbackEvaluation() domain.Evaluation {
	return domain.Evaluation{
		MatchScore: 0,
		Skills:     []string{},
		Experience: "Unknown",
		Highlights: []string{},
		Insights:   fallbackInsights,
		Strengths:  []string{},
		Concerns:   []string{fallbackConcern},
	}
}

// rawEvaluation tolerates the model reporting the score as a float.
type rawEvaluation struct {
	MatchScore float64  `json:"matchScore"`
	Skills     []string `json:"skills"`
	Experience string   `json:"experience"`
	Highlights []string `json:"highlights"`
	Insights   string   `json:"insights"`
	Strengths  []string `json:"strengths"`
	Concerns   []string `json:"concerns"`
}

func parseEvaluation(content string) (domain.Evaluation, error) {
	cleaned := extractJSON(content)
	if cleaned == "" {
		return domain.Evaluation{}, fmt.Errorf("no JSON object found in model response")
	}

	var raw rawEvaluation
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return domain.Evaluation{}, fmt.Errorf("parse model response: %w", err)
	}

	eval := domain.Evaluation{
		MatchScore: int(math.Round(raw.MatchScore)),
		Skills:     emptyIfNil(raw.Skills),
		Experience: raw.Experience,
		Highlights: emptyIfNil(raw.Highlights),
		Insights:   raw.Insights,
		Strengths:  emptyIfNil(raw.Strengths),
		Concerns:   emptyIfNil(raw.Concerns),
	}
	if eval.Experience == "" {
		eval.Experience = "Unknown"
	}

	if eval.MatchScore < 0 {
		eval.MatchScore = 0
		eval.Concerns = append(eval.Concerns, clampedConcern)
	} else if eval.MatchScore > 100 {
		eval.MatchScore = 100
		eval.Concerns = append(eval.Concerns, clampedConcern)
	}

	return eval, nil
}

// extractJSON locates the first brace-delimited region in free-form model
// output, stripping any markdown code fences around it.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSuffix(content, "```")
	}

	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}

	return strings.TrimSpace(content[start : end+1])
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
