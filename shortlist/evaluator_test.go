package shortlist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCompleter struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

const validResponse = `{
  "matchScore": 85,
  "skills": ["Go", "Kubernetes", "MySQL"],
  "experience": "7 years",
  "highlights": ["Led migration to microservices"],
  "insights": "Strong backend background matching the role",
  "strengths": ["System design"],
  "concerns": ["No frontend experience"]
}`

func TestEvaluateParsesModelResponse(t *testing.T) {
	stub := &stubCompleter{response: validResponse}
	evaluator := NewEvaluator(stub, zap.NewNop())

	eval, ok := evaluator.Evaluate(context.Background(), "Backend engineer role", "resume text", "Jane Doe")

	require.True(t, ok)

	assert.Equal(t, 85, eval.MatchScore)
	assert.Equal(t, []string{"Go", "Kubernetes", "MySQL"}, eval.Skills)
	assert.Equal(t, "7 years", eval.Experience)
	assert.Equal(t, []string{"Led migration to microservices"}, eval.Highlights)
	assert.Equal(t, "Strong backend background matching the role", eval.Insights)
	assert.Equal(t, []string{"System design"}, eval.Strengths)
	assert.Equal(t, []string{"No frontend experience"}, eval.Concerns)
}

func TestEvaluatePromptContainsInputs(t *testing.T) {
	stub := &stubCompleter{response: validResponse}
	evaluator := NewEvaluator(stub, zap.NewNop())

	evaluator.Evaluate(context.Background(), "needs Go and SQL", "worked 5 years at Acme", "Jane Doe")

	require.NotEmpty(t, stub.lastPrompt)
	assert.Contains(t, stub.lastPrompt, "needs Go and SQL")
	assert.Contains(t, stub.lastPrompt, "worked 5 years at Acme")
	assert.Contains(t, stub.lastPrompt, "matchScore")
}

func TestEvaluateHandlesFencedResponseWithProse(t *testing.T) {
	stub := &stubCompleter{response: "Here is my analysis:\n```json\n" + validResponse + "\n```\nLet me know if you need more."}
	evaluator := NewEvaluator(stub, zap.NewNop())

	eval, ok := evaluator.Evaluate(context.Background(), "desc", "text", "Jane")

	require.True(t, ok)
	assert.Equal(t, 85, eval.MatchScore)
	assert.Equal(t, "7 years", eval.Experience)
}

func TestEvaluateFallbackOnCompleterError(t *testing.T) {
	stub := &stubCompleter{err: errors.New("model unavailable")}
	evaluator := NewEvaluator(stub, zap.NewNop())

	eval, ok := evaluator.Evaluate(context.Background(), "desc", "text", "Jane")

	assert.False(t, ok)
	assert.Equal(t, 0, eval.MatchScore)
	assert.Empty(t, eval.Skills)
	assert.Equal(t, "Unknown", eval.Experience)
	require.Len(t, eval.Concerns, 1)
	assert.Equal(t, fallbackConcern, eval.Concerns[0])
}

func TestEvaluateFallbackOnMalformedResponse(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"no json at all", "I cannot evaluate this candidate."},
		{"broken json", `{"matchScore": 85, "skills": [`},
		{"empty response", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubCompleter{response: tc.response}
			evaluator := NewEvaluator(stub, zap.NewNop())

			eval, ok := evaluator.Evaluate(context.Background(), "desc", "text", "Jane")

			assert.False(t, ok)
			assert.Equal(t, 0, eval.MatchScore)
			assert.Contains(t, eval.Concerns, fallbackConcern)
		})
	}
}

func TestParseEvaluationClampsOutOfRangeScores(t *testing.T) {
	high, err := parseEvaluation(`{"matchScore": 150, "skills": ["Go"]}`)
	require.NoError(t, err)
	assert.Equal(t, 100, high.MatchScore)
	assert.Contains(t, high.Concerns, clampedConcern)

	low, err := parseEvaluation(`{"matchScore": -5}`)
	require.NoError(t, err)
	assert.Equal(t, 0, low.MatchScore)
	assert.Contains(t, low.Concerns, clampedConcern)
}

func TestParseEvaluationDefaults(t *testing.T) {
	eval, err := parseEvaluation(`{"matchScore": 42.6}`)
	require.NoError(t, err)

	assert.Equal(t, 43, eval.MatchScore)
	assert.Equal(t, "Unknown", eval.Experience)
	assert.NotNil(t, eval.Skills)
	assert.NotNil(t, eval.Highlights)
	assert.NotNil(t, eval.Strengths)
	assert.NotNil(t, eval.Concerns)
	assert.Empty(t, eval.Skills)
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence without language", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding prose", `Sure! {"a": 1} Hope that helps.`, `{"a": 1}`},
		{"no object", "nothing here", ""},
		{"unbalanced", "}{", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractJSON(tc.input))
		})
	}
}

func TestFallbackEvaluationShape(t *testing.T) {
	eval := FallbackEvaluation()

	assert.Equal(t, 0, eval.MatchScore)
	assert.Empty(t, eval.Skills)
	assert.Equal(t, "Unknown", eval.Experience)
	require.NotEmpty(t, eval.Concerns)
	assert.True(t, strings.Contains(eval.Concerns[0], "AI analysis"))
}
