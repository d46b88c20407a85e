package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	replies []string
	prompts []Prompt
	err     error
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt Prompt) (RawResponse, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return RawResponse{}, g.err
	}
	reply := g.replies[0]
	if len(g.replies) > 1 {
		g.replies = g.replies[1:]
	}
	return RawResponse{Text: reply, Model: "test", Attempts: 1}, nil
}

func TestAssistantGradeEssay(t *testing.T) {
	generator := &scriptedGenerator{replies: []string{
		`{"overall_score": 88, "detailed_feedback": "Nice work."}`,
	}}
	assistant := NewAssistant(generator, zerolog.Nop())

	result, err := assistant.GradeEssay(context.Background(), EssayGradeInput{Essay: "essay", MaxPoints: 100})
	require.NoError(t, err)
	require.Equal(t, 88.0, result.Score)
	require.Len(t, generator.prompts, 1)
}

func TestAssistantRepromptsOnceOnParseFailure(t *testing.T) {
	generator := &scriptedGenerator{replies: []string{
		"I cannot answer in JSON right now, sorry.",
		`{"title": "Recovered Plan", "content": "notes"}`,
	}}
	assistant := NewAssistant(generator, zerolog.Nop())

	plan, err := assistant.GenerateLessonPlan(context.Background(), LessonPlanInput{Topic: "Gravity"})
	require.NoError(t, err)
	require.Equal(t, "Recovered Plan", plan.Title)

	require.Len(t, generator.prompts, 2)
	require.False(t, strings.Contains(generator.prompts[0].User, "could not be parsed"))
	require.True(t, strings.Contains(generator.prompts[1].User, "could not be parsed"))
}

func TestAssistantFailsAfterSecondParseFailure(t *testing.T) {
	generator := &scriptedGenerator{replies: []string{
		"not json",
		"still not json",
	}}
	assistant := NewAssistant(generator, zerolog.Nop())

	_, err := assistant.GenerateLessonPlan(context.Background(), LessonPlanInput{Topic: "Gravity"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnparseable)
	require.Len(t, generator.prompts, 2)
}

func TestAssistantPropagatesInferenceErrors(t *testing.T) {
	generator := &scriptedGenerator{err: &InferenceError{Kind: ErrUnavailable, Attempts: 3}}
	assistant := NewAssistant(generator, zerolog.Nop())

	_, err := assistant.GenerateQuiz(context.Background(), QuizInput{Topic: "Algebra", Count: 3, Difficulty: "easy"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnavailable)
	require.Len(t, generator.prompts, 1)
}
