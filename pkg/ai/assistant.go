package ai

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Assistant composes prompt building, inference and response parsing into
// the task-level operations the services consume. Parse failures trigger at
// most one re-prompt with a stricter formatting instruction; transport
// retries already happen inside the Generator.
type Assistant struct {
	generator Generator
	logger    zerolog.Logger
}

// NewAssistant wires an assistant around the given generator.
func NewAssistant(generator Generator, logger zerolog.Logger) *Assistant {
	return &Assistant{
		generator: generator,
		logger:    logger.With().Str("component", "ai_assistant").Logger(),
	}
}

// GradeEssay grades a free-form essay against a rubric.
func (a *Assistant) GradeEssay(ctx context.Context, input EssayGradeInput) (GradeResult, error) {
	prompt := BuildGradeEssayPrompt(input)
	return generateAndParse(ctx, a, TaskGradeEssay, prompt, func(text string) (GradeResult, error) {
		return ParseGradeEssay(text, input.MaxPoints)
	})
}

// GradeAnswerSheet parses and grades a raw answer sheet against questions.
func (a *Assistant) GradeAnswerSheet(ctx context.Context, input AnswerSheetInput) (AnswerSheetResult, error) {
	prompt := BuildAnswerSheetPrompt(input)
	return generateAndParse(ctx, a, TaskGradeAnswerSheet, prompt, func(text string) (AnswerSheetResult, error) {
		return ParseAnswerSheet(text, input.MaxPoints)
	})
}

// GenerateQuestions produces assignment questions with model answers.
func (a *Assistant) GenerateQuestions(ctx context.Context, input QuestionInput) ([]AssignmentQuestion, error) {
	prompt := BuildQuestionsPrompt(input)
	return generateAndParse(ctx, a, TaskQuestions, prompt, ParseAssignmentQuestions)
}

// GenerateLessonPlan produces a structured lesson plan.
func (a *Assistant) GenerateLessonPlan(ctx context.Context, input LessonPlanInput) (LessonPlan, error) {
	prompt := BuildLessonPlanPrompt(input)
	return generateAndParse(ctx, a, TaskLessonPlan, prompt, ParseLessonPlan)
}

// GenerateQuiz produces quiz questions for a topic and difficulty.
func (a *Assistant) GenerateQuiz(ctx context.Context, input QuizInput) ([]QuizQuestion, error) {
	prompt := BuildQuizPrompt(input)
	return generateAndParse(ctx, a, TaskQuiz, prompt, ParseQuizQuestions)
}

// generateAndParse runs one build → generate → parse cycle, re-prompting
// once with the strict formatting instruction when parsing fails.
func generateAndParse[T any](ctx context.Context, a *Assistant, task TaskKind, prompt Prompt, parse func(string) (T, error)) (T, error) {
	var zero T

	raw, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		a.logger.Error().Err(err).Str("task", string(task)).Msg("generation failed")
		return zero, err
	}

	result, err := parse(raw.Text)
	if err == nil {
		return result, nil
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		return zero, err
	}

	a.logger.Warn().
		Str("task", string(task)).
		Str("reason", parseErr.Reason).
		Msg("response unparseable, re-prompting with strict formatting")

	raw, retryErr := a.generator.Generate(ctx, withStrictRetry(prompt))
	if retryErr != nil {
		return zero, retryErr
	}

	result, err = parse(raw.Text)
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("task", string(task)).
			Msg("response unparseable after strict re-prompt")
		return zero, err
	}

	return result, nil
}
