package ai

import (
	"context"
	"time"
)

// TaskKind identifies the category of generation work sent to the model.
type TaskKind string

const (
	TaskGradeEssay       TaskKind = "grade_essay"
	TaskGradeAnswerSheet TaskKind = "grade_answer_sheet"
	TaskQuestions        TaskKind = "generate_questions"
	TaskLessonPlan       TaskKind = "generate_lesson_plan"
	TaskQuiz             TaskKind = "generate_quiz"
)

// Prompt carries the rendered system and user instructions for one call.
type Prompt struct {
	System string
	User   string
}

// RawResponse is the unparsed model output plus call metadata.
type RawResponse struct {
	Text     string
	Model    string
	Latency  time.Duration
	Attempts int
}

// Generator abstracts a text-generation backend.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (RawResponse, error)
}

// EssayGradeInput contains the artefacts needed to grade a free-form essay.
type EssayGradeInput struct {
	Essay     string
	Rubric    map[string]interface{}
	MaxPoints float64
}

// AnswerSheetInput contains a raw answer sheet and the questions it answers.
type AnswerSheetInput struct {
	AnswerSheet string
	Questions   []AssignmentQuestion
	MaxPoints   float64
}

// QuestionInput describes an assignment question-generation request.
type QuestionInput struct {
	Topic        string
	Description  string
	Count        int
	QuestionType string
}

// LessonPlanInput describes a lesson-plan generation request.
type LessonPlanInput struct {
	Topic           string
	GradeLevel      string
	DurationMinutes int
	Objectives      []string
}

// QuizInput describes a quiz generation request.
type QuizInput struct {
	Topic      string
	Count      int
	Difficulty string
}

// RubricScore is the per-criterion breakdown attached to a grade.
type RubricScore struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// GradeResult is the validated outcome of grading a submission.
type GradeResult struct {
	Score               float64                `json:"score"`
	Feedback            string                 `json:"feedback"`
	RubricScores        map[string]RubricScore `json:"rubric_scores,omitempty"`
	Strengths           []string               `json:"strengths,omitempty"`
	AreasForImprovement []string               `json:"areas_for_improvement,omitempty"`
}

// AssignmentQuestion is a generated question with its grading reference.
type AssignmentQuestion struct {
	Number      int      `json:"question_number"`
	Text        string   `json:"question_text"`
	ModelAnswer string   `json:"model_answer,omitempty"`
	KeyPoints   []string `json:"key_points,omitempty"`
	Points      float64  `json:"points"`
}

// QuizQuestion is a single validated quiz question.
type QuizQuestion struct {
	Text          string   `json:"question"`
	Type          string   `json:"question_type"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Points        float64  `json:"points"`
}

// Known quiz question types. Anything else is normalized to short answer.
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
	QuestionTypeShortAnswer    = "short_answer"
)

// LessonActivity is one block inside a lesson plan.
type LessonActivity struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration"`
	Description     string `json:"description"`
	Type            string `json:"type"`
}

// LessonPlan is the validated lesson-plan payload.
type LessonPlan struct {
	Title            string           `json:"title"`
	Objectives       []string         `json:"objectives"`
	Materials        []string         `json:"materials"`
	Activities       []LessonActivity `json:"activities"`
	Content          string           `json:"content"`
	StandardsAligned []string         `json:"standards_aligned,omitempty"`
	Differentiation  string           `json:"differentiation,omitempty"`
	Assessment       string           `json:"assessment,omitempty"`
}

// ParsedAnswer is one graded answer extracted from an answer sheet.
type ParsedAnswer struct {
	QuestionNumber     int      `json:"question_number"`
	StudentAnswer      string   `json:"student_answer"`
	Score              float64  `json:"score"`
	MaxScore           float64  `json:"max_score"`
	Feedback           string   `json:"feedback"`
	KeyPointsAddressed []string `json:"key_points_addressed,omitempty"`
}

// AnswerSheetResult is the validated outcome of grading a full answer sheet.
type AnswerSheetResult struct {
	ParsedAnswers       []ParsedAnswer `json:"parsed_answers"`
	TotalScore          float64        `json:"total_score"`
	Percentage          float64        `json:"percentage"`
	OverallFeedback     string         `json:"overall_feedback"`
	Strengths           []string       `json:"strengths,omitempty"`
	AreasForImprovement []string       `json:"areas_for_improvement,omitempty"`
}
