package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt templates per task kind. Each template pins the exact JSON shape the
// model must answer with so the parser can rely on strict decoding first.

const gradeEssaySystemPrompt = "You are an experienced teacher assistant specializing in grading essays. " +
	"Provide detailed, constructive feedback that helps students improve their writing. " +
	"Be fair, consistent, and encouraging in your assessments."

const answerSheetSystemPrompt = "You are an expert teacher grading assignments. " +
	"Analyze the answer sheet, identify which answer corresponds to which question, " +
	"grade each answer, and provide constructive feedback."

const questionsSystemPrompt = "You are an experienced teacher creating assignment questions. " +
	"Create thoughtful questions that assess deep understanding of the material. " +
	"Provide model answers for grading reference."

const lessonPlanSystemPrompt = "You are an expert curriculum designer and educator. " +
	"Create engaging, standards-aligned lesson plans that promote active learning and critical thinking. " +
	"IMPORTANT: Respond ONLY with valid JSON. Do not include any text before or after the JSON object."

const quizSystemPrompt = "You are an expert at creating educational assessments. " +
	"Create clear, fair questions that accurately test student understanding."

// strictRetryInstruction is appended when a first reply failed to parse and
// the call is re-prompted once with tighter formatting requirements.
const strictRetryInstruction = "\n\nIMPORTANT: Your previous answer could not be parsed. " +
	"Respond with ONLY the requested JSON object. No markdown fences, no commentary, no text outside the JSON."

// BuildGradeEssayPrompt renders the essay-grading prompt.
func BuildGradeEssayPrompt(input EssayGradeInput) Prompt {
	rubric := "Standard essay rubric"
	if len(input.Rubric) > 0 {
		if encoded, err := json.MarshalIndent(input.Rubric, "", "  "); err == nil {
			rubric = string(encoded)
		}
	}

	builder := strings.Builder{}
	builder.WriteString("Grade the following essay based on this rubric:\n\n")
	builder.WriteString("RUBRIC:\n")
	builder.WriteString(rubric)
	builder.WriteString("\n\nESSAY:\n")
	builder.WriteString(input.Essay)
	builder.WriteString("\n\nProvide your response in the following JSON format:\n")
	builder.WriteString(fmt.Sprintf(`{
    "overall_score": <number out of %g>,
    "rubric_scores": {
        "criterion_name": {"score": <number>, "feedback": "<specific feedback>"}
    },
    "strengths": ["<strength 1>", "<strength 2>"],
    "areas_for_improvement": ["<area 1>", "<area 2>"],
    "detailed_feedback": "<comprehensive feedback paragraph>"
}`, input.MaxPoints))

	return Prompt{System: gradeEssaySystemPrompt, User: builder.String()}
}

// BuildAnswerSheetPrompt renders the answer-sheet grading prompt.
func BuildAnswerSheetPrompt(input AnswerSheetInput) Prompt {
	builder := strings.Builder{}
	builder.WriteString("Grade this student's answer sheet by matching their answers to the questions.\n\n")
	builder.WriteString("QUESTIONS:\n")
	for i, question := range input.Questions {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(fmt.Sprintf("Question %d: %s\n", question.Number, question.Text))
		builder.WriteString(fmt.Sprintf("Model Answer: %s\n", question.ModelAnswer))
		builder.WriteString(fmt.Sprintf("Key Points: %s\n", strings.Join(question.KeyPoints, ", ")))
		builder.WriteString(fmt.Sprintf("Points: %g", question.Points))
	}
	builder.WriteString("\n\nSTUDENT'S ANSWER SHEET:\n")
	builder.WriteString(input.AnswerSheet)
	builder.WriteString(`

Your task:
1. Parse the answer sheet and identify which answer corresponds to which question
2. Grade each answer based on the model answer and key points
3. Provide specific feedback for each answer
4. Calculate the total score

Provide your response in the following JSON format:
`)
	builder.WriteString(fmt.Sprintf(`{
    "parsed_answers": [
        {
            "question_number": <number>,
            "student_answer": "<extracted answer>",
            "score": <points earned>,
            "max_score": <points possible>,
            "feedback": "<specific feedback>",
            "key_points_addressed": ["<point 1>", "<point 2>"]
        }
    ],
    "total_score": <total points earned>,
    "max_total_score": %g,
    "percentage": <percentage score>,
    "overall_feedback": "<general comments on the submission>",
    "strengths": ["<strength 1>", "<strength 2>"],
    "areas_for_improvement": ["<area 1>", "<area 2>"]
}`, input.MaxPoints))

	return Prompt{System: answerSheetSystemPrompt, User: builder.String()}
}

// BuildQuestionsPrompt renders the assignment question-generation prompt.
func BuildQuestionsPrompt(input QuestionInput) Prompt {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Create %d %s questions for this assignment:\n\n", input.Count, input.QuestionType))
	builder.WriteString("TOPIC: ")
	builder.WriteString(input.Topic)
	builder.WriteString("\nDESCRIPTION: ")
	builder.WriteString(input.Description)
	builder.WriteString(`

Generate questions that are:
- Clear and specific
- Appropriately challenging
- Aligned with the topic

Provide your response in the following JSON format:
{
    "questions": [
        {
            "question_number": 1,
            "question_text": "<question text>",
            "model_answer": "<ideal answer>",
            "key_points": ["<key point 1>", "<key point 2>"],
            "points": <points for this question>
        }
    ]
}`)

	return Prompt{System: questionsSystemPrompt, User: builder.String()}
}

// BuildLessonPlanPrompt renders the lesson-plan generation prompt.
func BuildLessonPlanPrompt(input LessonPlanInput) Prompt {
	objectives := "Create appropriate objectives"
	if len(input.Objectives) > 0 {
		objectives = strings.Join(input.Objectives, "\n")
	}

	builder := strings.Builder{}
	builder.WriteString("Create a detailed lesson plan for:\n\n")
	builder.WriteString("TOPIC: ")
	builder.WriteString(input.Topic)
	builder.WriteString("\nGRADE LEVEL: ")
	builder.WriteString(input.GradeLevel)
	builder.WriteString(fmt.Sprintf("\nDURATION: %d minutes", input.DurationMinutes))
	builder.WriteString("\nLEARNING OBJECTIVES: ")
	builder.WriteString(objectives)
	builder.WriteString(`

IMPORTANT: Return ONLY the JSON object, with no additional text before or after.

Provide your response EXACTLY in this JSON format (use proper JSON array syntax with square brackets for lists):
{
    "title": "<lesson title>",
    "objectives": ["<objective 1>", "<objective 2>"],
    "materials": ["<material 1>", "<material 2>"],
    "activities": [
        {
            "name": "<activity name>",
            "duration": <minutes>,
            "description": "<detailed description>",
            "type": "<warmup|instruction|practice|assessment|closure>"
        }
    ],
    "content": "<detailed lesson content and teaching notes>",
    "standards_aligned": ["<standard 1>", "<standard 2>"],
    "differentiation": "<strategies for diverse learners>",
    "assessment": "<how to assess student learning>"
}`)

	return Prompt{System: lessonPlanSystemPrompt, User: builder.String()}
}

// BuildQuizPrompt renders the quiz generation prompt.
func BuildQuizPrompt(input QuizInput) Prompt {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Create %d quiz questions about: %s\n\n", input.Count, input.Topic))
	builder.WriteString("Difficulty level: ")
	builder.WriteString(input.Difficulty)
	builder.WriteString(`

Include a mix of multiple choice, true/false, and short answer questions.

Provide your response in the following JSON format:
{
    "questions": [
        {
            "question": "<question text>",
            "question_type": "<multiple_choice|true_false|short_answer>",
            "options": ["<option 1>", "<option 2>"],
            "correct_answer": "<correct answer>",
            "explanation": "<why this is correct>",
            "points": 1.0
        }
    ]
}`)

	return Prompt{System: quizSystemPrompt, User: builder.String()}
}

// withStrictRetry returns a copy of the prompt carrying the tightened
// formatting instruction used for the single re-prompt after a parse failure.
func withStrictRetry(prompt Prompt) Prompt {
	prompt.User += strictRetryInstruction
	return prompt
}
