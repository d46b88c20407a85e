package ai

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Parsing follows an ordered fallback chain: strict decode of the whole
// reply, then extraction of the first balanced JSON fragment, then a
// kind-specific heuristic over the plain text. A result is only returned
// once it has passed validation; otherwise the caller receives a
// *ParseError carrying the truncated raw text.

var (
	percentPattern  = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*(?:%|percent)`)
	scorePattern    = regexp.MustCompile(`(?i)(?:score|grade)\s*(?:is|of|:)?\s*(\d{1,3}(?:\.\d+)?)`)
	numberedPattern = regexp.MustCompile(`(?m)^\s*(\d+)[.)]\s+(.+?)\s*$`)
	keyPointsSuffix = regexp.MustCompile(`(?i)\s*[\(\[]?key points?:\s*(.+?)[\)\]]?$`)
)

// candidateDocuments returns the decode candidates for a reply, in order of
// preference: the fenced/trimmed text itself, then the first balanced JSON
// fragment embedded in it.
func candidateDocuments(text string) []string {
	trimmed := stripFences(strings.TrimSpace(text))
	candidates := []string{trimmed}
	if fragment, ok := extractJSONFragment(trimmed); ok && fragment != trimmed {
		candidates = append(candidates, fragment)
	}
	return candidates
}

// stripFences removes a surrounding markdown code fence, a habit of several
// local models even when told to answer with bare JSON.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		body = body[idx+1:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// extractJSONFragment scans for the first balanced {...} or [...] span,
// honoring string literals and escapes so braces inside prose or quoted
// text do not break the balance count.
func extractJSONFragment(text string) (string, bool) {
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func clampScore(score, max float64) float64 {
	if score < 0 {
		return 0
	}
	if max > 0 && score > max {
		return max
	}
	return score
}

// ParseGradeEssay turns raw model text into a validated GradeResult.
// Out-of-range scores are clamped into [0, maxPoints].
func ParseGradeEssay(text string, maxPoints float64) (GradeResult, error) {
	type payload struct {
		OverallScore        *float64               `json:"overall_score"`
		Score               *float64               `json:"score"`
		RubricScores        map[string]RubricScore `json:"rubric_scores"`
		Rubric              map[string]RubricScore `json:"rubric"`
		Strengths           []string               `json:"strengths"`
		AreasForImprovement []string               `json:"areas_for_improvement"`
		DetailedFeedback    string                 `json:"detailed_feedback"`
		Feedback            string                 `json:"feedback"`
	}

	for _, candidate := range candidateDocuments(text) {
		var data payload
		if err := json.Unmarshal([]byte(candidate), &data); err != nil {
			continue
		}

		score := data.Score
		if data.OverallScore != nil {
			score = data.OverallScore
		}
		if score == nil {
			return GradeResult{}, invalidField(TaskGradeEssay, "overall_score", "missing numeric score", text)
		}

		feedback := strings.TrimSpace(data.DetailedFeedback)
		if feedback == "" {
			feedback = strings.TrimSpace(data.Feedback)
		}

		breakdown := data.RubricScores
		if len(breakdown) == 0 {
			breakdown = data.Rubric
		}
		rubric := make(map[string]RubricScore, len(breakdown))
		for criterion, entry := range breakdown {
			entry.Score = clampScore(entry.Score, maxPoints)
			rubric[criterion] = entry
		}

		return GradeResult{
			Score:               clampScore(*score, maxPoints),
			Feedback:            feedback,
			RubricScores:        rubric,
			Strengths:           data.Strengths,
			AreasForImprovement: data.AreasForImprovement,
		}, nil
	}

	// Heuristic: a percentage or "score: N" pattern inside plain prose.
	if score, ok := extractScoreFromProse(text, maxPoints); ok {
		return GradeResult{
			Score:    score,
			Feedback: strings.TrimSpace(text),
		}, nil
	}

	return GradeResult{}, unparseable(TaskGradeEssay, "no score found in response", text)
}

func extractScoreFromProse(text string, maxPoints float64) (float64, bool) {
	if match := percentPattern.FindStringSubmatch(text); match != nil {
		if pct, err := strconv.ParseFloat(match[1], 64); err == nil {
			if maxPoints <= 0 {
				maxPoints = 100
			}
			return clampScore(pct/100*maxPoints, maxPoints), true
		}
	}
	if match := scorePattern.FindStringSubmatch(text); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			return clampScore(value, maxPoints), true
		}
	}
	return 0, false
}

// ParseAnswerSheet decodes a graded answer sheet. There is no text heuristic
// for this kind: per-question scores cannot be recovered from prose.
func ParseAnswerSheet(text string, maxPoints float64) (AnswerSheetResult, error) {
	type payload struct {
		ParsedAnswers       []ParsedAnswer `json:"parsed_answers"`
		TotalScore          float64        `json:"total_score"`
		Percentage          float64        `json:"percentage"`
		OverallFeedback     string         `json:"overall_feedback"`
		Strengths           []string       `json:"strengths"`
		AreasForImprovement []string       `json:"areas_for_improvement"`
	}

	for _, candidate := range candidateDocuments(text) {
		var data payload
		if err := json.Unmarshal([]byte(candidate), &data); err != nil {
			continue
		}
		if len(data.ParsedAnswers) == 0 && data.OverallFeedback == "" {
			continue
		}

		total := 0.0
		for i := range data.ParsedAnswers {
			answer := &data.ParsedAnswers[i]
			if answer.MaxScore < 0 {
				answer.MaxScore = 0
			}
			answer.Score = clampScore(answer.Score, answer.MaxScore)
			total += answer.Score
		}
		if data.TotalScore <= 0 && total > 0 {
			data.TotalScore = total
		}
		data.TotalScore = clampScore(data.TotalScore, maxPoints)

		if data.Percentage <= 0 && maxPoints > 0 {
			data.Percentage = data.TotalScore / maxPoints * 100
		}
		data.Percentage = clampScore(data.Percentage, 100)

		return AnswerSheetResult{
			ParsedAnswers:       data.ParsedAnswers,
			TotalScore:          data.TotalScore,
			Percentage:          data.Percentage,
			OverallFeedback:     strings.TrimSpace(data.OverallFeedback),
			Strengths:           data.Strengths,
			AreasForImprovement: data.AreasForImprovement,
		}, nil
	}

	return AnswerSheetResult{}, unparseable(TaskGradeAnswerSheet, "no graded answers found in response", text)
}

// ParseAssignmentQuestions decodes generated assignment questions, falling
// back to a numbered-list heuristic when the reply is not JSON.
func ParseAssignmentQuestions(text string) ([]AssignmentQuestion, error) {
	type payload struct {
		Questions []AssignmentQuestion `json:"questions"`
	}

	for _, candidate := range candidateDocuments(text) {
		var data payload
		if err := json.Unmarshal([]byte(candidate), &data); err != nil {
			var bare []AssignmentQuestion
			if err := json.Unmarshal([]byte(candidate), &bare); err != nil {
				continue
			}
			data.Questions = bare
		}
		if questions := validateAssignmentQuestions(data.Questions); len(questions) > 0 {
			return questions, nil
		}
	}

	if questions := questionsFromNumberedList(text); len(questions) > 0 {
		return questions, nil
	}

	return nil, unparseable(TaskQuestions, "no questions found in response", text)
}

func validateAssignmentQuestions(raw []AssignmentQuestion) []AssignmentQuestion {
	questions := make([]AssignmentQuestion, 0, len(raw))
	for _, question := range raw {
		question.Text = strings.TrimSpace(question.Text)
		if question.Text == "" {
			continue
		}
		if question.Points <= 0 {
			question.Points = 10
		}
		if question.Number <= 0 {
			question.Number = len(questions) + 1
		}
		questions = append(questions, question)
	}
	return questions
}

// questionsFromNumberedList builds question records out of "1. ..." lines,
// picking up a trailing "key points: a; b" segment when present.
func questionsFromNumberedList(text string) []AssignmentQuestion {
	matches := numberedPattern.FindAllStringSubmatch(text, -1)
	questions := make([]AssignmentQuestion, 0, len(matches))
	for _, match := range matches {
		number, _ := strconv.Atoi(match[1])
		body := strings.TrimSpace(match[2])

		var keyPoints []string
		if suffix := keyPointsSuffix.FindStringSubmatch(body); suffix != nil {
			for _, point := range strings.FieldsFunc(suffix[1], func(r rune) bool { return r == ';' || r == ',' }) {
				if trimmed := strings.TrimSpace(point); trimmed != "" {
					keyPoints = append(keyPoints, trimmed)
				}
			}
			body = strings.TrimSpace(body[:len(body)-len(suffix[0])])
		}
		if body == "" {
			continue
		}

		questions = append(questions, AssignmentQuestion{
			Number:    number,
			Text:      body,
			KeyPoints: keyPoints,
			Points:    10,
		})
	}
	return questions
}

// ParseQuizQuestions decodes generated quiz questions, falling back to a
// numbered-list heuristic producing short-answer records.
func ParseQuizQuestions(text string) ([]QuizQuestion, error) {
	type payload struct {
		Questions []QuizQuestion `json:"questions"`
	}

	for _, candidate := range candidateDocuments(text) {
		var data payload
		if err := json.Unmarshal([]byte(candidate), &data); err != nil {
			var bare []QuizQuestion
			if err := json.Unmarshal([]byte(candidate), &bare); err != nil {
				continue
			}
			data.Questions = bare
		}
		if questions := validateQuizQuestions(data.Questions); len(questions) > 0 {
			return questions, nil
		}
	}

	matches := numberedPattern.FindAllStringSubmatch(text, -1)
	questions := make([]QuizQuestion, 0, len(matches))
	for _, match := range matches {
		body := strings.TrimSpace(match[2])
		if body == "" {
			continue
		}
		questions = append(questions, QuizQuestion{
			Text:   body,
			Type:   QuestionTypeShortAnswer,
			Points: 1,
		})
	}
	if len(questions) > 0 {
		return questions, nil
	}

	return nil, unparseable(TaskQuiz, "no questions found in response", text)
}

func validateQuizQuestions(raw []QuizQuestion) []QuizQuestion {
	questions := make([]QuizQuestion, 0, len(raw))
	for _, question := range raw {
		question.Text = strings.TrimSpace(question.Text)
		if question.Text == "" {
			continue
		}
		question.Type = normalizeQuestionType(question.Type)
		if question.Points <= 0 {
			question.Points = 1
		}
		questions = append(questions, question)
	}
	return questions
}

func normalizeQuestionType(questionType string) string {
	switch strings.ToLower(strings.TrimSpace(questionType)) {
	case QuestionTypeMultipleChoice, "multiple-choice", "mcq":
		return QuestionTypeMultipleChoice
	case QuestionTypeTrueFalse, "true/false", "true-false", "boolean":
		return QuestionTypeTrueFalse
	default:
		return QuestionTypeShortAnswer
	}
}

// ParseLessonPlan decodes a lesson plan. Materials supplied as a single
// comma-joined string are split into a list; there is no prose heuristic.
func ParseLessonPlan(text string) (LessonPlan, error) {
	type payload struct {
		Title            string           `json:"title"`
		Objectives       []string         `json:"objectives"`
		Materials        json.RawMessage  `json:"materials"`
		Activities       []LessonActivity `json:"activities"`
		Content          string           `json:"content"`
		StandardsAligned []string         `json:"standards_aligned"`
		Differentiation  string           `json:"differentiation"`
		Assessment       string           `json:"assessment"`
	}

	for _, candidate := range candidateDocuments(text) {
		var data payload
		if err := json.Unmarshal([]byte(candidate), &data); err != nil {
			continue
		}

		title := strings.TrimSpace(data.Title)
		if title == "" {
			return LessonPlan{}, invalidField(TaskLessonPlan, "title", "missing lesson title", text)
		}

		plan := LessonPlan{
			Title:            title,
			Objectives:       data.Objectives,
			Materials:        decodeMaterials(data.Materials),
			Activities:       data.Activities,
			Content:          data.Content,
			StandardsAligned: data.StandardsAligned,
			Differentiation:  data.Differentiation,
			Assessment:       data.Assessment,
		}
		if plan.Objectives == nil {
			plan.Objectives = []string{}
		}
		for i := range plan.Activities {
			if plan.Activities[i].DurationMinutes < 0 {
				plan.Activities[i].DurationMinutes = 0
			}
		}
		return plan, nil
	}

	return LessonPlan{}, unparseable(TaskLessonPlan, "no lesson plan found in response", text)
}

func decodeMaterials(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		parts := strings.Split(single, ",")
		materials := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				materials = append(materials, trimmed)
			}
		}
		return materials
	}

	return []string{}
}
