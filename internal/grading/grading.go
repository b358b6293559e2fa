// Package grading implements the auto-marking evaluator for module
// assessments. Grading is a pure function over in-memory question/answer
// pairs: no I/O, no shared state, safe for concurrent use.
package grading

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"
)

// QuestionKind selects the comparison rule used when marking an answer.
type QuestionKind string

const (
	MultipleChoice QuestionKind = "multiple-choice"
	TrueFalse      QuestionKind = "true-false"
	ShortAnswer    QuestionKind = "short-answer"
)

// PassingPercent is the platform-wide passing threshold. Course records
// carry an advisory min_pass_percentage, but auto-marking does not consult
// it; the threshold here is fixed.
const PassingPercent = 70

// keywordMatchRatio is the fraction of answer keywords (rounded up) that a
// short-answer submission must contain to be marked correct.
const keywordMatchRatio = 0.6

// minKeywordLength filters stop-words out of the keyword set: tokens of the
// correct answer no longer than this many runes are discarded.
const minKeywordLength = 2

// ErrInvalidQuestions is returned when the question list itself is missing.
// A nil list is an integration bug in the caller, not a grading outcome.
var ErrInvalidQuestions = errors.New("grading: question list is nil")

// Question is the transient authoring-side view of a single assessment
// question as the evaluator needs it. Options are carried for reporting
// only; marking always compares against CorrectAnswer directly.
type Question struct {
	ID            uint         `json:"id"`
	Prompt        string       `json:"prompt"`
	Kind          QuestionKind `json:"kind"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Points        int          `json:"points"`
}

// QuestionResult is the per-question outcome, in input order.
type QuestionResult struct {
	QuestionIndex   int     `json:"question_index"`
	SubmittedAnswer *string `json:"submitted_answer"`
	CorrectAnswer   string  `json:"correct_answer"`
	IsCorrect       bool    `json:"is_correct"`
	PointsAwarded   int     `json:"points_awarded"`
}

// GradeResult aggregates a single grading pass. It is built fresh on every
// call and never cached; persistence is the caller's concern.
type GradeResult struct {
	ScorePercent int              `json:"score_percent"`
	Passed       bool             `json:"passed"`
	Results      []QuestionResult `json:"results"`
	TotalPoints  int              `json:"total_points"`
	EarnedPoints int              `json:"earned_points"`
}

// Grade marks an ordered answer list against an ordered question list.
// Alignment is purely positional: answers[i] belongs to questions[i]. The
// answer list may be shorter than the question list and may contain nil
// entries; both are marked incorrect rather than failing. An empty (but
// non-nil) question list yields a zero-valued result with ScorePercent 0
// and Passed false.
//
// ScorePercent is round(earned/total*100) using math.Round, i.e. halves
// round away from zero.
func Grade(questions []Question, answers []*string) (*GradeResult, error) {
	if questions == nil {
		return nil, ErrInvalidQuestions
	}

	results := make([]QuestionResult, 0, len(questions))
	totalPoints := 0
	earnedPoints := 0

	for i, q := range questions {
		var submitted *string
		if i < len(answers) {
			submitted = answers[i]
		}

		correct := markAnswer(q, submitted)
		awarded := 0
		if correct {
			awarded = q.Points
		}

		totalPoints += q.Points
		earnedPoints += awarded

		results = append(results, QuestionResult{
			QuestionIndex:   i,
			SubmittedAnswer: submitted,
			CorrectAnswer:   q.CorrectAnswer,
			IsCorrect:       correct,
			PointsAwarded:   awarded,
		})
	}

	scorePercent := 0
	if totalPoints > 0 {
		scorePercent = int(math.Round(float64(earnedPoints) / float64(totalPoints) * 100))
	}

	return &GradeResult{
		ScorePercent: scorePercent,
		Passed:       scorePercent >= PassingPercent,
		Results:      results,
		TotalPoints:  totalPoints,
		EarnedPoints: earnedPoints,
	}, nil
}

// markAnswer applies the per-kind comparison rule. A nil submission is
// never correct, and an unrecognized kind never awards points.
func markAnswer(q Question, submitted *string) bool {
	if submitted == nil {
		return false
	}

	switch q.Kind {
	case MultipleChoice, TrueFalse:
		// True/false is a degenerate two-option multiple choice; both use
		// trimmed, case-insensitive exact equality against the raw text.
		return normalize(*submitted) == normalize(q.CorrectAnswer)
	case ShortAnswer:
		return matchesKeywords(q.CorrectAnswer, *submitted)
	default:
		return false
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// matchesKeywords applies the keyword-overlap heuristic: the submission is
// correct when at least ceil(keywordMatchRatio * |keywords|) of the correct
// answer's keywords appear as substrings of any submitted token. When the
// correct answer has no keywords at all (every token is a stop-word) the
// threshold is met by any non-blank submission.
func matchesKeywords(correctAnswer, submitted string) bool {
	keywords := extractKeywords(correctAnswer)
	if len(keywords) == 0 {
		return strings.TrimSpace(submitted) != ""
	}

	tokens := strings.Fields(strings.ToLower(submitted))
	needed := int(math.Ceil(keywordMatchRatio * float64(len(keywords))))

	matched := 0
	for _, keyword := range keywords {
		for _, token := range tokens {
			if strings.Contains(token, keyword) {
				matched++
				break
			}
		}
	}

	return matched >= needed
}

// extractKeywords lowercases the correct answer, splits it on whitespace
// and drops stop-word-sized tokens.
func extractKeywords(answer string) []string {
	var keywords []string
	for _, token := range strings.Fields(strings.ToLower(answer)) {
		if utf8.RuneCountInString(token) > minKeywordLength {
			keywords = append(keywords, token)
		}
	}
	return keywords
}
