package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestGrade_NilQuestions(t *testing.T) {
	result, err := Grade(nil, nil)
	require.ErrorIs(t, err, ErrInvalidQuestions)
	require.Nil(t, result)
}

func TestGrade_EmptyQuestions(t *testing.T) {
	result, err := Grade([]Question{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ScorePercent)
	assert.False(t, result.Passed)
	assert.Equal(t, 0, result.TotalPoints)
	assert.Equal(t, 0, result.EarnedPoints)
	assert.Empty(t, result.Results)
}

func TestGrade_MultipleChoiceNormalization(t *testing.T) {
	question := Question{
		Kind:          MultipleChoice,
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: "B",
		Points:        1,
	}

	tests := []struct {
		name      string
		submitted *string
		correct   bool
	}{
		{name: "exact match", submitted: strPtr("B"), correct: true},
		{name: "lowercase", submitted: strPtr("b"), correct: true},
		{name: "surrounding whitespace", submitted: strPtr(" B "), correct: true},
		{name: "wrong option", submitted: strPtr("A"), correct: false},
		{name: "empty string", submitted: strPtr(""), correct: false},
		{name: "nil answer", submitted: nil, correct: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Grade([]Question{question}, []*string{tc.submitted})
			require.NoError(t, err)
			assert.Equal(t, tc.correct, result.Results[0].IsCorrect)
		})
	}
}

func TestGrade_ShortAnswerKeywordThreshold(t *testing.T) {
	// 5 keywords survive the length filter; threshold = ceil(0.6*5) = 3.
	question := Question{
		Kind:          ShortAnswer,
		CorrectAnswer: "nitrogen fixing legumes improve soil",
		Points:        2,
	}

	tests := []struct {
		name      string
		submitted string
		correct   bool
	}{
		{
			name:      "three keywords present",
			submitted: "legumes help with nitrogen levels and improve things",
			correct:   true,
		},
		{
			name:      "keywords as substrings of longer tokens",
			submitted: "soil-improvement via nitrogen-fixing crops",
			correct:   true, // soil, improve, nitrogen, fixing all appear as substrings
		},
		{
			name:      "only two keywords",
			submitted: "nitrogen and soil",
			correct:   false,
		},
		{
			name:      "unrelated answer",
			submitted: "the mitochondria is the powerhouse of the cell",
			correct:   false,
		},
		{
			name:      "empty answer",
			submitted: "",
			correct:   false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Grade([]Question{question}, []*string{strPtr(tc.submitted)})
			require.NoError(t, err)
			assert.Equal(t, tc.correct, result.Results[0].IsCorrect)
		})
	}
}

func TestGrade_ShortAnswerEmptyKeywordSet(t *testing.T) {
	// Every token of the correct answer is <= 2 runes, so the keyword set
	// is empty: any non-blank submission counts, a blank one does not.
	question := Question{
		Kind:          ShortAnswer,
		CorrectAnswer: "it is so",
		Points:        1,
	}

	result, err := Grade([]Question{question}, []*string{strPtr("anything at all")})
	require.NoError(t, err)
	assert.True(t, result.Results[0].IsCorrect)

	result, err = Grade([]Question{question}, []*string{strPtr("   ")})
	require.NoError(t, err)
	assert.False(t, result.Results[0].IsCorrect)

	result, err = Grade([]Question{question}, []*string{nil})
	require.NoError(t, err)
	assert.False(t, result.Results[0].IsCorrect)
}

func TestGrade_UnknownKindNeverCorrect(t *testing.T) {
	question := Question{
		Kind:          QuestionKind("essay"),
		CorrectAnswer: "whatever",
		Points:        5,
	}

	result, err := Grade([]Question{question}, []*string{strPtr("whatever")})
	require.NoError(t, err)
	assert.False(t, result.Results[0].IsCorrect)
	assert.Equal(t, 0, result.EarnedPoints)
	assert.Equal(t, 5, result.TotalPoints)
}

func TestGrade_PointAggregation(t *testing.T) {
	questions := []Question{
		{Kind: MultipleChoice, CorrectAnswer: "A", Points: 2},
		{Kind: MultipleChoice, CorrectAnswer: "B", Points: 3},
		{Kind: MultipleChoice, CorrectAnswer: "C", Points: 5},
	}
	// First and third correct: 7/10 points, exactly at the 70% threshold.
	answers := []*string{strPtr("A"), strPtr("D"), strPtr("C")}

	result, err := Grade(questions, answers)
	require.NoError(t, err)

	assert.Equal(t, 7, result.EarnedPoints)
	assert.Equal(t, 10, result.TotalPoints)
	assert.Equal(t, 70, result.ScorePercent)
	assert.True(t, result.Passed)
}

func TestGrade_ThresholdBoundary(t *testing.T) {
	// 69/100 fails, 70/100 passes.
	questions := make([]Question, 100)
	answers := make([]*string, 100)
	for i := range questions {
		questions[i] = Question{Kind: TrueFalse, CorrectAnswer: "true", Points: 1}
		if i < 69 {
			answers[i] = strPtr("true")
		} else {
			answers[i] = strPtr("false")
		}
	}

	result, err := Grade(questions, answers)
	require.NoError(t, err)
	assert.Equal(t, 69, result.ScorePercent)
	assert.False(t, result.Passed)

	answers[69] = strPtr("true")
	result, err = Grade(questions, answers)
	require.NoError(t, err)
	assert.Equal(t, 70, result.ScorePercent)
	assert.True(t, result.Passed)
}

func TestGrade_ShortAnswerListPadded(t *testing.T) {
	questions := []Question{
		{Kind: TrueFalse, CorrectAnswer: "true", Points: 1},
		{Kind: TrueFalse, CorrectAnswer: "false", Points: 1},
		{Kind: TrueFalse, CorrectAnswer: "true", Points: 1},
	}
	// Only one answer submitted; trailing questions are marked incorrect.
	result, err := Grade(questions, []*string{strPtr("true")})
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].IsCorrect)
	assert.False(t, result.Results[1].IsCorrect)
	assert.False(t, result.Results[2].IsCorrect)
	assert.Equal(t, 1, result.EarnedPoints)
}

func TestGrade_OrderPreserved(t *testing.T) {
	questions := []Question{
		{Kind: TrueFalse, CorrectAnswer: "true", Points: 1},
		{Kind: MultipleChoice, CorrectAnswer: "B", Points: 2},
		{Kind: ShortAnswer, CorrectAnswer: "photosynthesis converts light energy", Points: 3},
	}
	answers := []*string{strPtr("false"), strPtr("B"), nil}

	result, err := Grade(questions, answers)
	require.NoError(t, err)

	for i, qr := range result.Results {
		assert.Equal(t, i, qr.QuestionIndex)
		assert.Equal(t, questions[i].CorrectAnswer, qr.CorrectAnswer)
	}
}

func TestGrade_Idempotent(t *testing.T) {
	questions := []Question{
		{Kind: TrueFalse, CorrectAnswer: "true", Points: 1},
		{Kind: MultipleChoice, CorrectAnswer: "C", Points: 4},
		{Kind: ShortAnswer, CorrectAnswer: "rainwater harvesting stores runoff", Points: 5},
	}
	answers := []*string{strPtr("True"), strPtr(" c "), strPtr("harvesting rainwater to store runoff")}

	first, err := Grade(questions, answers)
	require.NoError(t, err)
	second, err := Grade(questions, answers)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGrade_EndToEnd(t *testing.T) {
	questions := []Question{
		{Kind: TrueFalse, CorrectAnswer: "true", Points: 1},
		{Kind: MultipleChoice, CorrectAnswer: "C", Points: 4},
	}
	answers := []*string{strPtr("True"), strPtr("c")}

	result, err := Grade(questions, answers)
	require.NoError(t, err)

	assert.Equal(t, 5, result.EarnedPoints)
	assert.Equal(t, 5, result.TotalPoints)
	assert.Equal(t, 100, result.ScorePercent)
	assert.True(t, result.Passed)
}

func TestGrade_RoundingHalfAwayFromZero(t *testing.T) {
	// 1/8 points = 12.5% -> rounds to 13.
	questions := []Question{
		{Kind: TrueFalse, CorrectAnswer: "true", Points: 1},
		{Kind: TrueFalse, CorrectAnswer: "true", Points: 7},
	}
	result, err := Grade(questions, []*string{strPtr("true"), strPtr("false")})
	require.NoError(t, err)
	assert.Equal(t, 13, result.ScorePercent)
}
