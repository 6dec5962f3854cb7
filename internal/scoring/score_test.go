package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flagquiz/flagquiz-api/internal/rejection"
)

func TestMaxScore(t *testing.T) {
	assert.Equal(t, 9700, MaxScore(10, 30))
	assert.Equal(t, 7500, MaxScore(8, 50))
	assert.Equal(t, 0, MaxScore(0, 100))
	assert.Equal(t, 0, MaxScore(0, 1000))
	assert.Equal(t, 0, MaxScore(1, 200))
	assert.Equal(t, 10000, MaxScore(10, 0))
}

func TestMaxScore_RoundsHalfUp(t *testing.T) {
	assert.Equal(t, 9690, MaxScore(10, 30.5))
	assert.Equal(t, 9690, MaxScore(10, 30.9))
	assert.Equal(t, 9700, MaxScore(10, 30.4))
	assert.Equal(t, 9980, MaxScore(10, 1.5))
	assert.Equal(t, 9970, MaxScore(10, 2.5))
}

func TestTheoreticalMax(t *testing.T) {
	assert.Equal(t, 10000, TheoreticalMax(10))
	assert.Equal(t, 5000, TheoreticalMax(5))
	assert.Equal(t, 20000, TheoreticalMax(20))
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		claim Claim
		code  rejection.Code
	}{
		"exact score": {
			claim: Claim{Score: 9700, CorrectAnswers: 10, TimeInSeconds: 30, NumberOfQuestions: 10},
		},
		"within tolerance": {
			claim: Claim{Score: 9750, CorrectAnswers: 10, TimeInSeconds: 30, NumberOfQuestions: 10},
		},
		"tolerance edge": {
			claim: Claim{Score: 9600, CorrectAnswers: 10, TimeInSeconds: 30, NumberOfQuestions: 10},
		},
		"minimum time": {
			claim: Claim{Score: 9950, CorrectAnswers: 10, TimeInSeconds: 5, NumberOfQuestions: 10},
		},
		"zero score": {
			claim: Claim{Score: 0, CorrectAnswers: 0, TimeInSeconds: 100, NumberOfQuestions: 10},
		},
		"correct exceeds questions": {
			claim: Claim{Score: 11000, CorrectAnswers: 11, TimeInSeconds: 30, NumberOfQuestions: 10},
			code:  rejection.CodeInvalidCorrectCount,
		},
		"negative correct": {
			claim: Claim{Score: 0, CorrectAnswers: -1, TimeInSeconds: 30, NumberOfQuestions: 10},
			code:  rejection.CodeInvalidCorrectCount,
		},
		"time too short": {
			claim: Claim{Score: 10000, CorrectAnswers: 10, TimeInSeconds: 1, NumberOfQuestions: 10},
			code:  rejection.CodeTimeTooShort,
		},
		"time too long": {
			claim: Claim{Score: 0, CorrectAnswers: 10, TimeInSeconds: 4000, NumberOfQuestions: 10},
			code:  rejection.CodeTimeTooLong,
		},
		"maximum time": {
			claim: Claim{Score: 0, CorrectAnswers: 10, TimeInSeconds: 3000, NumberOfQuestions: 10},
		},
		"negative score": {
			claim: Claim{Score: -100, CorrectAnswers: 0, TimeInSeconds: 30, NumberOfQuestions: 10},
			code:  rejection.CodeScoreNegative,
		},
		"score above theoretical max": {
			claim: Claim{Score: 11000, CorrectAnswers: 10, TimeInSeconds: 10, NumberOfQuestions: 10},
			code:  rejection.CodeScoreExceedsMax,
		},
		"score does not match": {
			claim: Claim{Score: 10000, CorrectAnswers: 10, TimeInSeconds: 30, NumberOfQuestions: 10},
			code:  rejection.CodeScoreMismatch,
		},
		"score just outside tolerance": {
			claim: Claim{Score: 9599, CorrectAnswers: 10, TimeInSeconds: 30, NumberOfQuestions: 10},
			code:  rejection.CodeScoreMismatch,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := Validate(tc.claim)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, rejection.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestValidate_RuleOrder(t *testing.T) {
	// Invalid correct count, too short and a mismatched score at once: the first rule wins.
	err := Validate(Claim{Score: -5, CorrectAnswers: 20, TimeInSeconds: 0, NumberOfQuestions: 10})
	assert.True(t, rejection.HasCode(err, rejection.CodeInvalidCorrectCount))

	err = Validate(Claim{Score: -5, CorrectAnswers: 5, TimeInSeconds: 0, NumberOfQuestions: 10})
	assert.True(t, rejection.HasCode(err, rejection.CodeTimeTooShort))
}

func TestClaimFromTimes(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	claim := ClaimFromTimes(8, 10, start, start.Add(50*time.Second))

	assert.Equal(t, Claim{Score: 7500, CorrectAnswers: 8, TimeInSeconds: 50, NumberOfQuestions: 10}, claim)
	assert.NoError(t, Validate(claim))
}
