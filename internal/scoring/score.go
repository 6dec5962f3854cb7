package scoring

import (
	"math"
	"time"

	"github.com/flagquiz/flagquiz-api/internal/rejection"
)

const (
	pointsPerCorrect      = 1000
	penaltyPerSecond      = 10
	minSecondsPerQuestion = 0.5
	maxSecondsPerQuestion = 300
	// Tolerance absorbs rounding and timing jitter between client and server.
	Tolerance = 100
)

// Claim is a submitted score together with the figures it was derived from.
type Claim struct {
	Score             int
	CorrectAnswers    int
	TimeInSeconds     float64
	NumberOfQuestions int
}

// MaxScore is the score earned by correctAnswers in timeInSeconds.
// Seconds are rounded half up before the time penalty is applied.
func MaxScore(correctAnswers int, timeInSeconds float64) int {
	seconds := int(math.Floor(timeInSeconds + 0.5))
	return max(0, correctAnswers*pointsPerCorrect-seconds*penaltyPerSecond)
}

// TheoreticalMax is the score for a perfect, instantaneous run.
func TheoreticalMax(numberOfQuestions int) int {
	return numberOfQuestions * pointsPerCorrect
}

// Validate applies the plausibility rules in order; the first failure wins.
func Validate(c Claim) error {
	if c.CorrectAnswers < 0 || c.CorrectAnswers > c.NumberOfQuestions {
		return rejection.New(rejection.CodeInvalidCorrectCount)
	}
	if c.TimeInSeconds < float64(c.NumberOfQuestions)*minSecondsPerQuestion {
		return rejection.New(rejection.CodeTimeTooShort)
	}
	if c.TimeInSeconds > float64(c.NumberOfQuestions)*maxSecondsPerQuestion {
		return rejection.New(rejection.CodeTimeTooLong)
	}
	if c.Score < 0 {
		return rejection.New(rejection.CodeScoreNegative)
	}
	if c.Score > TheoreticalMax(c.NumberOfQuestions) {
		return rejection.New(rejection.CodeScoreExceedsMax)
	}

	expected := MaxScore(c.CorrectAnswers, c.TimeInSeconds)
	diff := c.Score - expected
	if diff < 0 {
		diff = -diff
	}
	if diff > Tolerance {
		return rejection.New(rejection.CodeScoreMismatch)
	}
	return nil
}

// ClaimFromTimes builds the claim a client is expected to submit for a quiz that ran
// from start to end.
func ClaimFromTimes(correctAnswers, numberOfQuestions int, start, end time.Time) Claim {
	seconds := float64(end.Sub(start).Milliseconds()) / 1000
	return Claim{
		Score:             MaxScore(correctAnswers, seconds),
		CorrectAnswers:    correctAnswers,
		TimeInSeconds:     seconds,
		NumberOfQuestions: numberOfQuestions,
	}
}
