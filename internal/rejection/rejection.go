package rejection

import (
	"errors"
	"fmt"
)

// Code identifies why a client-supplied session or score was refused.
type Code string

// Stable rejection codes surfaced to clients.
const (
	CodeMalformed           Code = "malformed"
	CodeSignatureInvalid    Code = "signature-invalid"
	CodeExpired             Code = "expired"
	CodeFutureStart         Code = "future-start"
	CodeAnswerCountMismatch Code = "answer-count-mismatch"
	CodeUnknownQuestion     Code = "unknown-question"
	CodeCorrectExceedsCount Code = "correct-exceeds-count"
	CodeInvalidCorrectCount Code = "invalid-correct-count"
	CodeTimeTooShort        Code = "time-too-short"
	CodeTimeTooLong         Code = "time-too-long"
	CodeElapsedExceeded     Code = "elapsed-exceeded"
	CodeScoreNegative       Code = "score-negative"
	CodeScoreExceedsMax     Code = "score-exceeds-max"
	CodeScoreMismatch       Code = "score-mismatch"
	CodeSessionMismatch     Code = "session-mismatch"
)

// Class groups codes by the kind of violation.
type Class string

const (
	ClassMalformed   Class = "malformed"
	ClassIntegrity   Class = "integrity"
	ClassTemporal    Class = "temporal"
	ClassConsistency Class = "consistency"
)

var classes = map[Code]Class{
	CodeMalformed:           ClassMalformed,
	CodeSignatureInvalid:    ClassIntegrity,
	CodeExpired:             ClassTemporal,
	CodeFutureStart:         ClassTemporal,
	CodeElapsedExceeded:     ClassTemporal,
	CodeAnswerCountMismatch: ClassConsistency,
	CodeUnknownQuestion:     ClassConsistency,
	CodeCorrectExceedsCount: ClassConsistency,
	CodeInvalidCorrectCount: ClassConsistency,
	CodeTimeTooShort:        ClassConsistency,
	CodeTimeTooLong:         ClassConsistency,
	CodeScoreNegative:       ClassConsistency,
	CodeScoreExceedsMax:     ClassConsistency,
	CodeScoreMismatch:       ClassConsistency,
	CodeSessionMismatch:     ClassConsistency,
}

var defaultMessages = map[Code]string{
	CodeMalformed:           "session token is malformed",
	CodeSignatureInvalid:    "session token signature is invalid",
	CodeExpired:             "session token has expired",
	CodeFutureStart:         "session token start time is invalid",
	CodeAnswerCountMismatch: "answer count mismatch",
	CodeUnknownQuestion:     "answered question not in original set",
	CodeCorrectExceedsCount: "correct answers exceed question count",
	CodeInvalidCorrectCount: "invalid correct-answer count",
	CodeTimeTooShort:        "time too short",
	CodeTimeTooLong:         "time too long",
	CodeElapsedExceeded:     "reported time exceeds elapsed session time",
	CodeScoreNegative:       "negative score",
	CodeScoreExceedsMax:     "score exceeds theoretical max",
	CodeScoreMismatch:       "score does not match calculation",
	CodeSessionMismatch:     "submission does not match session",
}

// Rejection is a client-caused validation failure. It is never an internal fault.
type Rejection struct {
	Code    Code
	Message string
}

// New returns a rejection carrying the default message for code.
func New(code Code) *Rejection {
	return &Rejection{Code: code, Message: defaultMessages[code]}
}

// Newf returns a rejection with a formatted message.
func Newf(code Code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Class reports the taxonomy class of the rejection.
func (r *Rejection) Class() Class {
	return classes[r.Code]
}

// As extracts a rejection from err.
func As(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// HasCode reports whether err is a rejection with the given code.
func HasCode(err error, code Code) bool {
	r, ok := As(err)
	return ok && r.Code == code
}
