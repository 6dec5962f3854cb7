package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/flagquiz/flagquiz-api/internal/rejection"
)

const (
	defaultMaxAge    = time.Hour
	defaultClockSkew = 5 * time.Second
	// allowance for latency between the client's timer and server receipt
	elapsedSlackSeconds = 5
	// minSecondsPerQuestion is the fastest plausible human answer rate.
	minSecondsPerQuestion = 0.5
)

// Options configures token freshness checks.
type Options struct {
	MaxAge    time.Duration    // default: 1 hour
	ClockSkew time.Duration    // default: 5 seconds
	Now       func() time.Time // default: time.Now
}

// Manager mints session tokens and validates tokens and quiz completions.
// It holds no mutable state and is safe for concurrent use.
type Manager struct {
	signer    *Signer
	maxAge    time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

// NewManager creates a manager signing with secret.
func NewManager(secret []byte, opts Options) (*Manager, error) {
	signer, err := NewSigner(secret)
	if err != nil {
		return nil, err
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultMaxAge
	}
	if opts.ClockSkew <= 0 {
		opts.ClockSkew = defaultClockSkew
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		signer:    signer,
		maxAge:    opts.MaxAge,
		clockSkew: opts.ClockSkew,
		now:       opts.Now,
	}, nil
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Mint signs p and returns the opaque token string handed to the client.
func (m *Manager) Mint(p Payload) (string, error) {
	return Encode(p, m.signer)
}

// Validate checks a token's structure, signature and freshness, in that order.
// Client-caused failures are returned as *rejection.Rejection; any other error is internal.
func (m *Manager) Validate(token string) (Payload, error) {
	signed, err := Decode(token)
	if err != nil {
		if errors.Is(err, ErrMalformedToken) {
			return Payload{}, rejection.New(rejection.CodeMalformed)
		}
		return Payload{}, err
	}

	canonical, err := signed.Payload.Canonical()
	if err != nil {
		return Payload{}, fmt.Errorf("encode canonical payload: %w", err)
	}
	if !m.signer.Verify(canonical, signed.Signature) {
		return Payload{}, rejection.New(rejection.CodeSignatureInvalid)
	}

	now := m.now().UnixMilli()
	if now-signed.StartTime > m.maxAge.Milliseconds() {
		return Payload{}, rejection.New(rejection.CodeExpired)
	}
	if signed.StartTime > now+m.clockSkew.Milliseconds() {
		return Payload{}, rejection.New(rejection.CodeFutureStart)
	}

	return signed.Payload, nil
}

// CompletionClaim is the client's report of how a quiz session ended.
type CompletionClaim struct {
	SessionToken        string
	CorrectAnswers      int
	TimeInSeconds       float64
	AnsweredQuestionIDs []string
}

// ValidateCompletion checks a completion claim against the session it references.
// Session rejections are returned unchanged.
func (m *Manager) ValidateCompletion(claim CompletionClaim) (Payload, error) {
	payload, err := m.Validate(claim.SessionToken)
	if err != nil {
		return Payload{}, err
	}

	if len(claim.AnsweredQuestionIDs) != payload.NumberOfQuestions {
		return Payload{}, rejection.Newf(rejection.CodeAnswerCountMismatch,
			"answer count mismatch: expected %d, got %d", payload.NumberOfQuestions, len(claim.AnsweredQuestionIDs))
	}

	asked := make(map[string]struct{}, len(payload.QuestionIDs))
	for _, id := range payload.QuestionIDs {
		asked[id] = struct{}{}
	}
	for _, id := range claim.AnsweredQuestionIDs {
		if _, ok := asked[id]; !ok {
			return Payload{}, rejection.New(rejection.CodeUnknownQuestion)
		}
	}

	if claim.CorrectAnswers > payload.NumberOfQuestions {
		return Payload{}, rejection.New(rejection.CodeCorrectExceedsCount)
	}

	if claim.TimeInSeconds < float64(payload.NumberOfQuestions)*minSecondsPerQuestion {
		return Payload{}, rejection.New(rejection.CodeTimeTooShort)
	}

	elapsed := float64(m.now().UnixMilli()-payload.StartTime) / 1000
	if claim.TimeInSeconds > elapsed+elapsedSlackSeconds {
		return Payload{}, rejection.New(rejection.CodeElapsedExceeded)
	}

	return payload, nil
}
