package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/flagquiz/flagquiz-api/internal/rejection"
	"github.com/flagquiz/flagquiz-api/internal/scoring"
	"github.com/flagquiz/flagquiz-api/internal/session"
)

// ServiceOptions configures board sizes and the service day boundary.
type ServiceOptions struct {
	DailyLimit   int
	AllTimeLimit int
	// DayOffset shifts UTC to the local time zone that defines the service day.
	DayOffset time.Duration
}

// Service issues quiz sessions and accepts or rejects score submissions.
type Service struct {
	sessions  *session.Manager
	store     Store
	cache     BoardCache
	publisher Publisher
	metrics   *Metrics
	logger    zerolog.Logger

	dailyLimit   int
	allTimeLimit int
	dayOffset    time.Duration
}

// NewService wires the ranking service. cache, publisher and metrics may be nil.
func NewService(sessions *session.Manager, store Store, cache BoardCache, publisher Publisher, metrics *Metrics, opts ServiceOptions, logger zerolog.Logger) *Service {
	dailyLimit := opts.DailyLimit
	if dailyLimit <= 0 {
		dailyLimit = 100
	}
	allTimeLimit := opts.AllTimeLimit
	if allTimeLimit <= 0 {
		allTimeLimit = 5
	}
	return &Service{
		sessions:     sessions,
		store:        store,
		cache:        cache,
		publisher:    publisher,
		metrics:      metrics,
		logger:       logger.With().Str("component", "ranking").Logger(),
		dailyLimit:   dailyLimit,
		allTimeLimit: allTimeLimit,
		dayOffset:    opts.DayOffset,
	}
}

// StartQuiz mints a session token bound to the question set the client will play.
func (s *Service) StartQuiz(ctx context.Context, req StartRequest) (StartResponse, error) {
	if err := validateStart(&req); err != nil {
		return StartResponse{}, err
	}

	start := s.sessions.Now().UnixMilli()
	token, err := s.sessions.Mint(session.Payload{
		StartTime:         start,
		NumberOfQuestions: req.NumberOfQuestions,
		Region:            req.Region,
		Format:            req.Format,
		QuestionIDs:       req.QuestionIDs,
	})
	if err != nil {
		return StartResponse{}, fmt.Errorf("mint session token: %w", err)
	}

	s.metrics.sessionStarted()
	return StartResponse{SessionToken: token, StartTime: start}, nil
}

// Submit runs the anti-fraud checks on a completed quiz and stores an accepted score.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if err := validateSubmit(&req); err != nil {
		return SubmitResult{}, err
	}

	payload, err := s.sessions.ValidateCompletion(session.CompletionClaim{
		SessionToken:        req.SessionToken,
		CorrectAnswers:      req.CorrectAnswers,
		TimeInSeconds:       req.TimeInSeconds,
		AnsweredQuestionIDs: req.AnsweredQuestionIDs,
	})
	if err != nil {
		return SubmitResult{}, s.rejected(err)
	}

	err = scoring.Validate(scoring.Claim{
		Score:             req.Score,
		CorrectAnswers:    req.CorrectAnswers,
		TimeInSeconds:     req.TimeInSeconds,
		NumberOfQuestions: req.NumberOfQuestions,
	})
	if err != nil {
		return SubmitResult{}, s.rejected(err)
	}

	if err := matchSession(payload, req); err != nil {
		return SubmitResult{}, s.rejected(err)
	}

	now := s.sessions.Now()
	rec := Record{
		Nickname:  req.Nickname,
		Score:     req.Score,
		Region:    req.Region,
		Format:    req.Format,
		Day:       s.ServiceDay(now),
		CreatedAt: now.UTC().Truncate(time.Microsecond),
	}
	rank, err := s.store.Save(ctx, rec, s.allTimeLimit)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("save score: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, rec.Region, rec.Format, rec.Day); err != nil {
			s.logger.Warn().Err(err).Str("region", rec.Region).Str("format", rec.Format).Msg("failed to invalidate ranking cache")
		}
	}
	if s.publisher != nil {
		update := Update{Region: rec.Region, Format: rec.Format, Rank: rank, Nickname: rec.Nickname, Score: rec.Score}
		if err := s.publisher.Publish(ctx, update); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish ranking update")
		}
	}
	s.metrics.submissionAccepted(rec.Format)

	return SubmitResult{Rank: rank, Nickname: rec.Nickname, Score: rec.Score}, nil
}

// List returns a ranking board, served from cache when possible.
func (s *Service) List(ctx context.Context, boardType, region, format string) ([]Entry, error) {
	q := BoardQuery{Type: boardType, Region: normalizeRegion(region)}

	var err error
	if q.Format, err = normalizeFormat(format); err != nil {
		return nil, err
	}
	switch boardType {
	case TypeDaily:
		q.Limit = s.dailyLimit
		q.Day = s.ServiceDay(s.sessions.Now())
	case TypeAllTime:
		q.Limit = s.allTimeLimit
	default:
		return nil, &ValidationError{Field: "type", Message: "type must be daily or all_time"}
	}

	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx, q)
		if err != nil {
			s.logger.Warn().Err(err).Msg("ranking cache read failed")
		} else if ok {
			return entries, nil
		}
	}

	entries, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s ranking: %w", boardType, err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, q, entries); err != nil {
			s.logger.Warn().Err(err).Msg("ranking cache write failed")
		}
	}
	return entries, nil
}

// ServiceDay returns the calendar day, at UTC midnight, that t falls on once shifted by the day offset.
func (s *Service) ServiceDay(t time.Time) time.Time {
	shifted := t.UTC().Add(s.dayOffset)
	return time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) rejected(err error) error {
	if r, ok := rejection.As(err); ok {
		s.metrics.submissionRejected(r)
	}
	return err
}

func matchSession(p session.Payload, req SubmitRequest) error {
	switch {
	case p.Region != req.Region:
		return rejection.Newf(rejection.CodeSessionMismatch, "region does not match session")
	case p.Format != req.Format:
		return rejection.Newf(rejection.CodeSessionMismatch, "format does not match session")
	case p.NumberOfQuestions != req.NumberOfQuestions:
		return rejection.Newf(rejection.CodeSessionMismatch, "numberOfQuestions does not match session")
	}
	return nil
}
