package ranking

import (
	"context"
	"time"
)

// Board types served by GET /api/ranking.
const (
	TypeDaily   = "daily"
	TypeAllTime = "all_time"
)

// DefaultRegion is used when a request omits the region.
const DefaultRegion = "all"

// Entry is one row of a ranking board.
type Entry struct {
	Rank      int       `json:"rank"`
	Nickname  string    `json:"nickname"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// BoardQuery identifies a single ranking board.
type BoardQuery struct {
	Type   string
	Region string
	Format string
	// Day is the service day; only meaningful for daily boards.
	Day   time.Time
	Limit int
}

// Record is an accepted score ready to be persisted.
type Record struct {
	Nickname  string
	Score     int
	Region    string
	Format    string
	Day       time.Time
	CreatedAt time.Time
}

// Store persists ranking rows.
type Store interface {
	// Save inserts rec into the daily board, updates the all-time top list and
	// returns the 1-based daily rank of the new row.
	Save(ctx context.Context, rec Record, allTimeSize int) (int, error)
	List(ctx context.Context, q BoardQuery) ([]Entry, error)
	DeleteDailyBefore(ctx context.Context, day time.Time) (int64, error)
}

// BoardCache caches board listings between writes.
type BoardCache interface {
	Get(ctx context.Context, q BoardQuery) ([]Entry, bool, error)
	Set(ctx context.Context, q BoardQuery, entries []Entry) error
	Invalidate(ctx context.Context, region, format string, day time.Time) error
}

// Update is published after every accepted submission.
type Update struct {
	Region   string `json:"region"`
	Format   string `json:"format"`
	Rank     int    `json:"rank"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// Publisher fans accepted submissions out to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, u Update) error
}

// StartRequest is the body of POST /api/quiz/start.
type StartRequest struct {
	NumberOfQuestions int      `json:"numberOfQuestions"`
	Region            string   `json:"region"`
	Format            string   `json:"format"`
	QuestionIDs       []string `json:"questionIds"`
}

// StartResponse carries a freshly minted session token.
type StartResponse struct {
	SessionToken string `json:"sessionToken"`
	StartTime    int64  `json:"startTime"`
}

// SubmitRequest is the body of POST /api/ranking.
type SubmitRequest struct {
	SessionToken        string   `json:"sessionToken"`
	Nickname            string   `json:"nickname"`
	Score               int      `json:"score"`
	Region              string   `json:"region"`
	Format              string   `json:"format"`
	CorrectAnswers      int      `json:"correctAnswers"`
	TimeInSeconds       float64  `json:"timeInSeconds"`
	NumberOfQuestions   int      `json:"numberOfQuestions"`
	AnsweredQuestionIDs []string `json:"answeredQuestionIds"`
}

// SubmitResult describes an accepted score.
type SubmitResult struct {
	Rank     int    `json:"rank"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
