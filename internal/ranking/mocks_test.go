package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flagquiz/flagquiz-api/internal/session"
)

var testNow = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Save(ctx context.Context, rec Record, allTimeSize int) (int, error) {
	args := m.Called(ctx, rec, allTimeSize)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, q BoardQuery) ([]Entry, error) {
	args := m.Called(ctx, q)
	entries, _ := args.Get(0).([]Entry)
	return entries, args.Error(1)
}

func (m *mockStore) DeleteDailyBefore(ctx context.Context, day time.Time) (int64, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(int64), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, u Update) error {
	return m.Called(ctx, u).Error(0)
}

func newTestSessions(t *testing.T, now time.Time) *session.Manager {
	t.Helper()
	m, err := session.NewManager([]byte("ranking-test-secret"), session.Options{
		Now: func() time.Time { return now },
	})
	require.NoError(t, err)
	return m
}

func newTestService(t *testing.T, store Store, cache BoardCache, pub Publisher) *Service {
	t.Helper()
	return NewService(newTestSessions(t, testNow), store, cache, pub, nil, ServiceOptions{
		DailyLimit:   100,
		AllTimeLimit: 5,
		DayOffset:    9 * time.Hour,
	}, zerolog.Nop())
}

var testQuestions = []string{"jpn", "usa", "fra", "deu", "gbr", "ita", "esp", "can", "bra", "aus"}

// mintSession issues a token for a ten question game that started `ago` before testNow.
func mintSession(t *testing.T, ago time.Duration) string {
	t.Helper()
	m := newTestSessions(t, testNow.Add(-ago))
	token, err := m.Mint(session.Payload{
		StartTime:         testNow.Add(-ago).UnixMilli(),
		NumberOfQuestions: len(testQuestions),
		Region:            "all",
		Format:            session.FormatFlagToName,
		QuestionIDs:       testQuestions,
	})
	require.NoError(t, err)
	return token
}

func validSubmit(t *testing.T) SubmitRequest {
	t.Helper()
	return SubmitRequest{
		SessionToken:        mintSession(t, 40*time.Second),
		Nickname:            "  alice  ",
		Score:               9700,
		Region:              "all",
		Format:              session.FormatFlagToName,
		CorrectAnswers:      10,
		TimeInSeconds:       30,
		NumberOfQuestions:   10,
		AnsweredQuestionIDs: testQuestions,
	}
}
