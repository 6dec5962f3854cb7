package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/flagquiz/flagquiz-api/internal/ranking"
)

// pgxDB is the subset of *pgxpool.Pool the repository needs.
type pgxDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	// Serialises writers of one (region, format) board so the all-time top list cannot overshoot.
	lockBoardSQL = `SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`

	insertDailySQL = `INSERT INTO ranking_daily (nickname, score, region, format, date, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	allTimeScoresSQL = `SELECT score FROM ranking_all_time
WHERE region = $1 AND format = $2
ORDER BY score DESC, created_at ASC
LIMIT $3`

	insertAllTimeSQL = `INSERT INTO ranking_all_time (nickname, score, region, format, created_at)
VALUES ($1, $2, $3, $4, $5)`

	pruneAllTimeSQL = `DELETE FROM ranking_all_time
WHERE region = $1 AND format = $2 AND id NOT IN (
    SELECT id FROM ranking_all_time
    WHERE region = $1 AND format = $2
    ORDER BY score DESC, created_at ASC
    LIMIT $3
)`

	dailyRankSQL = `SELECT COUNT(*) FROM ranking_daily
WHERE region = $1 AND format = $2 AND date = $3
  AND (score > $4 OR (score = $4 AND created_at < $5))`

	listDailySQL = `SELECT nickname, score, created_at FROM ranking_daily
WHERE region = $1 AND format = $2 AND date = $3
ORDER BY score DESC, created_at ASC
LIMIT $4`

	listAllTimeSQL = `SELECT nickname, score, created_at FROM ranking_all_time
WHERE region = $1 AND format = $2
ORDER BY score DESC, created_at ASC
LIMIT $3`

	deleteDailySQL = `DELETE FROM ranking_daily WHERE date < $1`
)

// RankingRepository stores the daily and all-time boards in Postgres.
type RankingRepository struct {
	db pgxDB
}

var _ ranking.Store = (*RankingRepository)(nil)

// NewRankingRepository wraps a pgx pool.
func NewRankingRepository(db pgxDB) *RankingRepository {
	return &RankingRepository{db: db}
}

// Save records an accepted score on both boards in one transaction and returns its daily rank.
func (r *RankingRepository) Save(ctx context.Context, rec ranking.Record, allTimeSize int) (int, error) {
	day := pgtype.Date{Time: rec.Day, Valid: true}
	var ahead int64

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockBoardSQL, rec.Region, rec.Format); err != nil {
			return fmt.Errorf("lock board: %w", err)
		}

		if _, err := tx.Exec(ctx, insertDailySQL, rec.Nickname, rec.Score, rec.Region, rec.Format, day, rec.CreatedAt); err != nil {
			return fmt.Errorf("insert daily score: %w", err)
		}

		rows, err := tx.Query(ctx, allTimeScoresSQL, rec.Region, rec.Format, allTimeSize)
		if err != nil {
			return fmt.Errorf("read all-time board: %w", err)
		}
		top, err := pgx.CollectRows(rows, pgx.RowTo[int32])
		if err != nil {
			return fmt.Errorf("scan all-time board: %w", err)
		}

		if len(top) < allTimeSize || rec.Score > int(top[len(top)-1]) {
			if _, err := tx.Exec(ctx, insertAllTimeSQL, rec.Nickname, rec.Score, rec.Region, rec.Format, rec.CreatedAt); err != nil {
				return fmt.Errorf("insert all-time score: %w", err)
			}
			if _, err := tx.Exec(ctx, pruneAllTimeSQL, rec.Region, rec.Format, allTimeSize); err != nil {
				return fmt.Errorf("prune all-time board: %w", err)
			}
		}

		if err := tx.QueryRow(ctx, dailyRankSQL, rec.Region, rec.Format, day, rec.Score, rec.CreatedAt).Scan(&ahead); err != nil {
			return fmt.Errorf("compute daily rank: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

// List returns one board ordered by score, earliest submission first on ties.
func (r *RankingRepository) List(ctx context.Context, q ranking.BoardQuery) ([]ranking.Entry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	switch q.Type {
	case ranking.TypeDaily:
		rows, err = r.db.Query(ctx, listDailySQL, q.Region, q.Format, pgtype.Date{Time: q.Day, Valid: true}, q.Limit)
	case ranking.TypeAllTime:
		rows, err = r.db.Query(ctx, listAllTimeSQL, q.Region, q.Format, q.Limit)
	default:
		return nil, fmt.Errorf("unknown board type %q", q.Type)
	}
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ranking.Entry, error) {
		var (
			e     ranking.Entry
			score int32
		)
		if err := row.Scan(&e.Nickname, &score, &e.CreatedAt); err != nil {
			return e, err
		}
		e.Score = int(score)
		e.CreatedAt = e.CreatedAt.UTC()
		return e, nil
	})
}

// DeleteDailyBefore removes daily rows dated before day.
func (r *RankingRepository) DeleteDailyBefore(ctx context.Context, day time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteDailySQL, pgtype.Date{Time: day, Valid: true})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
