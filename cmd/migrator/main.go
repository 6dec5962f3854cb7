package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/flagquiz/flagquiz-api/db/migrations"
	"github.com/flagquiz/flagquiz-api/internal/config"
)

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("migrator failed")
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "migrator",
		Short:         "Apply or inspect the ranking database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile == "" {
				return
			}
			if err := godotenv.Load(envFile); err != nil {
				log.Warn().Err(err).Str("file", envFile).Msg("could not load env file")
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file to load before reading PG_* variables")

	root.AddCommand(
		gooseCmd("up", "Apply all pending migrations", goose.UpContext),
		gooseCmd("down", "Roll back the latest migration", goose.DownContext),
		gooseCmd("status", "Print the status of every migration", goose.StatusContext),
	)
	return root
}

type gooseFunc func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error

func gooseCmd(use, short string, run gooseFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := run(cmd.Context(), db, "."); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			log.Info().Str("command", use).Msg("migration command completed")
			return nil
		},
	}
}

func openDB(ctx context.Context) (*sql.DB, error) {
	var pg config.Postgres
	if err := config.LoadInto(&pg); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", pg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", pg.Host).
		Int("port", pg.Port).
		Str("database", pg.Database).
		Msg("connected to database")

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName("goose_db_version")
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
