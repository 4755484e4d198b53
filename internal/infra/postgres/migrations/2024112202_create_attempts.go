package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0002_create_attempts.sql
var createAttemptsSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execScript(ctx, db, createAttemptsSQL)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execScript(ctx, db, `DROP TABLE IF EXISTS responses; DROP TABLE IF EXISTS users;`)
		},
	)
}
