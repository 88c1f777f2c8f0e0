package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

// RunMigrations creates the schema. Every statement is idempotent.
func RunMigrations(ctx context.Context, db PGXDB) error {
	categories := make([]string, 0)
	for _, c := range domain.Categories.Codes() {
		categories = append(categories, "'"+c+"'")
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount NUMERIC(%d, %d) NOT NULL CHECK (amount > 0),
			date DATE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL CHECK (category IN (%s)),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, domain.AmountMaxDigits, domain.AmountDecimalPlaces, strings.Join(categories, ", ")),

		`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_category ON expenses(user_id, category)`,
	}

	for i, m := range migrations {
		if _, err := db.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
