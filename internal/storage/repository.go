// Package storage persists the ledger in SQLite. Dates are stored as ISO
// day strings so range scans and uniqueness checks work on plain text
// comparison.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"kudi/internal/core"

	_ "modernc.org/sqlite"
)

// monthlyLimitKey is the reserved budget_limits row holding the overall
// monthly threshold.
const monthlyLimitKey = "*"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.Ledger. The uniqueness checks run inside one
// transaction so concurrent appenders cannot slip a duplicate through; the
// partial unique index on (origin_rule_id, occurred_at) backs them up.
func (r *SQLiteRepository) Append(ctx context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE id = ?`, e.ID).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("check entry id: %w", err)
	}
	if exists > 0 {
		return "", fmt.Errorf("%w: %s", core.ErrDuplicateID, e.ID)
	}

	if e.OriginRuleID != "" {
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM entries WHERE origin_rule_id = ? AND occurred_at = ?`,
			e.OriginRuleID, e.OccurredAt.String()).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("check materialization: %w", err)
		}
		if exists > 0 {
			return "", fmt.Errorf("%w: rule %s on %s", core.ErrAlreadyLogged, e.OriginRuleID, e.OccurredAt)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (id, kind, name, amount_cents, currency, normalized_cents,
			conversion_pending, category, activity, duration_seconds, occurred_at, origin_rule_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Name, e.Amount.Cents, e.Currency, e.Normalized.Cents,
		boolToInt(e.ConversionPending), e.Category, e.Activity, e.DurationSeconds,
		e.OccurredAt.String(), e.OriginRuleID)
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit append: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", e.ID,
		"kind", e.Kind,
		"occurred_at", e.OccurredAt.String())

	return e.ID, nil
}

const entryColumns = `id, kind, name, amount_cents, currency, normalized_cents,
	conversion_pending, category, activity, duration_seconds, occurred_at, origin_rule_id`

func (r *SQLiteRepository) QueryRange(ctx context.Context, start, end core.Date) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at, rowid`,
		start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, fmt.Errorf("%w: entry %s", core.ErrNotFound, id)
	}
	return e, err
}

func (r *SQLiteRepository) Update(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE entries SET kind = ?, name = ?, amount_cents = ?, currency = ?,
			normalized_cents = ?, conversion_pending = ?, category = ?, activity = ?,
			duration_seconds = ?, occurred_at = ?, origin_rule_id = ?
		WHERE id = ?`,
		string(e.Kind), e.Name, e.Amount.Cents, e.Currency, e.Normalized.Cents,
		boolToInt(e.ConversionPending), e.Category, e.Activity, e.DurationSeconds,
		e.OccurredAt.String(), e.OriginRuleID, e.ID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: entry %s", core.ErrNotFound, e.ID)
	}
	return nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	return n > 0, nil
}

// Insert implements ledger.RuleRepository.
func (r *SQLiteRepository) Insert(ctx context.Context, rule core.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rule insert: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM recurring_rules WHERE id = ?`, rule.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check rule id: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", core.ErrDuplicateID, rule.ID)
	}

	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM recurring_rules
		WHERE name = ? AND category = ? AND frequency = ? AND start_date = ?`,
		rule.Name, rule.Category, string(rule.Frequency), rule.StartDate.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check rule tuple: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", core.ErrDuplicateRule, rule.Name)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recurring_rules (id, name, amount_cents, currency, category, frequency, start_date, last_materialized)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.Name, rule.Amount.Cents, rule.Currency, rule.Category,
		string(rule.Frequency), rule.StartDate.String(), dateOrEmpty(rule.LastMaterialized))
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}

	return tx.Commit()
}

const ruleColumns = `id, name, amount_cents, currency, category, frequency, start_date, last_materialized`

func (r *SQLiteRepository) Active(ctx context.Context) ([]core.Rule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ruleColumns+` FROM recurring_rules ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var out []core.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetRule(ctx context.Context, id string) (core.Rule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM recurring_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Rule{}, fmt.Errorf("%w: rule %s", core.ErrNotFound, id)
	}
	return rule, err
}

// UpdateRule applies a user edit. The materialization marker column is
// deliberately left out of the SET list: edits never reset scheduling state.
func (r *SQLiteRepository) UpdateRule(ctx context.Context, rule core.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_rules SET name = ?, amount_cents = ?, currency = ?,
			category = ?, frequency = ?, start_date = ?
		WHERE id = ?`,
		rule.Name, rule.Amount.Cents, rule.Currency, rule.Category,
		string(rule.Frequency), rule.StartDate.String(), rule.ID)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: rule %s", core.ErrNotFound, rule.ID)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRule(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_rules WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rule: %w", err)
	}
	return n > 0, nil
}

// SetLastMaterialized advances the marker. ISO day strings compare in date
// order, so the monotonic guard is a plain text comparison in the WHERE
// clause.
func (r *SQLiteRepository) SetLastMaterialized(ctx context.Context, id string, d core.Date) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_rules SET last_materialized = ?
		WHERE id = ? AND last_materialized <= ?`,
		d.String(), id, d.String())
	if err != nil {
		return fmt.Errorf("set last materialized: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set last materialized: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Distinguish a missing rule from a rewind attempt.
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recurring_rules WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check rule: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: rule %s", core.ErrNotFound, id)
	}
	return fmt.Errorf("%w: rule %s", core.ErrRuleRewind, id)
}

// Limits implements ledger.LimitsStore.
func (r *SQLiteRepository) Limits(ctx context.Context) (core.Limits, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, limit_cents FROM budget_limits`)
	if err != nil {
		return core.Limits{}, fmt.Errorf("query limits: %w", err)
	}
	defer rows.Close()

	var out core.Limits
	for rows.Next() {
		var category string
		var cents int64
		if err := rows.Scan(&category, &cents); err != nil {
			return core.Limits{}, fmt.Errorf("scan limit: %w", err)
		}
		if category == monthlyLimitKey {
			out.MonthlyCents = cents
			continue
		}
		if out.CategoryCents == nil {
			out.CategoryCents = make(map[string]int64)
		}
		out.CategoryCents[category] = cents
	}
	if err := rows.Err(); err != nil {
		return core.Limits{}, fmt.Errorf("iterate limits: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) SetLimits(ctx context.Context, l core.Limits) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin limits update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_limits`); err != nil {
		return fmt.Errorf("clear limits: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO budget_limits (category, limit_cents) VALUES (?, ?)`,
		monthlyLimitKey, l.MonthlyCents); err != nil {
		return fmt.Errorf("store monthly limit: %w", err)
	}
	for category, cents := range l.CategoryCents {
		if category == monthlyLimitKey {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budget_limits (category, limit_cents) VALUES (?, ?)`,
			category, cents); err != nil {
			return fmt.Errorf("store limit for %s: %w", category, err)
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var e core.Entry
	var kind, occurredAt string
	var pending int
	err := row.Scan(&e.ID, &kind, &e.Name, &e.Amount.Cents, &e.Currency,
		&e.Normalized.Cents, &pending, &e.Category, &e.Activity,
		&e.DurationSeconds, &occurredAt, &e.OriginRuleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Entry{}, err
		}
		return core.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Kind = core.EntryKind(kind)
	e.ConversionPending = pending != 0
	e.OccurredAt, err = core.ParseDate(occurredAt)
	if err != nil {
		return core.Entry{}, fmt.Errorf("parse entry date: %w", err)
	}
	return e, nil
}

func scanRule(row rowScanner) (core.Rule, error) {
	var r core.Rule
	var frequency, startDate, lastMaterialized string
	err := row.Scan(&r.ID, &r.Name, &r.Amount.Cents, &r.Currency, &r.Category,
		&frequency, &startDate, &lastMaterialized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Rule{}, err
		}
		return core.Rule{}, fmt.Errorf("scan rule: %w", err)
	}
	r.Frequency = core.Frequency(frequency)
	r.StartDate, err = core.ParseDate(startDate)
	if err != nil {
		return core.Rule{}, fmt.Errorf("parse rule start date: %w", err)
	}
	if lastMaterialized != "" {
		r.LastMaterialized, err = core.ParseDate(lastMaterialized)
		if err != nil {
			return core.Rule{}, fmt.Errorf("parse rule marker: %w", err)
		}
	}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func dateOrEmpty(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
