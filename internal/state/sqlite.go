package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/aegis/internal/audit"
	"github.com/leapstack-labs/aegis/pkg/core"
	"github.com/leapstack-labs/aegis/pkg/fairness"

	_ "modernc.org/sqlite" // sqlite driver
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite state store instance.
// If logger is nil, a discard logger is used.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	var dsn string
	if path == ":memory:" {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = s.Close()
		s.db = nil
		return err
	}

	s.logger.Debug("state store opened", slog.String("path", path))
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// SaveReport stores r and its fairness measures. A missing ID or CreatedAt
// is filled in on r before saving.
func (s *SQLiteStore) SaveReport(ctx context.Context, r *audit.Report) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if r.ID == "" {
		r.ID = generateID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC()

	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	seen := make(map[string]bool, len(r.Findings))
	for _, rec := range r.Findings {
		if seen[rec.Attribute] {
			return fmt.Errorf("report has more than one finding for attribute %q", rec.Attribute)
		}
		seen[rec.Attribute] = true
	}

	attrs, err := json.Marshal(r.Attributes)
	if err != nil {
		return fmt.Errorf("failed to encode attributes: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO audits (id, kind, source, target, model, attributes, row_count, highest_tier, created_at, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Kind), r.Source, r.Target, r.Model, string(attrs), r.Rows,
		int(r.HighestTier()), r.CreatedAt.Format(timeLayout), string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit: %w", err)
	}

	for _, rec := range r.Findings {
		for _, m := range rec.Fairness {
			var value sql.NullFloat64
			if v, ok := m.Value.Value(); ok {
				value = sql.NullFloat64{Float64: v, Valid: true}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO findings (audit_id, attribute, measure, value, tier) VALUES (?, ?, ?, ?, ?)`,
				r.ID, rec.Attribute, m.Name, value, int(m.Tier),
			)
			if err != nil {
				return fmt.Errorf("failed to save finding %s/%s: %w", rec.Attribute, m.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit: %w", err)
	}

	s.logger.Debug("audit saved", slog.String("id", r.ID), slog.String("kind", string(r.Kind)))
	return nil
}

// GetReport loads a report by full ID or unique ID prefix.
func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*audit.Report, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	var doc string
	err = s.db.QueryRowContext(ctx, `SELECT report FROM audits WHERE id = ?`, fullID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}

	var r audit.Report
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("failed to decode audit %s: %w", fullID, err)
	}
	return &r, nil
}

func (s *SQLiteStore) resolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM audits WHERE id LIKE ? ESCAPE '\' ORDER BY id LIMIT 10`, escaped+"%")
	if err != nil {
		return "", fmt.Errorf("failed to look up audit: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan audit id: %w", err)
		}
		if id == prefix {
			return id, nil
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating audit ids: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousIDError{Prefix: prefix, Matches: matches}
	}
}

// ListReports returns audit summaries, newest first.
func (s *SQLiteStore) ListReports(ctx context.Context, opts ListOptions) ([]Summary, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT id, kind, source, target, model, attributes, row_count, highest_tier, created_at FROM audits`
	var args []any
	if opts.Kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(opts.Kind))
	}
	query += ` ORDER BY created_at DESC, id`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			kind      string
			attrs     string
			tier      int
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &kind, &sum.Source, &sum.Target, &sum.Model, &attrs, &sum.Rows, &tier, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		sum.Kind = audit.Kind(kind)
		sum.HighestTier = core.Tier(tier)
		if err := json.Unmarshal([]byte(attrs), &sum.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode attributes of %s: %w", sum.ID, err)
		}
		if sum.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at of %s: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audits: %w", err)
	}
	return out, nil
}

// ListFindings returns stored fairness measures at or above minTier,
// newest audit first.
func (s *SQLiteStore) ListFindings(ctx context.Context, minTier core.Tier) ([]Finding, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.audit_id, a.created_at, a.source, a.model, f.attribute, f.measure, f.value, f.tier
		FROM findings f
		JOIN audits a ON a.id = f.audit_id
		WHERE f.tier >= ?
		ORDER BY a.created_at DESC, f.audit_id, f.attribute, f.measure`, int(minTier))
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Finding
	for rows.Next() {
		var (
			f         Finding
			createdAt string
			value     sql.NullFloat64
			tier      int
		)
		if err := rows.Scan(&f.AuditID, &createdAt, &f.Source, &f.Model, &f.Attribute, &f.Measure, &value, &tier); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		if f.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at of %s: %w", f.AuditID, err)
		}
		f.Value = fairness.Undefined()
		if value.Valid {
			f.Value = fairness.Defined(value.Float64)
		}
		f.Tier = core.Tier(tier)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating findings: %w", err)
	}
	return out, nil
}

// DeleteReport removes an audit and its findings by full ID or unique prefix.
func (s *SQLiteStore) DeleteReport(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE audit_id = ?`, fullID); err != nil {
		return fmt.Errorf("failed to delete findings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM audits WHERE id = ?`, fullID); err != nil {
		return fmt.Errorf("failed to delete audit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	s.logger.Debug("audit deleted", slog.String("id", fullID))
	return nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
