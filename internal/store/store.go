package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/domain-scraper/internal/company"
	"github.com/domain-scraper/internal/logging"
	"github.com/domain-scraper/internal/normalize"
	"github.com/domain-scraper/internal/postal"
)

// ErrNotFound is returned when no record exists for a domain
var ErrNotFound = errors.New("record not found")

// Store persists company records in the company_record table
type Store struct {
	db      *sql.DB
	dialect string
	logger  *zap.Logger
}

// New creates a store for an open database. dialect is "postgres" or "mysql".
func New(db *sql.DB, dialect string, logger *zap.Logger) (*Store, error) {
	if dialect != "postgres" && dialect != "mysql" {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	return &Store{db: db, dialect: dialect, logger: logging.OrNop(logger)}, nil
}

// Filter narrows List results
type Filter struct {
	Status postal.ParseStatus // zero means any
	Limit  int
	Offset int
}

const recordColumns = `domain, company, raw_address, street, city, state, zip,
	employee_size, annual_revenue, parse_status, canonical_key, source, source_url,
	scrape_error, run_id, updated_at`

// Migrate creates the company_record table if needed
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL(s.dialect)); err != nil {
		return fmt.Errorf("failed to create company_record: %w", err)
	}
	return nil
}

func createTableSQL(dialect string) string {
	ts := "TIMESTAMPTZ"
	if dialect == "mysql" {
		ts = "DATETIME(6)"
	}
	return `CREATE TABLE IF NOT EXISTS company_record (
		domain         VARCHAR(255) NOT NULL PRIMARY KEY,
		company        TEXT NOT NULL,
		raw_address    TEXT NULL,
		street         TEXT NOT NULL,
		city           TEXT NOT NULL,
		state          VARCHAR(64) NOT NULL,
		zip            VARCHAR(64) NOT NULL,
		employee_size  VARCHAR(64) NOT NULL,
		annual_revenue VARCHAR(64) NOT NULL,
		parse_status   VARCHAR(32) NOT NULL,
		canonical_key  TEXT NOT NULL,
		source         VARCHAR(32) NOT NULL,
		source_url     TEXT NOT NULL,
		scrape_error   TEXT NOT NULL,
		run_id         VARCHAR(64) NOT NULL,
		updated_at     ` + ts + ` NOT NULL
	)`
}

// upsertSQL inserts a record or replaces every column of the existing row
func upsertSQL(dialect string) string {
	insert := `INSERT INTO company_record (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	cols := strings.Split(strings.Join(strings.Fields(recordColumns), ""), ",")
	sets := make([]string, 0, len(cols)-1)
	for _, col := range cols[1:] {
		if dialect == "mysql" {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", col, col))
		} else {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	if dialect == "mysql" {
		return insert + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return rebind(dialect, insert+" ON CONFLICT (domain) DO UPDATE SET "+strings.Join(sets, ", "))
}

// rebind rewrites ? placeholders to $n for postgres
func rebind(dialect, query string) string {
	if dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save upserts rec keyed by domain
func (s *Store) Save(ctx context.Context, rec company.Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	if rec.CanonicalKey == "" {
		rec.CanonicalKey = normalize.CanonicalKey(rec.Address)
	}

	var raw sql.NullString
	if strings.TrimSpace(rec.RawAddress) != "" {
		raw = sql.NullString{String: rec.RawAddress, Valid: true}
	}

	a := rec.Address
	_, err := s.db.ExecContext(ctx, upsertSQL(s.dialect),
		rec.Domain, rec.Company, raw, a.StreetAddress, a.City, a.StateCode, a.PostalCode,
		rec.EmployeeSize, rec.AnnualRevenue, a.Status.String(), rec.CanonicalKey, rec.Source, rec.SourceURL,
		rec.ScrapeError, rec.RunID, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save record for %s: %w", rec.Domain, err)
	}
	return nil
}

// Write makes the store usable as a pipeline sink
func (s *Store) Write(ctx context.Context, rec company.Record) error {
	return s.Save(ctx, rec)
}

// Get returns the record for domain or ErrNotFound
func (s *Store) Get(ctx context.Context, domain string) (*company.Record, error) {
	query := rebind(s.dialect, `SELECT `+recordColumns+` FROM company_record WHERE domain = ?`)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, domain))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record for %s: %w", domain, err)
	}
	return rec, nil
}

// List returns one page of records ordered by domain, plus the filtered total
func (s *Store) List(ctx context.Context, f Filter) ([]company.Record, int, error) {
	where, args := buildWhere(f)

	var total int
	countQuery := rebind(s.dialect, `SELECT COUNT(*) FROM company_record`+where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query := rebind(s.dialect, `SELECT `+recordColumns+` FROM company_record`+where+
		` ORDER BY domain LIMIT ? OFFSET ?`)
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []company.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, total, nil
}

func buildWhere(f Filter) (string, []interface{}) {
	if f.Status == 0 {
		return "", nil
	}
	return " WHERE parse_status = ?", []interface{}{f.Status.String()}
}

// Stats tallies stored records by parse status
func (s *Store) Stats(ctx context.Context) (*postal.Tally, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT parse_status, COUNT(*) FROM company_record GROUP BY parse_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	tally := postal.NewTally()
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		status, err := postal.ParseStatusFromString(name)
		if err != nil {
			s.logger.Warn("skipping unknown parse status", zap.String("status", name), zap.Int("count", n))
			continue
		}
		tally.AddN(status, n)
	}
	return tally, rows.Err()
}

// Reparse re-runs the address parser over every stored raw address and
// rewrites the parsed columns. City, state and zip filled in from the listing
// survive when the new parse is still structured and leaves them empty.
// It returns the number of rows whose status changed.
func (s *Store) Reparse(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT domain, raw_address, street, city, state, zip, parse_status FROM company_record`)
	if err != nil {
		return 0, fmt.Errorf("failed to read raw addresses: %w", err)
	}

	type pending struct {
		rec       postal.PostalRecord
		oldStatus string
	}
	var todo []pending
	for rows.Next() {
		var old postal.PostalRecord
		var status string
		var raw sql.NullString
		if err := rows.Scan(&old.Identifier, &raw, &old.StreetAddress, &old.City, &old.StateCode,
			&old.PostalCode, &status); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan raw address: %w", err)
		}
		if old.Status, err = postal.ParseStatusFromString(status); err != nil {
			s.logger.Warn("unknown stored parse status", zap.String("domain", old.Identifier), zap.String("status", status))
		}
		fresh := postal.ParseNullable(old.Identifier, raw)
		todo = append(todo, pending{rec: mergeReparsed(old, fresh), oldStatus: status})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate raw addresses: %w", err)
	}

	update := rebind(s.dialect, `UPDATE company_record
		SET street = ?, city = ?, state = ?, zip = ?, parse_status = ?, canonical_key = ?
		WHERE domain = ?`)
	changed := 0
	for _, p := range todo {
		r := p.rec
		if _, err := s.db.ExecContext(ctx, update, r.StreetAddress, r.City, r.StateCode, r.PostalCode,
			r.Status.String(), normalize.CanonicalKey(r), r.Identifier); err != nil {
			return changed, fmt.Errorf("failed to update %s: %w", r.Identifier, err)
		}
		if p.oldStatus != r.Status.String() {
			changed++
		}
	}
	s.logger.Info("reparse complete", zap.Int("rows", len(todo)), zap.Int("status_changed", changed))
	return changed, nil
}

// mergeReparsed keeps stored components the fresh parse left empty. Both
// records must be structured; otherwise fresh wins as-is so an unparseable
// or empty row never carries components.
func mergeReparsed(old, fresh postal.PostalRecord) postal.PostalRecord {
	if !fresh.Status.Structured() || !old.Status.Structured() {
		return fresh
	}
	if fresh.StreetAddress == "" {
		fresh.StreetAddress = old.StreetAddress
	}
	if fresh.City == "" {
		fresh.City = old.City
	}
	if fresh.StateCode == "" {
		fresh.StateCode = old.StateCode
	}
	if fresh.PostalCode == "" {
		fresh.PostalCode = old.PostalCode
	}
	return fresh
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*company.Record, error) {
	var rec company.Record
	var raw sql.NullString
	var status string
	a := &rec.Address
	err := row.Scan(&rec.Domain, &rec.Company, &raw, &a.StreetAddress, &a.City, &a.StateCode, &a.PostalCode,
		&rec.EmployeeSize, &rec.AnnualRevenue, &status, &rec.CanonicalKey, &rec.Source, &rec.SourceURL,
		&rec.ScrapeError, &rec.RunID, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.RawAddress = raw.String
	a.Identifier = rec.Domain
	if a.Status, err = postal.ParseStatusFromString(status); err != nil {
		return nil, err
	}
	return &rec, nil
}
