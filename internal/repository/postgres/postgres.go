// Package postgres implements repository.Store on PostgreSQL using pgx.
//
// Each entity is stored as a jsonb body next to the columns it is looked up
// by. Update runs a SERIALIZABLE transaction and loads projects with
// SELECT ... FOR UPDATE, so concurrent bookings against the same project
// queue behind each other instead of overbooking.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
)

// Store is a pgx backed repository.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// New constructs a Store on an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(repository.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, false, fn)
}

const (
	// updateAttempts bounds how often Update runs fn when PostgreSQL aborts
	// the transaction with a serialization failure.
	updateAttempts = 3
	retryBackoff   = 20 * time.Millisecond

	codeSerializationFailure = "40001"
)

// Update runs fn in a serializable transaction, committing only when fn
// succeeds. A transaction aborted by a serialization failure is retried from
// the start, so fn must not depend on state left by an earlier attempt.
func (s *Store) Update(ctx context.Context, fn func(repository.Tx) error) error {
	return retrySerializable(ctx, updateAttempts, retryBackoff, func() error {
		return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, true, fn)
	})
}

// retrySerializable calls attempt up to n times while it fails with a
// serialization failure, sleeping a growing backoff between calls.
func retrySerializable(ctx context.Context, n int, backoff time.Duration, attempt func() error) error {
	var err error
	for i := 1; i <= n; i++ {
		if err = attempt(); !isSerializationFailure(err) || i == n {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(i) * backoff):
		}
	}
	return err
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeSerializationFailure
}

func (s *Store) run(ctx context.Context, opts pgx.TxOptions, write bool, fn func(repository.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Ensure the transaction is always resolved.
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&pgTx{tx: tx, lock: write}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type pgTx struct {
	tx   pgx.Tx
	lock bool
}

func (t *pgTx) Users() repository.Users {
	return users{table[*model.User]{tx: t.tx, name: "users", row: func(u *model.User) (string, []column) {
		return u.NRIC, nil
	}}}
}

func (t *pgTx) Projects() repository.Projects {
	return projects{table[*model.Project]{tx: t.tx, name: "projects", lock: t.lock, row: func(p *model.Project) (string, []column) {
		return p.Name, []column{
			{"manager_nric", p.ManagerNRIC},
			{"open_date", p.OpenDate},
			{"close_date", p.CloseDate},
		}
	}}}
}

func (t *pgTx) Applications() repository.Applications {
	return applications{table[*model.Application]{tx: t.tx, name: "applications", row: func(a *model.Application) (string, []column) {
		return a.ID, documentColumns(&a.DocumentMeta, a.ProjectName)
	}}}
}

func (t *pgTx) Registrations() repository.Registrations {
	return registrations{table[*model.Registration]{tx: t.tx, name: "registrations", row: func(r *model.Registration) (string, []column) {
		return r.ID, documentColumns(&r.DocumentMeta, r.ProjectName)
	}}}
}

func (t *pgTx) Withdrawals() repository.Withdrawals {
	return withdrawals{table[*model.Withdrawal]{tx: t.tx, name: "withdrawals", row: func(w *model.Withdrawal) (string, []column) {
		return w.ID, append(documentColumns(&w.DocumentMeta, w.ProjectName), column{"application_id", w.ApplicationID})
	}}}
}

func (t *pgTx) Enquiries() repository.Enquiries {
	return enquiries{table[*model.Enquiry]{tx: t.tx, name: "enquiries", row: func(e *model.Enquiry) (string, []column) {
		return e.ID, documentColumns(&e.DocumentMeta, e.ProjectName)
	}}}
}

func documentColumns(m *model.DocumentMeta, projectName string) []column {
	return []column{
		{"submitter", m.Submitter},
		{"project_name", projectName},
		{"status", string(m.Status)},
	}
}

type column struct {
	name  string
	value any
}

// table maps one entity type onto a table with an id column, indexed lookup
// columns and a jsonb body.
type table[T any] struct {
	tx   pgx.Tx
	name string
	lock bool
	row  func(T) (string, []column)
}

func (t table[T]) Save(ctx context.Context, entity T) error {
	id, cols := t.row(entity)
	body, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode %s: %w", t.name, err)
	}

	names := []string{"id"}
	args := []any{id}
	updates := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		names = append(names, c.name)
		args = append(args, c.value)
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c.name, c.name))
	}
	names = append(names, "body")
	args = append(args, body)
	updates = append(updates, "body = EXCLUDED.body")

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s`,
		t.name, strings.Join(names, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "),
	)
	if _, err := t.tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("save %s: %w", t.name, err)
	}
	return nil
}

func (t table[T]) FindByID(ctx context.Context, id string) (T, error) {
	sql := fmt.Sprintf(`SELECT body FROM %s WHERE id = $1`, t.name)
	if t.lock {
		sql += ` FOR UPDATE`
	}
	var zero T
	var body []byte
	if err := t.tx.QueryRow(ctx, sql, id).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, repository.ErrNotFound
		}
		return zero, fmt.Errorf("get %s: %w", t.name, err)
	}
	return t.decode(body)
}

func (t table[T]) FindAll(ctx context.Context) ([]T, error) {
	return t.where(ctx, "")
}

func (t table[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := t.tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.name), id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", t.name, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t table[T]) Count(ctx context.Context) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, t.name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, err)
	}
	return n, nil
}

// where lists entities matching an optional WHERE clause, ordered by id.
func (t table[T]) where(ctx context.Context, clause string, args ...any) ([]T, error) {
	sql := fmt.Sprintf(`SELECT body FROM %s %s ORDER BY id`, t.name, clause)
	return t.query(ctx, sql, args...)
}

func (t table[T]) query(ctx context.Context, sql string, args ...any) ([]T, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		v, err := t.decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (t table[T]) decode(body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", t.name, err)
	}
	return v, nil
}
