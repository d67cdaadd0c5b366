// Package memory is a transactional in-memory Store built on go-memdb. A
// write transaction holds the database's single writer lock until it commits
// or aborts, so check-then-act sequences inside Update are serialized.
package memory

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
)

const (
	tableUsers         = "users"
	tableProjects      = "projects"
	tableApplications  = "applications"
	tableRegistrations = "registrations"
	tableWithdrawals   = "withdrawals"
	tableEnquiries     = "enquiries"

	indexID        = "id"
	indexManager   = "manager"
	indexSubmitter = "submitter"
	indexProject   = "project"
	indexParent    = "application"
)

func stringIndex(name, field string, unique, allowMissing bool) *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:         name,
		Unique:       unique,
		AllowMissing: allowMissing,
		Indexer:      &memdb.StringFieldIndex{Field: field},
	}
}

func documentTable(name string, extra ...*memdb.IndexSchema) *memdb.TableSchema {
	indexes := map[string]*memdb.IndexSchema{
		indexID:        stringIndex(indexID, "ID", true, false),
		indexSubmitter: stringIndex(indexSubmitter, "Submitter", false, false),
		indexProject:   stringIndex(indexProject, "ProjectName", false, true),
	}
	for _, idx := range extra {
		indexes[idx.Name] = idx
	}
	return &memdb.TableSchema{Name: name, Indexes: indexes}
}

// Schema describes the tables and indexes of the store.
func Schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: stringIndex(indexID, "NRIC", true, false),
				},
			},
			tableProjects: {
				Name: tableProjects,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:      stringIndex(indexID, "Name", true, false),
					indexManager: stringIndex(indexManager, "ManagerNRIC", false, false),
				},
			},
			tableApplications:  documentTable(tableApplications),
			tableRegistrations: documentTable(tableRegistrations),
			tableWithdrawals: documentTable(tableWithdrawals,
				stringIndex(indexParent, "ApplicationID", false, false)),
			tableEnquiries: documentTable(tableEnquiries),
		},
	}
}

// Store is a go-memdb backed repository.Store.
type Store struct {
	db *memdb.MemDB
}

var _ repository.Store = (*Store)(nil)

// New creates an empty store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(Schema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &Store{db: db}, nil
}

// View runs fn in a read-only snapshot.
func (s *Store) View(ctx context.Context, fn func(repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(&tx{txn: txn})
}

// Update runs fn in a write transaction, committing only when fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := fn(&tx{txn: txn}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Close is a no-op; the data lives only in memory.
func (s *Store) Close() error { return nil }

type tx struct {
	txn *memdb.Txn
}

func (t *tx) Users() repository.Users {
	return users{table[*model.User]{txn: t.txn, name: tableUsers, clone: cloneUser}}
}

func (t *tx) Projects() repository.Projects {
	return projects{table[*model.Project]{txn: t.txn, name: tableProjects, clone: (*model.Project).Clone}}
}

func (t *tx) Applications() repository.Applications {
	return applications{table[*model.Application]{txn: t.txn, name: tableApplications, clone: (*model.Application).Clone}}
}

func (t *tx) Registrations() repository.Registrations {
	return registrations{
		table:    table[*model.Registration]{txn: t.txn, name: tableRegistrations, clone: (*model.Registration).Clone},
		projects: t.Projects(),
	}
}

func (t *tx) Withdrawals() repository.Withdrawals {
	return withdrawals{table[*model.Withdrawal]{txn: t.txn, name: tableWithdrawals, clone: (*model.Withdrawal).Clone}}
}

func (t *tx) Enquiries() repository.Enquiries {
	return enquiries{table[*model.Enquiry]{txn: t.txn, name: tableEnquiries, clone: (*model.Enquiry).Clone}}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

// table stores clones so callers never share memory with the radix tree,
// which go-memdb requires to stay immutable.
type table[T any] struct {
	txn   *memdb.Txn
	name  string
	clone func(T) T
}

func (t table[T]) Save(_ context.Context, entity T) error {
	if err := t.txn.Insert(t.name, t.clone(entity)); err != nil {
		return fmt.Errorf("insert %s: %w", t.name, err)
	}
	return nil
}

func (t table[T]) FindByID(_ context.Context, id string) (T, error) {
	return t.first(indexID, id)
}

func (t table[T]) FindAll(_ context.Context) ([]T, error) {
	return t.list(indexID)
}

func (t table[T]) DeleteByID(_ context.Context, id string) (bool, error) {
	raw, err := t.txn.First(t.name, indexID, id)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", t.name, err)
	}
	if raw == nil {
		return false, nil
	}
	if err := t.txn.Delete(t.name, raw); err != nil {
		return false, fmt.Errorf("delete %s: %w", t.name, err)
	}
	return true, nil
}

func (t table[T]) Count(_ context.Context) (int, error) {
	it, err := t.txn.Get(t.name, indexID)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, err)
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n, nil
}

func (t table[T]) first(index string, args ...any) (T, error) {
	var zero T
	raw, err := t.txn.First(t.name, index, args...)
	if err != nil {
		return zero, fmt.Errorf("lookup %s: %w", t.name, err)
	}
	if raw == nil {
		return zero, repository.ErrNotFound
	}
	return t.clone(raw.(T)), nil
}

func (t table[T]) list(index string, args ...any) ([]T, error) {
	it, err := t.txn.Get(t.name, index, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	var out []T
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, t.clone(obj.(T)))
	}
	return out, nil
}

func (t table[T]) filter(index string, arg string, keep func(T) bool) ([]T, error) {
	all, err := t.list(index, arg)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, x := range all {
		if keep(x) {
			out = append(out, x)
		}
	}
	return out, nil
}
