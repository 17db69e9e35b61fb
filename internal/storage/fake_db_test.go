package storage

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	sql  string
	args []any
}

type copyCall struct {
	table   pgx.Identifier
	columns []string
	rows    [][]any
}

type fakeDB struct {
	mu      sync.Mutex
	execs   []execCall
	copies  []copyCall
	execErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	var rows [][]any
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		rows = append(rows, vals)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copies = append(f.copies, copyCall{table: table, columns: columns, rows: rows})
	return int64(len(rows)), src.Err()
}

func (f *fakeDB) execCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.execs)
}
