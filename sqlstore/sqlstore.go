// Package sqlstore implements the thin prepare/bind/step/finalize SQL
// surface the drain step needs, as a wrapper around database/sql. It
// mirrors MySQL_Logger::insertMysqlEventsIntoDb's 32-row/1-row batching
// policy and the in-memory table's truncate-or-trim-oldest maintenance.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/mickamy/query-eventlog/event"
)

// Dialect selects the positional-parameter syntax a Store renders its
// statements with.
type Dialect int

const (
	MySQL Dialect = iota
	Postgres
)

const numCols = 17
const batchRows = 32

const columnList = "(thread_id, username, schemaname, start_time, end_time, query_digest, query, server, client, event_type, hid, extra_info, affected_rows, last_insert_id, rows_sent, client_stmt_id, gtid)"

// Store wraps a *sql.DB and inserts batches of *event.Owned into one
// table. MaxRows is the capacity of the destination table when it acts
// as the in-memory stats table (truncate-or-trim-oldest is applied
// before insert); MaxRows == 0 means "no capacity bound", the on-disk
// history table's behavior.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
	MaxRows int
}

// New returns a Store that inserts into table via db, using dialect's
// placeholder syntax.
func New(db *sql.DB, dialect Dialect, table string, maxRows int) *Store {
	return &Store{db: db, dialect: dialect, table: table, MaxRows: maxRows}
}

// Drain inserts events into the store's table inside a single
// transaction, applying the capacity-bound maintenance step first when
// MaxRows > 0. It batches in groups of batchRows using a multi-row
// VALUES statement, with a single-row statement for the remainder.
func (s *Store) Drain(ctx context.Context, events []*event.Owned) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	toInsert := events
	if s.MaxRows > 0 {
		if err := s.applyCapacityUnlocked(ctx, tx, len(events)); err != nil {
			return err
		}
		if len(events) > s.MaxRows {
			toInsert = events[:s.MaxRows]
		}
	}

	if err := s.insertBatches(ctx, tx, toInsert); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	committed = true
	return nil
}

// applyCapacityUnlocked implements step 3's truncate-or-trim-oldest
// rule: if the incoming batch alone meets or exceeds the capacity,
// empty the table outright; otherwise delete the oldest rows until
// exactly MaxRows-len(events) remain.
func (s *Store) applyCapacityUnlocked(ctx context.Context, tx *sql.Tx, incoming int) error {
	if incoming >= s.MaxRows {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
			return fmt.Errorf("sqlstore: truncate %s: %w", s.table, err)
		}
		return nil
	}

	keep := s.MaxRows - incoming
	var count int
	row := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table))
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("sqlstore: count %s: %w", s.table, err)
	}
	if count <= keep {
		return nil
	}

	toDelete := count - keep
	var q string
	if s.dialect == MySQL {
		// MySQL rejects a DELETE whose WHERE subquery selects directly
		// from the table being deleted from (error 1093); DELETE ...
		// ORDER BY ... LIMIT sidesteps the subquery entirely, matching
		// the original source's processEvents trim.
		q = fmt.Sprintf("DELETE FROM %s ORDER BY id ASC LIMIT %s", s.table, s.bindAt(1))
	} else {
		// Postgres has no DELETE ... ORDER BY ... LIMIT; a derived-table
		// subquery works here since Postgres allows a DELETE's subquery
		// to reference its own target table.
		q = fmt.Sprintf(
			"DELETE FROM %s WHERE id IN (SELECT id FROM (SELECT id FROM %s ORDER BY id ASC LIMIT %s) AS oldest)",
			s.table, s.table, s.bindAt(1),
		)
	}
	if _, err := tx.ExecContext(ctx, q, toDelete); err != nil {
		return fmt.Errorf("sqlstore: trim oldest from %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) insertBatches(ctx context.Context, tx *sql.Tx, events []*event.Owned) error {
	n := len(events)
	bulkRows := (n / batchRows) * batchRows

	if bulkRows > 0 {
		stmt, err := tx.PrepareContext(ctx, s.multiRowInsertSQL(batchRows))
		if err != nil {
			return fmt.Errorf("sqlstore: prepare %d-row insert: %w", batchRows, err)
		}
		defer stmt.Close()

		for start := 0; start < bulkRows; start += batchRows {
			args := make([]any, 0, batchRows*numCols)
			for _, e := range events[start : start+batchRows] {
				args = append(args, rowArgs(e)...)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("sqlstore: exec %d-row insert: %w", batchRows, err)
			}
		}
	}

	if bulkRows < n {
		stmt, err := tx.PrepareContext(ctx, s.multiRowInsertSQL(1))
		if err != nil {
			return fmt.Errorf("sqlstore: prepare 1-row insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range events[bulkRows:] {
			if _, err := stmt.ExecContext(ctx, rowArgs(e)...); err != nil {
				return fmt.Errorf("sqlstore: exec 1-row insert: %w", err)
			}
		}
	}

	return nil
}

func rowArgs(e *event.Owned) []any {
	return []any{
		e.ThreadID,
		e.User,
		e.Schema,
		e.StartTime,
		e.EndTime,
		fmt.Sprintf("0x%016X", e.Digest),
		string(e.Query),
		e.Server,
		e.Client,
		int(e.Kind),
		e.HostGroupID,
		e.ExtraInfo,
		e.AffectedRows,
		e.LastInsertID,
		e.RowsSent,
		e.ClientStmtID,
		e.GTID,
	}
}

// multiRowInsertSQL builds "INSERT INTO table (...) VALUES (?,...),(?,...),..."
// for rows groups of numCols placeholders each, using the store's dialect.
func (s *Store) multiRowInsertSQL(rows int) string {
	var groups strings.Builder
	for r := 0; r < rows; r++ {
		if r > 0 {
			groups.WriteByte(',')
		}
		groups.WriteByte('(')
		for c := 0; c < numCols; c++ {
			if c > 0 {
				groups.WriteByte(',')
			}
			groups.WriteString(s.bindAt(r*numCols + c + 1))
		}
		groups.WriteByte(')')
	}
	return "INSERT INTO " + s.table + columnList + " VALUES " + groups.String()
}

func (s *Store) bindAt(n int) string {
	if s.dialect == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}
