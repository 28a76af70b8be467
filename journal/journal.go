// CLAUDE:SUMMARY SQLite journal of applied responses: one row per region written, unmatched region and dispatch batch.
// Package journal records what each applied response did to a page:
// which regions were written and by which rule, which found no target,
// and how many events and messages were dispatched.
//
// A Journal satisfies pullregion.Recorder:
//
//	j, err := journal.Open("pullregion.db")
//	defer j.Close()
//	p := pullregion.New(doc, url, pullregion.WithRecorder(j))
//
// Record only queues rows; a background writer inserts them. Flush waits
// for everything queued so far, Close drains the queue and stops the writer.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/pullregion/dbopen"
	"github.com/hazyhaar/pullregion/idgen"
	"github.com/hazyhaar/pullregion/pullregion"
)

// Schema is the journal DDL.
const Schema = `
CREATE TABLE IF NOT EXISTS region_journal (
    entry_id   TEXT PRIMARY KEY,
    page_url   TEXT NOT NULL,
    kind       TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    rule       TEXT NOT NULL DEFAULT '',
    targets    INTEGER NOT NULL DEFAULT 0,
    detail     TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_region_journal_created
    ON region_journal(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_region_journal_page
    ON region_journal(page_url, created_at DESC);
`

// Entry kinds.
const (
	KindRegion    = "region"
	KindUnmatched = "unmatched"
	KindDispatch  = "dispatch"
)

// Entry is one journal row.
type Entry struct {
	EntryID   string    `json:"entry_id"`
	PageURL   string    `json:"page_url"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name,omitempty"`
	Rule      string    `json:"rule,omitempty"`
	Targets   int       `json:"targets"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultBufferSize is the queue length used unless WithBufferSize is given.
const DefaultBufferSize = 256

// Journal persists region outcomes.
type Journal struct {
	db      *sql.DB
	newID   idgen.Generator
	logger  *slog.Logger
	owned   bool
	bufSize int

	ch   chan job
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// job is either a batch of rows or a flush marker.
type job struct {
	rows  []row
	flush chan struct{}
}

type row struct {
	id, pageURL, kind, name, rule, detail string
	targets                               int
	at                                    int64
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(j *Journal) { j.logger = l }
}

// WithBufferSize sets how many Record calls may be queued before new ones
// are dropped.
func WithBufferSize(n int) Option {
	return func(j *Journal) { j.bufSize = n }
}

// WithIDGenerator sets the entry ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(j *Journal) { j.newID = gen }
}

// Open opens or creates the journal database at path.
func Open(path string, opts ...Option) (*Journal, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	j := New(db, opts...)
	j.owned = true
	return j, nil
}

// New wraps an open database that already carries Schema and starts the
// background writer.
func New(db *sql.DB, opts ...Option) *Journal {
	j := &Journal{
		db:      db,
		newID:   idgen.Prefixed("jrn_", idgen.Default),
		logger:  slog.Default(),
		bufSize: DefaultBufferSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(j)
	}
	if j.bufSize < 1 {
		j.bufSize = 1
	}
	j.ch = make(chan job, j.bufSize)
	go j.writeLoop()
	return j
}

// Close drains queued rows, stops the writer and closes the database if
// Open created it.
func (j *Journal) Close() error {
	j.once.Do(func() {
		close(j.stop)
		<-j.done
	})
	if !j.owned {
		return nil
	}
	return j.db.Close()
}

// Record queues the outcome of one applied response and returns at once.
// When the queue is full the outcome is dropped with a warning. Write
// failures are logged and never returned.
func (j *Journal) Record(_ context.Context, pageURL string, rep pullregion.Report) {
	rows := j.rows(pageURL, rep)
	if len(rows) == 0 {
		return
	}
	select {
	case <-j.stop:
		j.logger.Warn("journal: closed, record dropped", "page", pageURL)
		return
	default:
	}
	select {
	case j.ch <- job{rows: rows}:
	default:
		j.logger.Warn("journal: queue full, record dropped", "page", pageURL, "rows", len(rows))
	}
}

// Flush blocks until every row queued before the call is written, or ctx
// is done.
func (j *Journal) Flush(ctx context.Context) error {
	marker := make(chan struct{})
	select {
	case j.ch <- job{flush: marker}:
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-marker:
		return nil
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Journal) rows(pageURL string, rep pullregion.Report) []row {
	now := time.Now().UnixMilli()
	out := make([]row, 0, len(rep.Applied)+len(rep.Unmatched)+1)
	for _, a := range rep.Applied {
		out = append(out, row{id: j.newID(), pageURL: pageURL, kind: KindRegion,
			name: a.Name, rule: string(a.Rule), targets: len(a.Targets), detail: "{}", at: now})
	}
	for _, name := range rep.Unmatched {
		out = append(out, row{id: j.newID(), pageURL: pageURL, kind: KindUnmatched,
			name: name, rule: string(pullregion.RuleNone), detail: "{}", at: now})
	}
	if rep.Events > 0 || rep.Messages > 0 {
		detail, _ := json.Marshal(map[string]int{"events": rep.Events, "messages": rep.Messages})
		out = append(out, row{id: j.newID(), pageURL: pageURL, kind: KindDispatch,
			detail: string(detail), at: now})
	}
	return out
}

func (j *Journal) writeLoop() {
	defer close(j.done)
	handle := func(jb job) {
		if jb.flush != nil {
			close(jb.flush)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := j.insert(ctx, jb.rows); err != nil {
			j.logger.Error("journal: record failed", "page", jb.rows[0].pageURL, "error", err)
		}
	}
	for {
		select {
		case <-j.stop:
			for {
				select {
				case jb := <-j.ch:
					handle(jb)
				default:
					return
				}
			}
		case jb := <-j.ch:
			handle(jb)
		}
	}
}

func (j *Journal) insert(ctx context.Context, rows []row) error {
	return dbopen.RunTx(ctx, j.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO region_journal
			(entry_id, page_url, kind, name, rule, targets, detail, created_at)
			VALUES (?,?,?,?,?,?,?,?)`)
		if err != nil {
			return fmt.Errorf("journal: prepare: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.id, r.pageURL, r.kind,
				r.name, r.rule, r.targets, r.detail, r.at); err != nil {
				return fmt.Errorf("journal: insert %s: %w", r.kind, err)
			}
		}
		return nil
	})
}

// Recent returns up to limit entries, newest first. limit <= 0 means 100.
func (j *Journal) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := j.db.QueryContext(ctx, `SELECT entry_id, page_url, kind, name, rule, targets, detail, created_at
		FROM region_journal ORDER BY created_at DESC, entry_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.EntryID, &e.PageURL, &e.Kind, &e.Name, &e.Rule, &e.Targets, &e.Detail, &ms); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.CreatedAt = time.UnixMilli(ms)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Cleanup deletes entries older than age and returns how many went.
func (j *Journal) Cleanup(ctx context.Context, age time.Duration) (int64, error) {
	threshold := time.Now().Add(-age).UnixMilli()
	res, err := j.db.ExecContext(ctx, `DELETE FROM region_journal WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("journal: cleanup: %w", err)
	}
	return res.RowsAffected()
}
