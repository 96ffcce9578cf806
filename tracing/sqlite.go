package tracing

import (
	"database/sql"
	"fmt"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteTracer stores completed tasks in a SQLite database.
type SQLiteTracer struct {
	db        *sql.DB
	statement *sql.Stmt

	dbName string

	inflight  map[string]Task
	completed []Task

	batchSize int
}

// NewSQLiteTracer creates a tracer that writes to a SQLite database. If the
// path is empty, a unique file name is generated.
func NewSQLiteTracer(path string) *SQLiteTracer {
	t := &SQLiteTracer{
		dbName:    path,
		inflight:  make(map[string]Task),
		batchSize: 100000,
	}

	atexit.Register(func() { t.Flush() })

	return t
}

// Init establishes the connection to the database and prepares the tables.
func (t *SQLiteTracer) Init() {
	if t.dbName == "" {
		t.dbName = "surfsim_trace_" + xid.New().String()
	}

	db, err := sql.Open("sqlite3", t.dbName+".sqlite3")
	if err != nil {
		panic(err)
	}
	t.db = db

	t.mustExecute(`
		CREATE TABLE IF NOT EXISTS trace (
			task_id TEXT,
			parent_id TEXT,
			kind TEXT,
			what TEXT,
			location TEXT,
			start_time FLOAT,
			end_time FLOAT
		);
	`)

	t.statement, err = t.db.Prepare(`
		INSERT INTO trace
		(task_id, parent_id, kind, what, location, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		panic(err)
	}
}

// StartTask records the starting time of the task.
func (t *SQLiteTracer) StartTask(task Task) {
	t.inflight[task.ID] = task
}

// StepTask does nothing.
func (t *SQLiteTracer) StepTask(_ Task) {
	// Milestones are not stored in the database.
}

// EndTask completes a task and buffers it for insertion.
func (t *SQLiteTracer) EndTask(task Task) {
	started, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	delete(t.inflight, task.ID)
	started.EndTime = task.EndTime
	t.completed = append(t.completed, started)

	if len(t.completed) >= t.batchSize {
		t.Flush()
	}
}

// Flush inserts all the buffered tasks into the database.
func (t *SQLiteTracer) Flush() {
	if len(t.completed) == 0 {
		return
	}

	t.mustExecute("BEGIN TRANSACTION")
	defer t.mustExecute("COMMIT TRANSACTION")

	for _, task := range t.completed {
		_, err := t.statement.Exec(
			task.ID,
			task.ParentID,
			task.Kind,
			task.What,
			task.Where,
			task.StartTime,
			task.EndTime,
		)
		if err != nil {
			panic(err)
		}
	}

	t.completed = nil
}

func (t *SQLiteTracer) mustExecute(query string) sql.Result {
	res, err := t.db.Exec(query)
	if err != nil {
		panic(fmt.Errorf("failed to execute %s: %w", query, err))
	}

	return res
}
