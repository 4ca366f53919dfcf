package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/craftbase/flowkit/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Workflows ---

const workflowColumns = "id, name, definition, status, trigger_type, cron_expression, next_run_at, created_at, updated_at"

func (s *LibSQLStore) CreateWorkflow(ctx context.Context, wf *Workflow) error {
	wf.SyncTriggerColumns()
	def, err := json.Marshal(wf.Definition)
	if err != nil {
		return fmt.Errorf("marshal definition: %w", err)
	}
	if wf.Status == "" {
		wf.Status = StatusEnabled
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflows (`+workflowColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wf.ID, nullStr(wf.Name), string(def), string(wf.Status),
		nullStr(string(wf.TriggerType)), nullStr(wf.CronExpression), nullTime(wf.NextRunAt),
		timeOrNow(wf.CreatedAt), timeOrNow(wf.UpdatedAt),
	)
	return err
}

func (s *LibSQLStore) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE id = ?`, id)
	wf, err := scanWorkflow(row)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("workflow", id)
	}
	return wf, err
}

func (s *LibSQLStore) UpdateWorkflow(ctx context.Context, id string, update WorkflowUpdate) error {
	var sets []string
	var args []any

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Definition != nil {
		def, err := json.Marshal(update.Definition)
		if err != nil {
			return fmt.Errorf("marshal definition: %w", err)
		}
		w := Workflow{Definition: *update.Definition}
		w.SyncTriggerColumns()
		sets = append(sets, "definition = ?", "trigger_type = ?", "cron_expression = ?", "next_run_at = NULL")
		args = append(args, string(def), nullStr(string(w.TriggerType)), nullStr(w.CronExpression))
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE workflows SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "workflow", id)
}

func (s *LibSQLStore) ListWorkflows(ctx context.Context, filter WorkflowFilter) ([]*Workflow, error) {
	var where []string
	var args []any

	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.TriggerType != nil {
		where = append(where, "trigger_type = ?")
		args = append(args, string(*filter.TriggerType))
	}

	query := "SELECT " + workflowColumns + " FROM workflows"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

func (s *LibSQLStore) DeleteWorkflow(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "workflow", id)
}

// --- Schedules ---

// ListDueSchedules returns enabled schedule workflows whose next run is at or
// before now, or has never been computed.
func (s *LibSQLStore) ListDueSchedules(ctx context.Context, now time.Time) ([]*Workflow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+workflowColumns+` FROM workflows
		 WHERE status = ? AND trigger_type = ?
		   AND (next_run_at IS NULL OR next_run_at <= ?)
		 ORDER BY next_run_at ASC`,
		string(StatusEnabled), string(schema.TriggerTypeSchedule), now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

func (s *LibSQLStore) SetNextRun(ctx context.Context, id string, nextRunAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workflows SET next_run_at = ? WHERE id = ?`, nextRunAt.UTC(), id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "workflow", id)
}

// --- Activation log ---

// AppendActivation appends an activation with a monotonically increasing
// per-workflow sequence.
func (s *LibSQLStore) AppendActivation(ctx context.Context, act *ActivationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM activations WHERE workflow_id = ?`, act.WorkflowID,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("get next sequence: %w", err)
	}
	act.Sequence = seq

	if act.FiredAt.IsZero() {
		act.FiredAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activations (workflow_id, type, context, fired_at, sequence)
		 VALUES (?, ?, ?, ?, ?)`,
		act.WorkflowID, act.Type, nullRaw(act.Context), act.FiredAt, seq,
	)
	if err != nil {
		return fmt.Errorf("insert activation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activation: %w", err)
	}
	return nil
}

// GetActivations returns activations for a workflow with sequence > since,
// ordered by sequence ASC.
func (s *LibSQLStore) GetActivations(ctx context.Context, workflowID string, since int64) ([]*ActivationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workflow_id, type, context, fired_at, sequence
		 FROM activations WHERE workflow_id = ? AND sequence > ? ORDER BY sequence ASC`,
		workflowID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ActivationRecord
	for rows.Next() {
		r := &ActivationRecord{}
		var contextJSON sql.NullString
		if err := rows.Scan(&r.ID, &r.WorkflowID, &r.Type, &contextJSON, &r.FiredAt, &r.Sequence); err != nil {
			return nil, err
		}
		r.Context = rawOrNil(contextJSON)
		records = append(records, r)
	}
	return records, rows.Err()
}

// --- Helpers ---

// rowScanner abstracts sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*Workflow, error) {
	wf := &Workflow{}
	var (
		name, triggerType, cronExpr sql.NullString
		defJSON                     string
		status                      string
		nextRunAt                   sql.NullTime
	)
	err := row.Scan(&wf.ID, &name, &defJSON, &status, &triggerType, &cronExpr,
		&nextRunAt, &wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		return nil, err
	}
	wf.Name = name.String
	wf.Status = WorkflowStatus(status)
	wf.TriggerType = schema.TriggerType(triggerType.String)
	wf.CronExpression = cronExpr.String
	if nextRunAt.Valid {
		wf.NextRunAt = &nextRunAt.Time
	}
	if err := json.Unmarshal([]byte(defJSON), &wf.Definition); err != nil {
		return nil, fmt.Errorf("unmarshal definition: %w", err)
	}
	return wf, nil
}

func storeNotFound(resource, id string) *schema.FlowError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullRaw(r json.RawMessage) any {
	if len(r) == 0 {
		return nil
	}
	return string(r)
}

func rawOrNil(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}
