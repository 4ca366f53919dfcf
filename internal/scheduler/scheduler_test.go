package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftbase/flowkit/internal/store"
	"github.com/craftbase/flowkit/pkg/schema"
	"github.com/craftbase/flowkit/pkg/trigger"
)

// fakeStore implements store.Store in memory for scheduler tests.
type fakeStore struct {
	mu          sync.Mutex
	workflows   map[string]*store.Workflow
	activations []*store.ActivationRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{workflows: make(map[string]*store.Workflow)}
}

func (f *fakeStore) CreateWorkflow(_ context.Context, wf *store.Workflow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workflows[wf.ID] = wf
	return nil
}

func (f *fakeStore) GetWorkflow(_ context.Context, id string) (*store.Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wf, ok := f.workflows[id]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "workflow %q not found", id)
	}
	return wf, nil
}

func (f *fakeStore) UpdateWorkflow(_ context.Context, _ string, _ store.WorkflowUpdate) error {
	return nil
}

func (f *fakeStore) ListWorkflows(_ context.Context, _ store.WorkflowFilter) ([]*store.Workflow, error) {
	return nil, nil
}

func (f *fakeStore) DeleteWorkflow(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.workflows, id)
	return nil
}

func (f *fakeStore) ListDueSchedules(_ context.Context, now time.Time) ([]*store.Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*store.Workflow
	for _, wf := range f.workflows {
		if wf.Status != store.StatusEnabled || wf.TriggerType != schema.TriggerTypeSchedule {
			continue
		}
		if wf.NextRunAt == nil || !wf.NextRunAt.After(now) {
			due = append(due, wf)
		}
	}
	return due, nil
}

func (f *fakeStore) SetNextRun(_ context.Context, id string, nextRunAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	wf, ok := f.workflows[id]
	if !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "workflow %q not found", id)
	}
	t := nextRunAt
	wf.NextRunAt = &t
	return nil
}

func (f *fakeStore) AppendActivation(_ context.Context, act *store.ActivationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	act.Sequence = int64(len(f.activations) + 1)
	f.activations = append(f.activations, act)
	return nil
}

func (f *fakeStore) GetActivations(_ context.Context, _ string, _ int64) ([]*store.ActivationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*store.ActivationRecord(nil), f.activations...), nil
}

func (f *fakeStore) Migrate(_ context.Context) error { return nil }
func (f *fakeStore) Vacuum(_ context.Context) error  { return nil }
func (f *fakeStore) Close() error                    { return nil }

// recordingDispatcher captures dispatched activations.
type recordingDispatcher struct {
	mu   sync.Mutex
	acts []trigger.Activation
}

func (d *recordingDispatcher) Dispatch(_ context.Context, act trigger.Activation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acts = append(d.acts, act)
	return nil
}

func (d *recordingDispatcher) dispatched() []trigger.Activation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]trigger.Activation(nil), d.acts...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scheduleWorkflow(id, cronExpr string, nextRunAt *time.Time) *store.Workflow {
	return &store.Workflow{
		ID:             id,
		Status:         store.StatusEnabled,
		TriggerType:    schema.TriggerTypeSchedule,
		CronExpression: cronExpr,
		NextRunAt:      nextRunAt,
	}
}

// --- tick ---

func TestTickDispatchesDueSchedules(t *testing.T) {
	fs := newFakeStore()
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, fs.CreateWorkflow(context.Background(), scheduleWorkflow("wf-1", "*/5 * * * *", &past)))

	d := &recordingDispatcher{}
	s := New(fs, d, testLogger())

	s.Tick(context.Background())

	acts := d.dispatched()
	require.Len(t, acts, 1)
	assert.Equal(t, "wf-1", acts[0].WorkflowID)
	assert.Equal(t, schema.TriggerTypeSchedule, acts[0].Type)
	assert.Empty(t, acts[0].Context)
}

func TestTickAdvancesNextRun(t *testing.T) {
	fs := newFakeStore()
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, fs.CreateWorkflow(context.Background(), scheduleWorkflow("wf-1", "0 2 * * *", &past)))

	s := New(fs, &recordingDispatcher{}, testLogger())
	s.Tick(context.Background())

	wf, err := fs.GetWorkflow(context.Background(), "wf-1")
	require.NoError(t, err)
	require.NotNil(t, wf.NextRunAt)
	assert.True(t, wf.NextRunAt.After(time.Now()))
}

func TestTickSkipsFutureSchedules(t *testing.T) {
	fs := newFakeStore()
	future := time.Now().UTC().Add(time.Hour)
	require.NoError(t, fs.CreateWorkflow(context.Background(), scheduleWorkflow("wf-1", "0 2 * * *", &future)))

	d := &recordingDispatcher{}
	s := New(fs, d, testLogger())
	s.Tick(context.Background())

	assert.Empty(t, d.dispatched())
}

func TestTickFiresNeverComputedSchedules(t *testing.T) {
	fs := newFakeStore()
	require.NoError(t, fs.CreateWorkflow(context.Background(), scheduleWorkflow("wf-1", "0 2 * * *", nil)))

	d := &recordingDispatcher{}
	s := New(fs, d, testLogger())
	s.Tick(context.Background())

	assert.Len(t, d.dispatched(), 1)
}

func TestTickPushesOutBrokenCron(t *testing.T) {
	fs := newFakeStore()
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, fs.CreateWorkflow(context.Background(), scheduleWorkflow("wf-1", "not a cron", &past)))

	d := &recordingDispatcher{}
	s := New(fs, d, testLogger())
	s.Tick(context.Background())

	// Nothing dispatched, but the next run moved out so the loop does not
	// retry a broken expression every tick.
	assert.Empty(t, d.dispatched())
	wf, err := fs.GetWorkflow(context.Background(), "wf-1")
	require.NoError(t, err)
	require.NotNil(t, wf.NextRunAt)
	assert.True(t, wf.NextRunAt.After(time.Now().Add(23*time.Hour)))
}

func TestTickRecordsActivation(t *testing.T) {
	fs := newFakeStore()
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, fs.CreateWorkflow(context.Background(), scheduleWorkflow("wf-1", "*/5 * * * *", &past)))

	s := New(fs, &recordingDispatcher{}, testLogger())
	s.Tick(context.Background())

	records, err := fs.GetActivations(context.Background(), "wf-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "schedule", records[0].Type)
}

// --- next run computation ---

func TestCalculateNextRun(t *testing.T) {
	s := New(newFakeStore(), &recordingDispatcher{}, testLogger())

	from := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)
	next, err := s.CalculateNextRun("0 2 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC), next)
}

func TestCalculateNextRunRejectsSixFields(t *testing.T) {
	s := New(newFakeStore(), &recordingDispatcher{}, testLogger())

	_, err := s.CalculateNextRun("0 0 2 * * *", time.Now())
	assert.Error(t, err)
}

// --- lifecycle ---

func TestStartAndStop(t *testing.T) {
	fs := newFakeStore()
	s := New(fs, &recordingDispatcher{}, testLogger())

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())

	// Stop is idempotent.
	require.NoError(t, s.Stop())

	// Restart after stop works.
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
}
