package audit

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// MockLogRepository is a mock implementation of audit.LogRepository
type MockLogRepository struct {
	mock.Mock
}

func (m *MockLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.Log, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Log), args.Error(1)
}

func (m *MockLogRepository) FindAll(ctx context.Context, filter audit.LogFilter) ([]audit.Log, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Log), args.Error(1)
}

func (m *MockLogRepository) FindByRecord(ctx context.Context, table audit.Table, recordID string) ([]audit.Log, error) {
	args := m.Called(ctx, table, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Log), args.Error(1)
}

func (m *MockLogRepository) Count(ctx context.Context, filter audit.LogFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockWriter is a mock implementation of audit.Writer
type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Create(ctx context.Context, table audit.Table, actor audit.Actor, build audit.MutateFunc) (audit.Record, *audit.Log, error) {
	args := m.Called(ctx, table, actor, build)
	return recordArg(args, 0), logArg(args, 1), args.Error(2)
}

func (m *MockWriter) Update(ctx context.Context, table audit.Table, id uuid.UUID, actor audit.Actor, mutate audit.MutateFunc) (audit.Record, *audit.Log, error) {
	args := m.Called(ctx, table, id, actor, mutate)
	return recordArg(args, 0), logArg(args, 1), args.Error(2)
}

func (m *MockWriter) Delete(ctx context.Context, table audit.Table, id uuid.UUID, actor audit.Actor) (audit.Record, *audit.Log, error) {
	args := m.Called(ctx, table, id, actor)
	return recordArg(args, 0), logArg(args, 1), args.Error(2)
}

func (m *MockWriter) Restore(ctx context.Context, logID uuid.UUID, actor audit.Actor) (audit.Record, *audit.Log, error) {
	args := m.Called(ctx, logID, actor)
	return recordArg(args, 0), logArg(args, 1), args.Error(2)
}

func recordArg(args mock.Arguments, i int) audit.Record {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(audit.Record)
}

func logArg(args mock.Arguments, i int) *audit.Log {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*audit.Log)
}

type fakeRecord struct {
	id uuid.UUID
}

func (r *fakeRecord) AuditTable() audit.Table                 { return audit.TableBranches }
func (r *fakeRecord) Identity() uuid.UUID                     { return r.id }
func (r *fakeRecord) SetIdentity(id uuid.UUID)                { r.id = id }
func (r *fakeRecord) StampCreated(actor string, at time.Time) {}
func (r *fakeRecord) StampUpdated(actor string, at time.Time) {}

var actor = audit.Actor{ID: "ops@merchant.test"}

func TestService_List(t *testing.T) {
	repo := new(MockLogRepository)
	svc := NewService(repo, new(MockWriter))

	logs := []audit.Log{{ID: uuid.New(), Action: audit.ActionUpdate}}
	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f audit.LogFilter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.Table == audit.TableRoles
	})).Return(logs, nil)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(41), nil)

	page, err := svc.List(context.Background(), audit.LogFilter{Table: audit.TableRoles})
	require.NoError(t, err)
	assert.Equal(t, int64(41), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 1)
	repo.AssertExpectations(t)
}

func TestService_History(t *testing.T) {
	repo := new(MockLogRepository)
	svc := NewService(repo, new(MockWriter))

	_, err := svc.History(context.Background(), audit.Table("users"), "x")
	assert.True(t, shared.IsInvalidRequest(err))

	_, err = svc.History(context.Background(), audit.TableRoles, "")
	assert.True(t, shared.IsInvalidRequest(err))

	repo.On("FindByRecord", mock.Anything, audit.TableRoles, "r-1").Return([]audit.Log{{}, {}}, nil)
	history, err := svc.History(context.Background(), audit.TableRoles, "r-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestService_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("returns restored record and entry", func(t *testing.T) {
		writer := new(MockWriter)
		svc := NewService(new(MockLogRepository), writer)
		logID := uuid.New()
		rec := &fakeRecord{id: uuid.New()}
		entry := &audit.Log{ID: uuid.New(), Action: audit.ActionRestore}
		writer.On("Restore", mock.Anything, logID, actor).Return(rec, entry, nil)

		result, err := svc.Restore(ctx, logID, actor)
		require.NoError(t, err)
		assert.Same(t, rec, result.Record)
		assert.Same(t, entry, result.Log)
	})

	t.Run("propagates invalid request", func(t *testing.T) {
		writer := new(MockWriter)
		svc := NewService(new(MockLogRepository), writer)
		logID := uuid.New()
		writer.On("Restore", mock.Anything, logID, actor).Return(nil, nil, shared.NewInvalidRequestError("only DELETE entries can be restored"))

		_, err := svc.Restore(ctx, logID, actor)
		assert.True(t, shared.IsInvalidRequest(err))
	})

	t.Run("nil id never reaches the writer", func(t *testing.T) {
		writer := new(MockWriter)
		svc := NewService(new(MockLogRepository), writer)

		_, err := svc.Restore(ctx, uuid.Nil, actor)
		assert.True(t, shared.IsInvalidRequest(err))
		writer.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything, mock.Anything)
	})
}

type countingRecorder struct {
	rows int
}

func (r *countingRecorder) RecordExport(_ context.Context, rows int) {
	r.rows += rows
}

func TestService_Export(t *testing.T) {
	repo := new(MockLogRepository)
	svc := NewService(repo, new(MockWriter))
	recorder := &countingRecorder{}
	svc.SetExportRecorder(recorder)

	changedAt := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f audit.LogFilter) bool { return f.Page == 1 })).
		Return([]audit.Log{
			{
				Table:     audit.TableAllowedCompanies,
				RecordID:  "rec-1",
				Action:    audit.ActionDelete,
				OldValue:  audit.Snapshot{"FIELDNAME": "Acme"},
				ChangedBy: "ops@merchant.test",
				ChangedAt: changedAt,
			},
		}, nil)

	var buf bytes.Buffer
	n, err := svc.Export(context.Background(), audit.LogFilter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, recorder.rows)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "2026-02-01 08:00:00", rows[1][0])
	assert.Equal(t, "Allowed Companies", rows[1][1])
	assert.Equal(t, "DELETE", rows[1][3])
	assert.Equal(t, `{"FIELDNAME":"Acme"}`, rows[1][6])
	assert.Equal(t, []string{exportSheet}, f.GetSheetList())
}

func TestService_Export_PinsUpperBound(t *testing.T) {
	earlier := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	later := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name  string
		to    *time.Time
		check func(t *testing.T, start time.Time, to time.Time)
	}{
		{"open range is capped at export start", nil, func(t *testing.T, start, to time.Time) {
			assert.False(t, to.Before(start.Add(-time.Second)))
			assert.False(t, to.After(time.Now()))
		}},
		{"future bound is capped", &later, func(t *testing.T, _, to time.Time) {
			assert.True(t, to.Before(later))
		}},
		{"past bound is kept", &earlier, func(t *testing.T, _, to time.Time) {
			assert.True(t, to.Equal(earlier))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockLogRepository)
			svc := NewService(repo, new(MockWriter))

			var seen []audit.LogFilter
			repo.On("FindAll", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { seen = append(seen, args.Get(1).(audit.LogFilter)) }).
				Return(make([]audit.Log, exportPageSize), nil).Once()
			repo.On("FindAll", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { seen = append(seen, args.Get(1).(audit.LogFilter)) }).
				Return([]audit.Log{}, nil).Once()

			start := time.Now()
			var buf bytes.Buffer
			_, err := svc.Export(context.Background(), audit.LogFilter{To: tt.to}, &buf)
			require.NoError(t, err)

			require.Len(t, seen, 2)
			require.NotNil(t, seen[0].To)
			tt.check(t, start, *seen[0].To)
			assert.Equal(t, seen[0].To, seen[1].To, "every page uses the same bound")
			assert.Equal(t, 2, seen[1].Page)
		})
	}
}
