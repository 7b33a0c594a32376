package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/merchantops/backend/internal/infrastructure/persistence/models"
	"github.com/merchantops/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var testActor = audit.Actor{ID: "ops@merchant.test", IPAddress: "10.0.0.7", UserAgent: "go-test"}

func setupAuditWriter(t *testing.T) (*AuditWriter, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t, Models()...)
	return NewAuditWriter(db), db
}

func seedCompany(t *testing.T, w *AuditWriter, name, account string) *models.AllowedCompanyModel {
	t.Helper()
	rec, _, err := w.Create(context.Background(), audit.TableAllowedCompanies, testActor, func(r audit.Record) error {
		c := r.(*models.AllowedCompanyModel)
		c.FieldName = name
		c.AccountNumber = account
		c.Status = "ACTIVE"
		return nil
	})
	require.NoError(t, err)
	return rec.(*models.AllowedCompanyModel)
}

func countAuditLogs(t *testing.T, db *gorm.DB, action audit.Action) int64 {
	t.Helper()
	var n int64
	q := db.Model(&models.AuditLogModel{})
	if action != "" {
		q = q.Where("action = ?", action)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func TestAuditWriter_Create(t *testing.T) {
	w, db := setupAuditWriter(t)

	company := seedCompany(t, w, "Acme", "ACC001")

	assert.NotEqual(t, uuid.Nil, company.ID)
	assert.Equal(t, testActor.ID, company.InsertUser)
	assert.False(t, company.InsertDate.IsZero())

	var entry models.AuditLogModel
	require.NoError(t, db.Where("record_id = ?", company.ID.String()).Take(&entry).Error)
	assert.Equal(t, audit.ActionCreate, entry.Action)
	assert.Nil(t, []byte(entry.OldValue))
	assert.Contains(t, string(entry.NewValue), `"FIELDNAME":"Acme"`)
	assert.Equal(t, "10.0.0.7", entry.IPAddress)
}

func TestAuditWriter_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("writes pre-image and post-image", func(t *testing.T) {
		w, db := setupAuditWriter(t)
		company := seedCompany(t, w, "Acme", "ACC001")

		rec, entry, err := w.Update(ctx, audit.TableAllowedCompanies, company.ID, testActor, func(r audit.Record) error {
			r.(*models.AllowedCompanyModel).FieldName = "Acme Ltd"
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, "Acme Ltd", rec.(*models.AllowedCompanyModel).FieldName)
		assert.Equal(t, audit.ActionUpdate, entry.Action)
		assert.Equal(t, "Acme", entry.OldValue["FIELDNAME"])
		assert.Equal(t, "Acme Ltd", entry.NewValue["FIELDNAME"])
		assert.Equal(t, company.ID.String(), entry.RecordID)

		var stored models.AllowedCompanyModel
		require.NoError(t, db.Where(`"ID" = ?`, company.ID).Take(&stored).Error)
		assert.Equal(t, "Acme Ltd", stored.FieldName)
		assert.Equal(t, int64(1), countAuditLogs(t, db, audit.ActionUpdate))
	})

	t.Run("identity cannot be changed by the mutation", func(t *testing.T) {
		w, _ := setupAuditWriter(t)
		company := seedCompany(t, w, "Acme", "ACC001")

		rec, _, err := w.Update(ctx, audit.TableAllowedCompanies, company.ID, testActor, func(r audit.Record) error {
			r.SetIdentity(uuid.New())
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, company.ID, rec.Identity())
	})

	t.Run("missing record is NotFound and writes nothing", func(t *testing.T) {
		w, db := setupAuditWriter(t)
		before := countAuditLogs(t, db, "")

		_, _, err := w.Update(ctx, audit.TableBranches, uuid.New(), testActor, func(audit.Record) error {
			return nil
		})
		require.Error(t, err)
		assert.True(t, shared.IsNotFound(err))
		assert.Equal(t, before, countAuditLogs(t, db, ""))
	})

	t.Run("mutation error rolls back", func(t *testing.T) {
		w, db := setupAuditWriter(t)
		company := seedCompany(t, w, "Acme", "ACC001")
		boom := errors.New("boom")

		_, _, err := w.Update(ctx, audit.TableAllowedCompanies, company.ID, testActor, func(r audit.Record) error {
			r.(*models.AllowedCompanyModel).FieldName = "changed"
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int64(0), countAuditLogs(t, db, audit.ActionUpdate))
	})

	t.Run("failed audit insert rolls back the mutation", func(t *testing.T) {
		w, db := setupAuditWriter(t)
		company := seedCompany(t, w, "Acme", "ACC001")
		require.NoError(t, db.Migrator().DropTable(&models.AuditLogModel{}))

		_, _, err := w.Update(ctx, audit.TableAllowedCompanies, company.ID, testActor, func(r audit.Record) error {
			r.(*models.AllowedCompanyModel).FieldName = "changed"
			return nil
		})
		require.Error(t, err)

		var stored models.AllowedCompanyModel
		require.NoError(t, db.Where(`"ID" = ?`, company.ID).Take(&stored).Error)
		assert.Equal(t, "Acme", stored.FieldName)
	})
}

func TestAuditWriter_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes row and stores null new value", func(t *testing.T) {
		w, db := setupAuditWriter(t)
		company := seedCompany(t, w, "Acme", "ACC099")

		_, entry, err := w.Delete(ctx, audit.TableAllowedCompanies, company.ID, testActor)
		require.NoError(t, err)
		assert.Nil(t, entry.NewValue)
		assert.Equal(t, "ACC099", entry.OldValue["ACCOUNTNUMBER"])

		var n int64
		require.NoError(t, db.Model(&models.AllowedCompanyModel{}).Count(&n).Error)
		assert.Equal(t, int64(0), n)

		var stored models.AuditLogModel
		require.NoError(t, db.Where("id = ?", entry.ID).Take(&stored).Error)
		assert.Nil(t, []byte(stored.NewValue))
		assert.NotNil(t, []byte(stored.OldValue))
	})

	t.Run("missing record is NotFound", func(t *testing.T) {
		w, db := setupAuditWriter(t)

		_, _, err := w.Delete(ctx, audit.TableMerchantUsers, uuid.New(), testActor)
		assert.True(t, shared.IsNotFound(err))
		assert.Equal(t, int64(0), countAuditLogs(t, db, audit.ActionDelete))
	})
}

func TestAuditWriter_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("recreates the row under a new identity", func(t *testing.T) {
		w, db := setupAuditWriter(t)
		company := seedCompany(t, w, "Acme", "ACC099")
		_, deleted, err := w.Delete(ctx, audit.TableAllowedCompanies, company.ID, testActor)
		require.NoError(t, err)

		rec, entry, err := w.Restore(ctx, deleted.ID, testActor)
		require.NoError(t, err)

		restored := rec.(*models.AllowedCompanyModel)
		assert.NotEqual(t, company.ID, restored.ID)
		assert.Equal(t, "Acme", restored.FieldName)
		assert.Equal(t, "ACC099", restored.AccountNumber)

		assert.Equal(t, audit.ActionRestore, entry.Action)
		assert.Equal(t, restored.ID.String(), entry.RecordID)
		assert.Equal(t, deleted.OldValue["ID"], entry.OldValue["ID"])
		assert.Equal(t, restored.ID.String(), entry.NewValue["ID"])

		var n int64
		require.NoError(t, db.Model(&models.AllowedCompanyModel{}).Where(`"ACCOUNTNUMBER" = ?`, "ACC099").Count(&n).Error)
		assert.Equal(t, int64(1), n)
	})

	t.Run("role restore drops permissions and capabilities", func(t *testing.T) {
		w, _ := setupAuditWriter(t)
		rec, _, err := w.Create(ctx, audit.TableRoles, testActor, func(r audit.Record) error {
			role := r.(*models.RoleModel)
			role.Name = "Supervisor"
			role.Permissions = datatypes.JSON(`{"payments":["read"]}`)
			role.Capabilities = datatypes.JSON(`["export"]`)
			return nil
		})
		require.NoError(t, err)
		_, deleted, err := w.Delete(ctx, audit.TableRoles, rec.Identity(), testActor)
		require.NoError(t, err)
		require.True(t, deleted.OldValue.Has("permissions"))

		restored, _, err := w.Restore(ctx, deleted.ID, testActor)
		require.NoError(t, err)

		role := restored.(*models.RoleModel)
		assert.Equal(t, "Supervisor", role.Name)
		assert.Empty(t, role.Permissions)
		assert.Empty(t, role.Capabilities)
	})

	t.Run("rejects entries that are not deletions", func(t *testing.T) {
		w, db := setupAuditWriter(t)
		company := seedCompany(t, w, "Acme", "ACC001")
		_, updated, err := w.Update(ctx, audit.TableAllowedCompanies, company.ID, testActor, func(audit.Record) error { return nil })
		require.NoError(t, err)
		before := countAuditLogs(t, db, "")

		_, _, err = w.Restore(ctx, updated.ID, testActor)
		require.Error(t, err)
		assert.True(t, shared.IsInvalidRequest(err))
		assert.Equal(t, before, countAuditLogs(t, db, ""))

		var n int64
		require.NoError(t, db.Model(&models.AllowedCompanyModel{}).Count(&n).Error)
		assert.Equal(t, int64(1), n)
	})

	t.Run("unknown entry is an invalid request", func(t *testing.T) {
		w, _ := setupAuditWriter(t)
		_, _, err := w.Restore(ctx, uuid.New(), testActor)
		assert.True(t, shared.IsInvalidRequest(err))
	})

	t.Run("restoring twice creates two rows", func(t *testing.T) {
		w, db := setupAuditWriter(t)
		company := seedCompany(t, w, "Acme", "ACC099")
		_, deleted, err := w.Delete(ctx, audit.TableAllowedCompanies, company.ID, testActor)
		require.NoError(t, err)

		first, _, err := w.Restore(ctx, deleted.ID, testActor)
		require.NoError(t, err)
		second, _, err := w.Restore(ctx, deleted.ID, testActor)
		require.NoError(t, err)
		assert.NotEqual(t, first.Identity(), second.Identity())
		assert.Equal(t, int64(2), countAuditLogs(t, db, audit.ActionRestore))
	})
}

func TestAuditWriter_ConcurrentUpdates(t *testing.T) {
	w, db := setupAuditWriter(t)
	company := seedCompany(t, w, "Acme", "ACC001")

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := w.Update(context.Background(), audit.TableAllowedCompanies, company.ID, testActor, func(r audit.Record) error {
				r.(*models.AllowedCompanyModel).Phone = uuid.NewString()[:8]
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(writers), countAuditLogs(t, db, audit.ActionUpdate))

	// in changedAt order every entry starts from the state the previous one left
	history, err := NewGormAuditLogRepository(db).FindByRecord(context.Background(), audit.TableAllowedCompanies, company.ID.String())
	require.NoError(t, err)
	require.Len(t, history, writers+1)
	require.Equal(t, audit.ActionCreate, history[0].Action)
	for i := 1; i < len(history); i++ {
		prev, cur := history[i-1], history[i]
		assert.Equal(t, audit.ActionUpdate, cur.Action)
		assert.Equal(t, prev.NewValue, cur.OldValue, "entry %d does not continue entry %d", i, i-1)
		assert.False(t, cur.ChangedAt.Before(prev.ChangedAt))
	}

	var current models.AllowedCompanyModel
	require.NoError(t, db.Where(`"ID" = ?`, company.ID).Take(&current).Error)
	assert.Equal(t, current.Phone, history[writers].NewValue["PHONE"])
}

func TestAuditWriter_StampsEntryWithWriterClock(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t, Models()...)

	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	ticks := 0
	w := NewAuditWriter(db, WithClock(func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Minute)
	}))

	rec, created, err := w.Create(ctx, audit.TableAllowedCompanies, testActor, func(r audit.Record) error {
		r.(*models.AllowedCompanyModel).FieldName = "Acme"
		return nil
	})
	require.NoError(t, err)
	company := rec.(*models.AllowedCompanyModel)
	assert.True(t, created.ChangedAt.Equal(base.Add(time.Minute)))
	assert.True(t, company.InsertDate.Equal(created.ChangedAt))

	rec, updated, err := w.Update(ctx, audit.TableAllowedCompanies, company.ID, testActor, func(r audit.Record) error {
		r.(*models.AllowedCompanyModel).FieldName = "Acme Ltd"
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.ChangedAt.Equal(base.Add(2*time.Minute)))
	assert.True(t, rec.(*models.AllowedCompanyModel).UpdateDate.Equal(updated.ChangedAt))

	_, deleted, err := w.Delete(ctx, audit.TableAllowedCompanies, company.ID, testActor)
	require.NoError(t, err)
	assert.True(t, deleted.ChangedAt.Equal(base.Add(3*time.Minute)))

	rec, restored, err := w.Restore(ctx, deleted.ID, testActor)
	require.NoError(t, err)
	assert.True(t, restored.ChangedAt.Equal(base.Add(4*time.Minute)))
	assert.True(t, rec.(*models.AllowedCompanyModel).InsertDate.Equal(restored.ChangedAt))

	var stored models.AuditLogModel
	require.NoError(t, db.Where("id = ?", updated.ID).Take(&stored).Error)
	assert.True(t, stored.ChangedAt.Equal(updated.ChangedAt))
}

func TestAuditWriter_PromoOrderCollisionAccepted(t *testing.T) {
	w, db := setupAuditWriter(t)
	ctx := context.Background()

	for _, title := range []string{"Spring sale", "Cashback week"} {
		_, _, err := w.Create(ctx, audit.TablePromoAds, testActor, func(r audit.Record) error {
			ad := r.(*models.PromoAdModel)
			ad.Title = title
			ad.Order = 1
			return nil
		})
		require.NoError(t, err)
	}

	var n int64
	require.NoError(t, db.Model(&models.PromoAdModel{}).Where(`"ORDER" = ?`, 1).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

type recordingPublisher struct {
	mu      sync.Mutex
	entries []*audit.Log
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, entry *audit.Log) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
	return p.err
}

type countingRecorder struct {
	counts map[audit.Action]int
}

func (r *countingRecorder) RecordMutation(_ context.Context, _ audit.Table, action audit.Action) {
	r.counts[action]++
}

func TestAuditWriter_AfterCommitHooks(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t, Models()...)
	pub := &recordingPublisher{err: errors.New("broker down")}
	rec := &countingRecorder{counts: map[audit.Action]int{}}
	w := NewAuditWriter(db, WithEventPublisher(pub), WithMutationRecorder(rec))

	company := seedCompany(t, w, "Acme", "ACC001")
	_, _, err := w.Delete(ctx, audit.TableAllowedCompanies, company.ID, testActor)
	require.NoError(t, err, "publish failures must not fail the mutation")

	_, _, err = w.Delete(ctx, audit.TableAllowedCompanies, company.ID, testActor)
	require.Error(t, err)

	assert.Len(t, pub.entries, 2)
	assert.Equal(t, 1, rec.counts[audit.ActionCreate])
	assert.Equal(t, 1, rec.counts[audit.ActionDelete])
}
