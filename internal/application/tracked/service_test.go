package tracked

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/merchantops/backend/internal/infrastructure/persistence"
	"github.com/merchantops/backend/internal/infrastructure/persistence/models"
	"github.com/merchantops/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var actor = audit.Actor{ID: "ops@merchant.test"}

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t, persistence.Models()...)
	svc := NewService(persistence.NewAuditWriter(db), persistence.NewGormTrackedRepository(db))
	return svc, db
}

// MockObjectStorage is a mock implementation of ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	args := m.Called(ctx, key, contentType, body, size)
	return args.Error(0)
}

func (m *MockObjectStorage) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func TestService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	rec, entry, err := svc.Create(ctx, audit.TableBranches, audit.Snapshot{
		"name": "Bole",
		"code": "BR-01",
		"id":   uuid.NewString(),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, audit.ActionCreate, entry.Action)
	branch := rec.(*models.BranchModel)
	assert.Equal(t, "Bole", branch.Name)

	t.Run("applies patch and logs both images", func(t *testing.T) {
		updated, entry, err := svc.Update(ctx, audit.TableBranches, branch.ID, audit.Snapshot{
			"name":       "Bole Main",
			"INSERTUSER": "someone-else",
		}, actor)
		require.NoError(t, err)

		b := updated.(*models.BranchModel)
		assert.Equal(t, "Bole Main", b.Name)
		assert.Equal(t, "BR-01", b.Code)
		assert.Equal(t, actor.ID, b.InsertUser)
		assert.Equal(t, "Bole", entry.OldValue["name"])
		assert.Equal(t, "Bole Main", entry.NewValue["name"])
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, _, err := svc.Update(ctx, audit.TableBranches, branch.ID, audit.Snapshot{"colour": "red"}, actor)
		require.Error(t, err)
		assert.True(t, shared.IsInvalidRequest(err))
		assert.Contains(t, err.Error(), "colour")
	})

	t.Run("rejects values failing validation", func(t *testing.T) {
		_, _, err := svc.Update(ctx, audit.TableBranches, branch.ID, audit.Snapshot{"name": ""}, actor)
		require.Error(t, err)
		assert.True(t, shared.IsInvalidRequest(err))

		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "name", verrs[0].Field())
	})

	t.Run("rejects wrongly typed values", func(t *testing.T) {
		_, _, err := svc.Update(ctx, audit.TableBranches, branch.ID, audit.Snapshot{"isActive": "yes"}, actor)
		assert.True(t, shared.IsInvalidRequest(err))
	})

	t.Run("missing record", func(t *testing.T) {
		_, _, err := svc.Update(ctx, audit.TableBranches, uuid.New(), audit.Snapshot{"name": "x"}, actor)
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	var ids []uuid.UUID
	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		rec, _, err := svc.Create(ctx, audit.TableRoles, audit.Snapshot{"name": name}, actor)
		require.NoError(t, err)
		ids = append(ids, rec.Identity())
	}

	page, err := svc.List(ctx, audit.TableRoles, shared.Filter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 2)

	deleted, entry, err := svc.Delete(ctx, audit.TableRoles, ids[0], actor)
	require.NoError(t, err)
	assert.Equal(t, ids[0], deleted.Identity())
	assert.Nil(t, entry.NewValue)

	_, err = svc.Get(ctx, audit.TableRoles, ids[0])
	assert.True(t, shared.IsNotFound(err))

	_, err = svc.List(ctx, audit.Table("users"), shared.Filter{})
	assert.True(t, shared.IsInvalidRequest(err))
}

func TestService_UploadPromoImage(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without storage", func(t *testing.T) {
		svc, _ := setupService(t)
		_, _, err := svc.UploadPromoImage(ctx, uuid.New(), ImageUpload{}, actor)
		assert.True(t, shared.IsInvalidRequest(err))
	})

	t.Run("stores image and audits the url change", func(t *testing.T) {
		svc, _ := setupService(t)
		store := new(MockObjectStorage)
		svc.SetImageUploader(NewImageUploader(store, 1024))

		ad, _, err := svc.Create(ctx, audit.TablePromoAds, audit.Snapshot{"TITLE": "Cashback", "ORDER": 2}, actor)
		require.NoError(t, err)

		store.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "promo-ads/"+ad.Identity().String()+"/")
		}), "image/png", mock.Anything, int64(4)).Return(nil)
		store.On("PublicURL", mock.Anything).Return("https://cdn.merchant.test/promo.png")

		rec, entry, err := svc.UploadPromoImage(ctx, ad.Identity(), ImageUpload{
			ContentType: "image/png",
			Size:        4,
			Body:        bytes.NewReader([]byte{0x89, 'P', 'N', 'G'}),
		}, actor)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.merchant.test/promo.png", rec.(*models.PromoAdModel).ImageURL)
		assert.Equal(t, audit.ActionUpdate, entry.Action)
		assert.Equal(t, "", entry.OldValue["IMAGEURL"])
		store.AssertExpectations(t)
	})

	t.Run("rejects svg and oversized files before upload", func(t *testing.T) {
		svc, _ := setupService(t)
		store := new(MockObjectStorage)
		svc.SetImageUploader(NewImageUploader(store, 10))

		ad, _, err := svc.Create(ctx, audit.TablePromoAds, audit.Snapshot{"TITLE": "Cashback"}, actor)
		require.NoError(t, err)

		_, _, err = svc.UploadPromoImage(ctx, ad.Identity(), ImageUpload{ContentType: "image/svg+xml", Size: 5}, actor)
		assert.True(t, shared.IsInvalidRequest(err))

		_, _, err = svc.UploadPromoImage(ctx, ad.Identity(), ImageUpload{ContentType: "image/png", Size: 11}, actor)
		assert.True(t, shared.IsInvalidRequest(err))

		store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing promo ad", func(t *testing.T) {
		svc, _ := setupService(t)
		svc.SetImageUploader(NewImageUploader(new(MockObjectStorage), 10))
		_, _, err := svc.UploadPromoImage(ctx, uuid.New(), ImageUpload{ContentType: "image/png", Size: 1}, actor)
		assert.True(t, shared.IsNotFound(err))
	})
}
