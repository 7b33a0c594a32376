package tracked

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
)

// AllowedImageTypes maps accepted promo image content types to extensions.
// SVG is not accepted since it can carry script.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStorage stores uploaded files
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PublicURL(key string) string
}

// ImageUploader stores promo banners and points the promo row at them
type ImageUploader struct {
	storage ObjectStorage
	maxSize int64
	now     func() time.Time
}

// NewImageUploader creates a new ImageUploader. maxSize is in bytes.
func NewImageUploader(storage ObjectStorage, maxSize int64) *ImageUploader {
	return &ImageUploader{
		storage: storage,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// ImageUpload describes an uploaded file
type ImageUpload struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadPromoImage stores the image and records the new IMAGEURL through an
// audited UPDATE of the promo ad.
func (s *Service) UploadPromoImage(ctx context.Context, id uuid.UUID, upload ImageUpload, actor audit.Actor) (audit.Record, *audit.Log, error) {
	if s.images == nil {
		return nil, nil, shared.NewInvalidRequestError("image uploads are not enabled")
	}
	// fail before touching storage when the ad does not exist
	if _, err := s.records.FindByID(ctx, audit.TablePromoAds, id); err != nil {
		return nil, nil, err
	}

	url, err := s.images.store(ctx, id, upload)
	if err != nil {
		return nil, nil, err
	}
	return s.writer.Update(ctx, audit.TablePromoAds, id, actor, s.applyPatch(audit.Snapshot{"IMAGEURL": url}))
}

func (u *ImageUploader) store(ctx context.Context, id uuid.UUID, upload ImageUpload) (string, error) {
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(upload.ContentType, ";", 2)[0]))
	ext, ok := AllowedImageTypes[contentType]
	if !ok {
		return "", shared.NewInvalidRequestError("content type %q is not an accepted image type", upload.ContentType)
	}
	if upload.Size <= 0 {
		return "", shared.NewInvalidRequestError("image is empty")
	}
	if u.maxSize > 0 && upload.Size > u.maxSize {
		return "", shared.NewInvalidRequestError("image exceeds %d bytes", u.maxSize)
	}

	key := path.Join("promo-ads", id.String(), fmt.Sprintf("%d%s", u.now().UnixNano(), ext))
	if err := u.storage.Upload(ctx, key, contentType, upload.Body, upload.Size); err != nil {
		return "", fmt.Errorf("upload promo image: %w", err)
	}
	return u.storage.PublicURL(key), nil
}
