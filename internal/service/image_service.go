package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"woosync/internal/core/domain"
	"woosync/internal/core/ports"
	"woosync/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ImageServiceImpl implements ports.ImageService. Uploads follow the
// connection's strategy; the size ceiling is enforced on the raw byte count
// before any base64 encoding, since encoding inflates the payload by a
// third.
type ImageServiceImpl struct {
	productRepo ports.ProductRepository
	catalog     ports.CatalogClient
	uploader    ports.MediaUploader
	fetcher     ports.ImageFetcher
	maxBytes    int64
	maxAttempts int
	backoff     time.Duration
	log         zerolog.Logger
}

// NewImageService creates a new ImageServiceImpl.
func NewImageService(
	productRepo ports.ProductRepository,
	catalog ports.CatalogClient,
	uploader ports.MediaUploader,
	fetcher ports.ImageFetcher,
	maxBytes int64,
	maxAttempts int,
	backoff time.Duration,
	log zerolog.Logger,
) *ImageServiceImpl {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &ImageServiceImpl{
		productRepo: productRepo,
		catalog:     catalog,
		uploader:    uploader,
		fetcher:     fetcher,
		maxBytes:    maxBytes,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		log:         log,
	}
}

// SyncImages uploads every non-synced image of a product and issues the one
// catalog update that references all of them. Re-running after a partial
// failure only touches the images that are still unsynced.
func (s *ImageServiceImpl) SyncImages(ctx context.Context, conn *domain.Connection, product *domain.ProductMirror) error {
	if product.RemoteID == 0 {
		return apperror.Validation("product has no remote ID, push it first")
	}

	images, err := s.productRepo.ListImages(ctx, product.ID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if len(images) == 0 {
		return nil
	}

	var refs []domain.RemoteImageRef
	var failed int
	for i := range images {
		img := &images[i]
		ref, err := s.prepareRef(ctx, conn, img)
		if err != nil {
			failed++
			img.MarkError(err.Error())
			if stateErr := s.productRepo.UpdateImageState(ctx, img); stateErr != nil {
				s.log.Error().Err(stateErr).Str("image", img.Name).Msg("recording image failure failed")
			}
			s.log.Warn().Err(err).Str("image", img.Name).Msg("image upload failed")
			continue
		}
		refs = append(refs, ref)
	}

	if len(refs) > 0 {
		upd := &domain.RemoteProductUpdate{Images: refs}
		if _, err := s.catalog.UpdateProduct(ctx, conn, product.RemoteID, upd); err != nil {
			return err
		}
		for i := range images {
			img := &images[i]
			if img.SyncStatus == domain.SyncError {
				continue
			}
			img.MarkSynced()
			if err := s.productRepo.UpdateImageState(ctx, img); err != nil {
				s.log.Error().Err(err).Str("image", img.Name).Msg("recording image success failed")
			}
		}
	}

	if failed > 0 {
		return apperror.Validation(fmt.Sprintf("%d of %d images failed to upload", failed, len(images)))
	}
	return nil
}

// prepareRef turns one image into the reference the catalog update carries.
// Already-uploaded external media is referenced again rather than re-posted.
func (s *ImageServiceImpl) prepareRef(ctx context.Context, conn *domain.Connection, img *domain.ProductImage) (domain.RemoteImageRef, error) {
	ref := domain.RemoteImageRef{
		Name:     img.Name,
		Alt:      img.Alt,
		Position: img.Position(),
	}

	size := img.ByteSize
	if size == 0 {
		size = int64(len(img.Data))
	}
	if size > s.maxBytes {
		return ref, apperror.PayloadTooLarge(size, s.maxBytes)
	}

	switch conn.UploadStrategy {
	case domain.UploadInlineBase64:
		encoded := base64.StdEncoding.EncodeToString(img.Data)
		ref.Src = "data:image/jpeg;base64," + encoded
		return ref, nil
	default:
		if img.RemoteMediaID != nil {
			ref.ID = img.RemoteMediaID
			return ref, nil
		}
		mediaID, url, err := s.uploader.UploadMedia(ctx, conn, img.Name, img.Data)
		if err != nil {
			return ref, err
		}
		img.RemoteMediaID = &mediaID
		img.RemoteURL = url
		ref.ID = &mediaID
		return ref, nil
	}
}

// ImportImages downloads the remote images of a freshly pulled product. One
// failing image is recorded and skipped; the rest still import. Sequences
// are assigned as spaced multiples so later manual reordering never requires
// renumbering.
func (s *ImageServiceImpl) ImportImages(ctx context.Context, product *domain.ProductMirror, remote []domain.RemoteImage) error {
	var failed int
	for idx, r := range remote {
		if r.Src == "" {
			continue
		}

		position := r.Position
		if position == 0 {
			position = idx
		}

		// Remote positions are 0-based; the first image gets sequence 10,
		// the second 20, and so on.
		img := &domain.ProductImage{
			ID:        uuid.New(),
			ProductID: product.ID,
			Name:      r.Name,
			Alt:       r.Alt,
			Sequence:  (position + 1) * domain.ImageSequenceStep,
			CreatedAt: time.Now(),
		}

		data, err := s.fetchWithRetry(ctx, r.Src)
		if err != nil {
			failed++
			img.MarkError(err.Error())
			s.log.Warn().Err(err).Str("src", r.Src).Msg("image download failed")
		} else {
			img.Data = data
			img.ByteSize = int64(len(data))
			remoteID := r.ID
			img.RemoteMediaID = &remoteID
			img.RemoteURL = r.Src
			img.MarkSynced()
		}

		if err := s.productRepo.AddImage(ctx, img); err != nil {
			return apperror.ErrDatabaseError(err)
		}
	}

	if failed > 0 {
		return apperror.Validation(fmt.Sprintf("%d of %d images failed to download", failed, len(remote)))
	}
	return nil
}

// fetchWithRetry downloads one image with a bounded exponential backoff.
// Only transport failures are retried; an oversize image fails immediately.
func (s *ImageServiceImpl) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	delay := s.backoff
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		data, err := s.fetcher.FetchImage(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !apperror.Retryable(err) {
			return nil, err
		}
		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}
