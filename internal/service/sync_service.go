package service

import (
	"context"
	"fmt"
	"time"

	"woosync/internal/core/domain"
	"woosync/internal/core/ports"
	"woosync/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SyncServiceImpl implements ports.SyncService, the per-record sync state
// machine. Writes carrying the suppression token are persisted but never
// re-enter the machine; without that, a pull would trigger a push which
// would trigger another pull, forever.
type SyncServiceImpl struct {
	connRepo    ports.ConnectionRepository
	productRepo ports.ProductRepository
	catalog     ports.CatalogClient
	imageSvc    ports.ImageService
	batchSize   int
	log         zerolog.Logger
}

// NewSyncService creates a new SyncServiceImpl.
func NewSyncService(
	connRepo ports.ConnectionRepository,
	productRepo ports.ProductRepository,
	catalog ports.CatalogClient,
	imageSvc ports.ImageService,
	batchSize int,
	log zerolog.Logger,
) *SyncServiceImpl {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SyncServiceImpl{
		connRepo:    connRepo,
		productRepo: productRepo,
		catalog:     catalog,
		imageSvc:    imageSvc,
		batchSize:   batchSize,
		log:         log,
	}
}

// ApplyLocalChange runs the watched-field diff against the stored mirror and
// pushes when required. A change to nothing but unwatched fields produces no
// outbound call.
func (s *SyncServiceImpl) ApplyLocalChange(ctx context.Context, token domain.SyncToken, incoming *domain.ProductMirror) (*domain.ProductMirror, error) {
	if token.Suppressed() {
		// Write originated from the sync machine itself: persist, never push.
		if err := s.productRepo.Upsert(ctx, incoming); err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
		return incoming, nil
	}

	current, err := s.productRepo.GetByID(ctx, incoming.ID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	if current != nil {
		changed := current.WatchedChanges(incoming)
		if len(changed) == 0 {
			if err := s.productRepo.Upsert(ctx, incoming); err != nil {
				return nil, apperror.ErrDatabaseError(err)
			}
			return incoming, nil
		}
		s.log.Debug().
			Strs("fields", changed).
			Str("sku", incoming.SKU).
			Msg("watched fields changed, product re-enters sync")
	}

	incoming.MarkPending()
	if err := s.productRepo.Upsert(ctx, incoming); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	if !incoming.AutoSync {
		return incoming, nil
	}

	conn, err := s.connRepo.GetByID(ctx, incoming.ConnectionID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if conn == nil || !conn.IsActive() || !effectiveDirection(conn, incoming).CanPush() {
		return incoming, nil
	}

	if err := s.pushOne(ctx, conn, incoming); err != nil {
		// The failure is recorded on the record; the write itself succeeded.
		s.log.Warn().Err(err).Str("sku", incoming.SKU).Msg("immediate push failed")
	}
	return incoming, nil
}

// PullConnection imports or refreshes every remote product of a connection,
// page by page. Per-record failures are recorded and skipped; an auth error
// halts the pass and marks the connection.
func (s *SyncServiceImpl) PullConnection(ctx context.Context, conn *domain.Connection) (*ports.SyncReport, error) {
	report := &ports.SyncReport{}
	if !conn.IsActive() {
		return report, apperror.Validation("connection is inactive")
	}

	for page := 1; ; page++ {
		remotes, err := s.catalog.ListProducts(ctx, conn, page, s.batchSize)
		if err != nil {
			if apperror.IsCode(err, apperror.CodeAuth) {
				s.haltConnection(ctx, conn, err)
				report.Halted = true
				return report, err
			}
			return report, err
		}
		if len(remotes) == 0 {
			break
		}

		for i := range remotes {
			if err := s.pullOne(ctx, conn, &remotes[i], report); err != nil {
				report.Failed++
				s.log.Warn().Err(err).Int64("remote_id", remotes[i].ID).Msg("pull failed for product")
			}
		}

		if len(remotes) < s.batchSize {
			break
		}
	}

	now := time.Now()
	conn.LastSyncAt = &now
	if err := s.connRepo.Update(ctx, conn); err != nil {
		s.log.Warn().Err(err).Msg("recording last sync time failed")
	}
	return report, nil
}

// pullOne applies one remote product to the local mirror store.
func (s *SyncServiceImpl) pullOne(ctx context.Context, conn *domain.Connection, remote *domain.RemoteProduct, report *ports.SyncReport) error {
	existing, err := s.productRepo.GetByRemoteID(ctx, conn.ID, remote.ID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}

	now := time.Now()
	if existing == nil {
		// A push-only connection never imports, even on a manual pull.
		if !conn.SyncDirection.CanPull() {
			report.Skipped++
			return nil
		}
		mirror := mirrorFromRemote(conn, remote, now)
		mirror.MarkSynced(now)
		if err := s.productRepo.Upsert(ctx, mirror); err != nil {
			return apperror.ErrDatabaseError(err)
		}
		if err := s.imageSvc.ImportImages(ctx, mirror, remote.Images); err != nil {
			s.log.Warn().Err(err).Str("sku", mirror.SKU).Msg("image import incomplete")
		}
		report.Created++
		return nil
	}

	if !effectiveDirection(conn, existing).CanPull() {
		report.Skipped++
		return nil
	}

	incoming := mirrorFromRemote(conn, remote, now)
	changed := existing.WatchedChanges(incoming)
	if len(changed) == 0 {
		report.Skipped++
		return nil
	}

	// A pending mirror holds an unpushed local change: the same field changed
	// on both sides within one window is a conflict.
	if existing.SyncStatus == domain.SyncPending {
		switch conn.ConflictPolicy {
		case domain.ConflictLocalWins:
			report.Skipped++
			return nil
		case domain.ConflictRemoteWins:
			// fall through to the overwrite below
		default:
			existing.MarkError(apperror.Conflict(changed[0]).Message)
			if err := s.productRepo.UpdateSyncState(ctx, existing); err != nil {
				return apperror.ErrDatabaseError(err)
			}
			report.Failed++
			return nil
		}
	}

	applyRemote(existing, remote)
	existing.MarkSynced(now)
	existing.UpdatedAt = now
	if err := s.productRepo.Upsert(ctx, existing); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	report.Updated++
	return nil
}

// PushPending pushes every pending mirror of a connection. Transport and
// validation failures stay record-local; an auth failure halts the pass.
func (s *SyncServiceImpl) PushPending(ctx context.Context, conn *domain.Connection) (*ports.SyncReport, error) {
	report := &ports.SyncReport{}
	if !conn.IsActive() {
		return report, apperror.Validation("connection is inactive")
	}

	pending, err := s.productRepo.ListBySyncStatus(ctx, conn.ID, domain.SyncPending)
	if err != nil {
		return report, apperror.ErrDatabaseError(err)
	}

	for i := range pending {
		m := &pending[i]
		if !effectiveDirection(conn, m).CanPush() {
			report.Skipped++
			continue
		}
		created := m.RemoteID == 0
		if err := s.pushOne(ctx, conn, m); err != nil {
			if apperror.IsCode(err, apperror.CodeAuth) {
				s.haltConnection(ctx, conn, err)
				report.Halted = true
				return report, err
			}
			report.Failed++
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}
	return report, nil
}

// pushOne writes one mirror to the remote store and records the outcome on
// the record. The returned error is the push failure, already persisted.
func (s *SyncServiceImpl) pushOne(ctx context.Context, conn *domain.Connection, m *domain.ProductMirror) error {
	upd := updateFromMirror(m)

	var remote *domain.RemoteProduct
	var err error
	if m.RemoteID == 0 {
		remote, err = s.catalog.CreateProduct(ctx, conn, upd)
	} else {
		remote, err = s.catalog.UpdateProduct(ctx, conn, m.RemoteID, upd)
	}
	if err != nil {
		m.MarkError(err.Error())
		if stateErr := s.productRepo.UpdateSyncState(ctx, m); stateErr != nil {
			s.log.Error().Err(stateErr).Str("sku", m.SKU).Msg("recording push failure failed")
		}
		return err
	}
	m.RemoteID = remote.ID

	if err := s.imageSvc.SyncImages(ctx, conn, m); err != nil {
		m.MarkError(err.Error())
		if stateErr := s.productRepo.UpdateSyncState(ctx, m); stateErr != nil {
			s.log.Error().Err(stateErr).Str("sku", m.SKU).Msg("recording image failure failed")
		}
		return err
	}

	m.MarkSynced(time.Now())
	if err := s.productRepo.UpdateSyncState(ctx, m); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	s.log.Info().Str("sku", m.SKU).Int64("remote_id", m.RemoteID).Msg("product pushed")
	return nil
}

// DeleteProduct removes a mirror locally and requests remote deletion when
// the record may push. A remote 404 is fine: the goal state is reached.
func (s *SyncServiceImpl) DeleteProduct(ctx context.Context, conn *domain.Connection, productID uuid.UUID) error {
	m, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if m == nil {
		return apperror.NotFound("product mirror")
	}

	if m.RemoteID != 0 && effectiveDirection(conn, m).CanPush() {
		if err := s.catalog.DeleteProduct(ctx, conn, m.RemoteID); err != nil && !apperror.IsCode(err, apperror.CodeNotFound) {
			return err
		}
	}
	if err := s.productRepo.Delete(ctx, productID); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	return nil
}

// haltConnection marks a connection after a fatal credential rejection. The
// error message never contains the credentials themselves.
func (s *SyncServiceImpl) haltConnection(ctx context.Context, conn *domain.Connection, cause error) {
	msg := fmt.Sprintf("credentials rejected: %v", cause)
	if err := s.connRepo.UpdateStatus(ctx, conn.ID, domain.ConnectionError, &msg); err != nil {
		s.log.Error().Err(err).Str("connection", conn.Name).Msg("marking connection failed")
	}
	s.log.Error().Str("connection", conn.Name).Msg("sync halted: remote store rejected credentials")
}

// effectiveDirection is the record's direction, falling back to the
// connection default when the record carries none.
func effectiveDirection(conn *domain.Connection, m *domain.ProductMirror) domain.SyncDirection {
	if m.SyncDirection != "" {
		return m.SyncDirection
	}
	return conn.SyncDirection
}

func mirrorFromRemote(conn *domain.Connection, remote *domain.RemoteProduct, now time.Time) *domain.ProductMirror {
	m := &domain.ProductMirror{
		ID:            uuid.New(),
		ConnectionID:  conn.ID,
		RemoteID:      remote.ID,
		SyncDirection: conn.SyncDirection,
		AutoSync:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applyRemote(m, remote)
	return m
}

func applyRemote(m *domain.ProductMirror, remote *domain.RemoteProduct) {
	m.Name = remote.Name
	m.SKU = remote.SKU
	m.RegularPrice = remote.RegularPrice
	m.SalePrice = remote.SalePrice
	m.Description = remote.Description
	m.OnSale = remote.OnSale
	m.Status = domain.ProductStatus(remote.Status)
}

func updateFromMirror(m *domain.ProductMirror) *domain.RemoteProductUpdate {
	name := m.Name
	sku := m.SKU
	regular := domain.PriceString(m.RegularPrice)
	description := m.Description
	status := string(m.Status)

	upd := &domain.RemoteProductUpdate{
		Name:         &name,
		SKU:          &sku,
		RegularPrice: &regular,
		Description:  &description,
		Status:       &status,
	}
	if !m.SalePrice.IsZero() {
		sale := domain.PriceString(m.SalePrice)
		upd.SalePrice = &sale
	}
	return upd
}
