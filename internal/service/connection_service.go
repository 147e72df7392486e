package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"woosync/internal/core/domain"
	"woosync/internal/core/ports"
	"woosync/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ConnectionServiceImpl implements ports.ConnectionService. Log lines carry
// connection names and store URLs, never credential material.
type ConnectionServiceImpl struct {
	connRepo    ports.ConnectionRepository
	webhookRepo ports.WebhookRepository
	catalog     ports.CatalogClient
	log         zerolog.Logger
}

// NewConnectionService creates a new ConnectionServiceImpl.
func NewConnectionService(
	connRepo ports.ConnectionRepository,
	webhookRepo ports.WebhookRepository,
	catalog ports.CatalogClient,
	log zerolog.Logger,
) *ConnectionServiceImpl {
	return &ConnectionServiceImpl{
		connRepo:    connRepo,
		webhookRepo: webhookRepo,
		catalog:     catalog,
		log:         log,
	}
}

// Create validates and persists a new connection. New connections start in
// the not-tested state; TestConnection moves them on.
func (s *ConnectionServiceImpl) Create(ctx context.Context, conn *domain.Connection) error {
	if err := validateConnection(conn); err != nil {
		return err
	}

	now := time.Now()
	conn.ID = uuid.New()
	conn.Status = domain.ConnectionNotTested
	conn.CreatedAt = now
	conn.UpdatedAt = now
	if conn.UploadStrategy == "" {
		conn.UploadStrategy = domain.UploadExternalMedia
	}
	if conn.SyncDirection == "" {
		conn.SyncDirection = domain.SyncBoth
	}
	if conn.ConflictPolicy == "" {
		conn.ConflictPolicy = domain.ConflictManual
	}
	if conn.APIVersion == "" {
		conn.APIVersion = "v3"
	}

	if err := s.connRepo.Create(ctx, conn); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	s.log.Info().Str("name", conn.Name).Str("store_url", conn.StoreURL).Msg("connection created")
	return nil
}

// Update validates and persists changes to an existing connection.
func (s *ConnectionServiceImpl) Update(ctx context.Context, conn *domain.Connection) error {
	if err := validateConnection(conn); err != nil {
		return err
	}
	existing, err := s.connRepo.GetByID(ctx, conn.ID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if existing == nil {
		return apperror.NotFound("connection")
	}
	if err := s.connRepo.Update(ctx, conn); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	return nil
}

// Get fetches one connection.
func (s *ConnectionServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Connection, error) {
	conn, err := s.connRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if conn == nil {
		return nil, apperror.NotFound("connection")
	}
	return conn, nil
}

// List fetches all connections, optionally only active ones.
func (s *ConnectionServiceImpl) List(ctx context.Context, activeOnly bool) ([]domain.Connection, error) {
	conns, err := s.connRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return conns, nil
}

// TestConnection probes the remote API with a cheap catalog count and
// records the outcome on the connection. Returns the remote catalog size.
func (s *ConnectionServiceImpl) TestConnection(ctx context.Context, id uuid.UUID) (int, error) {
	conn, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	total, err := s.catalog.CountProducts(ctx, conn)
	if err != nil {
		msg := err.Error()
		if stateErr := s.connRepo.UpdateStatus(ctx, id, domain.ConnectionError, &msg); stateErr != nil {
			s.log.Error().Err(stateErr).Str("name", conn.Name).Msg("recording probe failure failed")
		}
		s.log.Warn().Str("name", conn.Name).Msg("connection probe failed")
		return 0, err
	}

	if err := s.connRepo.UpdateStatus(ctx, id, domain.ConnectionOK, nil); err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	s.log.Info().Str("name", conn.Name).Int("remote_products", total).Msg("connection probe succeeded")
	return total, nil
}

// CreateEndpoint provisions a webhook endpoint with a fresh unguessable
// token for an existing connection.
func (s *ConnectionServiceImpl) CreateEndpoint(ctx context.Context, ep *domain.WebhookEndpoint) error {
	conn, err := s.Get(ctx, ep.ConnectionID)
	if err != nil {
		return err
	}

	token, err := domain.NewEndpointToken()
	if err != nil {
		return apperror.InternalError(fmt.Errorf("generate endpoint token: %w", err))
	}

	ep.ID = uuid.New()
	ep.Token = token
	ep.CreatedAt = time.Now()
	if ep.Topic == "" {
		ep.Topic = domain.TopicOrderCreated
	}
	if ep.OrderPrefix == "" {
		ep.OrderPrefix = domain.DefaultOrderPrefix
	}

	if err := s.webhookRepo.CreateEndpoint(ctx, ep); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	s.log.Info().Str("connection", conn.Name).Str("endpoint", ep.Name).Msg("webhook endpoint created")
	return nil
}

func validateConnection(conn *domain.Connection) error {
	if strings.TrimSpace(conn.Name) == "" {
		return apperror.Validation("connection name is required")
	}
	u, err := url.Parse(conn.StoreURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.Validation("store URL must be a valid http(s) URL")
	}
	if conn.ConsumerKey == "" || conn.ConsumerSecret == "" {
		return apperror.Validation("consumer key and secret are required")
	}
	if conn.UploadStrategy == domain.UploadExternalMedia && conn.WPUsername != "" && conn.WPAppPassword == "" {
		return apperror.Validation("media username set without an application password")
	}
	return nil
}
