package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"woosync/internal/core/domain"
	"woosync/internal/core/ports"
	"woosync/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderCacheTTL bounds how long a delivery key is remembered on the fast
// path. The DB unique constraint covers everything beyond it.
const orderCacheTTL = 24 * time.Hour

// IngestServiceImpl implements ports.IngestService. Every delivery produces
// exactly one webhook log row, whatever its outcome.
type IngestServiceImpl struct {
	webhookRepo ports.WebhookRepository
	orderRepo   ports.OrderRepository
	mapper      *OrderMapper
	orderCache  ports.OrderIdempotencyCache
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewIngestService creates a new IngestServiceImpl.
func NewIngestService(
	webhookRepo ports.WebhookRepository,
	orderRepo ports.OrderRepository,
	mapper *OrderMapper,
	orderCache ports.OrderIdempotencyCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *IngestServiceImpl {
	return &IngestServiceImpl{
		webhookRepo: webhookRepo,
		orderRepo:   orderRepo,
		mapper:      mapper,
		orderCache:  orderCache,
		transactor:  transactor,
		log:         log,
	}
}

// Ingest validates, logs and idempotently applies one raw delivery.
// An unknown or inactive token returns a NotFound error and writes nothing:
// an attacker probing tokens must not be able to fill the log table.
func (s *IngestServiceImpl) Ingest(ctx context.Context, endpointToken string, body []byte, signature string) (*domain.WebhookLog, error) {
	ep, err := s.webhookRepo.GetEndpointByToken(ctx, endpointToken)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if ep == nil || !ep.Active {
		return nil, apperror.NotFound("webhook endpoint")
	}

	if ep.Secret != "" && !verifySignature(ep.Secret, body, signature) {
		s.log.Warn().
			Str("endpoint", ep.Name).
			Msg("webhook delivery rejected: invalid signature")
		return s.writeLog(ctx, ep, body, domain.DeliveryRejected, nil, domain.RejectInvalidSignature)
	}

	var remote domain.RemoteOrder
	if err := json.Unmarshal(body, &remote); err != nil {
		return s.writeLog(ctx, ep, body, domain.DeliveryRejected, nil, fmt.Sprintf("malformed payload: %v", err))
	}
	if remote.OrderKey == "" {
		return s.writeLog(ctx, ep, body, domain.DeliveryRejected, nil, "payload is missing order_key")
	}

	if !ep.AutoCreateOrder {
		return s.writeLog(ctx, ep, body, domain.DeliverySuccess, nil, "order creation disabled for endpoint")
	}

	orderID, message, err := s.applyOrder(ctx, ep, &remote)
	if err != nil {
		if apperror.IsCode(err, apperror.CodeValidation) {
			return s.writeLog(ctx, ep, body, domain.DeliveryError, nil, err.Error())
		}
		// Infrastructure failure: no terminal outcome yet, let the remote
		// store redeliver.
		return nil, err
	}
	return s.writeLog(ctx, ep, body, domain.DeliverySuccess, orderID, message)
}

// applyOrder creates the local order, treating a replayed delivery as a
// successful no-op. The duplicate check has two layers: the Redis fast path,
// then the insert itself, whose unique constraint is the source of truth.
func (s *IngestServiceImpl) applyOrder(ctx context.Context, ep *domain.WebhookEndpoint, remote *domain.RemoteOrder) (*uuid.UUID, string, error) {
	cacheKey := ep.ConnectionID.String() + ":" + remote.OrderKey

	// Layer 1: Redis fast path
	cached, err := s.orderCache.Get(ctx, cacheKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("order cache check failed, falling through to DB")
	}
	if cached != nil {
		var existing domain.Order
		if err := json.Unmarshal(cached, &existing); err == nil {
			return &existing.ID, apperror.IdempotentHit(remote.OrderKey).Message, nil
		}
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	customer, err := s.mapper.ResolveCustomer(ctx, tx, ep, remote.Billing)
	if err != nil {
		return nil, "", err
	}

	order, err := s.mapper.MapOrder(ctx, ep, customer, remote)
	if err != nil {
		return nil, "", err
	}

	// Layer 2: the insert itself. A unique violation means a concurrent or
	// earlier delivery won the race.
	if err := s.orderRepo.Create(ctx, tx, order); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			existing, getErr := s.orderRepo.GetByRemoteKey(ctx, ep.ConnectionID, remote.OrderKey)
			if getErr != nil || existing == nil {
				return nil, "", apperror.InternalError(fmt.Errorf("load existing order after duplicate: %w", getErr))
			}
			return &existing.ID, apperror.IdempotentHit(remote.OrderKey).Message, nil
		}
		return nil, "", apperror.ErrDatabaseError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if payload, err := json.Marshal(order); err == nil {
		if err := s.orderCache.Set(ctx, cacheKey, payload, orderCacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("order cache set failed")
		}
	}

	s.log.Info().
		Str("order_number", order.Number).
		Str("endpoint", ep.Name).
		Msg("order created from webhook delivery")
	return &order.ID, "order created", nil
}

// writeLog appends the single immutable log row for this delivery.
func (s *IngestServiceImpl) writeLog(ctx context.Context, ep *domain.WebhookEndpoint, body []byte, outcome domain.DeliveryOutcome, orderID *uuid.UUID, message string) (*domain.WebhookLog, error) {
	entry := &domain.WebhookLog{
		ID:         uuid.New(),
		EndpointID: ep.ID,
		RawPayload: body,
		ReceivedAt: time.Now(),
		Outcome:    outcome,
		OrderID:    orderID,
		Message:    message,
	}
	if err := s.webhookRepo.CreateLog(ctx, entry); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return entry, nil
}

// verifySignature checks the base64-encoded HMAC-SHA256 of the raw body in
// constant time.
func verifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
