package postgres

import (
	"context"
	"errors"
	"fmt"

	"woosync/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WebhookRepo implements ports.WebhookRepository. Delivery logs are
// append-only; there is deliberately no update operation for them.
type WebhookRepo struct {
	pool Pool
}

// NewWebhookRepo creates a new WebhookRepo.
func NewWebhookRepo(pool Pool) *WebhookRepo {
	return &WebhookRepo{pool: pool}
}

const endpointColumns = `id, connection_id, name, token, secret, topic, active,
	auto_create_order, auto_create_customer, order_prefix, created_at`

// CreateEndpoint inserts a webhook endpoint.
func (r *WebhookRepo) CreateEndpoint(ctx context.Context, ep *domain.WebhookEndpoint) error {
	query := `INSERT INTO webhook_endpoints (` + endpointColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		ep.ID, ep.ConnectionID, ep.Name, ep.Token, ep.Secret, ep.Topic, ep.Active,
		ep.AutoCreateOrder, ep.AutoCreateCustomer, ep.OrderPrefix, ep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook endpoint: %w", err)
	}
	return nil
}

// GetEndpointByToken fetches an endpoint by its URL token. Returns nil when
// the token matches nothing.
func (r *WebhookRepo) GetEndpointByToken(ctx context.Context, token string) (*domain.WebhookEndpoint, error) {
	query := `SELECT ` + endpointColumns + ` FROM webhook_endpoints WHERE token = $1`

	ep := &domain.WebhookEndpoint{}
	err := scanEndpointInto(r.pool.QueryRow(ctx, query, token), ep)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get webhook endpoint: %w", err)
	}
	return ep, nil
}

// ListEndpoints fetches all endpoints of a connection.
func (r *WebhookRepo) ListEndpoints(ctx context.Context, connectionID uuid.UUID) ([]domain.WebhookEndpoint, error) {
	query := `SELECT ` + endpointColumns + ` FROM webhook_endpoints WHERE connection_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("list webhook endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []domain.WebhookEndpoint
	for rows.Next() {
		ep := domain.WebhookEndpoint{}
		if err := scanEndpointInto(rows, &ep); err != nil {
			return nil, fmt.Errorf("scan webhook endpoint row: %w", err)
		}
		endpoints = append(endpoints, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook endpoint rows: %w", err)
	}
	return endpoints, nil
}

// UpdateEndpoint persists the mutable endpoint fields. Token is immutable.
func (r *WebhookRepo) UpdateEndpoint(ctx context.Context, ep *domain.WebhookEndpoint) error {
	query := `UPDATE webhook_endpoints SET name = $1, secret = $2, topic = $3, active = $4,
		auto_create_order = $5, auto_create_customer = $6, order_prefix = $7 WHERE id = $8`

	tag, err := r.pool.Exec(ctx, query,
		ep.Name, ep.Secret, ep.Topic, ep.Active,
		ep.AutoCreateOrder, ep.AutoCreateCustomer, ep.OrderPrefix, ep.ID,
	)
	if err != nil {
		return fmt.Errorf("update webhook endpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("webhook endpoint not found: %s", ep.ID)
	}
	return nil
}

// CreateLog appends one delivery record.
func (r *WebhookRepo) CreateLog(ctx context.Context, log *domain.WebhookLog) error {
	query := `INSERT INTO webhook_logs (id, endpoint_id, raw_payload, received_at, outcome, order_id, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		log.ID, log.EndpointID, log.RawPayload, log.ReceivedAt, log.Outcome, log.OrderID, log.Message,
	)
	if err != nil {
		return fmt.Errorf("insert webhook log: %w", err)
	}
	return nil
}

// ListLogs fetches the most recent delivery records of an endpoint.
func (r *WebhookRepo) ListLogs(ctx context.Context, endpointID uuid.UUID, limit int) ([]domain.WebhookLog, error) {
	query := `SELECT id, endpoint_id, raw_payload, received_at, outcome, order_id, message
		FROM webhook_logs WHERE endpoint_id = $1 ORDER BY received_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, endpointID, limit)
	if err != nil {
		return nil, fmt.Errorf("list webhook logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.WebhookLog
	for rows.Next() {
		l := domain.WebhookLog{}
		err := rows.Scan(&l.ID, &l.EndpointID, &l.RawPayload, &l.ReceivedAt, &l.Outcome, &l.OrderID, &l.Message)
		if err != nil {
			return nil, fmt.Errorf("scan webhook log row: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook log rows: %w", err)
	}
	return logs, nil
}

func scanEndpointInto(row pgx.Row, ep *domain.WebhookEndpoint) error {
	return row.Scan(
		&ep.ID, &ep.ConnectionID, &ep.Name, &ep.Token, &ep.Secret, &ep.Topic, &ep.Active,
		&ep.AutoCreateOrder, &ep.AutoCreateCustomer, &ep.OrderPrefix, &ep.CreatedAt,
	)
}
