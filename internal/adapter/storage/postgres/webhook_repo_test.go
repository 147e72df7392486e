package postgres

import (
	"context"
	"testing"
	"time"

	"woosync/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookRepo_GetEndpointByToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	ep := &domain.WebhookEndpoint{
		ID:                 uuid.New(),
		ConnectionID:       uuid.New(),
		Name:               "order intake",
		Token:              "a1b2c3d4e5f60718293a4b5c6d7e8f90",
		Secret:             "whsec_test",
		Topic:              domain.TopicOrderCreated,
		Active:             true,
		AutoCreateOrder:    true,
		AutoCreateCustomer: true,
		OrderPrefix:        "WC-",
		CreatedAt:          now,
	}

	mock.ExpectQuery("SELECT .+ FROM webhook_endpoints WHERE token").
		WithArgs(ep.Token).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "connection_id", "name", "token", "secret", "topic", "active",
			"auto_create_order", "auto_create_customer", "order_prefix", "created_at",
		}).AddRow(
			ep.ID, ep.ConnectionID, ep.Name, ep.Token, ep.Secret, ep.Topic, ep.Active,
			ep.AutoCreateOrder, ep.AutoCreateCustomer, ep.OrderPrefix, ep.CreatedAt,
		))

	result, err := repo.GetEndpointByToken(context.Background(), ep.Token)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, ep.Secret, result.Secret)
	assert.True(t, result.AutoCreateOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepo_GetEndpointByToken_Unknown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM webhook_endpoints WHERE token").
		WithArgs("deadbeef").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	result, err := repo.GetEndpointByToken(context.Background(), "deadbeef")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepo_CreateLog(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	orderID := uuid.New()
	log := &domain.WebhookLog{
		ID:         uuid.New(),
		EndpointID: uuid.New(),
		RawPayload: []byte(`{"id":1042}`),
		ReceivedAt: time.Now().UTC().Truncate(time.Microsecond),
		Outcome:    domain.DeliverySuccess,
		OrderID:    &orderID,
		Message:    "order created",
	}

	mock.ExpectExec("INSERT INTO webhook_logs").
		WithArgs(log.ID, log.EndpointID, log.RawPayload, log.ReceivedAt, log.Outcome, log.OrderID, log.Message).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.CreateLog(context.Background(), log)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepo_ListLogs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	endpointID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM webhook_logs WHERE endpoint_id").
		WithArgs(endpointID, 20).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "endpoint_id", "raw_payload", "received_at", "outcome", "order_id", "message",
		}).AddRow(
			uuid.New(), endpointID, []byte(`{}`), now, domain.DeliveryRejected, (*uuid.UUID)(nil), "invalid signature",
		))

	logs, err := repo.ListLogs(context.Background(), endpointID, 20)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.DeliveryRejected, logs[0].Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}
