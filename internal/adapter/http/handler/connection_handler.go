package handler

import (
	"context"
	"strconv"
	"time"

	"woosync/internal/adapter/http/dto"
	"woosync/internal/core/domain"
	"woosync/internal/core/ports"
	"woosync/pkg/apperror"
	"woosync/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConnectionHandler handles connection lifecycle and sync-trigger endpoints.
type ConnectionHandler struct {
	connSvc     ports.ConnectionService
	syncSvc     ports.SyncService
	webhookRepo ports.WebhookRepository
}

// NewConnectionHandler creates a new ConnectionHandler.
func NewConnectionHandler(connSvc ports.ConnectionService, syncSvc ports.SyncService, webhookRepo ports.WebhookRepository) *ConnectionHandler {
	return &ConnectionHandler{connSvc: connSvc, syncSvc: syncSvc, webhookRepo: webhookRepo}
}

// Create handles POST /api/v1/connections.
func (h *ConnectionHandler) Create(c *gin.Context) {
	var req dto.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	conn := connectionFromRequest(&req)
	if err := h.connSvc.Create(c.Request.Context(), conn); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toConnectionResponse(conn))
}

// Update handles PUT /api/v1/connections/:id.
func (h *ConnectionHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid connection id"))
		return
	}

	var req dto.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	conn := connectionFromRequest(&req)
	conn.ID = id
	if err := h.connSvc.Update(c.Request.Context(), conn); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toConnectionResponse(conn))
}

// Get handles GET /api/v1/connections/:id.
func (h *ConnectionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid connection id"))
		return
	}

	conn, err := h.connSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toConnectionResponse(conn))
}

// List handles GET /api/v1/connections.
func (h *ConnectionHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	conns, err := h.connSvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.ConnectionResponse, 0, len(conns))
	for i := range conns {
		out = append(out, *toConnectionResponse(&conns[i]))
	}
	response.OK(c, out)
}

// Test handles POST /api/v1/connections/:id/test.
func (h *ConnectionHandler) Test(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid connection id"))
		return
	}

	count, err := h.connSvc.TestConnection(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.TestConnectionResponse{
		Status:       string(domain.ConnectionOK),
		ProductCount: count,
	})
}

// Pull handles POST /api/v1/connections/:id/sync/pull.
func (h *ConnectionHandler) Pull(c *gin.Context) {
	h.runSync(c, h.syncSvc.PullConnection)
}

// Push handles POST /api/v1/connections/:id/sync/push.
func (h *ConnectionHandler) Push(c *gin.Context) {
	h.runSync(c, h.syncSvc.PushPending)
}

func (h *ConnectionHandler) runSync(c *gin.Context, pass func(ctx context.Context, conn *domain.Connection) (*ports.SyncReport, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid connection id"))
		return
	}

	conn, err := h.connSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := pass(c.Request.Context(), conn)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.SyncReportResponse{
		Created: report.Created,
		Updated: report.Updated,
		Skipped: report.Skipped,
		Failed:  report.Failed,
		Halted:  report.Halted,
	})
}

// CreateEndpoint handles POST /api/v1/connections/:id/endpoints.
func (h *ConnectionHandler) CreateEndpoint(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid connection id"))
		return
	}

	var req dto.EndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	ep := &domain.WebhookEndpoint{
		ConnectionID:       id,
		Name:               req.Name,
		Secret:             req.Secret,
		Topic:              domain.WebhookTopic(req.Topic),
		Active:             req.Active,
		AutoCreateOrder:    req.AutoCreateOrder,
		AutoCreateCustomer: req.AutoCreateCustomer,
		OrderPrefix:        req.OrderPrefix,
	}
	if err := h.connSvc.CreateEndpoint(c.Request.Context(), ep); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toEndpointResponse(ep))
}

// ListEndpoints handles GET /api/v1/connections/:id/endpoints.
func (h *ConnectionHandler) ListEndpoints(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid connection id"))
		return
	}

	eps, err := h.webhookRepo.ListEndpoints(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.EndpointResponse, 0, len(eps))
	for i := range eps {
		out = append(out, *toEndpointResponse(&eps[i]))
	}
	response.OK(c, out)
}

// ListLogs handles GET /api/v1/endpoints/:id/logs.
func (h *ConnectionHandler) ListLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid endpoint id"))
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		response.Error(c, apperror.Validation("limit must be between 1 and 500"))
		return
	}

	logs, err := h.webhookRepo.ListLogs(c.Request.Context(), id, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.WebhookLogResponse, 0, len(logs))
	for i := range logs {
		out = append(out, *toLogResponse(&logs[i]))
	}
	response.OK(c, out)
}

func connectionFromRequest(req *dto.ConnectionRequest) *domain.Connection {
	return &domain.Connection{
		Name:           req.Name,
		StoreURL:       req.StoreURL,
		ConsumerKey:    req.ConsumerKey,
		ConsumerSecret: req.ConsumerSecret,
		WPUsername:     req.WPUsername,
		WPAppPassword:  req.WPAppPassword,
		UploadStrategy: domain.UploadStrategy(req.UploadStrategy),
		SyncDirection:  domain.SyncDirection(req.SyncDirection),
		ConflictPolicy: domain.ConflictPolicy(req.ConflictPolicy),
		APIVersion:     req.APIVersion,
		Active:         req.Active,
	}
}

func toConnectionResponse(conn *domain.Connection) *dto.ConnectionResponse {
	resp := &dto.ConnectionResponse{
		ID:             conn.ID.String(),
		Name:           conn.Name,
		StoreURL:       conn.StoreURL,
		UploadStrategy: string(conn.UploadStrategy),
		SyncDirection:  string(conn.SyncDirection),
		ConflictPolicy: string(conn.ConflictPolicy),
		APIVersion:     conn.APIVersion,
		Active:         conn.Active,
		Status:         string(conn.Status),
		LastError:      conn.LastError,
		CreatedAt:      conn.CreatedAt.UTC().Format(time.RFC3339),
	}
	if conn.LastSyncAt != nil {
		s := conn.LastSyncAt.UTC().Format(time.RFC3339)
		resp.LastSyncAt = &s
	}
	return resp
}

func toEndpointResponse(ep *domain.WebhookEndpoint) *dto.EndpointResponse {
	return &dto.EndpointResponse{
		ID:                 ep.ID.String(),
		ConnectionID:       ep.ConnectionID.String(),
		Name:               ep.Name,
		Token:              ep.Token,
		Topic:              string(ep.Topic),
		Active:             ep.Active,
		AutoCreateOrder:    ep.AutoCreateOrder,
		AutoCreateCustomer: ep.AutoCreateCustomer,
		OrderPrefix:        ep.OrderPrefix,
		CreatedAt:          ep.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toLogResponse(l *domain.WebhookLog) *dto.WebhookLogResponse {
	resp := &dto.WebhookLogResponse{
		ID:         l.ID.String(),
		EndpointID: l.EndpointID.String(),
		ReceivedAt: l.ReceivedAt.UTC().Format(time.RFC3339),
		Outcome:    string(l.Outcome),
		Message:    l.Message,
	}
	if l.OrderID != nil {
		s := l.OrderID.String()
		resp.OrderID = &s
	}
	return resp
}
