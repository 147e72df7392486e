package handler

import (
	"woosync/internal/core/domain"
	"woosync/internal/core/ports"
	"woosync/pkg/apperror"
	"woosync/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductHandler exposes the local product mirrors.
type ProductHandler struct {
	productRepo ports.ProductRepository
	connSvc     ports.ConnectionService
	syncSvc     ports.SyncService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productRepo ports.ProductRepository, connSvc ports.ConnectionService, syncSvc ports.SyncService) *ProductHandler {
	return &ProductHandler{productRepo: productRepo, connSvc: connSvc, syncSvc: syncSvc}
}

// ListByConnection handles GET /api/v1/connections/:id/products.
func (h *ProductHandler) ListByConnection(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid connection id"))
		return
	}

	var (
		mirrors []domain.ProductMirror
		listErr error
	)
	if status := c.Query("sync_status"); status != "" {
		mirrors, listErr = h.productRepo.ListBySyncStatus(c.Request.Context(), id, domain.SyncStatus(status))
	} else {
		mirrors, listErr = h.productRepo.ListByConnection(c.Request.Context(), id)
	}
	if listErr != nil {
		response.Error(c, listErr)
		return
	}
	response.OK(c, mirrors)
}

// Get handles GET /api/v1/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid product id"))
		return
	}

	m, err := h.productRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if m == nil {
		response.Error(c, apperror.NotFound("Product"))
		return
	}

	images, err := h.productRepo.ListImages(c.Request.Context(), m.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	m.Images = images
	response.OK(c, m)
}

// Delete handles DELETE /api/v1/products/:id. The remote copy is deleted
// too when one exists.
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid product id"))
		return
	}

	m, err := h.productRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if m == nil {
		response.Error(c, apperror.NotFound("Product"))
		return
	}

	conn, err := h.connSvc.Get(c.Request.Context(), m.ConnectionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.syncSvc.DeleteProduct(c.Request.Context(), conn, m.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
