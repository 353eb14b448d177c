package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/retailops/backend/internal/application/ledger"
)

// StockHandler exposes the stock ledger API
type StockHandler struct {
	BaseHandler
	service *appledger.LedgerService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(service *appledger.LedgerService) *StockHandler {
	return &StockHandler{service: service}
}

// List returns stock levels for the tenant
// GET /stock/levels
func (h *StockHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter appledger.StockListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	levels, total, err := h.service.ListLevels(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, levels, total, filter.Page, filter.PageSize)
}

// Lookup returns one stock level by product and location
// GET /stock/levels/lookup?product_id=...&location_id=...
func (h *StockHandler) Lookup(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product_id")
		return
	}
	locationID, err := uuid.Parse(c.Query("location_id"))
	if err != nil {
		h.BadRequest(c, "Invalid location_id")
		return
	}

	level, err := h.service.GetLevel(c.Request.Context(), tenantID, productID, locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// Adjust applies a signed delta to one stock level
// POST /stock/adjust
func (h *StockHandler) Adjust(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appledger.ApplyDeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	level, err := h.service.ApplyDelta(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// SetQuantity sets one stock level to an absolute quantity
// POST /stock/set-quantity
func (h *StockHandler) SetQuantity(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appledger.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	level, err := h.service.SetQuantity(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// BulkAdjust applies several deltas in one call, reporting per-item outcomes
// POST /stock/bulk
func (h *StockHandler) BulkAdjust(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appledger.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	report, err := h.service.BulkApply(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Reserve places a hold on available stock
// POST /stock/reserve
func (h *StockHandler) Reserve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appledger.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	level, err := h.service.Reserve(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// Release returns held stock to the available pool
// POST /stock/release
func (h *StockHandler) Release(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appledger.ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.service.Release(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ThresholdsRequest configures reorder thresholds for one stock level
type ThresholdsRequest struct {
	ProductID       uuid.UUID `json:"product_id" binding:"required"`
	LocationID      uuid.UUID `json:"location_id" binding:"required"`
	MinThreshold    int64     `json:"min_threshold" binding:"min=0"`
	MaxThreshold    int64     `json:"max_threshold" binding:"min=0"`
	ReorderPoint    int64     `json:"reorder_point" binding:"min=0"`
	ReorderQuantity int64     `json:"reorder_quantity" binding:"min=0"`
}

// SetThresholds configures reorder thresholds for one stock level
// PUT /stock/thresholds
func (h *StockHandler) SetThresholds(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ThresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	level, err := h.service.SetThresholds(c.Request.Context(), tenantID,
		req.ProductID, req.LocationID,
		req.MinThreshold, req.MaxThreshold, req.ReorderPoint, req.ReorderQuantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// ListMovements returns the movement journal for the tenant
// GET /stock/movements
func (h *StockHandler) ListMovements(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter appledger.MovementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	movements, total, err := h.service.ListMovements(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}

// ListAlerts returns stock levels at or below their minimum threshold
// GET /stock/alerts
func (h *StockHandler) ListAlerts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	alerts, err := h.service.ListAlerts(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alerts)
}
