package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

type DiscountResponse struct {
	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	Type        string  `json:"discount_type"`
	Amount      string  `json:"amount"`
	MinPurchase *string `json:"min_purchase,omitempty"`
	ValidUntil  *string `json:"valid_until,omitempty"`
}

func toDiscountResponse(d domain.DiscountCode) DiscountResponse {
	resp := DiscountResponse{
		Code:        d.Code,
		Description: d.Description,
		Type:        string(d.Type),
		Amount:      money(d.Amount),
	}
	if d.MinPurchase != nil {
		s := money(*d.MinPurchase)
		resp.MinPurchase = &s
	}
	if d.ValidUntil != nil {
		s := d.ValidUntil.UTC().Format(time.RFC3339)
		resp.ValidUntil = &s
	}
	return resp
}

func (h *HTTPHandler) ListDiscounts(c *gin.Context) {
	list, err := h.svc.Discounts.ListActive(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]DiscountResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDiscountResponse(d))
	}
	c.JSON(http.StatusOK, gin.H{"discounts": out})
}

type CreateDiscountRequest struct {
	Code        string           `json:"code" binding:"required"`
	Description string           `json:"description"`
	Type        string           `json:"discount_type" binding:"required"`
	Amount      decimal.Decimal  `json:"amount"`
	MinPurchase *decimal.Decimal `json:"min_purchase"`
	MaxUses     *int             `json:"max_uses"`
	ValidFrom   *time.Time       `json:"valid_from"`
	ValidUntil  *time.Time       `json:"valid_until"`
	Active      *bool            `json:"is_active"`
}

func (h *HTTPHandler) CreateDiscount(c *gin.Context) {
	var req CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	d := domain.DiscountCode{
		Code:        req.Code,
		Description: req.Description,
		Type:        domain.DiscountType(req.Type),
		Amount:      req.Amount,
		MinPurchase: req.MinPurchase,
		MaxUses:     req.MaxUses,
		ValidUntil:  req.ValidUntil,
		Active:      activeOrDefault(req.Active),
	}
	if req.ValidFrom != nil {
		d.ValidFrom = *req.ValidFrom
	}
	created, err := h.svc.Discounts.Create(c.Request.Context(), d)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDiscountResponse(created))
}
