package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type QuoteResponse struct {
	RateID        int64  `json:"rate_id"`
	MethodID      int64  `json:"method_id"`
	MethodName    string `json:"method_name"`
	ZoneID        int64  `json:"zone_id"`
	ZoneName      string `json:"zone_name"`
	Strategy      string `json:"calculation_type"`
	Cost          string `json:"cost"`
	EstimatedDays *int   `json:"estimated_days,omitempty"`
}

func toQuoteResponse(q service.Quote) QuoteResponse {
	return QuoteResponse{
		RateID:        q.RateID,
		MethodID:      q.MethodID,
		MethodName:    q.MethodName,
		ZoneID:        q.ZoneID,
		ZoneName:      q.ZoneName,
		Strategy:      string(q.Strategy),
		Cost:          money(q.Cost),
		EstimatedDays: q.EstimatedDays,
	}
}

func (h *HTTPHandler) rateQuery(c *gin.Context) (domain.RateQuery, bool) {
	weight, err := optionalDecimal(c, "weight")
	if err != nil {
		h.badRequest(c, "invalid weight")
		return domain.RateQuery{}, false
	}
	total, err := optionalDecimal(c, "order_total")
	if err != nil {
		h.badRequest(c, "invalid order_total")
		return domain.RateQuery{}, false
	}
	return domain.RateQuery{Country: c.Query("country"), Weight: weight, OrderTotal: total}, true
}

// ListRates handles GET /shipping/rates?country=&weight=&order_total=
func (h *HTTPHandler) ListRates(c *gin.Context) {
	q, ok := h.rateQuery(c)
	if !ok {
		return
	}
	quotes, err := h.svc.Shipping.Quote(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]QuoteResponse, 0, len(quotes))
	for _, qt := range quotes {
		out = append(out, toQuoteResponse(qt))
	}
	c.JSON(http.StatusOK, gin.H{"rates": out})
}

// CalculateCost handles GET /shipping/methods/:id/cost. A method that cannot
// serve the destination yields 200 with available=false.
func (h *HTTPHandler) CalculateCost(c *gin.Context) {
	methodID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, "invalid method id")
		return
	}
	q, ok := h.rateQuery(c)
	if !ok {
		return
	}
	cost, found, err := h.svc.Shipping.CalculateCost(c.Request.Context(), methodID, q)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"method_id": methodID, "available": false})
		return
	}
	days, err := h.svc.Shipping.GetEstimatedDeliveryDays(c.Request.Context(), methodID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"method_id":      methodID,
		"available":      true,
		"cost":           money(cost),
		"estimated_days": days,
	})
}

type CreateZoneRequest struct {
	Name        string   `json:"name" binding:"required"`
	Countries   []string `json:"countries" binding:"required"`
	Description string   `json:"description"`
	Active      *bool    `json:"is_active"`
}

type CreateMethodRequest struct {
	Name                string `json:"name" binding:"required"`
	Description         string `json:"description"`
	Strategy            string `json:"calculation_type" binding:"required"`
	Active              *bool  `json:"is_active"`
	EstimatedDays       *int   `json:"estimated_days"`
	TrackingURLTemplate string `json:"tracking_url_template"`
}

type CreateRateRequest struct {
	MethodID       int64            `json:"shipping_method_id" binding:"required"`
	ZoneID         int64            `json:"shipping_zone_id" binding:"required"`
	BaseRate       decimal.Decimal  `json:"base_rate"`
	WeightRate     *decimal.Decimal `json:"weight_rate"`
	MinWeight      *decimal.Decimal `json:"min_weight"`
	MaxWeight      *decimal.Decimal `json:"max_weight"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount"`
	MaxOrderAmount *decimal.Decimal `json:"max_order_amount"`
}

func activeOrDefault(b *bool) bool {
	return b == nil || *b
}

func (h *HTTPHandler) CreateZone(c *gin.Context) {
	var req CreateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	zone, err := h.svc.RateAdmin.CreateZone(c.Request.Context(), service.CreateZoneInput{
		Name:        req.Name,
		Countries:   req.Countries,
		Description: req.Description,
		Active:      activeOrDefault(req.Active),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": zone.ID, "name": zone.Name, "countries": zone.Countries})
}

func (h *HTTPHandler) CreateMethod(c *gin.Context) {
	var req CreateMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	method, err := h.svc.RateAdmin.CreateMethod(c.Request.Context(), service.CreateMethodInput{
		Name:                req.Name,
		Description:         req.Description,
		Strategy:            req.Strategy,
		Active:              activeOrDefault(req.Active),
		EstimatedDays:       req.EstimatedDays,
		TrackingURLTemplate: req.TrackingURLTemplate,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": method.ID, "name": method.Name, "calculation_type": method.Strategy})
}

func (h *HTTPHandler) CreateRate(c *gin.Context) {
	var req CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	rate, err := h.svc.RateAdmin.CreateRate(c.Request.Context(), service.CreateRateInput{
		MethodID:       req.MethodID,
		ZoneID:         req.ZoneID,
		BaseRate:       req.BaseRate,
		WeightRate:     req.WeightRate,
		MinWeight:      req.MinWeight,
		MaxWeight:      req.MaxWeight,
		MinOrderAmount: req.MinOrderAmount,
		MaxOrderAmount: req.MaxOrderAmount,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": rate.ID, "shipping_method_id": rate.MethodID, "shipping_zone_id": rate.ZoneID})
}
