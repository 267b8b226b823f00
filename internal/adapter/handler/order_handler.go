package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type CheckoutRequest struct {
	RequestID        string          `json:"request_id"`
	CartID           string          `json:"cart_id" binding:"required"`
	Email            string          `json:"email" binding:"required,email"`
	Country          string          `json:"country" binding:"required,len=2"`
	ShippingMethodID int64           `json:"shipping_method_id" binding:"required"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
}

type OrderItemResponse struct {
	ProductID   string `json:"product_id,omitempty"`
	VariantID   string `json:"variant_id,omitempty"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

type OrderResponse struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	Email            string              `json:"email"`
	Currency         string              `json:"currency"`
	ExchangeRate     string              `json:"exchange_rate"`
	Items            []OrderItemResponse `json:"items"`
	ShippingMethodID int64               `json:"shipping_method_id"`
	ShippingCountry  string              `json:"shipping_country"`
	Subtotal         string              `json:"subtotal"`
	Discount         string              `json:"discount"`
	Tax              string              `json:"tax"`
	Shipping         string              `json:"shipping"`
	Total            string              `json:"total"`
	DiscountCode     string              `json:"discount_code,omitempty"`
	PaymentReference string              `json:"payment_reference,omitempty"`
	TrackingNumber   string              `json:"tracking_number,omitempty"`
	TrackingURL      string              `json:"tracking_url,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID,
		Status:           string(o.Status),
		Email:            o.Email,
		Currency:         o.Currency,
		ExchangeRate:     o.ExchangeRate.String(),
		Items:            make([]OrderItemResponse, 0, len(o.Items)),
		ShippingMethodID: o.ShippingMethodID,
		ShippingCountry:  o.ShippingCountry,
		Subtotal:         money(o.Totals.Subtotal),
		Discount:         money(o.Totals.Discount),
		Tax:              money(o.Totals.Tax),
		Shipping:         money(o.Totals.Shipping),
		Total:            money(o.Totals.Total),
		DiscountCode:     o.DiscountCode,
		PaymentReference: o.PaymentReference,
		TrackingNumber:   o.TrackingNumber,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			VariantName: it.VariantName,
			Quantity:    it.Quantity,
			UnitPrice:   money(it.UnitPrice),
			Total:       money(it.Total()),
		})
	}
	return resp
}

func (h *HTTPHandler) orderResponse(c *gin.Context, o *domain.Order) OrderResponse {
	resp := toOrderResponse(o)
	if o.TrackingNumber != "" {
		if url, err := h.svc.Shipping.TrackingURL(c.Request.Context(), o.ShippingMethodID, o.TrackingNumber); err == nil {
			resp.TrackingURL = url
		}
	}
	return resp
}

// Checkout handles POST /checkout. The request id may also arrive in the
// Idempotency-Key header.
func (h *HTTPHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if req.RequestID == "" {
		req.RequestID = c.GetHeader("Idempotency-Key")
	}
	if req.RequestID == "" {
		h.badRequest(c, "request_id is required")
		return
	}

	order, err := h.svc.Orders.Checkout(c.Request.Context(), service.CheckoutRequest{
		RequestID:        req.RequestID,
		CartID:           req.CartID,
		Email:            req.Email,
		Country:          req.Country,
		ShippingMethodID: req.ShippingMethodID,
		ExchangeRate:     req.ExchangeRate,
	})
	if errors.Is(err, domain.ErrPaymentFailed) && order != nil {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "order": toOrderResponse(order)})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *HTTPHandler) GetOrder(c *gin.Context) {
	order, err := h.svc.Orders.GetOrder(c.Request.Context(), c.Param("id"), c.GetHeader(userHeader))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orderResponse(c, order))
}

func (h *HTTPHandler) ListOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListOrders(c.Request.Context(), c.GetHeader(userHeader))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

func (h *HTTPHandler) CancelOrder(c *gin.Context) {
	order, err := h.svc.Orders.CancelOrder(c.Request.Context(), c.Param("id"), c.GetHeader(userHeader))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

type TransitionRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"tracking_number"`
}

func (h *HTTPHandler) TransitionOrder(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	order, err := h.svc.Orders.AdminTransition(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status), req.TrackingNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orderResponse(c, order))
}
