package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/storefront/internal/core/service"
)

type CartLineResponse struct {
	ItemID      string `json:"item_id"`
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id,omitempty"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type CartResponse struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id,omitempty"`
	SessionKey   string             `json:"session_key,omitempty"`
	Currency     string             `json:"currency"`
	DiscountCode string             `json:"discount_code,omitempty"`
	Items        []CartLineResponse `json:"items"`
	ItemCount    int                `json:"item_count"`
	Subtotal     string             `json:"subtotal"`
}

func toCartResponse(s *service.CartSummary) CartResponse {
	resp := CartResponse{
		ID:           s.Cart.ID,
		UserID:       s.Cart.Owner.UserID,
		SessionKey:   s.Cart.Owner.SessionKey,
		Currency:     s.Cart.Currency,
		DiscountCode: s.Cart.DiscountCode,
		Items:        make([]CartLineResponse, 0, len(s.Lines)),
		ItemCount:    s.ItemCount,
		Subtotal:     money(s.Subtotal),
	}
	for _, l := range s.Lines {
		resp.Items = append(resp.Items, CartLineResponse{
			ItemID:      l.Item.ID,
			ProductID:   l.Item.ProductID,
			VariantID:   l.Item.VariantID,
			ProductName: l.ProductName,
			VariantName: l.VariantName,
			Quantity:    l.Item.Quantity,
			UnitPrice:   money(l.UnitPrice),
			LineTotal:   money(l.LineTotal),
		})
	}
	return resp
}

type OpenCartRequest struct {
	UserID     string `json:"user_id"`
	SessionKey string `json:"session_key"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type ApplyDiscountRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *HTTPHandler) writeCart(c *gin.Context, status int, cartID string) {
	summary, err := h.svc.Carts.Summary(c.Request.Context(), cartID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, toCartResponse(summary))
}

// OpenCart returns the caller's cart, creating it when needed.
func (h *HTTPHandler) OpenCart(c *gin.Context) {
	var req OpenCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = c.GetHeader(userHeader)
	}
	cart, err := h.svc.Carts.GetOrCreate(c.Request.Context(), req.UserID, req.SessionKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart.ID)
}

func (h *HTTPHandler) GetCart(c *gin.Context) {
	h.writeCart(c, http.StatusOK, c.Param("id"))
}

func (h *HTTPHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if _, err := h.svc.Carts.AddItem(c.Request.Context(), c.Param("id"), req.ProductID, req.VariantID, req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	h.writeCart(c, http.StatusOK, c.Param("id"))
}

func (h *HTTPHandler) UpdateItem(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if err := h.svc.Carts.UpdateQuantity(c.Request.Context(), c.Param("id"), c.Param("item_id"), req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	h.writeCart(c, http.StatusOK, c.Param("id"))
}

func (h *HTTPHandler) RemoveItem(c *gin.Context) {
	if err := h.svc.Carts.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("item_id")); err != nil {
		h.fail(c, err)
		return
	}
	h.writeCart(c, http.StatusOK, c.Param("id"))
}

func (h *HTTPHandler) ClearCart(c *gin.Context) {
	if err := h.svc.Carts.Clear(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.writeCart(c, http.StatusOK, c.Param("id"))
}

func (h *HTTPHandler) ApplyDiscount(c *gin.Context) {
	var req ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if _, err := h.svc.Discounts.ApplyToCart(c.Request.Context(), c.Param("id"), req.Code); err != nil {
		h.fail(c, err)
		return
	}
	h.writeCart(c, http.StatusOK, c.Param("id"))
}

func (h *HTTPHandler) RemoveDiscount(c *gin.Context) {
	if err := h.svc.Discounts.RemoveFromCart(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.writeCart(c, http.StatusOK, c.Param("id"))
}
