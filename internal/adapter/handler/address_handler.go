package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/storefront/internal/core/domain"
)

type AddressRequest struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Company    string `json:"company"`
	Line1      string `json:"address_line1" binding:"required"`
	Line2      string `json:"address_line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	Country    string `json:"country" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"is_default"`
}

type AddressResponse struct {
	ID string `json:"id"`
	AddressRequest
}

func toAddressResponse(a domain.Address) AddressResponse {
	return AddressResponse{ID: a.ID, AddressRequest: AddressRequest{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Company:    a.Company,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		Country:    a.Country,
		PostalCode: a.PostalCode,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
	}}
}

// requireUser aborts with 401 when the caller is anonymous.
func requireUser(c *gin.Context) (string, bool) {
	userID := c.GetHeader(userHeader)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "user required"})
		return "", false
	}
	return userID, true
}

func (h *HTTPHandler) ListAddresses(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.svc.Addresses.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]AddressResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAddressResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"addresses": out})
}

func (h *HTTPHandler) AddAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	addr, err := h.svc.Addresses.Add(c.Request.Context(), domain.Address{
		UserID:     userID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Company:    req.Company,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		State:      req.State,
		Country:    req.Country,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAddressResponse(addr))
}

func (h *HTTPHandler) SetDefaultAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.svc.Addresses.SetDefault(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) DeleteAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.svc.Addresses.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
