package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/logger/sl"
	"github.com/rl1809/storefront/internal/metric"
)

const userHeader = "X-User-ID"

type Services struct {
	Shipping  *service.ShippingService
	RateAdmin *service.RateAdminService
	Carts     *service.CartService
	Discounts *service.DiscountService
	Orders    *service.OrderService
	Addresses *service.AddressService
}

type HTTPHandler struct {
	svc    Services
	logger *slog.Logger
}

func NewHTTPHandler(svc Services, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrDuplicateRate),
		errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case domain.IsDomainRule(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *HTTPHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()), sl.Err(err), sl.Traced(c.Request.Context()))
		c.JSON(status, errorResponse{Error: "internal error"})
		return
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

func (h *HTTPHandler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metric.ObserveRequest(time.Since(start), c.Writer.Status())
	}
}

func money(d decimal.Decimal) string {
	return domain.RoundMoney(d).StringFixed(2)
}

// optionalDecimal parses a query parameter that may be absent.
func optionalDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
