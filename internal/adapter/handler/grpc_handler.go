package handler

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const shippingServiceName = "storefront.shipping.v1.ShippingService"

type FindRatesRequest struct {
	Country    string `json:"country"`
	Weight     string `json:"weight,omitempty"`
	OrderTotal string `json:"order_total,omitempty"`
}

type FindRatesResponse struct {
	Rates []QuoteResponse `json:"rates"`
}

type CalculateCostRequest struct {
	MethodID   int64  `json:"method_id"`
	Country    string `json:"country"`
	Weight     string `json:"weight,omitempty"`
	OrderTotal string `json:"order_total,omitempty"`
}

type CalculateCostResponse struct {
	Available     bool   `json:"available"`
	Cost          string `json:"cost,omitempty"`
	EstimatedDays *int   `json:"estimated_days,omitempty"`
}

type ShippingServer interface {
	FindRates(context.Context, *FindRatesRequest) (*FindRatesResponse, error)
	CalculateCost(context.Context, *CalculateCostRequest) (*CalculateCostResponse, error)
}

type GRPCHandler struct {
	shipping *service.ShippingService
}

func NewGRPCHandler(shipping *service.ShippingService) *GRPCHandler {
	return &GRPCHandler{shipping: shipping}
}

func RegisterShippingServer(s grpc.ServiceRegistrar, srv ShippingServer) {
	s.RegisterService(&ShippingServiceDesc, srv)
}

func parseOptional(raw, field string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s", field)
	}
	return &d, nil
}

func buildQuery(country, weight, orderTotal string) (domain.RateQuery, error) {
	w, err := parseOptional(weight, "weight")
	if err != nil {
		return domain.RateQuery{}, err
	}
	t, err := parseOptional(orderTotal, "order_total")
	if err != nil {
		return domain.RateQuery{}, err
	}
	return domain.RateQuery{Country: country, Weight: w, OrderTotal: t}, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

func (h *GRPCHandler) FindRates(ctx context.Context, req *FindRatesRequest) (*FindRatesResponse, error) {
	q, err := buildQuery(req.Country, req.Weight, req.OrderTotal)
	if err != nil {
		return nil, err
	}
	quotes, err := h.shipping.Quote(ctx, q)
	if err != nil {
		return nil, grpcError(err)
	}
	resp := &FindRatesResponse{Rates: make([]QuoteResponse, 0, len(quotes))}
	for _, qt := range quotes {
		resp.Rates = append(resp.Rates, toQuoteResponse(qt))
	}
	return resp, nil
}

func (h *GRPCHandler) CalculateCost(ctx context.Context, req *CalculateCostRequest) (*CalculateCostResponse, error) {
	q, err := buildQuery(req.Country, req.Weight, req.OrderTotal)
	if err != nil {
		return nil, err
	}
	cost, ok, err := h.shipping.CalculateCost(ctx, req.MethodID, q)
	if err != nil {
		return nil, grpcError(err)
	}
	if !ok {
		return &CalculateCostResponse{Available: false}, nil
	}
	days, err := h.shipping.GetEstimatedDeliveryDays(ctx, req.MethodID)
	if err != nil {
		return nil, grpcError(err)
	}
	return &CalculateCostResponse{Available: true, Cost: money(cost), EstimatedDays: days}, nil
}

func findRatesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FindRatesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShippingServer).FindRates(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + shippingServiceName + "/FindRates"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShippingServer).FindRates(ctx, req.(*FindRatesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func calculateCostHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CalculateCostRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShippingServer).CalculateCost(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + shippingServiceName + "/CalculateCost"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShippingServer).CalculateCost(ctx, req.(*CalculateCostRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ShippingServiceDesc is written out by hand; messages travel as JSON.
var ShippingServiceDesc = grpc.ServiceDesc{
	ServiceName: shippingServiceName,
	HandlerType: (*ShippingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FindRates", Handler: findRatesHandler},
		{MethodName: "CalculateCost", Handler: calculateCostHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/shipping/v1/shipping.proto",
}

// ShippingClient calls the shipping service over a JSON-coded connection.
type ShippingClient struct {
	cc grpc.ClientConnInterface
}

func NewShippingClient(cc grpc.ClientConnInterface) *ShippingClient {
	return &ShippingClient{cc: cc}
}

func (c *ShippingClient) FindRates(ctx context.Context, in *FindRatesRequest, opts ...grpc.CallOption) (*FindRatesResponse, error) {
	out := new(FindRatesResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+shippingServiceName+"/FindRates", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ShippingClient) CalculateCost(ctx context.Context, in *CalculateCostRequest, opts ...grpc.CallOption) (*CalculateCostResponse, error) {
	out := new(CalculateCostResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+shippingServiceName+"/CalculateCost", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
