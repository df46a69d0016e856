package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

type GRPCHandler struct {
	catalog     *service.CatalogService
	cart        *service.CartService
	checkout    *service.CheckoutService
	idempotency port.IdempotencyStore
	log         *zap.Logger
}

func NewGRPCHandler(catalog *service.CatalogService, cart *service.CartService, checkout *service.CheckoutService, idem port.IdempotencyStore, log *zap.Logger) *GRPCHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &GRPCHandler{catalog: catalog, cart: cart, checkout: checkout, idempotency: idem, log: log}
}

// NewGRPCServer registers the storefront and health services on a new server.
func NewGRPCServer(h *GRPCHandler, log *zap.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(loggingInterceptor(log)))
	srv := grpc.NewServer(opts...)
	RegisterStorefrontServer(srv, h)

	hs := health.NewServer()
	hs.SetServingStatus(storefrontServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs
}

func (h *GRPCHandler) GetCart(ctx context.Context, req *GetCartRequest) (*CartReply, error) {
	return &CartReply{Success: true, Cart: h.cart.Snapshot()}, nil
}

func (h *GRPCHandler) AddItem(ctx context.Context, req *AddItemRequest) (*CartReply, error) {
	p, err := h.catalog.GetProduct(ctx, req.ProductID)
	if errors.Is(err, service.ErrProductNotFound) {
		return nil, status.Error(codes.NotFound, "product not found")
	}
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	cart, err := h.cart.AddItem(ctx, p, req.Quantity)
	return cartReply(cart, err), nil
}

func (h *GRPCHandler) UpdateQuantity(ctx context.Context, req *UpdateQuantityRequest) (*CartReply, error) {
	cart, err := h.cart.UpdateQuantity(ctx, req.ProductID, req.Quantity)
	if errors.Is(err, service.ErrLineNotFound) {
		return nil, status.Error(codes.NotFound, "product not in cart")
	}
	return cartReply(cart, err), nil
}

func cartReply(cart domain.Cart, err error) *CartReply {
	if err != nil {
		return &CartReply{Success: false, Message: err.Error(), Cart: cart}
	}
	return &CartReply{Success: true, Cart: cart}
}

func (h *GRPCHandler) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutReply, error) {
	key := req.IdempotencyKey
	if key != "" && h.idempotency != nil {
		ok, err := h.idempotency.SetIdempotency(ctx, "checkout:"+key)
		if err != nil {
			return nil, status.Error(codes.Unavailable, "idempotency check failed")
		}
		if !ok {
			return nil, status.Error(codes.AlreadyExists, "duplicate request")
		}
	}

	conf, err := h.checkout.Checkout(ctx, req.Form)
	if err == nil {
		return &CheckoutReply{Success: true, OrderID: conf.OrderID, Total: conf.Total}, nil
	}

	if key != "" && h.idempotency != nil {
		if relErr := h.idempotency.ReleaseIdempotency(context.WithoutCancel(ctx), "checkout:"+key); relErr != nil {
			h.log.Warn("release idempotency key", zap.String("key", key), zap.Error(relErr))
		}
	}

	var (
		vErr   *domain.ValidationError
		payErr *service.PaymentError
	)
	switch {
	case errors.As(err, &vErr):
		return &CheckoutReply{Code: domain.CodeValidation, Message: "invalid checkout form", Fields: vErr.Fields}, nil
	case errors.As(err, &payErr):
		return &CheckoutReply{Code: payErr.Code, Message: payErr.Message}, nil
	case errors.Is(err, service.ErrEmptyCart):
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrCheckoutInProgress):
		return nil, status.Error(codes.Aborted, err.Error())
	default:
		return nil, status.Error(codes.Internal, "internal error")
	}
}

func loggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}
