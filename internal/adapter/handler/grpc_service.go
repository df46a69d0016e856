package handler

import (
	"context"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"

	"github.com/rl1809/storefront/internal/core/domain"
)

const storefrontServiceName = "storefront.v1.Storefront"

type GetCartRequest struct{}

type AddItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type CartReply struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Cart    domain.Cart `json:"cart"`
}

type CheckoutRequest struct {
	Form           domain.CheckoutForm `json:"form"`
	IdempotencyKey string              `json:"idempotencyKey,omitempty"`
}

type CheckoutReply struct {
	Success bool                `json:"success"`
	OrderID string              `json:"orderId,omitempty"`
	Total   decimal.Decimal     `json:"total"`
	Code    domain.ErrorCode    `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

type StorefrontServer interface {
	GetCart(context.Context, *GetCartRequest) (*CartReply, error)
	AddItem(context.Context, *AddItemRequest) (*CartReply, error)
	UpdateQuantity(context.Context, *UpdateQuantityRequest) (*CartReply, error)
	Checkout(context.Context, *CheckoutRequest) (*CheckoutReply, error)
}

func unary[Req, Resp any](method string, call func(StorefrontServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + storefrontServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(StorefrontServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(StorefrontServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var StorefrontServiceDesc = grpc.ServiceDesc{
	ServiceName: storefrontServiceName,
	HandlerType: (*StorefrontServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetCart", StorefrontServer.GetCart),
		unary("AddItem", StorefrontServer.AddItem),
		unary("UpdateQuantity", StorefrontServer.UpdateQuantity),
		unary("Checkout", StorefrontServer.Checkout),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/storefront",
}

func RegisterStorefrontServer(s grpc.ServiceRegistrar, srv StorefrontServer) {
	s.RegisterService(&StorefrontServiceDesc, srv)
}

// StorefrontClient calls the storefront service using the JSON codec.
type StorefrontClient struct {
	cc grpc.ClientConnInterface
}

func NewStorefrontClient(cc grpc.ClientConnInterface) *StorefrontClient {
	return &StorefrontClient{cc: cc}
}

func (c *StorefrontClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+storefrontServiceName+"/"+method, in, out, opts...)
}

func (c *StorefrontClient) GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*CartReply, error) {
	out := new(CartReply)
	if err := c.invoke(ctx, "GetCart", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StorefrontClient) AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*CartReply, error) {
	out := new(CartReply)
	if err := c.invoke(ctx, "AddItem", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StorefrontClient) UpdateQuantity(ctx context.Context, in *UpdateQuantityRequest, opts ...grpc.CallOption) (*CartReply, error) {
	out := new(CartReply)
	if err := c.invoke(ctx, "UpdateQuantity", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StorefrontClient) Checkout(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*CheckoutReply, error) {
	out := new(CheckoutReply)
	if err := c.invoke(ctx, "Checkout", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
