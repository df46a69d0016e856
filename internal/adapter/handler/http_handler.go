package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/idempotency"
	"github.com/rl1809/storefront/pkg/metrics"
)

const successPath = "/checkout/success"

type HTTPHandler struct {
	catalog       *service.CatalogService
	cart          *service.CartService
	checkout      *service.CheckoutService
	notifications *service.NotificationCenter

	idempotency port.IdempotencyStore
	metrics     *metrics.ServerMetrics
	exposer     http.Handler
	log         *zap.Logger
}

type HTTPOption func(*HTTPHandler)

// WithIdempotency makes POST /api/checkout honour the Idempotency-Key header.
func WithIdempotency(store port.IdempotencyStore) HTTPOption {
	return func(h *HTTPHandler) { h.idempotency = store }
}

// WithMetrics records request metrics and serves exposer on /metrics.
func WithMetrics(m *metrics.ServerMetrics, exposer http.Handler) HTTPOption {
	return func(h *HTTPHandler) {
		h.metrics = m
		h.exposer = exposer
	}
}

func WithHTTPLogger(log *zap.Logger) HTTPOption {
	return func(h *HTTPHandler) { h.log = log }
}

func NewHTTPHandler(
	catalog *service.CatalogService,
	cart *service.CartService,
	checkout *service.CheckoutService,
	notifications *service.NotificationCenter,
	opts ...HTTPOption,
) *HTTPHandler {
	h := &HTTPHandler{
		catalog:       catalog,
		cart:          cart,
		checkout:      checkout,
		notifications: notifications,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type errorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    domain.ErrorCode    `json:"code,omitempty"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
	Cart    *domain.Cart        `json:"cart,omitempty"`
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  *int  `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type refundRequest struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
}

type checkoutResponse struct {
	Success  bool            `json:"success"`
	OrderID  string          `json:"orderId"`
	Total    decimal.Decimal `json:"total"`
	Redirect string          `json:"redirect"`
}

func (h *HTTPHandler) Routes() http.Handler {
	r := mux.NewRouter()
	if h.metrics != nil {
		r.Use(h.instrument)
	}

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	if h.exposer != nil {
		r.Handle("/metrics", h.exposer).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/featured", h.FeaturedProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", h.GetProduct).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)
	api.HandleFunc("/payment-methods", h.PaymentMethods).Methods(http.MethodGet)

	api.HandleFunc("/cart", h.GetCart).Methods(http.MethodGet)
	api.HandleFunc("/cart", h.ClearCart).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", h.AddItem).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{id:[0-9]+}", h.UpdateQuantity).Methods(http.MethodPut)
	api.HandleFunc("/cart/items/{id:[0-9]+}", h.RemoveItem).Methods(http.MethodDelete)

	api.HandleFunc("/checkout", h.Checkout).Methods(http.MethodPost)
	api.HandleFunc("/refunds", h.Refund).Methods(http.MethodPost)

	api.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}", h.DismissNotification).Methods(http.MethodDelete)

	r.HandleFunc(successPath, h.CheckoutSuccess).Methods(http.MethodGet)

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := r.URL.Query().Get("category")
	query := r.URL.Query().Get("q")

	var (
		products []domain.Product
		err      error
	)
	switch {
	case query != "":
		products, err = h.catalog.Search(ctx, query)
	case category != "":
		products, err = h.catalog.ProductsByCategory(ctx, category)
	default:
		products, err = h.catalog.ListProducts(ctx)
	}
	if err != nil {
		h.internalError(w, "list products", err)
		return
	}

	if query != "" && category != "" {
		filtered := make([]domain.Product, 0, len(products))
		for _, p := range products {
			if p.Category == category {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Featured(r.Context())
	if err != nil {
		h.internalError(w, "featured products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	p, err := h.catalog.GetProduct(r.Context(), id)
	if errors.Is(err, service.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.internalError(w, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.internalError(w, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *HTTPHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	out := make([]domain.PaymentMethodInfo, 0, len(domain.PaymentMethods))
	for _, m := range domain.PaymentMethods {
		if info, ok := m.Info(); ok {
			out = append(out, info)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cart.Snapshot())
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	p, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if errors.Is(err, service.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.internalError(w, "get product", err)
		return
	}

	cart, err := h.cart.AddItem(r.Context(), p, quantity)
	h.writeCart(w, cart, err)
}

func (h *HTTPHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.cart.UpdateQuantity(r.Context(), id, req.Quantity)
	h.writeCart(w, cart, err)
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	writeJSON(w, http.StatusOK, h.cart.RemoveItem(r.Context(), id))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cart.Clear(r.Context()))
}

func (h *HTTPHandler) writeCart(w http.ResponseWriter, cart domain.Cart, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, cart)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrStockExceeded):
		status = http.StatusConflict
	case errors.Is(err, service.ErrLineNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorResponse{Message: err.Error(), Cart: &cart})
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var form domain.CheckoutForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := idempotency.Key(r)
	if key != "" && h.idempotency != nil {
		ok, err := h.idempotency.SetIdempotency(r.Context(), "checkout:"+key)
		if err != nil {
			h.internalError(w, "idempotency check", err)
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, "duplicate request")
			return
		}
	}

	conf, err := h.checkout.Checkout(r.Context(), form)
	if err != nil {
		if key != "" && h.idempotency != nil {
			// A failed attempt must stay retryable under the same key.
			if relErr := h.idempotency.ReleaseIdempotency(context.WithoutCancel(r.Context()), "checkout:"+key); relErr != nil {
				h.log.Warn("release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}
		writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		Success:  true,
		OrderID:  conf.OrderID,
		Total:    conf.Total,
		Redirect: successPath + "?" + conf.QueryParams().Encode(),
	})
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	var (
		vErr   *domain.ValidationError
		payErr *service.PaymentError
	)
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "Por favor complete todos los campos requeridos",
			Code:    domain.CodeValidation,
			Fields:  vErr.Fields,
		})
	case errors.As(err, &payErr):
		writeJSON(w, http.StatusPaymentRequired, errorResponse{Message: payErr.Message, Code: payErr.Code})
	case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrInvalidRefund):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCheckoutInProgress):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *HTTPHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.checkout.Refund(r.Context(), req.TransactionID, req.Amount)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notifications.List())
}

func (h *HTTPHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	if !h.notifications.Dismiss(mux.Vars(r)["id"]) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckoutSuccess confirms a completed checkout. Visitors arriving without a
// valid order are sent back to the storefront.
func (h *HTTPHandler) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	conf, err := domain.ParseConfirmation(q.Get("orderId"), q.Get("total"))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *HTTPHandler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		h.metrics.Requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		h.metrics.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
