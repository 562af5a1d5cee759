package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ec-kata/checkout/internal/core/domain"
	"github.com/ec-kata/checkout/internal/core/service"
)

// HTTPHandler is a thin JSON adapter over the services. Authentication is an
// external concern; the gateway in front of this process resolves the session
// and forwards the user id in the X-User-ID header.
type HTTPHandler struct {
	carts  *service.CartService
	orders *service.OrderService
}

func NewHTTPHandler(carts *service.CartService, orders *service.OrderService) *HTTPHandler {
	return &HTTPHandler{carts: carts, orders: orders}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PUT /api/cart/items/{itemID}", h.UpdateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{itemID}", h.RemoveCartItem)
	mux.HandleFunc("DELETE /api/cart", h.ClearCart)

	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{orderID}", h.GetOrder)
	mux.HandleFunc("DELETE /api/orders/{orderID}", h.CancelOrder)
	mux.HandleFunc("PUT /api/orders/{orderID}/status", h.UpdateOrderStatus)
}

type itemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	RequestID string        `json:"request_id"`
	Items     []itemRequest `json:"items"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type cartItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
}

type orderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Subtotal  string `json:"subtotal"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount"`
	Items       []orderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(*cart))
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cart, err := h.carts.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(*cart))
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cart, err := h.carts.UpdateItem(r.Context(), userID, r.PathValue("itemID"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(*cart))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), userID, r.PathValue("itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(*cart))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.Clear(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(*cart))
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	items := make([]service.ItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	order, err := h.orders.PlaceOrder(r.Context(), req.RequestID, userID, items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(*order))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, order := range orders {
		resp[i] = toOrderResponse(order)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := userFrom(w, r); !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := userFrom(w, r); !ok {
		return
	}

	order, err := h.orders.CancelOrder(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := userFrom(w, r); !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), r.PathValue("orderID"), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func userFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user identity"})
		return "", false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidStateTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrBusinessRule):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrDuplicateRequest):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func toCartResponse(cart domain.Cart) cartResponse {
	items := make([]cartItemResponse, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = cartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity.Int(),
		}
	}
	return cartResponse{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     items,
		ItemCount: cart.ItemCount(),
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity.Int(),
			Price:     item.Price.StringFixed(2),
			Subtotal:  item.Subtotal().StringFixed(2),
		}
	}
	return orderResponse{
		ID:          order.ID,
		UserID:      order.UserID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount.StringFixed(2),
		Items:       items,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}
