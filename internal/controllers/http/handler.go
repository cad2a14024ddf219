package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"keyshop/internal/apperr"
	"keyshop/internal/domain"
	"keyshop/internal/services"
	"keyshop/internal/store"
)

type Handler struct {
	store    store.Store
	orders   *services.OrderService
	reviews  *services.ReviewService
	catalog  *services.CatalogService
	accounts *services.AccountService
}

func NewHandler(st store.Store, orders *services.OrderService, reviews *services.ReviewService, catalog *services.CatalogService, accounts *services.AccountService) *Handler {
	return &Handler{
		store:    st,
		orders:   orders,
		reviews:  reviews,
		catalog:  catalog,
		accounts: accounts,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	auth := AuthRequired(h.store, h.accounts)
	admin := AdminOnly(h.store)

	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.GET("/products/:id/reviews", h.ListReviews)
	r.POST("/products", auth, admin, h.CreateProduct)
	r.DELETE("/products/:id", auth, admin, h.DeleteProduct)
	r.PUT("/products/:id/reviews/me", auth, h.UpsertReview)

	r.POST("/orders", auth, h.CreateOrder)
	r.GET("/orders", auth, admin, h.ListOrders)
	r.GET("/orders/me", auth, h.ListMyOrders)
	r.PATCH("/orders/:id/status", auth, admin, h.UpdateOrderStatus)

	r.PUT("/users/:id/budget", auth, admin, h.SetBudget)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.orders.CreateOrder(c.Request.Context(), c.GetString(ctxUserKey), req.Products)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) ListMyOrders(c *gin.Context) {
	orders, err := h.orders.ListOrdersByUser(c.Request.Context(), c.GetString(ctxUserKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) UpsertReview(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	review, err := h.reviews.UpsertReview(c.Request.Context(), c.Param("id"), c.GetString(ctxUserKey), req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *Handler) ListReviews(c *gin.Context) {
	reviews, err := h.reviews.ListReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req services.CreateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SetBudget(c *gin.Context) {
	var req SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.accounts.SetBudget(c.Request.Context(), c.Param("id"), req.Budget)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func respondError(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": ae.Message, "kind": ae.Kind}
	if ae.Details != nil {
		body["details"] = ae.Details
	}
	c.JSON(statusFor(ae.Kind), body)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
