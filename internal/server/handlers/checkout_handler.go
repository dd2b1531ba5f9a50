package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
	"github.com/mamadbah2/swiftcheckout/internal/service/checkout"
)

// CheckoutService is the billing workflow the handler drives.
type CheckoutService interface {
	View(registerID string) (checkout.BillView, error)
	AddItem(ctx context.Context, registerID string, in checkout.AddItemInput) (checkout.BillView, error)
	AddByName(ctx context.Context, registerID, name string, quantity int) (checkout.BillView, error)
	AddByImage(ctx context.Context, registerID string, image models.Media, quantity int) (checkout.BillView, error)
	AddByVoice(ctx context.Context, registerID string, audio models.Media) (checkout.VoiceResult, error)
	RemoveItem(registerID, itemID string) (checkout.BillView, error)
	SetQuantity(registerID, itemID string, quantity int) (checkout.BillView, error)
	ApplyDiscount(registerID string, percentage float64) (checkout.BillView, error)
	ApplyTax(registerID string, percentage float64) (checkout.BillView, error)
	ChangeCurrency(ctx context.Context, registerID, code string) (checkout.BillView, error)
	Suggestions(ctx context.Context, registerID string) ([]string, error)
	Finalize(ctx context.Context, registerID string) (checkout.BillView, error)
	Cancel(registerID string) (checkout.BillView, error)
	Pay(ctx context.Context, registerID, method string) (checkout.PaymentResult, error)
}

// CheckoutHandler exposes the registers over HTTP.
type CheckoutHandler struct {
	svc    CheckoutService
	logger *zap.Logger
}

// NewCheckoutHandler constructs the HTTP handler adapter.
func NewCheckoutHandler(svc CheckoutService, logger *zap.Logger) *CheckoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutHandler{svc: svc, logger: logger}
}

type addItemRequest struct {
	Name          string  `json:"name" binding:"required"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	OriginalPrice float64 `json:"original_price"`
}

type lookupRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity"`
}

type scanRequest struct {
	ImageDataURI string `json:"image_data_uri" binding:"required"`
	Quantity     int    `json:"quantity"`
}

type voiceRequest struct {
	AudioDataURI string `json:"audio_data_uri" binding:"required"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type percentageRequest struct {
	Percentage *float64 `json:"percentage" binding:"required"`
}

type currencyRequest struct {
	Code string `json:"code" binding:"required"`
}

type paymentRequest struct {
	Method string `json:"method" binding:"required"`
}

// Currencies lists the supported working currencies.
func (h *CheckoutHandler) Currencies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"currencies": models.SupportedCurrencies})
}

// View returns the open bill of the register.
func (h *CheckoutHandler) View(c *gin.Context) {
	h.respond(c, http.StatusOK)(h.svc.View(c.Param("register")))
}

// AddItem adds a manually priced line.
func (h *CheckoutHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	h.respond(c, http.StatusCreated)(h.svc.AddItem(c.Request.Context(), c.Param("register"), checkout.AddItemInput{
		Name:          req.Name,
		Price:         req.Price,
		Quantity:      req.Quantity,
		OriginalPrice: req.OriginalPrice,
	}))
}

// Lookup prices a product by name and adds it.
func (h *CheckoutHandler) Lookup(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	h.respond(c, http.StatusCreated)(h.svc.AddByName(c.Request.Context(), c.Param("register"), req.Name, req.Quantity))
}

// Scan identifies a product from a photo and adds it.
func (h *CheckoutHandler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	image, err := models.ParseDataURI(req.ImageDataURI)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respond(c, http.StatusCreated)(h.svc.AddByImage(c.Request.Context(), c.Param("register"), image, req.Quantity))
}

// Voice adds the products of a spoken order.
func (h *CheckoutHandler) Voice(c *gin.Context) {
	var req voiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	audio, err := models.ParseDataURI(req.AudioDataURI)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.svc.AddByVoice(c.Request.Context(), c.Param("register"), audio)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateQuantity sets the quantity of a line; zero removes it.
func (h *CheckoutHandler) UpdateQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	h.respond(c, http.StatusOK)(h.svc.SetQuantity(c.Param("register"), c.Param("item"), *req.Quantity))
}

// RemoveItem drops a line.
func (h *CheckoutHandler) RemoveItem(c *gin.Context) {
	h.respond(c, http.StatusOK)(h.svc.RemoveItem(c.Param("register"), c.Param("item")))
}

// Discount sets the discount percentage.
func (h *CheckoutHandler) Discount(c *gin.Context) {
	var req percentageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	h.respond(c, http.StatusOK)(h.svc.ApplyDiscount(c.Param("register"), *req.Percentage))
}

// Tax sets the tax percentage.
func (h *CheckoutHandler) Tax(c *gin.Context) {
	var req percentageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	h.respond(c, http.StatusOK)(h.svc.ApplyTax(c.Param("register"), *req.Percentage))
}

// Currency switches the bill currency, repricing every line.
func (h *CheckoutHandler) Currency(c *gin.Context) {
	var req currencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	h.respond(c, http.StatusOK)(h.svc.ChangeCurrency(c.Request.Context(), c.Param("register"), req.Code))
}

// Suggestions returns cross-sell suggestions for the cart.
func (h *CheckoutHandler) Suggestions(c *gin.Context) {
	suggestions, err := h.svc.Suggestions(c.Request.Context(), c.Param("register"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// Finalize locks the bill for payment.
func (h *CheckoutHandler) Finalize(c *gin.Context) {
	h.respond(c, http.StatusOK)(h.svc.Finalize(c.Request.Context(), c.Param("register")))
}

// Cancel reopens a finalized bill.
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	h.respond(c, http.StatusOK)(h.svc.Cancel(c.Param("register")))
}

// Pay confirms the payment of a finalized bill.
func (h *CheckoutHandler) Pay(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	result, err := h.svc.Pay(c.Request.Context(), c.Param("register"), req.Method)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CheckoutHandler) respond(c *gin.Context, status int) func(checkout.BillView, error) {
	return func(view checkout.BillView, err error) {
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(status, view)
	}
}
