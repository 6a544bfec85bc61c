package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"power_ledger/internal/model"
	"power_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles adjudication and platform configuration
type AdminHandler struct {
	wallet  service.WalletService
	catalog service.CatalogService
	gifts   service.GiftService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(wallet service.WalletService, catalog service.CatalogService, gifts service.GiftService) *AdminHandler {
	return &AdminHandler{wallet: wallet, catalog: catalog, gifts: gifts}
}

// --- Transactions ---

func (h *AdminHandler) ListTransactions(c *gin.Context) {
	var filters model.TransactionFilters
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		uid, err := strconv.Atoi(userIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id format"})
			return
		}
		filters.UserID = &uid
	}
	if typeParam := c.Query("type"); typeParam != "" {
		filters.Type = &typeParam
	}
	if statusParam := c.Query("status"); statusParam != "" {
		filters.Status = &statusParam
	}

	transactions, err := h.wallet.ListTransactions(c.Request.Context(), filters)
	if err != nil {
		log.Printf("Error getting transactions for admin: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transactions"})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

type adjudicate func(c *gin.Context, transactionID int64) (*model.Transaction, error)

func (h *AdminHandler) adjudicateTransaction(c *gin.Context, fn adjudicate) {
	transactionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	t, err := fn(c, transactionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("Error adjudicating transaction %d: %v", transactionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update transaction"})
		}
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *AdminHandler) ConfirmRecharge(c *gin.Context) {
	h.adjudicateTransaction(c, func(c *gin.Context, id int64) (*model.Transaction, error) {
		return h.wallet.ConfirmRecharge(c.Request.Context(), id)
	})
}

func (h *AdminHandler) RejectRecharge(c *gin.Context) {
	h.adjudicateTransaction(c, func(c *gin.Context, id int64) (*model.Transaction, error) {
		return h.wallet.RejectRecharge(c.Request.Context(), id)
	})
}

func (h *AdminHandler) ApproveWithdraw(c *gin.Context) {
	h.adjudicateTransaction(c, func(c *gin.Context, id int64) (*model.Transaction, error) {
		return h.wallet.ApproveWithdraw(c.Request.Context(), id)
	})
}

func (h *AdminHandler) RejectWithdraw(c *gin.Context) {
	h.adjudicateTransaction(c, func(c *gin.Context, id int64) (*model.Transaction, error) {
		return h.wallet.RejectWithdraw(c.Request.Context(), id)
	})
}

// --- Catalog ---

func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req model.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		log.Printf("Error creating product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req model.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), productID, req)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error updating product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- Users ---

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.catalog.ListUsers(c.Request.Context())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// --- Gift codes ---

func (h *AdminHandler) CreateGiftCode(c *gin.Context) {
	var req model.CreateGiftCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	gift, err := h.gifts.CreateGiftCode(c.Request.Context(), req)
	if err != nil {
		log.Printf("Error creating gift code: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create gift code"})
		return
	}
	c.JSON(http.StatusCreated, gift)
}

func (h *AdminHandler) ListGiftCodes(c *gin.Context) {
	codes, err := h.gifts.ListGiftCodes(c.Request.Context())
	if err != nil {
		log.Printf("Error listing gift codes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve gift codes"})
		return
	}
	c.JSON(http.StatusOK, codes)
}

// --- Settings ---

func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.catalog.GetSettings(c.Request.Context())
	if err != nil {
		log.Printf("Error loading settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	settings, err := h.catalog.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		log.Printf("Error updating settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// RegisterAdminRoutes registers all admin routes
func (h *AdminHandler) RegisterAdminRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	admin := rg.Group("/admin")
	admin.Use(authMW)
	admin.Use(adminMW)
	{
		admin.GET("/transactions", h.ListTransactions)
		admin.POST("/recharges/:id/confirm", h.ConfirmRecharge)
		admin.POST("/recharges/:id/reject", h.RejectRecharge)
		admin.POST("/withdrawals/:id/approve", h.ApproveWithdraw)
		admin.POST("/withdrawals/:id/reject", h.RejectWithdraw)

		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)

		admin.GET("/users", h.ListUsers)

		admin.POST("/gift-codes", h.CreateGiftCode)
		admin.GET("/gift-codes", h.ListGiftCodes)

		admin.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSettings)
	}
}
