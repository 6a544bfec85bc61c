package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"power_ledger/internal/advice"
	"power_ledger/internal/middleware"
	"power_ledger/internal/model"
	"power_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// MarketHandler handles the catalog and purchases
type MarketHandler struct {
	investments service.InvestmentService
	accrual     service.AccrualService
	advice      *advice.Client
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(investments service.InvestmentService, accrual service.AccrualService, adviceClient *advice.Client) *MarketHandler {
	return &MarketHandler{investments: investments, accrual: accrual, advice: adviceClient}
}

// Helper to get authenticated user ID from context
func getAuthUserID(c *gin.Context) (int, error) {
	userIDVal, exists := c.Get(middleware.AuthUserKey)
	if !exists {
		return 0, errors.New("user ID not found in context")
	}
	userID, ok := userIDVal.(int)
	if !ok {
		return 0, errors.New("invalid user ID type in context")
	}
	return userID, nil
}

func (h *MarketHandler) ListProducts(c *gin.Context) {
	products, err := h.investments.ListProducts(c.Request.Context())
	if err != nil {
		log.Printf("Error listing products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProductDescription returns freeform marketing text from the advice
// collaborator; it degrades to a fallback and never fails the request.
func (h *MarketHandler) GetProductDescription(c *gin.Context) {
	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.investments.GetProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error loading product %d: %v", productID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
		return
	}

	text := h.advice.ProductDescription(c.Request.Context(), product.Name, product.DailyIncome)
	c.JSON(http.StatusOK, gin.H{"product_id": product.ID, "text": text})
}

func (h *MarketHandler) BuyProduct(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req model.BuyProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	investment, err := h.investments.BuyProduct(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInsufficientFunds):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			log.Printf("Error buying product: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete purchase"})
		}
		return
	}
	c.JSON(http.StatusCreated, investment)
}

// GetMyInvestments credits any pending accrual first so the listing shows
// current figures
func (h *MarketHandler) GetMyInvestments(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if err := h.accrual.CollectUser(c.Request.Context(), userID); err != nil {
		log.Printf("Error collecting accrual for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update investments"})
		return
	}

	investments, err := h.investments.ListActiveInvestments(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Error listing investments: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve investments"})
		return
	}
	c.JSON(http.StatusOK, investments)
}

// RegisterMarketRoutes registers catalog and purchase routes
func (h *MarketHandler) RegisterMarketRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	products := rg.Group("/products")
	products.Use(authMW)
	{
		products.GET("", h.ListProducts)
		products.GET("/:id/description", h.GetProductDescription)
	}

	investments := rg.Group("/investments")
	investments.Use(authMW)
	{
		investments.POST("", h.BuyProduct)
		investments.GET("", h.GetMyInvestments)
	}
}
