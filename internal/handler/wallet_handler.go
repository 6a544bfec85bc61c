package handler

import (
	"errors"
	"log"
	"net/http"

	"power_ledger/internal/advice"
	"power_ledger/internal/model"
	"power_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles balances, deposits, payouts and gift redemption
type WalletHandler struct {
	wallet  service.WalletService
	accrual service.AccrualService
	gifts   service.GiftService
	advice  *advice.Client
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(wallet service.WalletService, accrual service.AccrualService, gifts service.GiftService, adviceClient *advice.Client) *WalletHandler {
	return &WalletHandler{wallet: wallet, accrual: accrual, gifts: gifts, advice: adviceClient}
}

// GetWallet returns the account summary. Accrual runs first: displaying a
// balance is the on-demand trigger for crediting owed daily income.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if err := h.accrual.CollectUser(c.Request.Context(), userID); err != nil {
		log.Printf("Error collecting accrual for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update balance"})
		return
	}

	user, err := h.wallet.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error loading wallet for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve wallet"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetAdvice returns freeform investment advice keyed by the balance
func (h *WalletHandler) GetAdvice(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	user, err := h.wallet.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve wallet"})
		return
	}

	text := h.advice.InvestmentAdvice(c.Request.Context(), user.Balance)
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (h *WalletHandler) RequestRecharge(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req model.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	t, err := h.wallet.RequestRecharge(c.Request.Context(), userID, req.Amount, req.UTR)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBelowMinimum):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			log.Printf("Error creating recharge request: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recharge request"})
		}
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *WalletHandler) RequestWithdraw(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req model.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	t, err := h.wallet.RequestWithdraw(c.Request.Context(), userID, req.Amount, req.UpiID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBelowMinimum), errors.Is(err, service.ErrWithdrawalsDisabled):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInsufficientFunds):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			log.Printf("Error creating withdrawal request: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create withdrawal request"})
		}
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *WalletHandler) GetMyTransactions(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	transactions, err := h.wallet.ListUserTransactions(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Error getting user transactions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transactions"})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *WalletHandler) RedeemGift(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req model.RedeemGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	t, err := h.gifts.RedeemGift(c.Request.Context(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrCodeExpired), errors.Is(err, service.ErrCodeExhausted):
			c.JSON(http.StatusGone, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyRedeemed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("Error redeeming gift code: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to redeem gift code"})
		}
		return
	}
	c.JSON(http.StatusOK, t)
}

// RegisterWalletRoutes registers wallet, transaction and gift routes
func (h *WalletHandler) RegisterWalletRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	wallet := rg.Group("/wallet")
	wallet.Use(authMW)
	{
		wallet.GET("", h.GetWallet)
		wallet.GET("/advice", h.GetAdvice)
		wallet.POST("/recharges", h.RequestRecharge)
		wallet.POST("/withdrawals", h.RequestWithdraw)
	}

	transactions := rg.Group("/transactions")
	transactions.Use(authMW)
	{
		transactions.GET("", h.GetMyTransactions)
	}

	gifts := rg.Group("/gifts")
	gifts.Use(authMW)
	{
		gifts.POST("/redeem", h.RedeemGift)
	}
}
