package service

import (
	"context"
	"errors"
	"fmt"

	"power_ledger/internal/model"
	"power_ledger/internal/monitoring"
	"power_ledger/internal/repository"
	"power_ledger/internal/utils"
)

// InvestmentService exposes the catalog and the purchase path. A purchase
// is one database transaction: debit, totals, investment snapshot, ledger
// record and referral commission all land together or not at all.
type InvestmentService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int) (*model.Product, error)
	BuyProduct(ctx context.Context, userID, productID int) (*model.Investment, error)
	ListActiveInvestments(ctx context.Context, userID int) ([]model.Investment, error)
}

type investmentService struct {
	db              repository.TxStarter
	users           repository.UserRepository
	products        repository.ProductRepository
	investments     repository.InvestmentRepository
	transactions    repository.TransactionRepository
	clock           utils.Clock
	referralPercent int
}

// NewInvestmentService creates a new InvestmentService
func NewInvestmentService(db repository.TxStarter, users repository.UserRepository, products repository.ProductRepository,
	investments repository.InvestmentRepository, transactions repository.TransactionRepository,
	clock utils.Clock, referralPercent int) InvestmentService {
	return &investmentService{
		db:              db,
		users:           users,
		products:        products,
		investments:     investments,
		transactions:    transactions,
		clock:           clock,
		referralPercent: referralPercent,
	}
}

func (s *investmentService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *investmentService) GetProduct(ctx context.Context, id int) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// BuyProduct validates the product and the buyer's balance, then applies
// the purchase as one unit. Re-purchase of the same product is always
// allowed and creates an independent investment.
func (s *investmentService) BuyProduct(ctx context.Context, userID, productID int) (*model.Investment, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin purchase transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	users := s.users.WithTx(tx)
	investments := s.investments.WithTx(tx)
	transactions := s.transactions.WithTx(tx)

	user, err := users.UpdateBalance(ctx, userID, -product.Price)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to debit purchase: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := users.AddInvestmentTotal(ctx, userID, product.Price); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	investment := &model.Investment{
		UserID:             userID,
		ProductID:          product.ID,
		ProductName:        product.Name, // snapshot survives catalog edits
		Amount:             product.Price,
		DailyReturn:        product.DailyIncome,
		PurchaseDate:       now,
		ExpiryDate:         now.AddDate(0, 0, product.ValidityDays),
		LastCollectionDate: now,
	}
	if err := investments.Create(ctx, investment); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("Purchased %s", product.Name)
	record := &model.Transaction{
		UserID:    userID,
		Type:      model.TransactionTypeInvestment,
		Amount:    product.Price,
		Status:    model.TransactionStatusCompleted,
		Reference: utils.NewTransactionReference(),
		Details:   &details,
		CreatedAt: now,
	}
	if err := transactions.Create(ctx, record); err != nil {
		return nil, err
	}

	if err := creditReferralCommission(ctx, users, transactions, user, product.Price, s.referralPercent, "plan purchase", now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	monitoring.LedgerOperationsTotal.WithLabelValues("purchase", "completed").Inc()
	return investment, nil
}

func (s *investmentService) ListActiveInvestments(ctx context.Context, userID int) ([]model.Investment, error) {
	investments, err := s.investments.FindActiveByUser(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active investments: %w", err)
	}
	return investments, nil
}
