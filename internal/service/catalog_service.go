package service

import (
	"context"
	"fmt"

	"power_ledger/internal/model"
	"power_ledger/internal/repository"
)

// CatalogService covers admin-owned configuration: the product catalog,
// platform settings and account listings. Engines read this configuration;
// only the admin surface writes it.
type CatalogService interface {
	CreateProduct(ctx context.Context, req model.CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int, req model.UpdateProductRequest) (*model.Product, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	GetSettings(ctx context.Context) (*model.AppSettings, error)
	UpdateSettings(ctx context.Context, req model.UpdateSettingsRequest) (*model.AppSettings, error)
}

type catalogService struct {
	products repository.ProductRepository
	users    repository.UserRepository
	settings repository.SettingsRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(products repository.ProductRepository, users repository.UserRepository,
	settings repository.SettingsRepository) CatalogService {
	return &catalogService{
		products: products,
		users:    users,
		settings: settings,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, req model.CreateProductRequest) (*model.Product, error) {
	product := &model.Product{
		Name:         req.Name,
		Price:        req.Price,
		DailyIncome:  req.DailyIncome,
		ValidityDays: req.ValidityDays,
		Image:        req.Image,
		Category:     req.Category,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct edits a catalog entry. Existing investments are unaffected:
// they carry snapshots taken at purchase time.
func (s *catalogService) UpdateProduct(ctx context.Context, id int, req model.UpdateProductRequest) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product for update: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	// Apply updates
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.DailyIncome != nil {
		product.DailyIncome = *req.DailyIncome
	}
	if req.ValidityDays != nil {
		product.ValidityDays = *req.ValidityDays
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.Category != nil {
		product.Category = *req.Category
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *catalogService) GetSettings(ctx context.Context) (*model.AppSettings, error) {
	return s.settings.Get(ctx)
}

func (s *catalogService) UpdateSettings(ctx context.Context, req model.UpdateSettingsRequest) (*model.AppSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.AppName != nil {
		settings.AppName = *req.AppName
	}
	if req.AppLogo != nil {
		settings.AppLogo = *req.AppLogo
	}
	if req.AboutContent != nil {
		settings.AboutContent = *req.AboutContent
	}
	if req.PlatformUpi != nil {
		settings.PlatformUpi = *req.PlatformUpi
	}
	if req.MinRecharge != nil {
		settings.MinRecharge = *req.MinRecharge
	}
	if req.MinWithdrawal != nil {
		settings.MinWithdrawal = *req.MinWithdrawal
	}
	if req.AllowWithdrawals != nil {
		settings.AllowWithdrawals = *req.AllowWithdrawals
	}

	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
