package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"power_ledger/internal/model"
	"power_ledger/internal/repository"
	"power_ledger/internal/utils"

	"github.com/jackc/pgx/v5"
)

var (
	ErrUserAlreadyExists   = errors.New("user with this phone number already exists")
	ErrInvalidCredentials  = errors.New("invalid phone or password")
	ErrReferralCodeInvalid = errors.New("referral code does not exist")
)

// AuthService provides registration and login
type AuthService interface {
	Register(ctx context.Context, name, phone, password, referralCode string) (*model.User, string, error)
	Login(ctx context.Context, phone, password string) (*model.User, string, error)
}

type authService struct {
	userRepo repository.UserRepository
	jwtUtil  *utils.JWTUtil
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil) AuthService {
	return &authService{
		userRepo: userRepo,
		jwtUtil:  jwtUtil,
	}
}

// Register creates a new account with a zero balance and a fresh referral
// code. When the caller supplies a referral code, the owning account becomes
// the single-hop referrer; a user can never refer itself because its own
// code does not exist until after this call.
func (s *authService) Register(ctx context.Context, name, phone, password, referralCode string) (*model.User, string, error) {
	existingUser, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, "", ErrUserAlreadyExists
	}

	var referrer *model.User
	if referralCode != "" {
		referrer, err = s.userRepo.FindByReferralCode(ctx, referralCode)
		if err != nil {
			return nil, "", fmt.Errorf("failed to look up referral code: %w", err)
		}
		if referrer == nil {
			return nil, "", ErrReferralCodeInvalid
		}
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	userRole := model.RoleUser // Default role

	// Check for initial admin setup via environment variable
	initialAdminPhone := os.Getenv("INITIAL_ADMIN_PHONE")
	if initialAdminPhone != "" && phone == initialAdminPhone {
		userRole = model.RoleAdmin
		log.Printf("INFO: User %s is being registered as ADMIN via INITIAL_ADMIN_PHONE.", phone)
	}

	user := &model.User{
		Name:         name,
		Phone:        phone,
		PasswordHash: hashedPassword,
		Role:         userRole,
		ReferralCode: utils.NewReferralCode(),
		CreatedAt:    time.Now(),
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user in repository: %w", err)
	}

	if referrer != nil {
		if err := s.userRepo.IncrementReferrals(ctx, referrer.ID); err != nil {
			log.Printf("ERROR: user %d registered but referral counter for %d not bumped: %v", user.ID, referrer.ID, err)
		}
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Role)
	if err != nil {
		log.Printf("ERROR: User %s (ID: %d) created, but failed to generate token: %v", user.Phone, user.ID, err)
		return user, "", fmt.Errorf("user created, but failed to generate token: %w", err)
	}

	return user, token, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, phone, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", fmt.Errorf("error finding user by phone: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials // User not found
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials // Password mismatch
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}
