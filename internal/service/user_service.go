package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arisanhub/arisand/internal/domain"
)

// UserService manages wallet profiles.
type UserService struct {
	users  domain.UserStore
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users domain.UserStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Get fetches a profile by wallet address.
func (s *UserService) Get(ctx context.Context, wallet string) (domain.UserProfile, error) {
	return s.users.GetByWallet(ctx, wallet)
}

// Upsert writes a profile, filling a generated username and avatar for
// wallets that never set one.
func (s *UserService) Upsert(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	wallet := domain.NormalizeAddress(profile.WalletAddress)
	if wallet == "" {
		return domain.UserProfile{}, fmt.Errorf("user_service: wallet address is required")
	}
	profile.WalletAddress = wallet

	if profile.Username == "" {
		short := wallet
		if len(short) > 6 {
			short = short[:6]
		}
		profile.Username = "User " + short
	}
	if profile.AvatarURL == "" {
		profile.AvatarURL = "https://api.dicebear.com/7.x/avataaars/svg?seed=" + wallet
	}

	if err := s.users.Upsert(ctx, profile); err != nil {
		return domain.UserProfile{}, err
	}
	return s.users.GetByWallet(ctx, wallet)
}
