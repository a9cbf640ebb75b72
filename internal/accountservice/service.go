// Package accountservice serves read-only account queries for the acting user.
package accountservice

import (
	"context"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	GetForOwner(ctx context.Context, id, ownerID int64) (domain.Account, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Account, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account queries.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// GetAccounts returns every account owned by the user ordered by account type and currency.
func (s *Service) GetAccounts(ctx context.Context, userID int64) ([]domain.Account, error) {
	accounts, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	if accounts == nil {
		accounts = []domain.Account{}
	}

	return accounts, nil
}

// GetAccountBalance returns the account when it belongs to the user.
//
// Accounts of other users are reported as not found.
func (s *Service) GetAccountBalance(ctx context.Context, userID, accountID int64) (domain.Account, error) {
	if accountID <= 0 {
		zerolog.Ctx(ctx).Info().Int64("account_id", accountID).Msg("invalid account id")
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return s.repo.GetForOwner(ctx, accountID, userID)
}
