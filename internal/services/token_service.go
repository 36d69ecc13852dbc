package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/leakwatch/leakwatch-api/internal/ledger"
	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"github.com/leakwatch/leakwatch-api/pkg/logger"
)

// LedgerAuthAPI is the token-endpoint surface of the ledger client.
type LedgerAuthAPI interface {
	AuthorizeURL(state string) string
	ExchangeAuthCode(ctx context.Context, code string) (*ledger.TokenResponse, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*ledger.TokenResponse, error)
}

// TokenService owns the ledger credential lifecycle for every company:
// handing out valid access tokens, rotating expired pairs, and persisting
// rotations atomically. Refreshes are serialized per company so two
// concurrent sync jobs cannot invalidate each other's refresh token.
type TokenService struct {
	companyRepo repository.CompanyRepository
	ledgerAuth  LedgerAuthAPI
	cipher      *TokenCipher
	locks       sync.Map // company id -> *sync.Mutex
}

// NewTokenService creates a new token service
func NewTokenService(companyRepo repository.CompanyRepository, ledgerAuth LedgerAuthAPI, cipher *TokenCipher) *TokenService {
	return &TokenService{
		companyRepo: companyRepo,
		ledgerAuth:  ledgerAuth,
		cipher:      cipher,
	}
}

func (s *TokenService) lockFor(companyID uint) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(companyID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// GetValidAccessToken returns a usable access token for the company,
// refreshing the stored pair when it has expired. The rotated pair is
// persisted in a single update; on failure nothing is written and the
// caller must surface the sync as failed.
func (s *TokenService) GetValidAccessToken(ctx context.Context, company *models.Company) (string, error) {
	mu := s.lockFor(company.ID)
	mu.Lock()
	defer mu.Unlock()

	// Reload inside the lock: another job may have already rotated.
	fresh, err := s.companyRepo.FindByID(ctx, company.ID)
	if err != nil {
		return "", err
	}
	*company = *fresh

	now := time.Now()
	if company.TokenValid(now) {
		return s.cipher.Open(*company.AccessToken)
	}

	if company.RefreshToken == nil {
		return "", &ledger.AuthError{Op: "refresh", Err: errors.New("no refresh token stored; company must re-authorize")}
	}

	refreshToken, err := s.cipher.Open(*company.RefreshToken)
	if err != nil {
		return "", &ledger.AuthError{Op: "refresh", Err: err}
	}

	token, err := s.ledgerAuth.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	expiresAt := now.Add(time.Duration(token.ExpiresIn) * time.Second)
	if err := s.persistTokens(ctx, company, token, expiresAt); err != nil {
		return "", err
	}

	logger.Info("Rotated ledger token", "company_id", company.ID, "expires_at", expiresAt)
	return token.AccessToken, nil
}

// StoreInitialTokens persists the pair obtained from the authorization-code
// exchange and marks the company connected.
func (s *TokenService) StoreInitialTokens(ctx context.Context, company *models.Company, realmID string, token *ledger.TokenResponse) error {
	expiresAt := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	if err := s.persistTokens(ctx, company, token, expiresAt); err != nil {
		return err
	}

	company.LedgerConnected = true
	company.LedgerRealmID = &realmID
	return s.companyRepo.Update(ctx, company)
}

// persistTokens seals and writes both halves of the pair as one update so
// the credential block is never partially rotated.
func (s *TokenService) persistTokens(ctx context.Context, company *models.Company, token *ledger.TokenResponse, expiresAt time.Time) error {
	sealedAccess, err := s.cipher.Seal(token.AccessToken)
	if err != nil {
		return err
	}
	sealedRefresh, err := s.cipher.Seal(token.RefreshToken)
	if err != nil {
		return err
	}

	if err := s.companyRepo.UpdateTokens(ctx, company.ID, sealedAccess, sealedRefresh, expiresAt); err != nil {
		return err
	}

	company.AccessToken = &sealedAccess
	company.RefreshToken = &sealedRefresh
	company.TokenExpiresAt = &expiresAt
	return nil
}
