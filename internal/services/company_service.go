package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/leakwatch/leakwatch-api/internal/repository"
)

// oauthStateTTL bounds how long an issued authorize URL stays redeemable.
const oauthStateTTL = 10 * time.Minute

type pendingConnect struct {
	companyID uint
	issuedAt  time.Time
}

// CompanyService manages companies and the ledger connect flow. OAuth
// state tokens are held in memory: a restart mid-flow just means the
// operator clicks connect again.
type CompanyService struct {
	repo       repository.CompanyRepository
	ledgerAuth LedgerAuthAPI
	tokenSvc   *TokenService

	mu      sync.Mutex
	pending map[string]pendingConnect
}

// NewCompanyService creates a new company service
func NewCompanyService(repo repository.CompanyRepository, ledgerAuth LedgerAuthAPI, tokenSvc *TokenService) *CompanyService {
	return &CompanyService{
		repo:       repo,
		ledgerAuth: ledgerAuth,
		tokenSvc:   tokenSvc,
		pending:    make(map[string]pendingConnect),
	}
}

func (s *CompanyService) FindByID(ctx context.Context, id uint) (*models.Company, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CompanyService) List(ctx context.Context, query *repository.ListQuery) ([]models.Company, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *CompanyService) Create(ctx context.Context, company *models.Company) error {
	return s.repo.Create(ctx, company)
}

func (s *CompanyService) Update(ctx context.Context, company *models.Company) error {
	return s.repo.Update(ctx, company)
}

// BeginLedgerConnect issues an authorize URL for the company with a
// one-time state token.
func (s *CompanyService) BeginLedgerConnect(ctx context.Context, companyID uint) (string, error) {
	if _, err := s.repo.FindByID(ctx, companyID); err != nil {
		return "", ErrNotFound
	}

	state := uuid.NewString()

	s.mu.Lock()
	s.pruneExpired(time.Now())
	s.pending[state] = pendingConnect{companyID: companyID, issuedAt: time.Now()}
	s.mu.Unlock()

	return s.ledgerAuth.AuthorizeURL(state), nil
}

// CompleteLedgerConnect redeems the callback: validates the state token,
// exchanges the authorization code and stores the initial token pair.
func (s *CompanyService) CompleteLedgerConnect(ctx context.Context, state, code, realmID string) (*models.Company, error) {
	s.mu.Lock()
	entry, ok := s.pending[state]
	if ok {
		delete(s.pending, state)
	}
	s.mu.Unlock()

	if !ok || time.Since(entry.issuedAt) > oauthStateTTL {
		return nil, ErrInvalidOAuthCode
	}

	company, err := s.repo.FindByID(ctx, entry.companyID)
	if err != nil {
		return nil, ErrNotFound
	}

	// A realm can only back one company.
	if existing, err := s.repo.FindByRealmID(ctx, realmID); err == nil && existing != nil && existing.ID != company.ID {
		return nil, ErrDuplicate
	}

	token, err := s.ledgerAuth.ExchangeAuthCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.tokenSvc.StoreInitialTokens(ctx, company, realmID, token); err != nil {
		return nil, err
	}

	return company, nil
}

func (s *CompanyService) pruneExpired(now time.Time) {
	for state, entry := range s.pending {
		if now.Sub(entry.issuedAt) > oauthStateTTL {
			delete(s.pending, state)
		}
	}
}
