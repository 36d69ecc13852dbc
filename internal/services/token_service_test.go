package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leakwatch/leakwatch-api/internal/ledger"
	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetValidAccessToken_ReturnsStoredTokenWhileValid(t *testing.T) {
	companyRepo := &mockCompanyRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Company, error) {
			return connectedCompany(id), nil
		},
	}
	auth := &mockLedgerAuth{
		mockRefreshAccessToken: func(ctx context.Context, refreshToken string) (*ledger.TokenResponse, error) {
			t.Fatal("a valid token must not trigger a refresh")
			return nil, nil
		},
	}

	svc := NewTokenService(companyRepo, auth, passthroughCipher())
	token, err := svc.GetValidAccessToken(context.Background(), connectedCompany(1))

	require.NoError(t, err)
	assert.Equal(t, "access-token", token)
}

func TestGetValidAccessToken_RefreshesExpiredToken(t *testing.T) {
	expired := func(id uint) *models.Company {
		company := connectedCompany(id)
		past := time.Now().Add(-1 * time.Hour)
		company.TokenExpiresAt = &past
		return company
	}

	var storedAccess, storedRefresh string
	companyRepo := &mockCompanyRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Company, error) {
			return expired(id), nil
		},
		mockUpdateTokens: func(ctx context.Context, companyID uint, accessToken, refreshToken string, expiresAt time.Time) error {
			storedAccess = accessToken
			storedRefresh = refreshToken
			assert.True(t, expiresAt.After(time.Now()))
			return nil
		},
	}

	auth := &mockLedgerAuth{
		mockRefreshAccessToken: func(ctx context.Context, refreshToken string) (*ledger.TokenResponse, error) {
			assert.Equal(t, "refresh-token", refreshToken)
			return &ledger.TokenResponse{
				AccessToken:  "new-access",
				RefreshToken: "new-refresh",
				ExpiresIn:    3600,
			}, nil
		},
	}

	svc := NewTokenService(companyRepo, auth, passthroughCipher())
	company := expired(1)
	token, err := svc.GetValidAccessToken(context.Background(), company)

	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	// Both halves of the pair are rotated together.
	assert.Equal(t, "new-access", storedAccess)
	assert.Equal(t, "new-refresh", storedRefresh)
	require.NotNil(t, company.AccessToken)
	assert.Equal(t, "new-access", *company.AccessToken)
}

func TestGetValidAccessToken_RefreshFailureIsAuthError(t *testing.T) {
	expired := connectedCompany(1)
	past := time.Now().Add(-1 * time.Hour)
	expired.TokenExpiresAt = &past

	companyRepo := &mockCompanyRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Company, error) {
			company := *expired
			return &company, nil
		},
		mockUpdateTokens: func(ctx context.Context, companyID uint, accessToken, refreshToken string, expiresAt time.Time) error {
			t.Fatal("nothing must be persisted when the refresh fails")
			return nil
		},
	}

	auth := &mockLedgerAuth{
		mockRefreshAccessToken: func(ctx context.Context, refreshToken string) (*ledger.TokenResponse, error) {
			return nil, &ledger.AuthError{Op: "refresh", Err: errors.New("invalid_grant")}
		},
	}

	svc := NewTokenService(companyRepo, auth, passthroughCipher())
	_, err := svc.GetValidAccessToken(context.Background(), connectedCompany(1))

	require.Error(t, err)
	var authErr *ledger.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestStoreInitialTokens_MarksCompanyConnected(t *testing.T) {
	company := &models.Company{ID: 1, Name: "Acme", Status: models.CompanyStatusActive}

	var updated *models.Company
	companyRepo := &mockCompanyRepo{
		mockUpdate: func(ctx context.Context, c *models.Company) error {
			updated = c
			return nil
		},
	}

	svc := NewTokenService(companyRepo, &mockLedgerAuth{}, passthroughCipher())
	err := svc.StoreInitialTokens(context.Background(), company, "realm-9", &ledger.TokenResponse{
		AccessToken:  "first-access",
		RefreshToken: "first-refresh",
		ExpiresIn:    3600,
	})

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.LedgerConnected)
	require.NotNil(t, updated.LedgerRealmID)
	assert.Equal(t, "realm-9", *updated.LedgerRealmID)
	assert.True(t, updated.CanSync())
}
