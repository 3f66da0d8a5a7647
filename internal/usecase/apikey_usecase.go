package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"golang.org/x/crypto/bcrypt"
)

const (
	apiKeyScheme    = "mk"
	apiKeyAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
	apiKeyPrefixLen = 12
	apiKeySecretLen = 32
)

type APIKeyUsecase interface {
	// IssueAPIKey returns the stored key and the plaintext token, shown once.
	IssueAPIKey(ctx context.Context, ownerID, name string, scopes []domain.APIScope, perMinute int) (*domain.APIKey, string, error)
	ListAPIKeys(ctx context.Context, ownerID string) ([]*domain.APIKey, error)
	RevokeAPIKey(ctx context.Context, ownerID, keyID string) error
	Authenticate(ctx context.Context, token string) (*domain.Principal, *domain.APIKey, error)
}

type DefaultAPIKeyUsecase struct {
	repo             domain.APIKeyRepository
	defaultPerMinute int
	prefixGen        func() string
	secretGen        func() string
	bcryptCost       int
	logger           *slog.Logger
}

func NewDefaultAPIKeyUsecase(repo domain.APIKeyRepository, defaultPerMinute int, logger *slog.Logger) (*DefaultAPIKeyUsecase, error) {
	prefixGen, err := nanoid.CustomASCII(apiKeyAlphabet, apiKeyPrefixLen)
	if err != nil {
		return nil, err
	}
	secretGen, err := nanoid.CustomASCII(apiKeyAlphabet, apiKeySecretLen)
	if err != nil {
		return nil, err
	}
	return &DefaultAPIKeyUsecase{
		repo:             repo,
		defaultPerMinute: defaultPerMinute,
		prefixGen:        prefixGen,
		secretGen:        secretGen,
		bcryptCost:       bcrypt.DefaultCost,
		logger:           logger,
	}, nil
}

func (uc *DefaultAPIKeyUsecase) IssueAPIKey(ctx context.Context, ownerID, name string, scopes []domain.APIScope, perMinute int) (*domain.APIKey, string, error) {
	if ownerID == "" || strings.TrimSpace(name) == "" {
		return nil, "", fmt.Errorf("%w: owner and name are required", domain.ErrInvalidInput)
	}
	if len(scopes) == 0 {
		scopes = []domain.APIScope{domain.ScopeRead}
	}
	for _, s := range scopes {
		if !s.Valid() {
			return nil, "", fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, s)
		}
	}
	if perMinute <= 0 {
		perMinute = uc.defaultPerMinute
	}

	prefix := uc.prefixGen()
	secret := uc.secretGen()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), uc.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash api key: %w", err)
	}

	key := &domain.APIKey{
		ID:                 uuid.New().String(),
		OwnerID:            ownerID,
		Name:               strings.TrimSpace(name),
		Prefix:             prefix,
		SecretHash:         string(hash),
		Scopes:             scopes,
		RateLimitPerMinute: perMinute,
		CreatedAt:          time.Now(),
	}
	if err := uc.repo.CreateAPIKey(ctx, key); err != nil {
		return nil, "", err
	}
	return key, FormatAPIKey(prefix, secret), nil
}

func (uc *DefaultAPIKeyUsecase) ListAPIKeys(ctx context.Context, ownerID string) ([]*domain.APIKey, error) {
	return uc.repo.ListAPIKeys(ctx, ownerID)
}

func (uc *DefaultAPIKeyUsecase) RevokeAPIKey(ctx context.Context, ownerID, keyID string) error {
	return uc.repo.RevokeAPIKey(ctx, ownerID, keyID)
}

// Authenticate resolves a bearer token to the principal it acts for.
func (uc *DefaultAPIKeyUsecase) Authenticate(ctx context.Context, token string) (*domain.Principal, *domain.APIKey, error) {
	prefix, secret, ok := ParseAPIKey(token)
	if !ok {
		return nil, nil, domain.ErrUnauthorized
	}

	key, err := uc.repo.GetAPIKeyByPrefix(ctx, prefix)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, nil, err
	}
	if key.Revoked() {
		return nil, nil, domain.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(key.SecretHash), []byte(secret)) != nil {
		return nil, nil, domain.ErrUnauthorized
	}

	if err := uc.repo.TouchAPIKey(ctx, key.ID, time.Now()); err != nil {
		uc.logger.Warn("failed to touch api key", "key_id", key.ID, "error", err)
	}

	return &domain.Principal{UserID: key.OwnerID, KeyID: key.ID, Scopes: key.Scopes}, key, nil
}

func FormatAPIKey(prefix, secret string) string {
	return apiKeyScheme + "_" + prefix + "_" + secret
}

// ParseAPIKey splits "mk_<prefix>_<secret>".
func ParseAPIKey(token string) (prefix, secret string, ok bool) {
	parts := strings.Split(strings.TrimSpace(token), "_")
	if len(parts) != 3 || parts[0] != apiKeyScheme {
		return "", "", false
	}
	if len(parts[1]) != apiKeyPrefixLen || len(parts[2]) != apiKeySecretLen {
		return "", "", false
	}
	return parts[1], parts[2], true
}
