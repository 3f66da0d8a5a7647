package domain

import (
	"context"
	"time"
)

type APIScope string

const (
	ScopeRead  APIScope = "read"
	ScopeTrade APIScope = "trade"
	// ScopeAdmin covers operator actions: scoring runs, dispute resolution, fraud review.
	ScopeAdmin APIScope = "admin"
)

func (s APIScope) Valid() bool {
	return s == ScopeRead || s == ScopeTrade || s == ScopeAdmin
}

// APIKey is a credential issued to an external agent acting on behalf of OwnerID.
type APIKey struct {
	ID                 string
	OwnerID            string
	Name               string
	Prefix             string
	SecretHash         string
	Scopes             []APIScope
	RateLimitPerMinute int
	LastUsedAt         *time.Time
	RevokedAt          *time.Time
	CreatedAt          time.Time
}

func (k *APIKey) HasScope(scope APIScope) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (k *APIKey) Revoked() bool {
	return k.RevokedAt != nil
}

type APIKeyRepository interface {
	CreateAPIKey(ctx context.Context, key *APIKey) error
	GetAPIKeyByPrefix(ctx context.Context, prefix string) (*APIKey, error)
	ListAPIKeys(ctx context.Context, ownerID string) ([]*APIKey, error)
	RevokeAPIKey(ctx context.Context, ownerID, keyID string) error
	TouchAPIKey(ctx context.Context, keyID string, at time.Time) error
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	KeyID  string
	Scopes []APIScope
}

func (p *Principal) HasScope(scope APIScope) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
