package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/versebook/versebook/pkg/middleware"
)

// Verifier validates ID tokens against a discovered OIDC provider. It
// satisfies middleware.Verifier, so it plugs straight into the auth gate.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier runs OIDC discovery against the issuer and prepares a token
// verifier for the given client ID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", issuer, err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
