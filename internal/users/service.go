package users

import (
	"context"

	"github.com/versebook/versebook/internal/models"
)

// Service maintains the local user records that mirror the identity
// provider. Poems reference users only by subject; these records exist so
// listings can show author names and avatars.
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims folds the profile claims of a verified token into the
// user record for that subject. Returns (nil, nil) when the claims carry no
// subject; callers treat that as an unusable identity.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, nil
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	image, _ := claims["picture"].(string)
	return s.repo.UpsertBySub(ctx, &models.User{
		Sub:   sub,
		Email: email,
		Name:  name,
		Image: image,
	})
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}
