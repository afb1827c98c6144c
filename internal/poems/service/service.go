package service

import (
	"context"
	"errors"

	"github.com/versebook/versebook/internal/poems"
	"github.com/versebook/versebook/internal/poems/repository"
)

var (
	ErrNotFound  = repository.ErrNotFound
	ErrForbidden = repository.ErrForbidden

	errNoOwner = errors.New("missing caller identity")
)

// Service defines the poem business operations used by the handler layer.
// Every mutating operation takes the caller's owner identity explicitly; there is no
// ambient current-user state.
type Service interface {
	Create(ctx context.Context, owner string, in *poems.Input) (string, error)
	ListPublic(ctx context.Context) ([]*poems.PoemWithOwner, error)
	GetByID(ctx context.Context, id string) (*poems.PoemWithOwner, error)
	GetForEdit(ctx context.Context, id string) (*poems.Poem, error)
	Update(ctx context.Context, id, owner string, in *poems.Input) error
	Delete(ctx context.Context, id, owner string) error
	ListByUser(ctx context.Context, userID string) ([]*poems.PoemWithOwner, error)
	ListByOwner(ctx context.Context, owner string) ([]*poems.Poem, error)
	SetCover(ctx context.Context, id, owner, key string) error
}

type poemService struct {
	repo repository.Repository
}

func New(repo repository.Repository) Service {
	return &poemService{repo: repo}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo())
}

func normalize(in *poems.Input) *poems.Input {
	cp := *in
	if cp.Status == "" {
		cp.Status = poems.StatusPublic
	}
	return &cp
}

func (s *poemService) Create(ctx context.Context, owner string, in *poems.Input) (string, error) {
	if owner == "" {
		return "", errNoOwner
	}
	n := normalize(in)
	p := &poems.Poem{
		Title:  n.Title,
		Body:   n.Body,
		Status: n.Status,
		User:   owner,
	}
	return s.repo.Create(ctx, p)
}

func (s *poemService) ListPublic(ctx context.Context) ([]*poems.PoemWithOwner, error) {
	return s.repo.FindPublic(ctx)
}

func (s *poemService) GetByID(ctx context.Context, id string) (*poems.PoemWithOwner, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *poemService) GetForEdit(ctx context.Context, id string) (*poems.Poem, error) {
	return s.repo.Get(ctx, id)
}

func (s *poemService) Update(ctx context.Context, id, owner string, in *poems.Input) error {
	if owner == "" {
		return errNoOwner
	}
	return s.repo.UpdateOwned(ctx, id, owner, normalize(in))
}

func (s *poemService) Delete(ctx context.Context, id, owner string) error {
	if owner == "" {
		return errNoOwner
	}
	return s.repo.DeleteOwned(ctx, id, owner)
}

func (s *poemService) ListByUser(ctx context.Context, userID string) ([]*poems.PoemWithOwner, error) {
	return s.repo.FindPublicByUser(ctx, userID)
}

func (s *poemService) ListByOwner(ctx context.Context, owner string) ([]*poems.Poem, error) {
	return s.repo.FindByOwner(ctx, owner)
}

func (s *poemService) SetCover(ctx context.Context, id, owner, key string) error {
	if owner == "" {
		return errNoOwner
	}
	return s.repo.SetCover(ctx, id, owner, key)
}
