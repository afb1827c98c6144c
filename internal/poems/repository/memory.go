package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/versebook/versebook/internal/models"
	"github.com/versebook/versebook/internal/poems"
)

var (
	ErrNotFound  = errors.New("poem not found")
	ErrForbidden = errors.New("poem owned by another user")
)

// Repository provides poem persistence. Mutations take the caller's owner
// identity and are owner-scoped: the write happens only when the stored
// record belongs to that owner, in a single conditional operation.
type Repository interface {
	Create(ctx context.Context, p *poems.Poem) (string, error)
	FindPublic(ctx context.Context) ([]*poems.PoemWithOwner, error)
	FindByID(ctx context.Context, id string) (*poems.PoemWithOwner, error)
	Get(ctx context.Context, id string) (*poems.Poem, error)
	UpdateOwned(ctx context.Context, id, owner string, in *poems.Input) error
	DeleteOwned(ctx context.Context, id, owner string) error
	FindPublicByUser(ctx context.Context, userID string) ([]*poems.PoemWithOwner, error)
	FindByOwner(ctx context.Context, owner string) ([]*poems.Poem, error)
	SetCover(ctx context.Context, id, owner, key string) error
}

// MemoryRepo is a map-backed repository used by unit tests and by the
// standalone poems binary when no MongoDB is configured.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*poems.Poem

	// ResolveUser supplies owner documents for joined reads. Nil leaves
	// Owner unset, which the views tolerate.
	ResolveUser func(sub string) *models.User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*poems.Poem)}
}

func (m *MemoryRepo) Create(ctx context.Context, p *poems.Poem) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	m.store[p.ID] = &cp
	return p.ID, nil
}

func (m *MemoryRepo) joined(p *poems.Poem) *poems.PoemWithOwner {
	out := &poems.PoemWithOwner{Poem: *p}
	if m.ResolveUser != nil {
		out.Owner = m.ResolveUser(p.User)
	}
	return out
}

func (m *MemoryRepo) FindPublic(ctx context.Context) ([]*poems.PoemWithOwner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*poems.PoemWithOwner{}
	for _, p := range m.store {
		if p.Status == poems.StatusPublic {
			out = append(out, m.joined(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepo) FindByID(ctx context.Context, id string) (*poems.PoemWithOwner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.joined(p), nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*poems.Poem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepo) UpdateOwned(ctx context.Context, id, owner string, in *poems.Input) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if p.User != owner {
		return ErrForbidden
	}
	p.Title = in.Title
	p.Body = in.Body
	p.Status = in.Status
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) DeleteOwned(ctx context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if p.User != owner {
		return ErrForbidden
	}
	delete(m.store, id)
	return nil
}

func (m *MemoryRepo) FindPublicByUser(ctx context.Context, userID string) ([]*poems.PoemWithOwner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*poems.PoemWithOwner{}
	for _, p := range m.store {
		if p.User == userID && p.Status == poems.StatusPublic {
			out = append(out, m.joined(p))
		}
	}
	return out, nil
}

func (m *MemoryRepo) FindByOwner(ctx context.Context, owner string) ([]*poems.Poem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*poems.Poem{}
	for _, p := range m.store {
		if p.User == owner {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepo) SetCover(ctx context.Context, id, owner, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if p.User != owner {
		return ErrForbidden
	}
	p.CoverKey = key
	p.UpdatedAt = time.Now().UTC()
	return nil
}
