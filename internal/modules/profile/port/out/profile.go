package out

import (
	"context"

	"staywithme/internal/modules/profile/domain"
)

type ProfileStore interface {
	Load(ctx context.Context) (domain.Profile, error)
	Save(ctx context.Context, profile domain.Profile) error
}

type ContactStore interface {
	Insert(ctx context.Context, contact domain.Contact) error
	Get(ctx context.Context, id string) (domain.Contact, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Contact, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	MaxPriority(ctx context.Context) (int, error)
}
