package medicines

import (
	"context"

	"medilocator/internal/search"
)

type Repository interface {
	Create(ctx context.Context, m Medicine) error
	Update(ctx context.Context, m Medicine) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Medicine, error)
	List(ctx context.Context) ([]Medicine, error)

	// Search ejecuta el descriptor y devuelve los matches sin orden de relevancia.
	Search(ctx context.Context, d search.Descriptor) ([]Medicine, error)
}
