package plans

import (
	"context"

	"medilocator/internal/search"
)

type Repository interface {
	Create(ctx context.Context, p TreatmentPlan) error
	Update(ctx context.Context, p TreatmentPlan) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (TreatmentPlan, error)
	List(ctx context.Context) ([]TreatmentPlan, error)
	Search(ctx context.Context, d search.Descriptor) ([]TreatmentPlan, error)
}
