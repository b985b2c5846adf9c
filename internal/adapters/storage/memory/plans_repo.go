package memory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"medilocator/internal/domain/plans"
	"medilocator/internal/search"
)

var ErrUnknownField = errors.New("unknown search field")

type planRepo struct {
	mu   sync.RWMutex
	byID map[string]plans.TreatmentPlan
}

func NewPlansRepo() plans.Repository {
	return &planRepo{
		byID: make(map[string]plans.TreatmentPlan),
	}
}

func (r *planRepo) Create(ctx context.Context, p plans.TreatmentPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return ErrMissingID
	}
	if _, exists := r.byID[p.ID]; exists {
		return ErrAlreadyExists
	}
	r.byID[p.ID] = clonePlan(p)
	return nil
}

func (r *planRepo) Update(ctx context.Context, p plans.TreatmentPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return ErrMissingID
	}
	if _, exists := r.byID[p.ID]; !exists {
		return plans.ErrNotFound
	}
	r.byID[p.ID] = clonePlan(p)
	return nil
}

func (r *planRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return plans.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *planRepo) GetByID(ctx context.Context, id string) (plans.TreatmentPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return plans.TreatmentPlan{}, plans.ErrNotFound
	}
	return clonePlan(p), nil
}

func (r *planRepo) List(ctx context.Context) ([]plans.TreatmentPlan, error) {
	return r.filter(func(plans.TreatmentPlan) bool { return true }), nil
}

func (r *planRepo) Search(ctx context.Context, d search.Descriptor) ([]plans.TreatmentPlan, error) {
	switch d.Field {
	case plans.FieldName:
		return r.filter(func(p plans.TreatmentPlan) bool {
			return d.Match(search.Normalize(p.Name))
		}), nil
	case plans.FieldSymptoms:
		return r.filter(func(p plans.TreatmentPlan) bool {
			return d.MatchAny(search.NormalizeTags(p.Symptoms))
		}), nil
	default:
		return nil, ErrUnknownField
	}
}

func (r *planRepo) filter(keep func(plans.TreatmentPlan) bool) []plans.TreatmentPlan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]plans.TreatmentPlan, 0)
	for _, p := range r.byID {
		if keep(p) {
			out = append(out, clonePlan(p))
		}
	}
	slices.SortFunc(out, func(a, b plans.TreatmentPlan) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func clonePlan(p plans.TreatmentPlan) plans.TreatmentPlan {
	p.Symptoms = slices.Clone(p.Symptoms)
	p.Medicines = slices.Clone(p.Medicines)
	return p
}
