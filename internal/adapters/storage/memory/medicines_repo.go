package memory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"medilocator/internal/domain/medicines"
	"medilocator/internal/search"
)

var (
	ErrMissingID     = errors.New("id required")
	ErrAlreadyExists = errors.New("already exists")
)

type medicineRepo struct {
	mu   sync.RWMutex
	byID map[string]medicines.Medicine
}

func NewMedicinesRepo() medicines.Repository {
	return &medicineRepo{
		byID: make(map[string]medicines.Medicine),
	}
}

func (r *medicineRepo) Create(ctx context.Context, m medicines.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return ErrMissingID
	}
	if _, exists := r.byID[m.ID]; exists {
		return ErrAlreadyExists
	}
	r.byID[m.ID] = cloneMedicine(m)
	return nil
}

func (r *medicineRepo) Update(ctx context.Context, m medicines.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return ErrMissingID
	}
	if _, exists := r.byID[m.ID]; !exists {
		return medicines.ErrNotFound
	}
	r.byID[m.ID] = cloneMedicine(m)
	return nil
}

func (r *medicineRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return medicines.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *medicineRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	return cloneMedicine(m), nil
}

func (r *medicineRepo) List(ctx context.Context) ([]medicines.Medicine, error) {
	return r.filter(func(medicines.Medicine) bool { return true }), nil
}

// Search evalúa el descriptor contra los campos normalizados, igual que
// haría un índice sobre name_lower / symptoms_lower.
func (r *medicineRepo) Search(ctx context.Context, d search.Descriptor) ([]medicines.Medicine, error) {
	switch d.Field {
	case medicines.FieldName:
		return r.filter(func(m medicines.Medicine) bool {
			return d.Match(search.Normalize(m.Name))
		}), nil
	case medicines.FieldSymptoms:
		return r.filter(func(m medicines.Medicine) bool {
			return d.MatchAny(search.NormalizeTags(m.Symptoms))
		}), nil
	default:
		return nil, ErrUnknownField
	}
}

func (r *medicineRepo) filter(keep func(medicines.Medicine) bool) []medicines.Medicine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medicines.Medicine, 0)
	for _, m := range r.byID {
		if keep(m) {
			out = append(out, cloneMedicine(m))
		}
	}

	// Orden estable por created_at asc (el map no garantiza orden)
	slices.SortFunc(out, func(a, b medicines.Medicine) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func cloneMedicine(m medicines.Medicine) medicines.Medicine {
	m.Symptoms = slices.Clone(m.Symptoms)
	return m
}
