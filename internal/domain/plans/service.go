package plans

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"medilocator/internal/domain/medicines"
	"medilocator/internal/search"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("plan not found")
	ErrMedicineNotFound = errors.New("medicine not found")
)

// MedicineCatalog es lo que el plan necesita del inventario: leer un
// medicamento para sacarle la foto y registrar los "custom".
type MedicineCatalog interface {
	GetByID(ctx context.Context, id string) (medicines.Medicine, error)
	Create(ctx context.Context, in medicines.CreateInput) (medicines.Medicine, error)
}

type Service struct {
	repo    Repository
	catalog MedicineCatalog
	now     func() time.Time
	newID   func() string
}

func NewService(repo Repository, catalog MedicineCatalog) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// ItemInput referencia un medicamento existente (MedicineID) o trae uno
// nuevo (Custom) que se registra en el inventario antes de tomar la foto.
type ItemInput struct {
	MedicineID string
	Custom     *medicines.CreateInput
}

type CreateInput struct {
	Name     string
	Symptoms []string
	Items    []ItemInput

	// nil => suma de precios de los medicamentos
	TotalPrice *float64
	Notes      string
}

type UpdateInput = CreateInput

func (s *Service) Create(ctx context.Context, in CreateInput) (TreatmentPlan, error) {
	p, err := s.build(ctx, in)
	if err != nil {
		return TreatmentPlan{}, err
	}

	now := s.now()
	p.ID = s.newID()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return TreatmentPlan{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (TreatmentPlan, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return TreatmentPlan{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List devuelve los planes más recientes primero.
func (s *Service) List(ctx context.Context) ([]TreatmentPlan, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, func(a, b TreatmentPlan) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return items, nil
}

// Update reemplaza el plan completo; las fotos de medicamentos se vuelven a tomar.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (TreatmentPlan, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return TreatmentPlan{}, err
	}

	p, err := s.build(ctx, in)
	if err != nil {
		return TreatmentPlan{}, err
	}
	p.ID = current.ID
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return TreatmentPlan{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) SearchByName(ctx context.Context, term string) ([]TreatmentPlan, error) {
	return s.Search(ctx, search.Text(term))
}

func (s *Service) SearchBySymptoms(ctx context.Context, tags ...string) ([]TreatmentPlan, error) {
	return s.Search(ctx, search.Symptoms(tags...))
}

// Search: mismo flujo que medicines (translate -> store -> rank).
func (s *Service) Search(ctx context.Context, in search.Intent) ([]TreatmentPlan, error) {
	field := FieldName
	if in.BySymptoms() {
		field = FieldSymptoms
	}

	d, err := search.Translate(in, field)
	if err != nil {
		return []TreatmentPlan{}, err
	}

	raw, err := s.repo.Search(ctx, d)
	if err != nil {
		return nil, err
	}
	return search.Rank(in, raw), nil
}

// Lookup devuelve los planes cuyo nombre o alguno de sus síntomas es igual
// a key (case-insensitive). Es el "click" sobre un plan o síntoma.
func (s *Service) Lookup(ctx context.Context, key string) ([]TreatmentPlan, error) {
	k := search.Normalize(key)
	if k == "" {
		return []TreatmentPlan{}, search.ErrEmptyQuery
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TreatmentPlan, 0)
	for _, p := range all {
		if search.Normalize(p.Name) == k || slices.Contains(search.NormalizeTags(p.Symptoms), k) {
			out = append(out, p)
		}
	}
	return search.Rank(search.Text(k), out), nil
}

func (s *Service) build(ctx context.Context, in CreateInput) (TreatmentPlan, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(in.Items) == 0 {
		return TreatmentPlan{}, ErrInvalidInput
	}
	if in.TotalPrice != nil && (*in.TotalPrice < 0 || math.IsNaN(*in.TotalPrice) || math.IsInf(*in.TotalPrice, 0)) {
		return TreatmentPlan{}, ErrInvalidInput
	}

	symptoms := search.CleanTags(in.Symptoms)

	resolved, err := s.resolve(ctx, in.Items, symptoms)
	if err != nil {
		return TreatmentPlan{}, err
	}

	snaps := make([]MedicineSnapshot, 0, len(resolved))
	var sum float64
	for _, m := range resolved {
		snaps = append(snaps, snapshotOf(m))
		sum += m.Price
	}

	total := sum
	if in.TotalPrice != nil {
		total = *in.TotalPrice
	}

	return TreatmentPlan{
		Name:       name,
		Symptoms:   symptoms,
		Medicines:  snaps,
		TotalPrice: total,
		Notes:      strings.TrimSpace(in.Notes),
	}, nil
}

// resolve convierte los items en medicamentos. Primero valida todos (ids
// existentes y custom bien formados); los custom se registran recién cuando
// el plan entero es válido, así un item inválido no deja huérfanos.
func (s *Service) resolve(ctx context.Context, items []ItemInput, planSymptoms []string) ([]medicines.Medicine, error) {
	out := make([]medicines.Medicine, len(items))
	customs := make([]int, 0)

	for i, item := range items {
		id := strings.TrimSpace(item.MedicineID)

		switch {
		case id != "" && item.Custom != nil:
			return nil, ErrInvalidInput

		case id != "":
			m, err := s.catalog.GetByID(ctx, id)
			if errors.Is(err, medicines.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrMedicineNotFound, id)
			}
			if err != nil {
				return nil, err
			}
			out[i] = m

		case item.Custom != nil:
			if err := medicines.Validate(*item.Custom); err != nil {
				return nil, ErrInvalidInput
			}
			customs = append(customs, i)

		default:
			return nil, ErrInvalidInput
		}
	}

	for _, i := range customs {
		custom := *items[i].Custom
		// sin síntomas propios, hereda los del plan
		if len(search.CleanTags(custom.Symptoms)) == 0 {
			custom.Symptoms = planSymptoms
		}
		m, err := s.catalog.Create(ctx, custom)
		if errors.Is(err, medicines.ErrInvalidInput) {
			return nil, ErrInvalidInput
		}
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func snapshotOf(m medicines.Medicine) MedicineSnapshot {
	return MedicineSnapshot{
		MedicineID: m.ID,
		Name:       m.Name,
		Type:       m.Type,
		Notes:      m.Notes,
		Price:      m.Price,
		Location:   m.Location,
	}
}
