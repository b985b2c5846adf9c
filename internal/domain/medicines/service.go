package medicines

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"time"

	"medilocator/internal/search"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medicine not found")
)

type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

type CreateInput struct {
	Name     string
	Symptoms []string
	Location Location
	Type     string
	Price    float64
	Notes    string
}

// UpdateInput reemplaza el registro completo (no hay updates parciales).
type UpdateInput = CreateInput

func (s *Service) Create(ctx context.Context, in CreateInput) (Medicine, error) {
	m, err := normalizeInput(in)
	if err != nil {
		return Medicine{}, err
	}

	now := s.now()
	m.ID = s.newID()
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := s.repo.Create(ctx, m); err != nil {
		return Medicine{}, err
	}
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medicine, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medicine{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List devuelve todo el inventario ordenado por nombre.
func (s *Service) List(ctx context.Context) ([]Medicine, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, func(a, b Medicine) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return items, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Medicine, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Medicine{}, err
	}

	m, err := normalizeInput(in)
	if err != nil {
		return Medicine{}, err
	}
	m.ID = current.ID
	m.CreatedAt = current.CreatedAt
	m.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, m); err != nil {
		return Medicine{}, err
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) SearchByName(ctx context.Context, term string) ([]Medicine, error) {
	return s.Search(ctx, search.Text(term))
}

func (s *Service) SearchByLetter(ctx context.Context, letter string) ([]Medicine, error) {
	return s.Search(ctx, search.Letter(letter))
}

func (s *Service) SearchBySymptoms(ctx context.Context, tags ...string) ([]Medicine, error) {
	return s.Search(ctx, search.Symptoms(tags...))
}

// Search traduce la intención, consulta el store y rankea.
// Si no hay nada que buscar devuelve lista vacía + search.ErrEmptyQuery sin
// tocar el store. Errores del store se devuelven tal cual.
func (s *Service) Search(ctx context.Context, in search.Intent) ([]Medicine, error) {
	field := FieldName
	if in.BySymptoms() {
		field = FieldSymptoms
	}

	d, err := search.Translate(in, field)
	if err != nil {
		return []Medicine{}, err
	}

	raw, err := s.repo.Search(ctx, d)
	if err != nil {
		return nil, err
	}
	return search.Rank(in, raw), nil
}

// Validate aplica las mismas reglas que Create sin tocar el store.
func Validate(in CreateInput) error {
	_, err := normalizeInput(in)
	return err
}

func normalizeInput(in CreateInput) (Medicine, error) {
	m := Medicine{
		Name:     strings.TrimSpace(in.Name),
		Symptoms: search.CleanTags(in.Symptoms),
		Location: Location{
			Cabinet: strings.TrimSpace(in.Location.Cabinet),
			Row:     strings.TrimSpace(in.Location.Row),
			Box:     strings.TrimSpace(in.Location.Box),
		},
		Type:  Type(strings.ToLower(strings.TrimSpace(in.Type))),
		Price: in.Price,
		Notes: strings.TrimSpace(in.Notes),
	}

	if m.Name == "" || m.Type == "" {
		return Medicine{}, ErrInvalidInput
	}
	if m.Location.Cabinet == "" || m.Location.Row == "" || m.Location.Box == "" {
		return Medicine{}, ErrInvalidInput
	}
	if m.Price < 0 || math.IsNaN(m.Price) || math.IsInf(m.Price, 0) {
		return Medicine{}, ErrInvalidInput
	}
	return m, nil
}
