package plans

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"medilocator/internal/domain/medicines"
	"medilocator/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo / catálogo fake
// -------------------------

type testRepo struct {
	order []string
	byID  map[string]TreatmentPlan
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]TreatmentPlan{}}
}

func (r *testRepo) Create(ctx context.Context, p TreatmentPlan) error {
	if _, ok := r.byID[p.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *testRepo) Update(ctx context.Context, p TreatmentPlan) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (TreatmentPlan, error) {
	p, ok := r.byID[id]
	if !ok {
		return TreatmentPlan{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) List(ctx context.Context) ([]TreatmentPlan, error) {
	out := make([]TreatmentPlan, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) Search(ctx context.Context, d search.Descriptor) ([]TreatmentPlan, error) {
	all, _ := r.List(ctx)
	out := make([]TreatmentPlan, 0)
	for _, p := range all {
		switch d.Field {
		case FieldName:
			if d.Match(search.Normalize(p.Name)) {
				out = append(out, p)
			}
		case FieldSymptoms:
			if d.MatchAny(search.NormalizeTags(p.Symptoms)) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type testCatalog struct {
	byID    map[string]medicines.Medicine
	created []medicines.CreateInput
}

func newTestCatalog(items ...medicines.Medicine) *testCatalog {
	c := &testCatalog{byID: map[string]medicines.Medicine{}}
	for _, m := range items {
		c.byID[m.ID] = m
	}
	return c
}

func (c *testCatalog) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	m, ok := c.byID[id]
	if !ok {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	return m, nil
}

func (c *testCatalog) Create(ctx context.Context, in medicines.CreateInput) (medicines.Medicine, error) {
	if in.Name == "" || in.Type == "" {
		return medicines.Medicine{}, medicines.ErrInvalidInput
	}
	c.created = append(c.created, in)
	m := medicines.Medicine{
		ID:       fmt.Sprintf("custom-%d", len(c.created)),
		Name:     in.Name,
		Symptoms: in.Symptoms,
		Location: in.Location,
		Type:     medicines.Type(in.Type),
		Price:    in.Price,
		Notes:    in.Notes,
	}
	c.byID[m.ID] = m
	return m, nil
}

var (
	crocin = medicines.Medicine{
		ID:       "med-1",
		Name:     "Crocin",
		Symptoms: []string{"fever"},
		Location: medicines.Location{Cabinet: "A", Row: "1", Box: "3"},
		Type:     medicines.TypeTablet,
		Price:    30,
	}
	benadryl = medicines.Medicine{
		ID:       "med-2",
		Name:     "Benadryl",
		Symptoms: []string{"cough"},
		Location: medicines.Location{Cabinet: "B", Row: "2", Box: "1"},
		Type:     medicines.TypeSyrup,
		Price:    95.5,
	}
)

type fixture struct {
	svc     *Service
	repo    *testRepo
	catalog *testCatalog
	clock   time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo:    newTestRepo(),
		catalog: newTestCatalog(crocin, benadryl),
		clock:   time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, f.catalog)
	f.svc.now = func() time.Time { return f.clock }
	n := 0
	f.svc.newID = func() string {
		n++
		return fmt.Sprintf("plan-%d", n)
	}
	return f
}

func planInput(name string, symptoms []string, ids ...string) CreateInput {
	items := make([]ItemInput, 0, len(ids))
	for _, id := range ids {
		items = append(items, ItemInput{MedicineID: id})
	}
	return CreateInput{Name: name, Symptoms: symptoms, Items: items}
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_SnapshotsAndDefaultTotal(t *testing.T) {
	f := newFixture()

	p, err := f.svc.Create(context.Background(), planInput(" Flu ", []string{"Fever", "fever", "Cough"}, "med-1", "med-2"))
	require.NoError(t, err)

	assert.Equal(t, "plan-1", p.ID)
	assert.Equal(t, "Flu", p.Name)
	assert.Equal(t, []string{"Fever", "Cough"}, p.Symptoms)
	require.Len(t, p.Medicines, 2)
	assert.Equal(t, "Crocin", p.Medicines[0].Name)
	assert.Equal(t, crocin.Location, p.Medicines[0].Location)
	assert.Equal(t, medicines.TypeSyrup, p.Medicines[1].Type)
	assert.InDelta(t, 125.5, p.TotalPrice, 1e-9)
}

func TestService_Create_ExplicitTotal(t *testing.T) {
	f := newFixture()
	total := 100.0

	in := planInput("Flu", nil, "med-1")
	in.TotalPrice = &total
	p, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.TotalPrice)

	negative := -1.0
	in.TotalPrice = &negative
	_, err = f.svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Create_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), planInput("  ", nil, "med-1"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(context.Background(), planInput("Flu", nil))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(context.Background(), CreateInput{Name: "Flu", Items: []ItemInput{{}}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(context.Background(), CreateInput{Name: "Flu", Items: []ItemInput{{
		MedicineID: "med-1",
		Custom:     &medicines.CreateInput{Name: "X", Type: "tablet"},
	}}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, f.repo.byID)
}

func TestService_Create_UnknownMedicine(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), planInput("Flu", nil, "med-1", "nope"))
	assert.ErrorIs(t, err, ErrMedicineNotFound)
	assert.Contains(t, err.Error(), "nope")
	assert.Empty(t, f.repo.byID)
}

func TestService_Create_CustomMedicineIsRegistered(t *testing.T) {
	f := newFixture()

	p, err := f.svc.Create(context.Background(), CreateInput{
		Name:     "Allergy",
		Symptoms: []string{"sneezing"},
		Items: []ItemInput{
			{MedicineID: "med-2"},
			{Custom: &medicines.CreateInput{
				Name:     "Cetirizine",
				Location: medicines.Location{Cabinet: "C", Row: "1", Box: "2"},
				Type:     "tablet",
				Price:    12,
			}},
		},
	})
	require.NoError(t, err)

	require.Len(t, f.catalog.created, 1)
	assert.Equal(t, []string{"sneezing"}, f.catalog.created[0].Symptoms)

	require.Len(t, p.Medicines, 2)
	assert.Equal(t, "custom-1", p.Medicines[1].MedicineID)
	assert.Equal(t, "Cetirizine", p.Medicines[1].Name)
	assert.InDelta(t, 107.5, p.TotalPrice, 1e-9)

	_, err = f.catalog.GetByID(context.Background(), "custom-1")
	assert.NoError(t, err)
}

func TestService_Create_InvalidCustomMedicine(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateInput{
		Name:  "Allergy",
		Items: []ItemInput{{Custom: &medicines.CreateInput{Name: "Cetirizine"}}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Create_FailedPlanRegistersNothing(t *testing.T) {
	cetirizine := &medicines.CreateInput{
		Name:     "Cetirizine",
		Location: medicines.Location{Cabinet: "C", Row: "1", Box: "2"},
		Type:     "tablet",
	}

	cases := map[string]ItemInput{
		"unknown medicine": {MedicineID: "does-not-exist"},
		"invalid custom":   {Custom: &medicines.CreateInput{Name: "No location", Type: "tablet"}},
		"empty item":       {},
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()

			_, err := f.svc.Create(context.Background(), CreateInput{
				Name:  "Allergy",
				Items: []ItemInput{{Custom: cetirizine}, bad},
			})
			require.Error(t, err)

			assert.Empty(t, f.catalog.created)
			assert.Len(t, f.catalog.byID, 2)
			assert.Empty(t, f.repo.byID)
		})
	}
}

func TestService_Update_FailedPlanRegistersNothing(t *testing.T) {
	f := newFixture()
	p, err := f.svc.Create(context.Background(), planInput("Flu", nil, "med-1"))
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), p.ID, CreateInput{
		Name: "Flu",
		Items: []ItemInput{
			{Custom: &medicines.CreateInput{
				Name:     "Honitus",
				Location: medicines.Location{Cabinet: "A", Row: "2", Box: "2"},
				Type:     "syrup",
			}},
			{MedicineID: "nope"},
		},
	})
	assert.ErrorIs(t, err, ErrMedicineNotFound)
	assert.Empty(t, f.catalog.created)

	got, err := f.svc.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, got.Medicines, 1)
	assert.Equal(t, "Crocin", got.Medicines[0].Name)
}

func TestService_SnapshotDoesNotFollowMedicineEdits(t *testing.T) {
	f := newFixture()

	p, err := f.svc.Create(context.Background(), planInput("Fever", nil, "med-1"))
	require.NoError(t, err)

	edited := crocin
	edited.Name = "Crocin 650"
	edited.Price = 45
	f.catalog.byID[crocin.ID] = edited

	got, err := f.svc.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Crocin", got.Medicines[0].Name)
	assert.Equal(t, 30.0, got.Medicines[0].Price)
}

func TestService_Update_ResnapshotsAndKeepsCreatedAt(t *testing.T) {
	f := newFixture()

	p, err := f.svc.Create(context.Background(), planInput("Fever", nil, "med-1"))
	require.NoError(t, err)

	edited := crocin
	edited.Price = 45
	f.catalog.byID[crocin.ID] = edited
	f.clock = f.clock.Add(time.Hour)

	updated, err := f.svc.Update(context.Background(), p.ID, planInput("Fever", []string{"fever"}, "med-1"))
	require.NoError(t, err)

	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)
	assert.Equal(t, f.clock, updated.UpdatedAt)
	assert.Equal(t, 45.0, updated.TotalPrice)
	assert.Equal(t, 45.0, f.repo.byID[p.ID].Medicines[0].Price)

	_, err = f.svc.Update(context.Background(), "missing", planInput("X", nil, "med-1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_List_NewestFirst(t *testing.T) {
	f := newFixture()
	for _, name := range []string{"first", "second", "third"} {
		_, err := f.svc.Create(context.Background(), planInput(name, nil, "med-1"))
		require.NoError(t, err)
		f.clock = f.clock.Add(time.Minute)
	}

	items, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "third", items[0].Name)
	assert.Equal(t, "first", items[2].Name)
}

func TestService_Delete(t *testing.T) {
	f := newFixture()
	p, err := f.svc.Create(context.Background(), planInput("Flu", nil, "med-1"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), p.ID))
	assert.ErrorIs(t, f.svc.Delete(context.Background(), p.ID), ErrNotFound)

	// el inventario no se toca
	_, err = f.catalog.GetByID(context.Background(), "med-1")
	assert.NoError(t, err)
}

func TestService_SearchByName_Ranked(t *testing.T) {
	f := newFixture()
	for _, name := range []string{"Fever Adult", "Fever", "Cold"} {
		_, err := f.svc.Create(context.Background(), planInput(name, nil, "med-1"))
		require.NoError(t, err)
	}

	items, err := f.svc.SearchByName(context.Background(), "fev")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Fever", items[0].Name)
	assert.Equal(t, "Fever Adult", items[1].Name)

	items, err = f.svc.SearchByName(context.Background(), " ")
	assert.ErrorIs(t, err, search.ErrEmptyQuery)
	assert.Empty(t, items)
}

func TestService_SearchBySymptoms_RankedByMatches(t *testing.T) {
	f := newFixture()
	_, _ = f.svc.Create(context.Background(), planInput("Cold", []string{"cough"}, "med-2"))
	_, _ = f.svc.Create(context.Background(), planInput("Flu", []string{"Fever", "Cough"}, "med-1", "med-2"))
	_, _ = f.svc.Create(context.Background(), planInput("Rash", []string{"itching"}, "med-1"))

	items, err := f.svc.SearchBySymptoms(context.Background(), "fever", "cough")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Flu", items[0].Name)
	assert.Equal(t, "Cold", items[1].Name)
}

func TestService_Lookup_ExactNameOrSymptom(t *testing.T) {
	f := newFixture()
	_, _ = f.svc.Create(context.Background(), planInput("Fever", nil, "med-1"))
	_, _ = f.svc.Create(context.Background(), planInput("Flu", []string{"fever"}, "med-1"))
	_, _ = f.svc.Create(context.Background(), planInput("Fever Adult", nil, "med-1"))

	items, err := f.svc.Lookup(context.Background(), " FEVER ")
	require.NoError(t, err)

	got := make([]string, 0, len(items))
	for _, p := range items {
		got = append(got, p.Name)
	}
	// "Fever Adult" no es igual ni tiene el síntoma
	assert.Equal(t, []string{"Fever", "Flu"}, got)

	_, err = f.svc.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, search.ErrEmptyQuery)
}
