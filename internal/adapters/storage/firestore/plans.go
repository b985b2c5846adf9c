package firestore

import (
	"context"
	"time"

	fs "cloud.google.com/go/firestore"

	"medilocator/internal/domain/medicines"
	"medilocator/internal/domain/plans"
	"medilocator/internal/search"
)

// snapshotDoc: misma forma que escribe la app web al guardar un plan.
// Algunos planes viejos traen el nombre en medicine_name; solo se lee.
type snapshotDoc struct {
	ID         string      `firestore:"id"`
	Name       string      `firestore:"name"`
	LegacyName string      `firestore:"medicine_name,omitempty"`
	Type       string      `firestore:"type"`
	Notes      string      `firestore:"notes"`
	Price      float64     `firestore:"price"`
	Location   locationDoc `firestore:"location"`
}

type planDoc struct {
	Name          string        `firestore:"name"`
	NameLower     string        `firestore:"name_lower"`
	Symptoms      []string      `firestore:"symptoms"`
	SymptomsLower []string      `firestore:"symptoms_lower"`
	Medicines     []snapshotDoc `firestore:"medicines"`
	TotalPrice    float64       `firestore:"total_price"`
	Notes         string        `firestore:"notes"`
	CreatedAt     time.Time     `firestore:"created_at"`
	UpdatedAt     time.Time     `firestore:"updated_at"`
}

type PlansRepo struct {
	col collection[planDoc]
}

func NewPlansRepo(client *fs.Client) *PlansRepo {
	return &PlansRepo{col: collection[planDoc]{
		client: client,
		ref:    client.Collection(PlansCollection),
		fields: map[string]string{
			plans.FieldName:     "name_lower",
			plans.FieldSymptoms: "symptoms_lower",
		},
		notFound: plans.ErrNotFound,
		created:  func(d planDoc) time.Time { return d.CreatedAt },
	}}
}

func (r *PlansRepo) Create(ctx context.Context, p plans.TreatmentPlan) error {
	return r.col.create(ctx, p.ID, toPlanDoc(p))
}

func (r *PlansRepo) Update(ctx context.Context, p plans.TreatmentPlan) error {
	return r.col.replace(ctx, p.ID, toPlanDoc(p))
}

func (r *PlansRepo) Delete(ctx context.Context, id string) error {
	return r.col.delete(ctx, id)
}

func (r *PlansRepo) GetByID(ctx context.Context, id string) (plans.TreatmentPlan, error) {
	e, err := r.col.get(ctx, id)
	if err != nil {
		return plans.TreatmentPlan{}, err
	}
	return fromPlanDoc(e.id, e.doc), nil
}

func (r *PlansRepo) List(ctx context.Context) ([]plans.TreatmentPlan, error) {
	entries, err := r.col.list(ctx)
	if err != nil {
		return nil, err
	}
	return fromPlanEntries(entries), nil
}

func (r *PlansRepo) Search(ctx context.Context, d search.Descriptor) ([]plans.TreatmentPlan, error) {
	entries, err := r.col.search(ctx, d)
	if err != nil {
		return nil, err
	}
	return fromPlanEntries(entries), nil
}

func toPlanDoc(p plans.TreatmentPlan) planDoc {
	meds := make([]snapshotDoc, 0, len(p.Medicines))
	for _, s := range p.Medicines {
		meds = append(meds, snapshotDoc{
			ID:    s.MedicineID,
			Name:  s.Name,
			Type:  string(s.Type),
			Notes: s.Notes,
			Price: s.Price,
			Location: locationDoc{
				Almirah: s.Location.Cabinet,
				Row:     s.Location.Row,
				Box:     s.Location.Box,
			},
		})
	}

	return planDoc{
		Name:          p.Name,
		NameLower:     search.Normalize(p.Name),
		Symptoms:      nonNil(p.Symptoms),
		SymptomsLower: search.NormalizeTags(p.Symptoms),
		Medicines:     meds,
		TotalPrice:    p.TotalPrice,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromPlanDoc(id string, d planDoc) plans.TreatmentPlan {
	meds := make([]plans.MedicineSnapshot, 0, len(d.Medicines))
	for _, s := range d.Medicines {
		name := s.Name
		if name == "" {
			name = s.LegacyName
		}
		meds = append(meds, plans.MedicineSnapshot{
			MedicineID: s.ID,
			Name:       name,
			Type:       medicines.Type(s.Type),
			Notes:      s.Notes,
			Price:      s.Price,
			Location: medicines.Location{
				Cabinet: s.Location.Almirah,
				Row:     s.Location.Row,
				Box:     s.Location.Box,
			},
		})
	}

	return plans.TreatmentPlan{
		ID:         id,
		Name:       d.Name,
		Symptoms:   nonNil(d.Symptoms),
		Medicines:  meds,
		TotalPrice: d.TotalPrice,
		Notes:      d.Notes,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func fromPlanEntries(entries []entry[planDoc]) []plans.TreatmentPlan {
	out := make([]plans.TreatmentPlan, 0, len(entries))
	for _, e := range entries {
		out = append(out, fromPlanDoc(e.id, e.doc))
	}
	return out
}
