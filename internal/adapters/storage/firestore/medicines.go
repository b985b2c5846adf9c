package firestore

import (
	"context"
	"time"

	fs "cloud.google.com/go/firestore"

	"medilocator/internal/domain/medicines"
	"medilocator/internal/search"
)

// locationDoc conserva el nombre "almirah" de los documentos existentes.
type locationDoc struct {
	Almirah string `firestore:"almirah"`
	Row     string `firestore:"row"`
	Box     string `firestore:"box"`
}

type medicineDoc struct {
	Name          string      `firestore:"medicine_name"`
	NameLower     string      `firestore:"medicine_name_lower"`
	Symptoms      []string    `firestore:"symptoms"`
	SymptomsLower []string    `firestore:"symptoms_lower"`
	Location      locationDoc `firestore:"location"`
	Type          string      `firestore:"type"`
	Price         float64     `firestore:"price"`
	Notes         string      `firestore:"notes"`
	CreatedAt     time.Time   `firestore:"createdAt"`
	UpdatedAt     time.Time   `firestore:"updatedAt"`
}

type MedicinesRepo struct {
	col collection[medicineDoc]
}

func NewMedicinesRepo(client *fs.Client) *MedicinesRepo {
	return &MedicinesRepo{col: collection[medicineDoc]{
		client: client,
		ref:    client.Collection(MedicinesCollection),
		fields: map[string]string{
			medicines.FieldName:     "medicine_name_lower",
			medicines.FieldSymptoms: "symptoms_lower",
		},
		notFound: medicines.ErrNotFound,
		created:  func(d medicineDoc) time.Time { return d.CreatedAt },
	}}
}

func (r *MedicinesRepo) Create(ctx context.Context, m medicines.Medicine) error {
	return r.col.create(ctx, m.ID, toMedicineDoc(m))
}

func (r *MedicinesRepo) Update(ctx context.Context, m medicines.Medicine) error {
	return r.col.replace(ctx, m.ID, toMedicineDoc(m))
}

func (r *MedicinesRepo) Delete(ctx context.Context, id string) error {
	return r.col.delete(ctx, id)
}

func (r *MedicinesRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	e, err := r.col.get(ctx, id)
	if err != nil {
		return medicines.Medicine{}, err
	}
	return fromMedicineDoc(e.id, e.doc), nil
}

func (r *MedicinesRepo) List(ctx context.Context) ([]medicines.Medicine, error) {
	entries, err := r.col.list(ctx)
	if err != nil {
		return nil, err
	}
	return fromMedicineEntries(entries), nil
}

func (r *MedicinesRepo) Search(ctx context.Context, d search.Descriptor) ([]medicines.Medicine, error) {
	entries, err := r.col.search(ctx, d)
	if err != nil {
		return nil, err
	}
	return fromMedicineEntries(entries), nil
}

func toMedicineDoc(m medicines.Medicine) medicineDoc {
	return medicineDoc{
		Name:          m.Name,
		NameLower:     search.Normalize(m.Name),
		Symptoms:      nonNil(m.Symptoms),
		SymptomsLower: search.NormalizeTags(m.Symptoms),
		Location: locationDoc{
			Almirah: m.Location.Cabinet,
			Row:     m.Location.Row,
			Box:     m.Location.Box,
		},
		Type:      string(m.Type),
		Price:     m.Price,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func fromMedicineDoc(id string, d medicineDoc) medicines.Medicine {
	return medicines.Medicine{
		ID:       id,
		Name:     d.Name,
		Symptoms: nonNil(d.Symptoms),
		Location: medicines.Location{
			Cabinet: d.Location.Almirah,
			Row:     d.Location.Row,
			Box:     d.Location.Box,
		},
		Type:      medicines.Type(d.Type),
		Price:     d.Price,
		Notes:     d.Notes,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func fromMedicineEntries(entries []entry[medicineDoc]) []medicines.Medicine {
	out := make([]medicines.Medicine, 0, len(entries))
	for _, e := range entries {
		out = append(out, fromMedicineDoc(e.id, e.doc))
	}
	return out
}
