package memory

import (
	"context"
	"testing"
	"time"

	"medilocator/internal/domain/medicines"
	"medilocator/internal/domain/plans"
	"medilocator/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMedicines(t *testing.T, repo medicines.Repository) {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []medicines.Medicine{
		{ID: "1", Name: "Paracetamol", Symptoms: []string{"Fever", "Headache"}},
		{ID: "2", Name: "para", Symptoms: []string{"fever"}},
		{ID: "3", Name: "Benadryl", Symptoms: []string{"Cough"}},
		{ID: "4", Name: "Parax", Symptoms: nil},
	}
	for i, m := range items {
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(context.Background(), m))
	}
}

func ids(items []medicines.Medicine) []string {
	out := make([]string, 0, len(items))
	for _, m := range items {
		out = append(out, m.ID)
	}
	return out
}

func TestMedicinesRepo_CRUD(t *testing.T) {
	repo := NewMedicinesRepo()
	ctx := context.Background()

	assert.ErrorIs(t, repo.Create(ctx, medicines.Medicine{}), ErrMissingID)
	require.NoError(t, repo.Create(ctx, medicines.Medicine{ID: "a", Name: "A"}))
	assert.ErrorIs(t, repo.Create(ctx, medicines.Medicine{ID: "a"}), ErrAlreadyExists)

	require.NoError(t, repo.Update(ctx, medicines.Medicine{ID: "a", Name: "B"}))
	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)

	assert.ErrorIs(t, repo.Update(ctx, medicines.Medicine{ID: "x"}), medicines.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), medicines.ErrNotFound)
	_, err = repo.GetByID(ctx, "a")
	assert.ErrorIs(t, err, medicines.ErrNotFound)
}

func TestMedicinesRepo_StoredCopyIsIsolated(t *testing.T) {
	repo := NewMedicinesRepo()
	ctx := context.Background()

	symptoms := []string{"fever"}
	require.NoError(t, repo.Create(ctx, medicines.Medicine{ID: "a", Symptoms: symptoms}))
	symptoms[0] = "changed"

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"fever"}, got.Symptoms)
}

func TestMedicinesRepo_SearchRange(t *testing.T) {
	repo := NewMedicinesRepo()
	seedMedicines(t, repo)

	d, err := search.Translate(search.Text("PARA"), medicines.FieldName)
	require.NoError(t, err)

	got, err := repo.Search(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "4"}, ids(got))
}

func TestMedicinesRepo_SearchRange_WideCharacters(t *testing.T) {
	repo := NewMedicinesRepo()
	ctx := context.Background()
	for i, name := range []string{"Para", "Para😀 Kids", "Para＋Plus", "Parb"} {
		require.NoError(t, repo.Create(ctx, medicines.Medicine{
			ID:        name,
			Name:      name,
			CreatedAt: time.Date(2025, 1, 1, 0, i, 0, 0, time.UTC),
		}))
	}

	d, err := search.Translate(search.Text("para"), medicines.FieldName)
	require.NoError(t, err)

	got, err := repo.Search(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, []string{"Para", "Para😀 Kids", "Para＋Plus"}, ids(got))
}

func TestMedicinesRepo_SearchMembership(t *testing.T) {
	repo := NewMedicinesRepo()
	seedMedicines(t, repo)

	d, err := search.Translate(search.Symptoms("fever"), medicines.FieldSymptoms)
	require.NoError(t, err)
	got, err := repo.Search(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(got))

	d, err = search.Translate(search.Symptoms("cough", "headache"), medicines.FieldSymptoms)
	require.NoError(t, err)
	got, err = repo.Search(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(got))
}

func TestMedicinesRepo_SearchUnknownField(t *testing.T) {
	repo := NewMedicinesRepo()
	_, err := repo.Search(context.Background(), search.Descriptor{Shape: search.ShapeRange, Field: "price"})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestPlansRepo_CRUDAndSearch(t *testing.T) {
	repo := NewPlansRepo()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, plans.TreatmentPlan{
		ID: "p1", Name: "Flu", Symptoms: []string{"Fever", "Cough"}, CreatedAt: base,
		Medicines: []plans.MedicineSnapshot{{MedicineID: "m1", Name: "Crocin"}},
	}))
	require.NoError(t, repo.Create(ctx, plans.TreatmentPlan{
		ID: "p2", Name: "Fever kit", Symptoms: []string{"fever"}, CreatedAt: base.Add(time.Minute),
	}))
	assert.ErrorIs(t, repo.Create(ctx, plans.TreatmentPlan{ID: "p1"}), ErrAlreadyExists)

	d, err := search.Translate(search.Text("f"), plans.FieldName)
	require.NoError(t, err)
	got, err := repo.Search(ctx, d)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)

	d, err = search.Translate(search.Symptoms("COUGH"), plans.FieldSymptoms)
	require.NoError(t, err)
	got, err = repo.Search(ctx, d)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Crocin", got[0].Medicines[0].Name)

	assert.ErrorIs(t, repo.Update(ctx, plans.TreatmentPlan{ID: "nope"}), plans.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "p2"))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
