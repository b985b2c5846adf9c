package firestore

import (
	"context"
	"fmt"
	"slices"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"medilocator/internal/search"
)

// Backfill completa medicine_name_lower / name_lower y symptoms_lower en los
// documentos que escribió la app web, que no los tiene. Sin esos campos
// las búsquedas no ven el documento. Devuelve cuántos documentos actualizó.
func Backfill(ctx context.Context, client *fs.Client) (int, error) {
	meds, err := backfill(ctx, client.Collection(MedicinesCollection), "medicine_name", "medicine_name_lower")
	if err != nil {
		return meds, fmt.Errorf("backfill %s: %w", MedicinesCollection, err)
	}
	plans, err := backfill(ctx, client.Collection(PlansCollection), "name", "name_lower")
	if err != nil {
		return meds + plans, fmt.Errorf("backfill %s: %w", PlansCollection, err)
	}
	return meds + plans, nil
}

func backfill(ctx context.Context, ref *fs.CollectionRef, nameField, lowerField string) (int, error) {
	it := ref.Documents(ctx)
	defer it.Stop()

	n := 0
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		updates := lowerUpdates(snap.Data(), nameField, lowerField)
		if len(updates) == 0 {
			continue
		}
		if _, err := snap.Ref.Update(ctx, updates); err != nil {
			return n, fmt.Errorf("update %s: %w", snap.Ref.ID, err)
		}
		n++
	}
}

// lowerUpdates devuelve los campos *_lower que faltan o quedaron viejos.
func lowerUpdates(data map[string]any, nameField, lowerField string) []fs.Update {
	var updates []fs.Update

	name, _ := data[nameField].(string)
	if want := search.Normalize(name); data[lowerField] != want {
		updates = append(updates, fs.Update{Path: lowerField, Value: want})
	}

	want := search.NormalizeTags(stringList(data["symptoms"]))
	have, ok := data["symptoms_lower"]
	if !ok || !slices.Equal(stringList(have), want) {
		updates = append(updates, fs.Update{Path: "symptoms_lower", Value: want})
	}
	return updates
}

// stringList convierte un array de Firestore ([]interface{}) a []string,
// ignorando lo que no sea string.
func stringList(v any) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, x := range raw {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
