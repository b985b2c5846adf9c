// Package firestore guarda medicamentos y planes en Cloud Firestore con el
// mismo layout de documentos que usa la app web (colecciones medicines y
// treatmentPlans), más campos *_lower para las búsquedas.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"medilocator/internal/search"
)

const (
	MedicinesCollection = "medicines"
	PlansCollection     = "treatmentPlans"

	// tope de valores por consulta array-contains-any
	maxAnyOf = 30
)

var (
	ErrUnknownField  = errors.New("unknown search field")
	ErrAlreadyExists = errors.New("already exists")
)

// Open crea el cliente. Las credenciales salen de ADC
// (GOOGLE_APPLICATION_CREDENTIALS o FIRESTORE_EMULATOR_HOST).
func Open(ctx context.Context, projectID string) (*fs.Client, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("firestore: project id required")
	}
	return fs.NewClient(ctx, projectID)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// collection agrupa lo común a las dos colecciones: CRUD por id y la
// ejecución de descriptores. T es el tipo de documento.
type collection[T any] struct {
	client   *fs.Client
	ref      *fs.CollectionRef
	fields   map[string]string // campo lógico -> campo *_lower del documento
	notFound error
	created  func(T) time.Time
}

type entry[T any] struct {
	id  string
	doc T
}

func (c collection[T]) create(ctx context.Context, id string, doc T) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("firestore: id required")
	}
	_, err := c.ref.Doc(id).Create(ctx, doc)
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}
	return err
}

// replace reemplaza el documento completo si existe.
func (c collection[T]) replace(ctx context.Context, id string, doc T) error {
	ref := c.ref.Doc(id)
	return c.client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if isNotFound(err) {
				return c.notFound
			}
			return err
		}
		return tx.Set(ref, doc)
	})
}

func (c collection[T]) delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return c.notFound
	}
	_, err := c.ref.Doc(id).Delete(ctx, fs.Exists)
	if isNotFound(err) {
		return c.notFound
	}
	return err
}

func (c collection[T]) get(ctx context.Context, id string) (entry[T], error) {
	if strings.TrimSpace(id) == "" {
		return entry[T]{}, c.notFound
	}
	snap, err := c.ref.Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return entry[T]{}, c.notFound
		}
		return entry[T]{}, err
	}

	var doc T
	if err := snap.DataTo(&doc); err != nil {
		return entry[T]{}, fmt.Errorf("decode %s/%s: %w", c.ref.ID, id, err)
	}
	return entry[T]{id: snap.Ref.ID, doc: doc}, nil
}

func (c collection[T]) list(ctx context.Context) ([]entry[T], error) {
	out, err := c.collect(ctx, c.ref.Query, nil)
	if err != nil {
		return nil, err
	}
	c.sort(out)
	return out, nil
}

// search ejecuta el descriptor. El rango es [Lower, Upper) sobre el campo
// normalizado; la membresía usa array-contains / array-contains-any, partida
// en lotes de maxAnyOf y mergeada sin duplicados.
func (c collection[T]) search(ctx context.Context, d search.Descriptor) ([]entry[T], error) {
	field, ok := c.fields[d.Field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, d.Field)
	}

	var out []entry[T]
	switch d.Shape {
	case search.ShapeRange:
		q := c.ref.Where(field, ">=", d.Lower).Where(field, "<", d.Upper)
		res, err := c.collect(ctx, q, nil)
		if err != nil {
			return nil, err
		}
		out = res

	case search.ShapeMembership:
		if !d.AnyOf() {
			res, err := c.collect(ctx, c.ref.Where(field, "array-contains", d.Tags[0]), nil)
			if err != nil {
				return nil, err
			}
			out = res
			break
		}

		seen := make(map[string]struct{})
		for chunk := range slices.Chunk(d.Tags, maxAnyOf) {
			values := make([]any, 0, len(chunk))
			for _, t := range chunk {
				values = append(values, t)
			}
			res, err := c.collect(ctx, c.ref.Where(field, "array-contains-any", values), seen)
			if err != nil {
				return nil, err
			}
			out = append(out, res...)
		}

	default:
		return nil, fmt.Errorf("unsupported descriptor shape %s", d.Shape)
	}

	c.sort(out)
	return out, nil
}

// collect itera la consulta. Con seen != nil descarta ids ya vistos.
func (c collection[T]) collect(ctx context.Context, q fs.Query, seen map[string]struct{}) ([]entry[T], error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	out := make([]entry[T], 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}

		if seen != nil {
			if _, dup := seen[snap.Ref.ID]; dup {
				continue
			}
			seen[snap.Ref.ID] = struct{}{}
		}

		var doc T
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", c.ref.ID, snap.Ref.ID, err)
		}
		out = append(out, entry[T]{id: snap.Ref.ID, doc: doc})
	}
	return out, nil
}

// Firestore no garantiza orden entre consultas: se fija por alta y luego id.
func (c collection[T]) sort(items []entry[T]) {
	slices.SortStableFunc(items, func(a, b entry[T]) int {
		if r := c.created(a.doc).Compare(c.created(b.doc)); r != 0 {
			return r
		}
		return strings.Compare(a.id, b.id)
	})
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
