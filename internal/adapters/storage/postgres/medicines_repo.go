package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"medilocator/internal/domain/medicines"
	"medilocator/internal/search"
)

var ErrUnknownField = errors.New("unknown search field")

type MedicinesRepo struct {
	db *sql.DB
}

func NewMedicinesRepo(db *sql.DB) *MedicinesRepo {
	return &MedicinesRepo{db: db}
}

const medicineColumns = `
	id, name, symptoms,
	cabinet, row_label, box,
	type, price, notes,
	created_at, updated_at
`

func (r *MedicinesRepo) Create(ctx context.Context, m medicines.Medicine) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medicines (
			id, name, name_lower,
			symptoms, symptoms_lower,
			cabinet, row_label, box,
			type, price, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		m.ID,
		m.Name,
		search.Normalize(m.Name),
		nonNil(m.Symptoms),
		search.NormalizeTags(m.Symptoms),
		m.Location.Cabinet,
		m.Location.Row,
		m.Location.Box,
		string(m.Type),
		m.Price,
		m.Notes,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *MedicinesRepo) Update(ctx context.Context, m medicines.Medicine) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medicines
		SET
			name = $2,
			name_lower = $3,
			symptoms = $4,
			symptoms_lower = $5,
			cabinet = $6,
			row_label = $7,
			box = $8,
			type = $9,
			price = $10,
			notes = $11,
			updated_at = $12
		WHERE id = $1
	`,
		m.ID,
		m.Name,
		search.Normalize(m.Name),
		nonNil(m.Symptoms),
		search.NormalizeTags(m.Symptoms),
		m.Location.Cabinet,
		m.Location.Row,
		m.Location.Box,
		string(m.Type),
		m.Price,
		m.Notes,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medicines.ErrNotFound
	}
	return nil
}

func (r *MedicinesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medicines.ErrNotFound
	}
	return nil
}

func (r *MedicinesRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medicines.Medicine{}, medicines.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+medicineColumns+` FROM medicines WHERE id = $1`, id)

	m, err := scanMedicine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	return m, err
}

func (r *MedicinesRepo) List(ctx context.Context) ([]medicines.Medicine, error) {
	return r.query(ctx, `SELECT `+medicineColumns+` FROM medicines ORDER BY created_at ASC, id ASC`)
}

// Search traduce el descriptor a SQL sobre las columnas *_lower.
// El rango compara con COLLATE "C" para que el orden sea por bytes, igual
// que la comparación de strings en Go.
func (r *MedicinesRepo) Search(ctx context.Context, d search.Descriptor) ([]medicines.Medicine, error) {
	where, args, err := descriptorSQL(d, map[string]string{
		medicines.FieldName:     "name_lower",
		medicines.FieldSymptoms: "symptoms_lower",
	})
	if err != nil {
		return nil, err
	}
	return r.query(ctx, `SELECT `+medicineColumns+` FROM medicines WHERE `+where+` ORDER BY created_at ASC, id ASC`, args...)
}

func (r *MedicinesRepo) query(ctx context.Context, q string, args ...any) ([]medicines.Medicine, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medicines.Medicine, 0)
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedicine(s scanner) (medicines.Medicine, error) {
	var m medicines.Medicine
	var typ string
	if err := s.Scan(
		&m.ID,
		&m.Name,
		textArray(&m.Symptoms),
		&m.Location.Cabinet,
		&m.Location.Row,
		&m.Location.Box,
		&typ,
		&m.Price,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medicines.Medicine{}, err
	}
	m.Type = medicines.Type(typ)
	return m, nil
}

// descriptorSQL arma el WHERE para un descriptor. columns mapea el campo
// lógico a la columna normalizada.
func descriptorSQL(d search.Descriptor, columns map[string]string) (string, []any, error) {
	col, ok := columns[d.Field]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownField, d.Field)
	}

	switch d.Shape {
	case search.ShapeRange:
		return fmt.Sprintf(`%[1]s COLLATE "C" >= $1 AND %[1]s COLLATE "C" < $2`, col), []any{d.Lower, d.Upper}, nil
	case search.ShapeMembership:
		if d.AnyOf() {
			return col + ` && $1`, []any{d.Tags}, nil
		}
		return `$1 = ANY(` + col + `)`, []any{d.Tags[0]}, nil
	default:
		return "", nil, fmt.Errorf("unsupported descriptor shape %s", d.Shape)
	}
}
