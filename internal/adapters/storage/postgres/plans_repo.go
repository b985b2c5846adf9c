package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"medilocator/internal/domain/medicines"
	"medilocator/internal/domain/plans"
	"medilocator/internal/search"
)

type PlansRepo struct {
	db *sql.DB
}

func NewPlansRepo(db *sql.DB) *PlansRepo {
	return &PlansRepo{db: db}
}

const planColumns = `
	id, name, symptoms,
	medicines, total_price, notes,
	created_at, updated_at
`

// snapshotRow es la forma JSONB de cada medicamento del plan.
type snapshotRow struct {
	MedicineID string  `json:"medicine_id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Notes      string  `json:"notes"`
	Price      float64 `json:"price"`
	Cabinet    string  `json:"cabinet"`
	Row        string  `json:"row"`
	Box        string  `json:"box"`
}

func (r *PlansRepo) Create(ctx context.Context, p plans.TreatmentPlan) error {
	meds, err := encodeSnapshots(p.Medicines)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO treatment_plans (
			id, name, name_lower,
			symptoms, symptoms_lower,
			medicines, total_price, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		p.ID,
		p.Name,
		search.Normalize(p.Name),
		nonNil(p.Symptoms),
		search.NormalizeTags(p.Symptoms),
		meds,
		p.TotalPrice,
		p.Notes,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PlansRepo) Update(ctx context.Context, p plans.TreatmentPlan) error {
	meds, err := encodeSnapshots(p.Medicines)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE treatment_plans
		SET
			name = $2,
			name_lower = $3,
			symptoms = $4,
			symptoms_lower = $5,
			medicines = $6,
			total_price = $7,
			notes = $8,
			updated_at = $9
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		search.Normalize(p.Name),
		nonNil(p.Symptoms),
		search.NormalizeTags(p.Symptoms),
		meds,
		p.TotalPrice,
		p.Notes,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return plans.ErrNotFound
	}
	return nil
}

func (r *PlansRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM treatment_plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return plans.ErrNotFound
	}
	return nil
}

func (r *PlansRepo) GetByID(ctx context.Context, id string) (plans.TreatmentPlan, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return plans.TreatmentPlan{}, plans.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM treatment_plans WHERE id = $1`, id)

	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return plans.TreatmentPlan{}, plans.ErrNotFound
	}
	return p, err
}

func (r *PlansRepo) List(ctx context.Context) ([]plans.TreatmentPlan, error) {
	return r.query(ctx, `SELECT `+planColumns+` FROM treatment_plans ORDER BY created_at ASC, id ASC`)
}

func (r *PlansRepo) Search(ctx context.Context, d search.Descriptor) ([]plans.TreatmentPlan, error) {
	where, args, err := descriptorSQL(d, map[string]string{
		plans.FieldName:     "name_lower",
		plans.FieldSymptoms: "symptoms_lower",
	})
	if err != nil {
		return nil, err
	}
	return r.query(ctx, `SELECT `+planColumns+` FROM treatment_plans WHERE `+where+` ORDER BY created_at ASC, id ASC`, args...)
}

func (r *PlansRepo) query(ctx context.Context, q string, args ...any) ([]plans.TreatmentPlan, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]plans.TreatmentPlan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPlan(s scanner) (plans.TreatmentPlan, error) {
	var p plans.TreatmentPlan
	var meds []byte
	if err := s.Scan(
		&p.ID,
		&p.Name,
		textArray(&p.Symptoms),
		&meds,
		&p.TotalPrice,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return plans.TreatmentPlan{}, err
	}

	snaps, err := decodeSnapshots(meds)
	if err != nil {
		return plans.TreatmentPlan{}, err
	}
	p.Medicines = snaps
	return p, nil
}

func encodeSnapshots(in []plans.MedicineSnapshot) ([]byte, error) {
	rows := make([]snapshotRow, 0, len(in))
	for _, s := range in {
		rows = append(rows, snapshotRow{
			MedicineID: s.MedicineID,
			Name:       s.Name,
			Type:       string(s.Type),
			Notes:      s.Notes,
			Price:      s.Price,
			Cabinet:    s.Location.Cabinet,
			Row:        s.Location.Row,
			Box:        s.Location.Box,
		})
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode plan medicines: %w", err)
	}
	return b, nil
}

func decodeSnapshots(b []byte) ([]plans.MedicineSnapshot, error) {
	var rows []snapshotRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("decode plan medicines: %w", err)
	}
	out := make([]plans.MedicineSnapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, plans.MedicineSnapshot{
			MedicineID: r.MedicineID,
			Name:       r.Name,
			Type:       medicines.Type(r.Type),
			Notes:      r.Notes,
			Price:      r.Price,
			Location: medicines.Location{
				Cabinet: r.Cabinet,
				Row:     r.Row,
				Box:     r.Box,
			},
		})
	}
	return out, nil
}
