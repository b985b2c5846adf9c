package plans

import (
	"time"

	"medilocator/internal/domain/medicines"
)

const (
	FieldName     = "name"
	FieldSymptoms = "symptoms"
)

// MedicineSnapshot es una copia de los datos del medicamento al momento de
// armar el plan. No sigue los cambios posteriores del inventario.
type MedicineSnapshot struct {
	MedicineID string

	Name     string
	Type     medicines.Type
	Notes    string
	Price    float64
	Location medicines.Location
}

// TreatmentPlan agrupa medicamentos para un conjunto de síntomas.
type TreatmentPlan struct {
	ID string

	Name     string
	Symptoms []string

	Medicines []MedicineSnapshot // al menos uno

	TotalPrice float64
	Notes      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p TreatmentPlan) SearchName() string       { return p.Name }
func (p TreatmentPlan) SearchSymptoms() []string { return p.Symptoms }
