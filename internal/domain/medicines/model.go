package medicines

import "time"

// Type es la presentación del medicamento. Enum abierto: se aceptan otros
// valores no vacíos, estos son los que ofrece la UI.
// @Enum tablet, syrup, capsule, injection, other
type Type string

const (
	TypeTablet    Type = "tablet"
	TypeSyrup     Type = "syrup"
	TypeCapsule   Type = "capsule"
	TypeInjection Type = "injection"
	TypeOther     Type = "other"
)

// Campos lógicos sobre los que se arman descriptores de búsqueda.
// Cada adapter los traduce a su columna/campo físico.
const (
	FieldName     = "name"
	FieldSymptoms = "symptoms"
)

// Location es dónde está guardado físicamente (armario / fila / caja).
// Son etiquetas opacas, sin orden.
type Location struct {
	Cabinet string
	Row     string
	Box     string
}

// Medicine representa un medicamento registrado en el inventario.
type Medicine struct {
	ID string

	Name     string
	Symptoms []string // tags libres para display; matching case-insensitive

	Location Location
	Type     Type
	Price    float64 // >= 0, 0 si no se informó
	Notes    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m Medicine) SearchName() string       { return m.Name }
func (m Medicine) SearchSymptoms() []string { return m.Symptoms }
