// Package search contiene el motor de búsqueda de MediLocator:
// traducción de intenciones a descriptores de consulta y ranking de resultados.
// Todo es puro y sin estado; los stores ejecutan el descriptor y el ranker
// ordena lo que devuelven.
package search

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyQuery indica que no se emite consulta (término o tags vacíos).
	ErrEmptyQuery    = errors.New("empty query")
	ErrUnknownIntent = errors.New("unknown intent kind")
)

// Sentinel es el code point más alto (U+10FFFF) y cierra los rangos de
// prefijo: [term, term+Sentinel). En UTF-8 ordena después de cualquier
// otro carácter.
const Sentinel = "\U0010FFFF"

type Kind string

const (
	KindText          Kind = "text"
	KindLetter        Kind = "letter"
	KindSymptomSingle Kind = "symptom-single"
	KindSymptomMulti  Kind = "symptom-multi"
)

// Intent es lo que pidió el usuario: un término, una letra o un set de síntomas.
type Intent struct {
	Kind Kind
	Term string
	Tags []string
}

func Text(term string) Intent {
	return Intent{Kind: KindText, Term: term}
}

func Letter(letter string) Intent {
	return Intent{Kind: KindLetter, Term: letter}
}

// Symptoms arma la intención de síntomas; single o multi según cuántos tags
// quedan después de normalizar.
func Symptoms(tags ...string) Intent {
	norm := NormalizeTags(tags)
	if len(norm) == 1 {
		return Intent{Kind: KindSymptomSingle, Tags: tags}
	}
	return Intent{Kind: KindSymptomMulti, Tags: tags}
}

// ByName indica si la intención se rankea por nombre (text/letter).
func (in Intent) ByName() bool {
	return in.Kind == KindText || in.Kind == KindLetter
}

// BySymptoms indica si la intención se rankea por coincidencia de síntomas.
func (in Intent) BySymptoms() bool {
	return in.Kind == KindSymptomSingle || in.Kind == KindSymptomMulti
}

// Shape es la forma del descriptor.
type Shape int

const (
	ShapeRange Shape = iota + 1
	ShapeMembership
)

func (s Shape) String() string {
	switch s {
	case ShapeRange:
		return "range"
	case ShapeMembership:
		return "membership"
	default:
		return "unknown"
	}
}

// Descriptor describe qué tiene que ejecutar el store:
// - ShapeRange: Field en [Lower, Upper)
// - ShapeMembership: Field (multi-valor) contiene alguno de Tags
type Descriptor struct {
	Shape Shape
	Field string

	Lower string
	Upper string

	Tags []string
}

// AnyOf indica si la membresía es contra más de un tag (contains-any).
func (d Descriptor) AnyOf() bool {
	return d.Shape == ShapeMembership && len(d.Tags) > 1
}

// Match evalúa un descriptor de rango sobre un valor ya normalizado.
func (d Descriptor) Match(value string) bool {
	if d.Shape != ShapeRange {
		return false
	}
	return value >= d.Lower && value < d.Upper
}

// MatchAny evalúa un descriptor de membresía sobre los valores (normalizados)
// de un campo multi-valor.
func (d Descriptor) MatchAny(values []string) bool {
	if d.Shape != ShapeMembership {
		return false
	}
	for _, v := range values {
		for _, t := range d.Tags {
			if v == t {
				return true
			}
		}
	}
	return false
}

// Translate convierte la intención en un descriptor sobre field.
// Devuelve ErrEmptyQuery si no hay nada que buscar: en ese caso no se
// debe consultar el store.
func Translate(in Intent, field string) (Descriptor, error) {
	switch in.Kind {
	case KindText, KindLetter:
		term := Normalize(in.Term)
		if term == "" {
			return Descriptor{}, ErrEmptyQuery
		}
		return Descriptor{
			Shape: ShapeRange,
			Field: field,
			Lower: term,
			Upper: term + Sentinel,
		}, nil

	case KindSymptomSingle, KindSymptomMulti:
		tags := NormalizeTags(in.Tags)
		if len(tags) == 0 {
			return Descriptor{}, ErrEmptyQuery
		}
		return Descriptor{
			Shape: ShapeMembership,
			Field: field,
			Tags:  tags,
		}, nil

	default:
		return Descriptor{}, ErrUnknownIntent
	}
}

// Normalize aplica lowercase + trim.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeTags normaliza, descarta vacíos y deduplica (se queda con la
// primera aparición).
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		t := Normalize(raw)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// CleanTags es la versión para display: trim, sin vacíos, sin duplicados
// case-insensitive, conserva el casing original.
func CleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		k := strings.ToLower(t)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}
