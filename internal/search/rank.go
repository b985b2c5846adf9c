package search

import (
	"slices"
	"strings"
)

// Record es lo mínimo que el ranker necesita de un registro.
type Record interface {
	SearchName() string
	SearchSymptoms() []string
}

// Rank devuelve una copia ordenada de records según la intención.
// Nunca modifica el slice de entrada. El orden es estable: a igual clave se
// respeta el orden en que llegaron del store.
func Rank[T Record](in Intent, records []T) []T {
	out := slices.Clone(records)
	if out == nil {
		out = []T{}
	}

	switch {
	case in.ByName():
		term := Normalize(in.Term)
		slices.SortStableFunc(out, func(a, b T) int {
			return compareByName(term, a.SearchName(), b.SearchName())
		})
	case in.BySymptoms():
		tags := NormalizeTags(in.Tags)
		slices.SortStableFunc(out, func(a, b T) int {
			// desc: más coincidencias primero
			return MatchCount(tags, b.SearchSymptoms()) - MatchCount(tags, a.SearchSymptoms())
		})
	}

	return out
}

// nameClass: 0 exacto, 1 prefijo, 2 contiene, 3 nada.
func nameClass(term, name string) int {
	switch {
	case name == term:
		return 0
	case strings.HasPrefix(name, term):
		return 1
	case strings.Contains(name, term):
		return 2
	default:
		return 3
	}
}

func compareByName(term, a, b string) int {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if ca, cb := nameClass(term, la), nameClass(term, lb); ca != cb {
		return ca - cb
	}
	return strings.Compare(la, lb)
}

// MatchCount cuenta cuántos tags del registro coinciden (case-insensitive)
// con alguno de los tags normalizados de la consulta.
func MatchCount(query []string, symptoms []string) int {
	if len(query) == 0 || len(symptoms) == 0 {
		return 0
	}
	n := 0
	for _, s := range symptoms {
		if slices.Contains(query, Normalize(s)) {
			n++
		}
	}
	return n
}
