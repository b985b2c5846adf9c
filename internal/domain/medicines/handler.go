package medicines

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medilocator/internal/platform/logger"
	"medilocator/internal/search"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	log = log.With(map[string]any{"module": "medicines"})

	r.Route("/medicines", func(mr chi.Router) {
		mr.Post("/", createMedicineHandler(svc, log))
		mr.Get("/", listMedicinesHandler(svc, log))

		// Búsquedas (antes que /{medicineID})
		mr.Get("/search", searchMedicinesHandler(svc, log))
		mr.Get("/symptoms", searchBySymptomsHandler(svc, log))

		mr.Get("/{medicineID}", getMedicineHandler(svc, log))
		mr.Put("/{medicineID}", updateMedicineHandler(svc, log))
		mr.Delete("/{medicineID}", deleteMedicineHandler(svc, log))
	})
}

type locationPayload struct {
	Cabinet string `json:"cabinet"`
	Row     string `json:"row"`
	Box     string `json:"box"`
}

// medicineRequest sirve para crear y para reemplazar (PUT) un medicamento.
type medicineRequest struct {
	Name     string          `json:"name"`
	Symptoms []string        `json:"symptoms"`
	Location locationPayload `json:"location"`
	Type     string          `json:"type" enums:"tablet,syrup,capsule,injection,other"`
	Price    float64         `json:"price"`
	Notes    string          `json:"notes"`
}

// medicineResponse representa un medicamento devuelto por la API.
type medicineResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Symptoms  []string        `json:"symptoms"`
	Location  locationPayload `json:"location"`
	Type      Type            `json:"type"`
	Price     float64         `json:"price"`
	Notes     string          `json:"notes"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// searchResponse: query_issued=false cuando la búsqueda vino vacía y no se consultó el store.
type searchResponse struct {
	QueryIssued bool               `json:"query_issued"`
	Results     []medicineResponse `json:"results"`
}

// createMedicineHandler godoc
// @Summary Registrar medicamento
// @Description Registra un medicamento con su ubicación física. name, type y location (cabinet/row/box) son obligatorios.
// @Tags medicines
// @Accept json
// @Produce json
// @Param payload body medicineRequest true "Datos del medicamento"
// @Success 201 {object} medicineResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 500 {string} string "internal error"
// @Router /medicines [post]
func createMedicineHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req medicineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			writeError(w, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicineResponse(m))
	}
}

// listMedicinesHandler godoc
// @Summary Listar inventario
// @Description Lista todos los medicamentos ordenados por nombre.
// @Tags medicines
// @Produce json
// @Success 200 {array} medicineResponse
// @Failure 500 {string} string "internal error"
// @Router /medicines [get]
func listMedicinesHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicineResponses(items))
	}
}

// getMedicineHandler godoc
// @Summary Obtener medicamento
// @Tags medicines
// @Produce json
// @Param medicineID path string true "ID del medicamento"
// @Success 200 {object} medicineResponse
// @Failure 404 {string} string "medicine not found"
// @Router /medicines/{medicineID} [get]
func getMedicineHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.GetByID(r.Context(), chi.URLParam(r, "medicineID"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicineResponse(m))
	}
}

// updateMedicineHandler godoc
// @Summary Reemplazar medicamento
// @Description Reemplaza el registro completo. Los planes existentes conservan su snapshot.
// @Tags medicines
// @Accept json
// @Produce json
// @Param medicineID path string true "ID del medicamento"
// @Param payload body medicineRequest true "Registro completo"
// @Success 200 {object} medicineResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 404 {string} string "medicine not found"
// @Router /medicines/{medicineID} [put]
func updateMedicineHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req medicineRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.Update(r.Context(), chi.URLParam(r, "medicineID"), req.toInput())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicineResponse(m))
	}
}

// deleteMedicineHandler godoc
// @Summary Borrar medicamento
// @Tags medicines
// @Param medicineID path string true "ID del medicamento"
// @Success 204
// @Failure 404 {string} string "medicine not found"
// @Router /medicines/{medicineID} [delete]
func deleteMedicineHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "medicineID")); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// searchMedicinesHandler godoc
// @Summary Buscar por nombre o primera letra
// @Description Búsqueda por prefijo del nombre (case-insensitive). Con `letter` filtra por primera letra. Orden: exacto, prefijo, contiene, alfabético. Un término vacío devuelve query_issued=false.
// @Tags medicines
// @Produce json
// @Param q query string false "Término de búsqueda"
// @Param letter query string false "Primera letra (se ignora si viene q)"
// @Success 200 {object} searchResponse
// @Failure 500 {string} string "internal error"
// @Router /medicines/search [get]
func searchMedicinesHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var (
			items []Medicine
			err   error
		)
		if term := q.Get("q"); strings.TrimSpace(term) != "" || q.Get("letter") == "" {
			items, err = svc.SearchByName(r.Context(), term)
		} else {
			items, err = svc.SearchByLetter(r.Context(), q.Get("letter"))
		}

		writeSearch(w, log, items, err)
	}
}

// searchBySymptomsHandler godoc
// @Summary Buscar por síntomas
// @Description Medicamentos que tengan alguno de los síntomas. Orden: cantidad de síntomas coincidentes, desc.
// @Tags medicines
// @Produce json
// @Param s query string true "Síntomas separados por coma (o repetir el parámetro)"
// @Success 200 {object} searchResponse
// @Failure 500 {string} string "internal error"
// @Router /medicines/symptoms [get]
func searchBySymptomsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.SearchBySymptoms(r.Context(), ParseTagsParam(r.URL.Query()["s"])...)
		writeSearch(w, log, items, err)
	}
}

// ParseTagsParam junta ?s=a,b&s=c en una sola lista.
func ParseTagsParam(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if strings.TrimSpace(p) == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

func (req medicineRequest) toInput() CreateInput {
	return CreateInput{
		Name:     req.Name,
		Symptoms: req.Symptoms,
		Location: Location{
			Cabinet: req.Location.Cabinet,
			Row:     req.Location.Row,
			Box:     req.Location.Box,
		},
		Type:  req.Type,
		Price: req.Price,
		Notes: req.Notes,
	}
}

func toMedicineResponse(m Medicine) medicineResponse {
	symptoms := m.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}
	return medicineResponse{
		ID:       m.ID,
		Name:     m.Name,
		Symptoms: symptoms,
		Location: locationPayload{
			Cabinet: m.Location.Cabinet,
			Row:     m.Location.Row,
			Box:     m.Location.Box,
		},
		Type:      m.Type,
		Price:     m.Price,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toMedicineResponses(items []Medicine) []medicineResponse {
	out := make([]medicineResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toMedicineResponse(m))
	}
	return out
}

func writeSearch(w http.ResponseWriter, log logger.Logger, items []Medicine, err error) {
	if errors.Is(err, search.ErrEmptyQuery) {
		writeJSON(w, http.StatusOK, searchResponse{QueryIssued: false, Results: []medicineResponse{}})
		return
	}
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{QueryIssued: true, Results: toMedicineResponses(items)})
}

func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "medicine not found", http.StatusNotFound)
	default:
		log.Error("store failure", map[string]any{"error": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos (medicines/plans)
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
