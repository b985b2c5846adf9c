package plans

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"medilocator/internal/domain/medicines"
	"medilocator/internal/platform/logger"
	"medilocator/internal/search"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	log = log.With(map[string]any{"module": "plans"})

	r.Route("/plans", func(pr chi.Router) {
		pr.Post("/", createPlanHandler(svc, log))
		pr.Get("/", listPlansHandler(svc, log))

		pr.Get("/search", searchPlansHandler(svc, log))
		pr.Get("/symptoms", searchPlansBySymptomsHandler(svc, log))
		pr.Get("/lookup", lookupPlansHandler(svc, log))

		pr.Get("/{planID}", getPlanHandler(svc, log))
		pr.Put("/{planID}", updatePlanHandler(svc, log))
		pr.Delete("/{planID}", deletePlanHandler(svc, log))
	})
}

type locationPayload struct {
	Cabinet string `json:"cabinet"`
	Row     string `json:"row"`
	Box     string `json:"box"`
}

// customMedicinePayload es un medicamento que no está en el inventario;
// se registra al crear el plan.
type customMedicinePayload struct {
	Name     string          `json:"name"`
	Symptoms []string        `json:"symptoms"`
	Location locationPayload `json:"location"`
	Type     string          `json:"type"`
	Price    float64         `json:"price"`
	Notes    string          `json:"notes"`
}

// planItemRequest: o medicine_id, o custom.
type planItemRequest struct {
	MedicineID string                 `json:"medicine_id,omitempty"`
	Custom     *customMedicinePayload `json:"custom,omitempty"`
}

type planRequest struct {
	Name       string            `json:"name"`
	Symptoms   []string          `json:"symptoms"`
	Medicines  []planItemRequest `json:"medicines"`
	TotalPrice *float64          `json:"total_price"` // opcional: default suma de precios
	Notes      string            `json:"notes"`
}

type snapshotResponse struct {
	MedicineID string          `json:"medicine_id"`
	Name       string          `json:"name"`
	Type       medicines.Type  `json:"type"`
	Notes      string          `json:"notes"`
	Price      float64         `json:"price"`
	Location   locationPayload `json:"location"`
}

// planResponse representa un plan de tratamiento devuelto por la API.
type planResponse struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Symptoms   []string           `json:"symptoms"`
	Medicines  []snapshotResponse `json:"medicines"`
	TotalPrice float64            `json:"total_price"`
	Notes      string             `json:"notes"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type searchResponse struct {
	QueryIssued bool           `json:"query_issued"`
	Results     []planResponse `json:"results"`
}

// createPlanHandler godoc
// @Summary Crear plan de tratamiento
// @Description Crea un plan con al menos un medicamento. Cada item referencia un medicamento existente (medicine_id) o trae uno nuevo (custom) que se registra en el inventario. Se guarda una foto de cada medicamento.
// @Tags plans
// @Accept json
// @Produce json
// @Param payload body planRequest true "Datos del plan"
// @Success 201 {object} planResponse
// @Failure 400 {string} string "invalid json / invalid input / medicine not found"
// @Failure 500 {string} string "internal error"
// @Router /plans [post]
func createPlanHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPlanResponse(p))
	}
}

// listPlansHandler godoc
// @Summary Listar planes
// @Description Lista todos los planes, más recientes primero.
// @Tags plans
// @Produce json
// @Success 200 {array} planResponse
// @Failure 500 {string} string "internal error"
// @Router /plans [get]
func listPlansHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlanResponses(items))
	}
}

// getPlanHandler godoc
// @Summary Obtener plan
// @Tags plans
// @Produce json
// @Param planID path string true "ID del plan"
// @Success 200 {object} planResponse
// @Failure 404 {string} string "plan not found"
// @Router /plans/{planID} [get]
func getPlanHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "planID"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlanResponse(p))
	}
}

// updatePlanHandler godoc
// @Summary Reemplazar plan
// @Tags plans
// @Accept json
// @Produce json
// @Param planID path string true "ID del plan"
// @Param payload body planRequest true "Plan completo"
// @Success 200 {object} planResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 404 {string} string "plan not found"
// @Router /plans/{planID} [put]
func updatePlanHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req planRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "planID"), req.toInput())
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlanResponse(p))
	}
}

// deletePlanHandler godoc
// @Summary Borrar plan
// @Tags plans
// @Param planID path string true "ID del plan"
// @Success 204
// @Failure 404 {string} string "plan not found"
// @Router /plans/{planID} [delete]
func deletePlanHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "planID")); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// searchPlansHandler godoc
// @Summary Buscar planes por nombre
// @Tags plans
// @Produce json
// @Param q query string true "Prefijo del nombre"
// @Success 200 {object} searchResponse
// @Router /plans/search [get]
func searchPlansHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.SearchByName(r.Context(), r.URL.Query().Get("q"))
		writeSearch(w, log, items, err)
	}
}

// searchPlansBySymptomsHandler godoc
// @Summary Buscar planes por síntomas
// @Tags plans
// @Produce json
// @Param s query string true "Síntomas separados por coma"
// @Success 200 {object} searchResponse
// @Router /plans/symptoms [get]
func searchPlansBySymptomsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.SearchBySymptoms(r.Context(), medicines.ParseTagsParam(r.URL.Query()["s"])...)
		writeSearch(w, log, items, err)
	}
}

// lookupPlansHandler godoc
// @Summary Buscar plan por nombre o síntoma exacto
// @Tags plans
// @Produce json
// @Param key query string true "Nombre de plan o síntoma"
// @Success 200 {object} searchResponse
// @Router /plans/lookup [get]
func lookupPlansHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Lookup(r.Context(), r.URL.Query().Get("key"))
		writeSearch(w, log, items, err)
	}
}

func (req planRequest) toInput() CreateInput {
	items := make([]ItemInput, 0, len(req.Medicines))
	for _, it := range req.Medicines {
		item := ItemInput{MedicineID: it.MedicineID}
		if it.Custom != nil {
			item.Custom = &medicines.CreateInput{
				Name:     it.Custom.Name,
				Symptoms: it.Custom.Symptoms,
				Location: medicines.Location{
					Cabinet: it.Custom.Location.Cabinet,
					Row:     it.Custom.Location.Row,
					Box:     it.Custom.Location.Box,
				},
				Type:  it.Custom.Type,
				Price: it.Custom.Price,
				Notes: it.Custom.Notes,
			}
		}
		items = append(items, item)
	}

	return CreateInput{
		Name:       req.Name,
		Symptoms:   req.Symptoms,
		Items:      items,
		TotalPrice: req.TotalPrice,
		Notes:      req.Notes,
	}
}

func toPlanResponse(p TreatmentPlan) planResponse {
	symptoms := p.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}
	meds := make([]snapshotResponse, 0, len(p.Medicines))
	for _, m := range p.Medicines {
		meds = append(meds, snapshotResponse{
			MedicineID: m.MedicineID,
			Name:       m.Name,
			Type:       m.Type,
			Notes:      m.Notes,
			Price:      m.Price,
			Location: locationPayload{
				Cabinet: m.Location.Cabinet,
				Row:     m.Location.Row,
				Box:     m.Location.Box,
			},
		})
	}

	return planResponse{
		ID:         p.ID,
		Name:       p.Name,
		Symptoms:   symptoms,
		Medicines:  meds,
		TotalPrice: p.TotalPrice,
		Notes:      p.Notes,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toPlanResponses(items []TreatmentPlan) []planResponse {
	out := make([]planResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPlanResponse(p))
	}
	return out
}

func writeSearch(w http.ResponseWriter, log logger.Logger, items []TreatmentPlan, err error) {
	if errors.Is(err, search.ErrEmptyQuery) {
		writeJSON(w, http.StatusOK, searchResponse{QueryIssued: false, Results: []planResponse{}})
		return
	}
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{QueryIssued: true, Results: toPlanResponses(items)})
}

func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMedicineNotFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "plan not found", http.StatusNotFound)
	default:
		log.Error("store failure", map[string]any{"error": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
