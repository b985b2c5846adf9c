package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medilocator/internal/router"
)

type medicineResp struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Symptoms []string `json:"symptoms"`
	Location struct {
		Cabinet string `json:"cabinet"`
		Row     string `json:"row"`
		Box     string `json:"box"`
	} `json:"location"`
	Type  string  `json:"type"`
	Price float64 `json:"price"`
}

type planResp struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Medicines []struct {
		MedicineID string  `json:"medicine_id"`
		Name       string  `json:"name"`
		Price      float64 `json:"price"`
	} `json:"medicines"`
	TotalPrice float64 `json:"total_price"`
}

type searchResp[T any] struct {
	QueryIssued bool `json:"query_issued"`
	Results     []T  `json:"results"`
}

func TestHTTP_EndToEnd_MedicinesAndSearch(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	// 1) Alta de inventario
	paraID := createMedicine(t, ts.URL, medicinePayload("Paracetamol", "Fever", "Headache"))
	createMedicine(t, ts.URL, medicinePayload("Para", "fever"))
	createMedicine(t, ts.URL, medicinePayload("Parax"))
	createMedicine(t, ts.URL, medicinePayload("Benadryl", "Cough"))

	// 2) Get conserva los campos tal cual
	{
		st, body := doReq(t, ts.URL, "GET", "/medicines/"+paraID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get medicine, got %d body=%s", st, string(body))
		}
		var m medicineResp
		_ = json.Unmarshal(body, &m)
		if m.Name != "Paracetamol" || m.Location.Cabinet != "A1" || m.Type != "tablet" {
			t.Fatalf("unexpected medicine: %+v", m)
		}
	}

	// 3) Búsqueda por nombre: exacto, prefijo, alfabético
	{
		res := searchMedicines(t, ts.URL, "/medicines/search?q=PARA")
		if !res.QueryIssued {
			t.Fatalf("expected query_issued=true")
		}
		got := medicineNames(res.Results)
		if got != "Para,Paracetamol,Parax" {
			t.Fatalf("unexpected order: %s", got)
		}
	}

	// 4) Por letra
	{
		res := searchMedicines(t, ts.URL, "/medicines/search?letter=b")
		if got := medicineNames(res.Results); got != "Benadryl" {
			t.Fatalf("unexpected letter results: %s", got)
		}
	}

	// 5) Por síntomas: más coincidencias primero
	{
		res := searchMedicines(t, ts.URL, "/medicines/symptoms?s=fever,headache")
		if got := medicineNames(res.Results); got != "Paracetamol,Para" {
			t.Fatalf("unexpected symptom order: %s", got)
		}
	}

	// 6) Término vacío: 200 sin consulta
	{
		res := searchMedicines(t, ts.URL, "/medicines/search?q=%20%20")
		if res.QueryIssued || len(res.Results) != 0 {
			t.Fatalf("expected empty non-issued search, got %+v", res)
		}
	}

	// 7) Update completo y delete
	{
		st, body := doReq(t, ts.URL, "PUT", "/medicines/"+paraID, medicinePayload("Paracetamol 650", "fever"))
		if st != http.StatusOK {
			t.Fatalf("expected 200 update, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "DELETE", "/medicines/"+paraID, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/medicines/"+paraID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", st)
		}
	}
}

func TestHTTP_CreateMedicine_Validation(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	payload := medicinePayload("Crocin")
	payload["location"] = map[string]any{"cabinet": "A1", "row": "", "box": "B"}

	st, _ := doReq(t, ts.URL, "POST", "/medicines", payload)
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing row, got %d", st)
	}

	st, _ = doRaw(t, ts.URL, "POST", "/medicines", "{not json")
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", st)
	}
}

func TestHTTP_EndToEnd_Plans(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	crocinID := createMedicine(t, ts.URL, withPrice(medicinePayload("Crocin", "fever"), 30))

	// 1) Plan con un medicamento existente y uno custom
	var planID string
	{
		st, body := doReq(t, ts.URL, "POST", "/plans", map[string]any{
			"name":     "Flu",
			"symptoms": []string{"Fever", "Cough"},
			"medicines": []map[string]any{
				{"medicine_id": crocinID},
				{"custom": withPrice(medicinePayload("Honitus"), 80)},
			},
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create plan, got %d body=%s", st, string(body))
		}
		var p planResp
		_ = json.Unmarshal(body, &p)
		if len(p.Medicines) != 2 || p.TotalPrice != 110 {
			t.Fatalf("unexpected plan: %+v", p)
		}
		planID = p.ID
	}

	// 2) El custom quedó en el inventario con los síntomas del plan
	{
		res := searchMedicines(t, ts.URL, "/medicines/symptoms?s=cough")
		if got := medicineNames(res.Results); got != "Honitus" {
			t.Fatalf("custom medicine not registered: %s", got)
		}
	}

	// 3) Editar el medicamento no cambia la foto del plan
	{
		st, _ := doReq(t, ts.URL, "PUT", "/medicines/"+crocinID, withPrice(medicinePayload("Crocin 650", "fever"), 45))
		if st != http.StatusOK {
			t.Fatalf("expected 200 update medicine, got %d", st)
		}
		st, body := doReq(t, ts.URL, "GET", "/plans/"+planID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get plan, got %d", st)
		}
		var p planResp
		_ = json.Unmarshal(body, &p)
		if p.Medicines[0].Name != "Crocin" || p.Medicines[0].Price != 30 {
			t.Fatalf("snapshot changed: %+v", p.Medicines[0])
		}
	}

	// 4) Búsquedas de planes
	{
		st, body := doReq(t, ts.URL, "GET", "/plans/search?q=fl", nil)
		var res searchResp[planResp]
		_ = json.Unmarshal(body, &res)
		if st != http.StatusOK || len(res.Results) != 1 {
			t.Fatalf("expected 1 plan by name, got %d body=%s", st, string(body))
		}

		st, body = doReq(t, ts.URL, "GET", "/plans/lookup?key=COUGH", nil)
		res = searchResp[planResp]{}
		_ = json.Unmarshal(body, &res)
		if st != http.StatusOK || len(res.Results) != 1 || res.Results[0].ID != planID {
			t.Fatalf("expected lookup by symptom, got %d body=%s", st, string(body))
		}

		st, body = doReq(t, ts.URL, "GET", "/plans/symptoms?s=", nil)
		res = searchResp[planResp]{}
		_ = json.Unmarshal(body, &res)
		if st != http.StatusOK || res.QueryIssued {
			t.Fatalf("expected blank symptom search to not be issued, got %d body=%s", st, string(body))
		}
	}

	// 5) Medicamento inexistente => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/plans", map[string]any{
			"name":      "Ghost",
			"medicines": []map[string]any{{"medicine_id": "missing"}},
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown medicine, got %d", st)
		}
	}

	// 6) Delete
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/plans/"+planID, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete plan, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/plans/"+planID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", st)
		}
	}
}

func TestHTTP_HealthAndSwagger(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	st, body := doReq(t, ts.URL, "GET", "/health", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health: %d %s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/swagger/doc.json", nil)
	if st != http.StatusOK || !strings.Contains(string(body), "/medicines/search") {
		t.Fatalf("unexpected swagger doc: %d", st)
	}
}

func medicinePayload(name string, symptoms ...string) map[string]any {
	if symptoms == nil {
		symptoms = []string{}
	}
	return map[string]any{
		"name":     name,
		"symptoms": symptoms,
		"location": map[string]any{"cabinet": "A1", "row": "2", "box": "B"},
		"type":     "tablet",
	}
}

func withPrice(p map[string]any, price float64) map[string]any {
	p["price"] = price
	return p
}

func createMedicine(t *testing.T, baseURL string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/medicines", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create medicine, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create medicine: missing id body=%s", string(body))
	}
	return resp.ID
}

func searchMedicines(t *testing.T, baseURL, path string) searchResp[medicineResp] {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", path, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 search %s, got %d body=%s", path, st, string(body))
	}
	var res searchResp[medicineResp]
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	return res
}

func medicineNames(items []medicineResp) string {
	names := make([]string, 0, len(items))
	for _, m := range items {
		names = append(names, m.Name)
	}
	return strings.Join(names, ",")
}

func doReq(t *testing.T, baseURL, method, path string, body any) (int, []byte) {
	t.Helper()

	var raw string
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		raw = string(b)
	}
	return doRaw(t, baseURL, method, path, raw)
}

func doRaw(t *testing.T, baseURL, method, path, raw string) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if raw != "" {
		rdr = bytes.NewReader([]byte(raw))
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if raw != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
