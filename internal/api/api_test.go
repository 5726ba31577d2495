package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hpatkar/verdeiq/internal/assess"
	"github.com/hpatkar/verdeiq/internal/bank"
	"github.com/hpatkar/verdeiq/internal/profile"
	"github.com/hpatkar/verdeiq/internal/storage"
)

const testToken = "test-token"

func testBank(t *testing.T) *bank.Bank {
	t.Helper()
	b, err := bank.Parse([]byte(`
- {id: env1, pillar: Environmental, text: e, options: [level0, level1, level2, level3, level4]}
- {id: soc1, pillar: Social, text: s, options: [level0, level1, level2, level3, level4]}
- {id: gov1, pillar: Governance, text: g, options: [level0, level1, level2, level3, level4]}
`))
	if err != nil {
		t.Fatalf("parsing bank: %v", err)
	}
	return b
}

func newTestApp(t *testing.T, token string) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { store.Close() })

	profiles := profile.NewManager(store)
	svc := assess.New(testBank(t), nil, store, profiles, nil, time.Second)

	return NewAppHandler(AppDeps{
		Assess:  svc,
		Store:   store,
		Profile: profiles,
		Token:   token,
	}), store
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}

func allBest() map[string]string {
	return map[string]string{"env1": "level4", "soc1": "level4", "gov1": "level4"}
}

func TestHealth_NoAuthRequired(t *testing.T) {
	h, _ := newTestApp(t, testToken)

	w := doRequest(t, h, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if decodeBody(t, w)["status"] != "ok" {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestAuth(t *testing.T) {
	h, _ := newTestApp(t, testToken)

	if w := doRequest(t, h, http.MethodGet, "/questions", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", w.Code)
	}
	if w := doRequest(t, h, http.MethodGet, "/questions", "wrong", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", w.Code)
	}
	if w := doRequest(t, h, http.MethodGet, "/questions", testToken, nil); w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", w.Code)
	}
}

func TestAuth_DisabledWhenNoToken(t *testing.T) {
	h, _ := newTestApp(t, "")

	if w := doRequest(t, h, http.MethodGet, "/questions", "", nil); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without auth configured", w.Code)
	}
}

func TestListQuestions(t *testing.T) {
	h, _ := newTestApp(t, testToken)

	w := doRequest(t, h, http.MethodGet, "/questions", testToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var questions []bank.Question
	if err := json.Unmarshal(w.Body.Bytes(), &questions); err != nil {
		t.Fatalf("decoding questions: %v", err)
	}
	if len(questions) != 3 {
		t.Errorf("expected 3 questions, got %d", len(questions))
	}
	if questions[0].ID != "env1" || len(questions[0].Options) != 5 {
		t.Errorf("first question malformed: %+v", questions[0])
	}
}

func TestScore(t *testing.T) {
	h, _ := newTestApp(t, testToken)

	w := doRequest(t, h, http.MethodPost, "/score", testToken, ScoreRequest{Answers: allBest()})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	result := body["result"].(map[string]any)
	if result["composite"].(float64) != 100 {
		t.Errorf("composite = %v, want 100", result["composite"])
	}
	if result["badge"] != "Leader" {
		t.Errorf("badge = %v, want Leader", result["badge"])
	}
	radar := body["radar"].(map[string]any)
	if len(radar["axes"].([]any)) != 3 {
		t.Errorf("radar axes = %v, want 3 pillars", radar["axes"])
	}
}

func TestScore_SectorOverride(t *testing.T) {
	h, _ := newTestApp(t, testToken)

	w := doRequest(t, h, http.MethodPost, "/score", testToken, ScoreRequest{
		Answers: map[string]string{"env1": "level2"},
		Sector:  "Energy",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	result := decodeBody(t, w)["result"].(map[string]any)
	if result["sector"] != "Energy" {
		t.Errorf("sector = %v, want Energy", result["sector"])
	}
}

func TestScore_BadRequests(t *testing.T) {
	h, _ := newTestApp(t, testToken)

	w := doRequest(t, h, http.MethodPost, "/score", testToken, ScoreRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty answers: status = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
	errObj := decodeBody(t, rec)["error"].(map[string]any)
	if errObj["type"] != "invalid_request_error" {
		t.Errorf("error type = %v", errObj["type"])
	}
}

func TestAssessmentLifecycle(t *testing.T) {
	h, _ := newTestApp(t, testToken)

	// Create.
	w := doRequest(t, h, http.MethodPost, "/assessments", testToken, ScoreRequest{Answers: allBest()})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)
	id := created["assessment"].(map[string]any)["id"].(string)
	if id == "" {
		t.Fatal("created assessment has no id")
	}
	if _, hasWarning := created["warning"]; hasWarning {
		t.Errorf("unexpected warning in %s", w.Body.String())
	}

	// List.
	w = doRequest(t, h, http.MethodGet, "/assessments", testToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d", w.Code)
	}
	var list []storage.Assessment
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Errorf("list = %+v, want the created assessment", list)
	}

	// Get.
	w = doRequest(t, h, http.MethodGet, "/assessments/"+id, testToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}
	if decodeBody(t, w)["id"] != id {
		t.Errorf("get returned wrong assessment: %s", w.Body.String())
	}

	// Export.
	w = doRequest(t, h, http.MethodGet, "/assessments/"+id+"/export", testToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: status = %d", w.Code)
	}
	snap := decodeBody(t, w)
	for _, key := range []string{"company", "score", "badge", "pillar_scores", "answers"} {
		if _, ok := snap[key]; !ok {
			t.Errorf("export missing %q: %s", key, w.Body.String())
		}
	}
	if snap["score"].(float64) != 100 {
		t.Errorf("export score = %v, want 100", snap["score"])
	}

	// Delete, then verify gone.
	w = doRequest(t, h, http.MethodDelete, "/assessments/"+id, testToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}
	if w = doRequest(t, h, http.MethodGet, "/assessments/"+id, testToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", w.Code)
	}
	if w = doRequest(t, h, http.MethodDelete, "/assessments/"+id, testToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("double delete: status = %d, want 404", w.Code)
	}
}

func TestGetAssessment_NotFound(t *testing.T) {
	h, _ := newTestApp(t, testToken)

	w := doRequest(t, h, http.MethodGet, "/assessments/nope", testToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	errObj := decodeBody(t, w)["error"].(map[string]any)
	if errObj["type"] != "not_found" {
		t.Errorf("error type = %v, want not_found", errObj["type"])
	}
}

func TestListAssessments_Pagination(t *testing.T) {
	h, _ := newTestApp(t, testToken)

	for i := 0; i < 3; i++ {
		w := doRequest(t, h, http.MethodPost, "/assessments", testToken, ScoreRequest{
			Answers: map[string]string{"env1": fmt.Sprintf("level%d", i)},
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create %d: status = %d", i, w.Code)
		}
	}

	w := doRequest(t, h, http.MethodGet, "/assessments?limit=2", testToken, nil)
	var page []storage.Assessment
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decoding page: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("expected 2 results with limit=2, got %d", len(page))
	}

	w = doRequest(t, h, http.MethodGet, "/assessments?limit=2&offset=2", testToken, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decoding second page: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("expected 1 result on second page, got %d", len(page))
	}
}

func TestProfileRoundTrip(t *testing.T) {
	h, _ := newTestApp(t, testToken)

	w := doRequest(t, h, http.MethodPatch, "/profile", testToken, map[string]string{
		"name":        "Acme Organics",
		"sector_type": "Agriculture",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: status = %d, body %s", w.Code, w.Body.String())
	}

	w = doRequest(t, h, http.MethodGet, "/profile", testToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}
	var c profile.Company
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if c.Name != "Acme Organics" || c.SectorType != "Agriculture" {
		t.Errorf("profile = %+v", c)
	}
}

// The stored profile sector feeds the score when no override is given.
func TestScore_UsesStoredProfileSector(t *testing.T) {
	h, _ := newTestApp(t, testToken)

	w := doRequest(t, h, http.MethodPatch, "/profile", testToken, map[string]string{"sector_type": "Energy"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: status = %d", w.Code)
	}

	w = doRequest(t, h, http.MethodPost, "/score", testToken, ScoreRequest{Answers: allBest()})
	result := decodeBody(t, w)["result"].(map[string]any)
	if result["sector"] != "Energy" {
		t.Errorf("sector = %v, want Energy from stored profile", result["sector"])
	}
}
