package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nyashahama/diabetes-risk-planner/internal/ai"
	"github.com/nyashahama/diabetes-risk-planner/internal/api"
	"github.com/nyashahama/diabetes-risk-planner/internal/catalog"
	"github.com/nyashahama/diabetes-risk-planner/internal/classifier"
	"github.com/nyashahama/diabetes-risk-planner/internal/features"
	"github.com/nyashahama/diabetes-risk-planner/internal/planner"
	"github.com/nyashahama/diabetes-risk-planner/internal/session"
	"github.com/nyashahama/diabetes-risk-planner/internal/store"
)

var testSecret = []byte("test-secret")

// ─── STUBS ────────────────────────────────────────────────────────────────────

// stubGateway answers every prompt, or fails every prompt when fail is set.
// It takes delay to answer and ignores cancellation, like a slow provider.
type stubGateway struct {
	mu    sync.Mutex
	fail  bool
	delay time.Duration
}

func (g *stubGateway) Generate(_ context.Context, prompt string) ai.Result {
	g.mu.Lock()
	delay := g.delay
	g.mu.Unlock()
	time.Sleep(delay)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return ai.Failed("Generation unavailable: the service is busy, please retry.")
	}
	return ai.Result{OK: true, Text: "# Plan\n\n" + prompt}
}

// thresholdModel predicts HIGH_RISK above 127.5 glucose.
type thresholdModel struct{}

func (thresholdModel) Predict(v features.Vector) classifier.RiskLabel {
	if v.Glucose > 127.5 {
		return classifier.HighRisk
	}
	return classifier.LowRisk
}

// stubRecords fails every Create while err is set.
type stubRecords struct {
	*store.MemoryRecords
	err error
}

func (s *stubRecords) Create(ctx context.Context, rec store.HealthRecord) (store.HealthRecord, error) {
	if s.err != nil {
		return store.HealthRecord{}, s.err
	}
	return s.MemoryRecords.Create(ctx, rec)
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

type testDeps struct {
	gateway *stubGateway
	records *stubRecords
	handler http.Handler
}

func newTestServer(t *testing.T, cfgOverrides ...func(*api.Config)) *testDeps {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gw := &stubGateway{}
	recs := &stubRecords{MemoryRecords: store.NewMemoryRecords()}
	svc, err := planner.New(planner.Deps{
		Model:    thresholdModel{},
		Gateway:  gw,
		Sessions: session.NewMemoryStore(time.Hour),
		Records:  recs,
		Catalog:  cat,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("planner: %v", err)
	}

	cfg := api.Config{
		Env:       "development",
		JWTSecret: testSecret,
	}
	for _, fn := range cfgOverrides {
		fn(&cfg)
	}

	return &testDeps{
		gateway: gw,
		records: recs,
		handler: api.NewServer(svc, cfg, logger),
	}
}

func signToken(t *testing.T, secret []byte, subject string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func authHeaders(t *testing.T, user, sessionID string) map[string]string {
	h := map[string]string{"Authorization": "Bearer " + signToken(t, testSecret, user)}
	if sessionID != "" {
		h[api.SessionHeader] = sessionID
	}
	return h
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		bodyReader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("decode response body: %v (raw: %s)", err, rr.Body.String())
	}
}

func assessmentBody() map[string]any {
	return map[string]any{
		"name":           "Asha",
		"gender":         "female",
		"glucose":        150,
		"blood_pressure": 90,
		"insulin":        80,
		"bmi":            32.5,
		"dpf":            0.6,
		"age":            "45",
	}
}

// submit posts a valid assessment for user and returns the session id.
func submit(t *testing.T, deps *testDeps, user string) string {
	t.Helper()
	rr := doRequest(t, deps.handler, http.MethodPost, "/api/assessment", assessmentBody(), authHeaders(t, user, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	sid := rr.Header().Get(api.SessionHeader)
	if sid == "" {
		t.Fatal("submit: no session id echoed")
	}
	return sid
}

// ─── GET /healthz ─────────────────────────────────────────────────────────────

func TestHealthz(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/healthz", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

// ─── AUTH ─────────────────────────────────────────────────────────────────────

func TestAuth_MissingTokenReturns401(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/dashboard", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuth_WrongSecretReturns401(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/dashboard", nil,
		map[string]string{"Authorization": "Bearer " + signToken(t, []byte("other"), "u1")})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuth_NoSubjectReturns401(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/dashboard", nil,
		map[string]string{"Authorization": "Bearer " + signToken(t, testSecret, "")})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuth_ExpiredTokenReturns401(t *testing.T) {
	deps := newTestServer(t)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	raw, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/dashboard", nil,
		map[string]string{"Authorization": "Bearer " + raw})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

// ─── POST /api/assessment ─────────────────────────────────────────────────────

func TestSubmitAssessment_MintsSessionAndClassifies(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodPost, "/api/assessment", assessmentBody(), authHeaders(t, "u1", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		SessionID string `json:"session_id"`
		Risk      string `json:"risk"`
		RiskText  string `json:"risk_text"`
	}
	decodeJSON(t, rr, &resp)

	if _, err := uuid.Parse(resp.SessionID); err != nil {
		t.Errorf("session_id %q is not a uuid", resp.SessionID)
	}
	if resp.SessionID != rr.Header().Get(api.SessionHeader) {
		t.Errorf("body session_id %q != header %q", resp.SessionID, rr.Header().Get(api.SessionHeader))
	}
	if resp.Risk != "HIGH_RISK" || resp.RiskText != "High Risk" {
		t.Errorf("unexpected risk: %+v", resp)
	}
}

func TestSubmitAssessment_FormEncoded(t *testing.T) {
	deps := newTestServer(t)
	form := url.Values{
		"name": {"Ben"}, "gender": {"male"}, "glucose": {"95"}, "blood_pressure": {"70"},
		"insulin": {"0"}, "bmi": {"22.5"}, "dpf": {"0.2"}, "age": {"30"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/assessment", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range authHeaders(t, "u1", "") {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	deps.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "LOW_RISK") {
		t.Errorf("expected LOW_RISK, got %s", rr.Body.String())
	}
}

func TestSubmitAssessment_InvalidReturns422WithFields(t *testing.T) {
	deps := newTestServer(t)
	body := assessmentBody()
	delete(body, "bmi")
	body["age"] = "forty"

	rr := doRequest(t, deps.handler, http.MethodPost, "/api/assessment", body, authHeaders(t, "u1", ""))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	decodeJSON(t, rr, &resp)

	got := map[string]bool{}
	for _, f := range resp.Fields {
		got[f.Field] = true
	}
	if !got["bmi"] || !got["age"] {
		t.Errorf("expected bmi and age to be reported, got %+v", resp.Fields)
	}
}

func TestSubmitAssessment_NonScalarFieldReturns400(t *testing.T) {
	deps := newTestServer(t)
	body := assessmentBody()
	body["glucose"] = []int{1, 2}

	rr := doRequest(t, deps.handler, http.MethodPost, "/api/assessment", body, authHeaders(t, "u1", ""))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

// ─── GET /api/dashboard ───────────────────────────────────────────────────────

func TestDashboard_BeforeSubmitReturns409(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/dashboard", nil, authHeaders(t, "u1", ""))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestDashboard_AfterSubmit(t *testing.T) {
	deps := newTestServer(t)
	sid := submit(t, deps, "u1")

	rr := doRequest(t, deps.handler, http.MethodGet, "/api/dashboard", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var view planner.DashboardView
	decodeJSON(t, rr, &view)
	if view.State != session.StateSubmitted || view.RiskText != "High Risk" {
		t.Errorf("unexpected dashboard: %+v", view)
	}
}

func TestDashboard_SessionIsScopedToUser(t *testing.T) {
	deps := newTestServer(t)
	sid := submit(t, deps, "u1")

	rr := doRequest(t, deps.handler, http.MethodGet, "/api/dashboard", nil, authHeaders(t, "intruder", sid))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for another user's session, got %d", rr.Code)
	}
}

// ─── /api/plans ───────────────────────────────────────────────────────────────

func TestDietPlan_SavesOnceAcrossRequests(t *testing.T) {
	deps := newTestServer(t)
	sid := submit(t, deps, "u1")

	for i := 0; i < 2; i++ {
		rr := doRequest(t, deps.handler, http.MethodGet, "/api/plans/diet", nil, authHeaders(t, "u1", sid))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d: %s", i, rr.Code, rr.Body.String())
		}
		var resp planner.PlanResponse
		decodeJSON(t, rr, &resp)
		if !resp.Plan.OK || !resp.Saved {
			t.Errorf("request %d: unexpected response %+v", i, resp)
		}
		if !strings.Contains(resp.PlanHTML, "<h1") {
			t.Errorf("request %d: plan not rendered as html: %q", i, resp.PlanHTML)
		}
	}

	if n := deps.records.Len(); n != 1 {
		t.Fatalf("expected 1 record, got %d", n)
	}
}

func TestDietPlan_PostWithQueryAnswersChat(t *testing.T) {
	deps := newTestServer(t)
	sid := submit(t, deps, "u1")

	rr := doRequest(t, deps.handler, http.MethodPost, "/api/plans/diet",
		map[string]string{"query": "is rice ok?"}, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp planner.PlanResponse
	decodeJSON(t, rr, &resp)
	if resp.Chat == nil || !strings.Contains(resp.Chat.Text, "is rice ok?") {
		t.Errorf("expected chat answer, got %+v", resp.Chat)
	}
}

func TestDietPlan_BeforeSubmitReturns409(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/plans/diet", nil, authHeaders(t, "u1", ""))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestDietPlan_GenerationFailureIs200WithMessage(t *testing.T) {
	deps := newTestServer(t)
	sid := submit(t, deps, "u1")
	deps.gateway.fail = true

	rr := doRequest(t, deps.handler, http.MethodGet, "/api/plans/diet", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp planner.PlanResponse
	decodeJSON(t, rr, &resp)
	if resp.Plan.OK || !strings.Contains(resp.Plan.Message, "Generation unavailable") {
		t.Errorf("expected failed plan with message, got %+v", resp.Plan)
	}
}

func TestDietPlan_PersistenceFailureReturns503Retryable(t *testing.T) {
	deps := newTestServer(t)
	sid := submit(t, deps, "u1")
	deps.records.err = errors.New("connection refused")

	rr := doRequest(t, deps.handler, http.MethodGet, "/api/plans/diet", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Retryable bool                 `json:"retryable"`
		Plan      planner.PlanResponse `json:"plan"`
	}
	decodeJSON(t, rr, &resp)
	if !resp.Retryable || !resp.Plan.Plan.OK {
		t.Errorf("expected retryable response carrying the plan, got %+v", resp)
	}

	deps.records.err = nil
	rr = doRequest(t, deps.handler, http.MethodGet, "/api/plans/diet", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusOK {
		t.Fatalf("retry: expected 200, got %d", rr.Code)
	}
	if n := deps.records.Len(); n != 1 {
		t.Fatalf("expected 1 record after retry, got %d", n)
	}
}

func TestDietPlan_RequestTimeoutReturns503AndSavesNothing(t *testing.T) {
	deps := newTestServer(t, func(c *api.Config) { c.RequestTimeout = 20 * time.Millisecond })
	sid := submit(t, deps, "u1")
	deps.gateway.delay = 100 * time.Millisecond

	rr := doRequest(t, deps.handler, http.MethodGet, "/api/plans/diet", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Retryable bool `json:"retryable"`
	}
	decodeJSON(t, rr, &resp)
	if !resp.Retryable {
		t.Error("expected retryable response")
	}
	if n := deps.records.Len(); n != 0 {
		t.Fatalf("expected no record from a timed-out request, got %d", n)
	}

	deps.gateway.delay = 0
	rr = doRequest(t, deps.handler, http.MethodGet, "/api/plans/diet", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusOK {
		t.Fatalf("retry: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if n := deps.records.Len(); n != 1 {
		t.Fatalf("expected 1 record after retry, got %d", n)
	}
}

func TestWorkoutPlan_DoesNotSave(t *testing.T) {
	deps := newTestServer(t)
	sid := submit(t, deps, "u1")

	rr := doRequest(t, deps.handler, http.MethodGet, "/api/plans/workout", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if n := deps.records.Len(); n != 0 {
		t.Fatalf("expected no record, got %d", n)
	}
}

func TestPlan_UnknownBodyFieldReturns400(t *testing.T) {
	deps := newTestServer(t)
	sid := submit(t, deps, "u1")
	rr := doRequest(t, deps.handler, http.MethodPost, "/api/plans/workout",
		map[string]string{"question": "x"}, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

// ─── DELETE /api/session ──────────────────────────────────────────────────────

func TestEndSession_ForgetsAssessmentKeepsHistory(t *testing.T) {
	deps := newTestServer(t)
	sid := submit(t, deps, "u1")
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/plans/diet", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusOK {
		t.Fatalf("diet: expected 200, got %d", rr.Code)
	}

	rr = doRequest(t, deps.handler, http.MethodDelete, "/api/session", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, deps.handler, http.MethodGet, "/api/dashboard", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusConflict {
		t.Fatalf("dashboard after end: expected 409, got %d", rr.Code)
	}

	rr = doRequest(t, deps.handler, http.MethodGet, "/api/history", nil, authHeaders(t, "u1", ""))
	var view planner.HistoryView
	decodeJSON(t, rr, &view)
	if view.Summary.Count != 1 {
		t.Errorf("expected the saved record to survive, got %+v", view.Summary)
	}
}

func TestEndSession_OtherUsersSessionUntouched(t *testing.T) {
	deps := newTestServer(t)
	sid := submit(t, deps, "u1")

	rr := doRequest(t, deps.handler, http.MethodDelete, "/api/session", nil, authHeaders(t, "intruder", sid))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	rr = doRequest(t, deps.handler, http.MethodGet, "/api/dashboard", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusOK {
		t.Fatalf("owner's dashboard: expected 200, got %d", rr.Code)
	}
}

// ─── /api/search ──────────────────────────────────────────────────────────────

func TestSearchFood_UnlistedTermHasEmptyVideo(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/search/food?query=dragon+fruit", nil, authHeaders(t, "u1", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var res planner.SearchResult
	decodeJSON(t, rr, &res)
	if res.VideoID != "" {
		t.Errorf("expected empty video id, got %q", res.VideoID)
	}
	if !res.Description.OK {
		t.Errorf("expected description, got %+v", res.Description)
	}
}

func TestSearchExercise_KnownTermHasVideo(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/search/exercise?query=Plank", nil, authHeaders(t, "u1", ""))
	var res planner.SearchResult
	decodeJSON(t, rr, &res)
	if res.VideoID != "pvIjsG5Svck" {
		t.Errorf("expected Plank video, got %q", res.VideoID)
	}
}

// ─── /api/progress, /api/history ──────────────────────────────────────────────

func TestProgress_AfterSubmit(t *testing.T) {
	deps := newTestServer(t)
	sid := submit(t, deps, "u1")

	rr := doRequest(t, deps.handler, http.MethodGet, "/api/progress", nil, authHeaders(t, "u1", sid))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var view planner.ProgressView
	decodeJSON(t, rr, &view)
	if len(view.Metrics) != 6 || view.Metrics[0].Value != 150 {
		t.Errorf("unexpected progress: %+v", view)
	}
}

func TestHistory_ListsOnlyCallersRecords(t *testing.T) {
	deps := newTestServer(t)
	for _, user := range []string{"u1", "u1", "u2"} {
		sid := submit(t, deps, user)
		rr := doRequest(t, deps.handler, http.MethodGet, "/api/plans/diet", nil, authHeaders(t, user, sid))
		if rr.Code != http.StatusOK {
			t.Fatalf("diet: expected 200, got %d", rr.Code)
		}
	}

	rr := doRequest(t, deps.handler, http.MethodGet, "/api/history", nil, authHeaders(t, "u1", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var view planner.HistoryView
	decodeJSON(t, rr, &view)
	if view.Summary.Count != 2 || len(view.Records) != 2 {
		t.Errorf("expected 2 records for u1, got %+v", view.Summary)
	}
}

func TestHistory_BadLimitReturns400(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/history?limit=-1", nil, authHeaders(t, "u1", ""))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

// ─── CORS ─────────────────────────────────────────────────────────────────────

func TestCORS_Preflight(t *testing.T) {
	deps := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/assessment", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	deps.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("unexpected allow-origin %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodDelete) {
		t.Errorf("expected DELETE to be allowed, got %q", got)
	}
}
