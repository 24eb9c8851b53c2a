package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"academics/internal/academics"
	"academics/internal/httpmiddleware"
	"academics/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *store.DB
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.SQLite, filepath.Join(t.TempDir(), "assessment.db"), store.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	h := New(academics.NewService(db, bcrypt.MinCost), db, nil)
	return &testServer{router: NewRouter(h, cfg), db: db}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func (s *testServer) mustCreate(t *testing.T, path, body string) map[string]any {
	t.Helper()
	w := s.do(t, http.MethodPost, path, body)
	if w.Code != http.StatusOK {
		t.Fatalf("POST %s: expected 200, got %d: %s", path, w.Code, w.Body.String())
	}
	return decode[map[string]any](t, w)
}

const aliceBody = `{"submitted_by":"t","user_type":"student","full_name":"Alice","username":"alice","email":"a@x.com","password":"secret"}`

func TestRoot(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	w := s.do(t, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decode[map[string]string](t, w); got["message"] != "Hello, World!" {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestCreateUserOmitsPassword(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	got := s.mustCreate(t, "/users", aliceBody)

	if got["user_type"] != "student" || got["full_name"] != "Alice" || got["email"] != "a@x.com" {
		t.Fatalf("unexpected user %v", got)
	}
	for _, k := range []string{"password", "username"} {
		if _, ok := got[k]; ok {
			t.Fatalf("response must not contain %s: %v", k, got)
		}
	}
	if id, _ := got["id"].(float64); id <= 0 {
		t.Fatalf("expected generated id, got %v", got["id"])
	}
}

func TestCreateDepartment(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	got := s.mustCreate(t, "/departments", `{"submitted_by":"t","department_name":"Physics"}`)
	if got["department_name"] != "Physics" {
		t.Fatalf("unexpected department %v", got)
	}
	if id, _ := got["id"].(float64); id <= 0 {
		t.Fatalf("expected generated id, got %v", got["id"])
	}
}

func TestCreateCourseUnknownDepartment(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	w := s.do(t, http.MethodPost, "/course",
		`{"submitted_by":"t","course_name":"Algorithms","department_id":9999,"semester":"Fall","class_id":1,"lecture_hours":3}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/courses", "")
	if courses := decode[[]any](t, w); len(courses) != 0 {
		t.Fatalf("expected no courses, got %v", courses)
	}
}

func TestListEmpty(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	for _, path := range []string{"/students", "/users", "/departments", "/courses", "/attendance-log"} {
		w := s.do(t, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, w.Code)
		}
		if body := strings.TrimSpace(w.Body.String()); body != "[]" {
			t.Fatalf("GET %s: expected [], got %s", path, body)
		}
	}
}

func TestDuplicateUserConflict(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	s.mustCreate(t, "/users", aliceBody)

	w := s.do(t, http.MethodPost, "/users",
		`{"submitted_by":"t","user_type":"student","full_name":"Other","username":"alice","email":"other@x.com","password":"p"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[map[string]any](t, w); got["error"] != "already exists" {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		body  string
		field string
		rule  string
	}{
		{
			name: "missing field", path: "/departments",
			body:  `{"submitted_by":"t"}`,
			field: "department_name", rule: "required",
		},
		{
			name: "bad email", path: "/users",
			body:  `{"submitted_by":"t","user_type":"s","full_name":"A","username":"a","email":"nope","password":"p"}`,
			field: "email", rule: "email",
		},
		{
			name: "unknown field", path: "/departments",
			body:  `{"submitted_by":"t","department_name":"X","id":5}`,
			field: "id", rule: "unknown",
		},
		{
			name: "wrong type", path: "/course",
			body:  `{"submitted_by":"t","course_name":"A","department_id":"one","semester":"F","class_id":1,"lecture_hours":1}`,
			field: "department_id", rule: "type:int64",
		},
		{
			name: "zero value pointer still required", path: "/student",
			body:  `{"submitted_by":"t","user_id":1,"department_id":1}`,
			field: "class_id", rule: "required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, RouterConfig{})
			w := s.do(t, http.MethodPost, tt.path, tt.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
			}
			got := decode[struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}](t, w)
			if got.Fields[tt.field] != tt.rule {
				t.Fatalf("expected %s=%s, got %v", tt.field, tt.rule, got.Fields)
			}
		})
	}
}

func TestMalformedBodies(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	for _, body := range []string{"", "{", "[1,2]"} {
		req := httptest.NewRequest(http.MethodPost, "/departments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("body %q: expected 422, got %d", body, w.Code)
		}
	}
}

func TestFullGraph(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	user := s.mustCreate(t, "/users", aliceBody)
	dept := s.mustCreate(t, "/departments", `{"submitted_by":"t","department_name":"CS"}`)

	course := s.mustCreate(t, "/course",
		`{"submitted_by":"t","course_name":"Algorithms","department_id":`+jsonID(dept)+`,"semester":"Fall","class_id":101,"lecture_hours":3}`)
	if nested, _ := course["department"].(map[string]any); nested["department_name"] != "CS" {
		t.Fatalf("course should embed department: %v", course)
	}

	student := s.mustCreate(t, "/student",
		`{"submitted_by":"t","user_id":`+jsonID(user)+`,"department_id":`+jsonID(dept)+`,"class_id":0}`)
	if nested, _ := student["user"].(map[string]any); nested["full_name"] != "Alice" {
		t.Fatalf("student should embed user: %v", student)
	}

	log := s.mustCreate(t, "/attendance-log",
		`{"submitted_by":"t","student_id":`+jsonID(student)+`,"course_id":`+jsonID(course)+`,"present":true}`)
	if log["present"] != true {
		t.Fatalf("expected present=true, got %v", log)
	}

	w := s.do(t, http.MethodGet, "/attendance-log", "")
	logs := decode[[]map[string]any](t, w)
	if len(logs) != 1 {
		t.Fatalf("expected one log, got %d", len(logs))
	}
	nestedCourse, _ := logs[0]["course"].(map[string]any)
	if nestedCourse["course_name"] != "Algorithms" {
		t.Fatalf("log should embed course: %v", logs[0])
	}

	w = s.do(t, http.MethodPost, "/attendance-log",
		`{"submitted_by":"t","student_id":424242,"course_id":`+jsonID(course)+`}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("dangling student: expected 422, got %d", w.Code)
	}
}

func jsonID(m map[string]any) string {
	raw, _ := json.Marshal(m["id"])
	return string(raw)
}

func TestNoItemRoutes(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	s.mustCreate(t, "/departments", `{"submitted_by":"t","department_name":"CS"}`)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/departments/1"},
		{http.MethodDelete, "/departments/1"},
		{http.MethodPatch, "/users/1"},
	} {
		if w := s.do(t, tc.method, tc.path, ""); w.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	w := s.do(t, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decode[map[string]string](t, w)
	if got["db"] != "ok" || got["redis"] != "disabled" {
		t.Fatalf("unexpected health %v", got)
	}

	_ = s.db.Close()
	w = s.do(t, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after close, got %d", w.Code)
	}
	if got := decode[map[string]string](t, w); got["db"] != "down" {
		t.Fatalf("unexpected health %v", got)
	}
}

func TestStoreUnavailable(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	_ = s.db.Close()
	w := s.do(t, http.MethodGet, "/users", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

func TestRouterMiddleware(t *testing.T) {
	m := httpmiddleware.NewMetrics(prometheus.NewRegistry())
	s := newTestServer(t, RouterConfig{Limiter: denyAll{}, Metrics: m})

	w := s.do(t, http.MethodGet, "/users", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get(httpmiddleware.RequestIDHeader) == "" {
		t.Fatal("missing request id header")
	}

	if w := s.do(t, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz should bypass the rate limit, got %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `route="/users",status="429"`) {
		t.Fatalf("expected rate-limited request in metrics:\n%s", w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, RouterConfig{AllowOrigins: []string{"https://app.example"}})
	req := httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
