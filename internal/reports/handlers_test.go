package reports

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/devparmar16/campus-ease/internal/auth"
	"github.com/devparmar16/campus-ease/internal/ml"
	"github.com/devparmar16/campus-ease/internal/uploads"
	"github.com/gin-gonic/gin"
	"github.com/neilotoole/slogt"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE report (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		problem_category TEXT NOT NULL,
		reporter_type TEXT NOT NULL,
		location TEXT NOT NULL,
		class_no INTEGER,
		impact_scope TEXT NOT NULL,
		occurrence_pattern TEXT NOT NULL,
		description TEXT NOT NULL,
		images TEXT NOT NULL DEFAULT '',
		priority_level INTEGER NOT NULL DEFAULT 1,
		priority_text TEXT NOT NULL DEFAULT 'Medium',
		resolved INTEGER NOT NULL DEFAULT 0,
		resolved_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func newTestRouter(t *testing.T, s *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(string(auth.CtxUserID), int64(1))
		c.Set(string(auth.CtxRole), "student")
		c.Set(string(auth.CtxCollege), "college_1")
	})
	Register(&r.RouterGroup, s)
	return r
}

const submitBody = `{
	"Problem_Category": "Electrical",
	"Reporter_Type": "Student",
	"Location": "Block A",
	"Impact_Scope": "Single Room",
	"Occurrence_Pattern": "First Time",
	"description": "lights out in the lab"
}`

func submitReport(t *testing.T, r *gin.Engine) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(submitBody))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitFallsBackWhenScoringDown(t *testing.T) {
	// The scoring service is unreachable: the submission must still land,
	// carrying the Medium fallback.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	db := newTestDB(t)
	s := &Service{
		Logger:  slogt.New(t),
		DB:      db,
		ML:      ml.NewClient(srv.URL, time.Second),
		Uploads: uploads.NewStore(t.TempDir(), "/uploads"),
	}
	w := submitReport(t, newTestRouter(t, s))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		ReportID      int64  `json:"report_id"`
		PriorityLevel int    `json:"priority_level"`
		PriorityText  string `json:"priority_text"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PriorityLevel != 1 || resp.PriorityText != "Medium" {
		t.Errorf("response priority = %d/%q, want 1/Medium", resp.PriorityLevel, resp.PriorityText)
	}

	var (
		level int
		text  string
	)
	if err := db.QueryRow(`SELECT priority_level, priority_text FROM report WHERE id=?`, resp.ReportID).
		Scan(&level, &text); err != nil {
		t.Fatalf("report row missing: %v", err)
	}
	if level != 1 || text != "Medium" {
		t.Errorf("stored priority = %d/%q, want 1/Medium", level, text)
	}
}

func TestSubmitStoresPredictedPriority(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("path = %s, want /predict", r.URL.Path)
		}
		w.Write([]byte(`{"priority_level":3,"priority_text":"Critical"}`))
	}))
	defer srv.Close()

	db := newTestDB(t)
	s := &Service{
		Logger:  slogt.New(t),
		DB:      db,
		ML:      ml.NewClient(srv.URL, time.Second),
		Uploads: uploads.NewStore(t.TempDir(), "/uploads"),
	}
	w := submitReport(t, newTestRouter(t, s))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		ReportID int64 `json:"report_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	var (
		level int
		text  string
	)
	if err := db.QueryRow(`SELECT priority_level, priority_text FROM report WHERE id=?`, resp.ReportID).
		Scan(&level, &text); err != nil {
		t.Fatalf("report row missing: %v", err)
	}
	if level != 3 || text != "Critical" {
		t.Errorf("stored priority = %d/%q, want 3/Critical", level, text)
	}
}

func TestSubmitRejectsUnknownReporterType(t *testing.T) {
	db := newTestDB(t)
	s := &Service{
		Logger:  slogt.New(t),
		DB:      db,
		ML:      ml.NewClient("http://127.0.0.1:0", time.Second),
		Uploads: uploads.NewStore(t.TempDir(), "/uploads"),
	}
	r := newTestRouter(t, s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reports",
		strings.NewReader(strings.Replace(submitBody, "Student", "Alien", 1)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM report`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("rows = %d after rejected submission, want 0", n)
	}
}
