package ml

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPredict(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    Prediction
	}{
		{
			name: "Success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/predict" {
					t.Errorf("path = %s, want /predict", r.URL.Path)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("content type = %s", ct)
				}
				w.Write([]byte(`{"status":"success","priority_level":3,"priority_text":"Critical","confidence":0.9}`))
			},
			want: Prediction{PriorityLevel: 3, PriorityText: "Critical"},
		},
		{
			name: "ServerError",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: DefaultPrediction,
		},
		{
			name: "MalformedBody",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
			want: DefaultPrediction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			got := c.Predict(context.Background(), ReportFeatures{
				ProblemCategory:   "Safety/Security",
				ReporterType:      "Student",
				Location:          "Lab",
				ImpactScope:       "Everyone affected",
				OccurrencePattern: "Daily",
			})
			if got != tt.want {
				t.Errorf("Predict = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPredictUnreachableFallsBack(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, 200*time.Millisecond)
	if got := c.Predict(context.Background(), ReportFeatures{}); got != DefaultPrediction {
		t.Errorf("Predict = %+v, want fallback %+v", got, DefaultPrediction)
	}
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if !c.Healthy(context.Background()) {
		t.Error("Healthy = false for a live service")
	}

	srv.Close()
	if c.Healthy(context.Background()) {
		t.Error("Healthy = true for a dead service")
	}
}

func TestTrain(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if err := c.Train(context.Background(), true); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if gotQuery != "synthetic=true" {
		t.Errorf("query = %q, want synthetic=true", gotQuery)
	}
}

func TestUpdatePriorities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","message":"Updated 17 reports"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	n, err := c.UpdatePriorities(context.Background())
	if err != nil {
		t.Fatalf("UpdatePriorities: %v", err)
	}
	if n != 17 {
		t.Errorf("count = %d, want 17", n)
	}
}

func TestParseUpdatedCount(t *testing.T) {
	tests := []struct {
		msg  string
		want int
	}{
		{"Updated 17 reports", 17},
		{"Updated 0 reports", 0},
		{"", 0},
		{"nonsense", 0},
	}
	for _, tt := range tests {
		if got := parseUpdatedCount(tt.msg); got != tt.want {
			t.Errorf("parseUpdatedCount(%q) = %d, want %d", tt.msg, got, tt.want)
		}
	}
}
