package lifecycle

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/backend/internal/models"
)

func setupRouter(iv *models.Interview, now time.Time) (*gin.Engine, *fakeStore) {
	gin.SetMode(gin.TestMode)
	store := &fakeStore{iv: iv}
	eng := NewEngine(store, PlainVerifier{}, 8, nil)
	eng.now = func() time.Time { return now }
	h := NewHandler(eng, nil)

	router := gin.New()
	router.POST("/interviews/login", h.Login)
	router.PATCH("/interviews/:id/progress", h.SyncProgress)
	return router, store
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginEndpointSuccess(t *testing.T) {
	router, _ := setupRouter(twoHourInterview(), t0.Add(10*time.Minute))

	w := doJSON(router, http.MethodPost, "/interviews/login",
		gin.H{"interview_id": "IV-TEST1234", "password": "open-sesame"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var body struct {
		Success bool    `json:"success"`
		Data    Session `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success {
		t.Error("success should be true")
	}
	if body.Data.RemainingSeconds != 3600 {
		t.Errorf("remaining = %d, want 3600", body.Data.RemainingSeconds)
	}
}

func TestLoginEndpointRejectionStatuses(t *testing.T) {
	cases := []struct {
		name       string
		now        time.Time
		id         string
		password   string
		wantStatus int
		wantKind   string
	}{
		{"unknown id", t0, "IV-NOPE", "open-sesame", http.StatusNotFound, "not_found"},
		{"bad password", t0.Add(time.Minute), "IV-TEST1234", "wrong", http.StatusUnauthorized, "bad_credentials"},
		{"too early", t0.Add(-5 * time.Minute), "IV-TEST1234", "open-sesame", http.StatusForbidden, "not_started"},
		{"window passed", t0.Add(3 * time.Hour), "IV-TEST1234", "open-sesame", http.StatusGone, "expired"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := setupRouter(twoHourInterview(), tc.now)
			w := doJSON(router, http.MethodPost, "/interviews/login",
				gin.H{"interview_id": tc.id, "password": tc.password})
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tc.wantStatus, w.Body.String())
			}
			var body struct {
				Kind string `json:"kind"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body.Kind != tc.wantKind {
				t.Errorf("kind = %q, want %q", body.Kind, tc.wantKind)
			}
		})
	}
}

func TestLoginEndpointTooEarlyIncludesScheduledTime(t *testing.T) {
	router, _ := setupRouter(twoHourInterview(), t0.Add(-5*time.Minute))
	w := doJSON(router, http.MethodPost, "/interviews/login",
		gin.H{"interview_id": "IV-TEST1234", "password": "open-sesame"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	var body struct {
		Data struct {
			ScheduledTime time.Time `json:"scheduled_time"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Data.ScheduledTime.Equal(t0) {
		t.Errorf("scheduled_time = %v, want %v", body.Data.ScheduledTime, t0)
	}
}

func TestProgressEndpointAcceptsNumericString(t *testing.T) {
	router, store := setupRouter(twoHourInterview(), t0)

	w := doJSON(router, http.MethodPatch, "/interviews/IV-TEST1234/progress",
		gin.H{"current_question_index": "4"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if store.iv.CurrentQuestionIndex != 4 {
		t.Errorf("index = %d, want 4", store.iv.CurrentQuestionIndex)
	}
}

func TestProgressEndpointUnknownInterview(t *testing.T) {
	router, _ := setupRouter(twoHourInterview(), t0)
	w := doJSON(router, http.MethodPatch, "/interviews/IV-NOPE/progress",
		gin.H{"current_question_index": 2})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
