package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"quiz-reviewer/internal/metrics"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	return NewRouter(newTestService(), RouterOptions{Metrics: metrics.New(reg), Gatherer: reg})
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response %d %q", rec.Code, rec.Body.String())
	}
}

func TestQuizEndpointsHideAnswers(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quizzes", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"questionCount":2`) {
		t.Fatalf("unexpected listing %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quizzes/general", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "correctAnswer") {
		t.Fatalf("quiz endpoint leaked answers: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quizzes/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestParseJSON(t *testing.T) {
	router := newTestRouter(t)
	body, _ := json.Marshal(map[string]string{"text": sampleDocument, "answerKey": `["B", false]`})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/parse", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Questions []json.RawMessage `json:"questions"`
		Graded    bool              `json:"graded"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Questions) != 2 || !resp.Graded {
		t.Fatalf("unexpected parse response %s", rec.Body.String())
	}
}

func TestParseNothingIs422(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader(`{"text":"hello world"}`))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter(t).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "no questions found") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestParseMultipartUpload(t *testing.T) {
	router := newTestRouter(t)

	upload := func(name string, content []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, _ := mw.CreateFormFile("file", name)
		_, _ = part.Write(content)
		_ = mw.WriteField("answerKey", "B\nfalse")
		_ = mw.Close()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/parse", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := upload("reviewer.txt", []byte(sampleDocument)); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"graded":true`) {
		t.Fatalf("unexpected upload response %d %s", rec.Code, rec.Body.String())
	}
	if rec := upload("reviewer.docx", []byte("PK\x03\x04")); rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 for docx, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("metrics missing request counter: %d", rec.Code)
	}
}
