package check

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance/internal/report"
	"compliance/internal/rules"
)

func newCheckRouter(l *Lifecycle) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(l, nil).RegisterRoutes(router)
	return router
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHandler_CheckFlow(t *testing.T) {
	l := NewLifecycle(staticRules(rules.DefaultRules()), WithSink(report.NewDirSink(t.TempDir())))
	router := newCheckRouter(l)

	w := get(router, "/api/v1/checks/current")
	require.Equal(t, http.StatusOK, w.Code)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, StateIdle, snap.State)

	w = get(router, "/api/v1/checks/current/prompt")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(t, router, "/api/v1/checks", StartCheckRequest{
		Artifacts: []ArtifactPayload{{Name: "minutes.json", Content: minutesJSON}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, StateCompleted, snap.State)
	assert.Equal(t, 1, snap.Summary.Errors)

	w = get(router, "/api/v1/checks/current/prompt")
	require.Equal(t, http.StatusOK, w.Code)
	var prompt PromptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prompt))
	assert.Equal(t, snap.RunID, prompt.RunID)
	assert.Contains(t, prompt.Prompt, "Current check items:")

	w = get(router, "/api/v1/checks/current/report")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), report.Filename(snap.RunID))
	assert.Empty(t, w.Header().Get(ExportErrorHeader))
	assert.Contains(t, w.Body.String(), "Run ID: "+snap.RunID)

	w = postJSON(t, router, "/api/v1/checks/current/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, StateIdle, snap.State)
}

func TestHandler_MultipartUpload(t *testing.T) {
	l := NewLifecycle(staticRules(rules.DefaultRules()))
	router := newCheckRouter(l)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "minutes.yaml")
	require.NoError(t, err)
	_, err = part.Write([]byte("host: Ada\nrecorder: Grace\nplace: Room 4\nattendees_expected: 5\nattendees_actual: 5\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("save_to_kb", "true"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checks", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var snap Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.SaveToKB)
	assert.Equal(t, 0, snap.Summary.Errors)
	assert.Equal(t, "Ada", snap.Record["host"])
}

func TestHandler_Errors(t *testing.T) {
	l := NewLifecycle(staticRules(rules.DefaultRules()), WithSink(failingSink{}))
	router := newCheckRouter(l)

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
	}{
		{"no artifacts", "/api/v1/checks", StartCheckRequest{}, http.StatusBadRequest},
		{"bad artifact", "/api/v1/checks", StartCheckRequest{Artifacts: []ArtifactPayload{{Name: "a.json", Content: "[1,2"}}}, http.StatusUnprocessableEntity},
		{"unknown mode", "/api/v1/checks", StartCheckRequest{Artifacts: []ArtifactPayload{{Name: "a.json", Content: "{}"}}, Mode: "fast"}, http.StatusBadRequest},
		{"regenerate without run", "/api/v1/checks/current/narrative", nil, http.StatusConflict},
		{"prompt without record", "/api/v1/prompt", map[string]string{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/checks/current/reset", nil))
			w := postJSON(t, router, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestHandler_ReportSinkFailure(t *testing.T) {
	l := NewLifecycle(staticRules(rules.DefaultRules()), WithSink(failingSink{}))
	router := newCheckRouter(l)

	w := postJSON(t, router, "/api/v1/checks", StartCheckRequest{
		Artifacts: []ArtifactPayload{{Name: "minutes.json", Content: minutesJSON}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = get(router, "/api/v1/checks/current/report")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(ExportErrorHeader))
	assert.Contains(t, w.Body.String(), "=== Check results ===")
}

func TestHandler_SynthesizePrompt(t *testing.T) {
	router := newCheckRouter(NewLifecycle(staticRules(rules.DefaultRules())))

	w := postJSON(t, router, "/api/v1/prompt", PromptRequest{Record: rules.Record{"host": "Ada", "place": "Room 4"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp PromptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, report.ModeExportPrompt, resp.Mode)
	assert.Contains(t, resp.Prompt, "- Place: Room 4")
}
