package management

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance/internal/rules"
)

func newTestRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	router := gin.New()
	NewHandler(f.svc, nil).RegisterRoutes(router)
	return router, f
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ActorHeader, "bob")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_RuleLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/rules", agendaRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created rules.CheckRule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodGet, "/api/v1/rules/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/v1/rules/"+created.ID, map[string]string{"description": "Agenda items"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated rules.CheckRule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Agenda items", updated.Description)

	w = doJSON(t, router, http.MethodGet, "/api/v1/rules/"+created.ID+"/versions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var versions []RuleVersion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &versions))
	assert.Len(t, versions, 2)

	w = doJSON(t, router, http.MethodGet, "/api/v1/rules/"+created.ID+"/audit?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []AuditLog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "bob", logs[0].ChangedBy)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/rules/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/rules/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Errors(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"invalid draft", http.MethodPost, "/api/v1/rules", CreateRuleRequest{Name: "No fields"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"protected update", http.MethodPut, "/api/v1/rules/" + rules.DefaultBasicInfoRuleID, map[string]string{"name": "x"}, http.StatusForbidden, "PERMISSION_DENIED"},
		{"protected delete", http.MethodDelete, "/api/v1/rules/" + rules.DefaultBasicInfoRuleID, nil, http.StatusForbidden, "PERMISSION_DENIED"},
		{"missing rule", http.MethodPost, "/api/v1/rules/missing/duplicate", nil, http.StatusNotFound, "NOT_FOUND"},
		{"override required", http.MethodPut, "/api/v1/rules/protection", map[string]string{}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp["error_code"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestHandler_Protection(t *testing.T) {
	router, f := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/rules/protection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status ProtectionStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Override)
	assert.Len(t, status.ProtectedIDs, len(rules.ProtectedRuleIDs))

	w = doJSON(t, router, http.MethodPut, "/api/v1/rules/protection", map[string]bool{"override": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.store.Override())

	w = doJSON(t, router, http.MethodDelete, "/api/v1/rules/"+rules.DefaultBasicInfoRuleID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandler_Drafts(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/rules/drafts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var draft rules.CheckRule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &draft))
	assert.NotEmpty(t, draft.ID)

	field := rules.NewBlankField()
	draft.Fields = append(draft.Fields, field)
	w = doJSON(t, router, http.MethodPost, "/api/v1/rules/drafts/duplicate-field", DuplicateFieldRequest{Rule: draft, FieldID: field.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out rules.CheckRule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out.Fields, 2)
}

func TestHandler_AuditLogs(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/rules", agendaRequest())
	doJSON(t, router, http.MethodPut, "/api/v1/rules/protection", map[string]bool{"override": false})

	w := doJSON(t, router, http.MethodGet, "/api/v1/audit/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []AuditLog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, "override", logs[0].Action)
	assert.Nil(t, logs[0].RuleID)
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 100, parseLimit(""))
	assert.Equal(t, 100, parseLimit("abc"))
	assert.Equal(t, 100, parseLimit("0"))
	assert.Equal(t, 100, parseLimit("5000"))
	assert.Equal(t, 25, parseLimit("25"))
}
