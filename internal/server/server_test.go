package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/config"
)

func testServer(t *testing.T, origins ...string) *Server {
	t.Helper()
	ts := models.TimeSlot{Start: "09:00", End: "10:00", Kind: models.SlotSession, Day: 1}
	prog := &models.Program{
		Days: []models.DayProgram{{
			Day: 1,
			Slots: []models.SlotGroup{{
				TimeSlot: ts,
				Sessions: []*models.Session{{SessionID: "S01", Day: 1, TimeSlot: &ts}},
			}},
		}},
		Metadata: map[string]any{
			"generated":       "papers_assigned",
			"papers_assigned": 5,
			"papers_total":    6,
		},
	}
	cfg := &config.Config{Env: config.EnvDevelopment}
	cfg.Serve.Port = 0
	cfg.Serve.AllowedOrigins = origins
	return New(cfg, zap.NewNop(), prog)
}

func do(t *testing.T, s *Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, testServer(t), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetProgram(t *testing.T) {
	w := do(t, testServer(t), http.MethodGet, "/api/v1/program", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var prog models.Program
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prog))
	require.Len(t, prog.Days, 1)
	assert.Equal(t, "S01", prog.Days[0].Slots[0].Sessions[0].SessionID)
}

func TestGetMetadata(t *testing.T) {
	w := do(t, testServer(t), http.MethodGet, "/api/v1/program/metadata", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, "papers_assigned", meta["generated"])
}

func TestGetDay(t *testing.T) {
	w := do(t, testServer(t), http.MethodGet, "/api/v1/program/days/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var day models.DayProgram
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &day))
	assert.Equal(t, 1, day.Day)
}

func TestGetDayNotFound(t *testing.T) {
	w := do(t, testServer(t), http.MethodGet, "/api/v1/program/days/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(t)
	do(t, s, http.MethodGet, "/health", nil)

	w := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "confplan_papers_assigned 5")
	assert.Contains(t, w.Body.String(), "confplan_papers_total 6")
}

func TestCORSAllowedOrigin(t *testing.T) {
	s := testServer(t, "https://viewer.example.org")

	w := do(t, s, http.MethodGet, "/health", map[string]string{"Origin": "https://viewer.example.org"})
	assert.Equal(t, "https://viewer.example.org", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, s, http.MethodGet, "/health", map[string]string{"Origin": "https://evil.example.org"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	s := testServer(t)
	w := do(t, s, http.MethodOptions, "/api/v1/program", map[string]string{"Origin": "https://any.example.org"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}
