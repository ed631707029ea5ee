package handlers

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeAndHammer/eventdle/internal/catalog"
	"github.com/CodeAndHammer/eventdle/internal/codec"
	constants "github.com/CodeAndHammer/eventdle/internal/constants"
	models "github.com/CodeAndHammer/eventdle/internal/models"
)

func testRouter(t *testing.T, staticDir string) (*gin.Engine, *models.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat, err := catalog.New(map[catalog.QuestionID][]string{4: {"apple"}})
	require.NoError(t, err)

	app := &models.App{
		Catalog:    cat,
		Codec:      codec.NewCodec(big.NewInt(1700000000)),
		LimiterMap: make(map[string]*models.RateLimiterEntry),
		StartTime:  time.Now(),
		StaticDir:  staticDir,
	}

	r := gin.New()
	r.GET(constants.RouteHome, func(c *gin.Context) { HomeHandler(app, c) })
	r.GET(constants.RouteGetEvent, func(c *gin.Context) { GetEventHandler(app, c) })
	r.POST(constants.RouteCheck, func(c *gin.Context) { CheckHandler(app, c) })
	r.GET(constants.RouteHealthz, func(c *gin.Context) { HealthzHandler(app, c) })
	return r, app
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetEventHandler(t *testing.T) {
	r, app := testRouter(t, t.TempDir())

	w := do(r, http.MethodGet, constants.RouteGetEvent, "")
	require.Equal(t, http.StatusOK, w.Code)

	var res models.StartGameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, catalog.QuestionID(4), res.Question)
	assert.Equal(t, 5, res.Length)
	assert.NotContains(t, w.Body.String(), "apple")

	q, secret, err := app.Codec.Decode(res.Hash)
	require.NoError(t, err)
	assert.Equal(t, catalog.QuestionID(4), q)
	assert.Equal(t, "apple", secret)
}

func TestCheckHandler(t *testing.T) {
	r, app := testRouter(t, t.TempDir())
	token := app.Codec.Encode(4, "apple")

	cases := []struct {
		name  string
		guess string
		want  string
	}{
		{"correct ignores case", "APPLE", `{"correct":true,"correct_indexes":[0,1,2,3,4],"wrong_places":[]}`},
		{"misplaced", "appel", `{"correct":false,"correct_indexes":[0,1],"wrong_places":[[2,"p"],[3,"l"],[4,"e"]]}`},
		{"wrong length", "ab", `{"correct":false,"correct_indexes":[],"wrong_places":[]}`},
		{"one off", "apply", `{"correct":false,"correct_indexes":[0,1,2,3],"wrong_places":[]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(models.CheckRequest{Hash: token, Event: tc.guess})
			w := do(r, http.MethodPost, constants.RouteCheck, string(body))
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tc.want, w.Body.String())
		})
	}
}

func TestCheckHandlerRejectsBadInput(t *testing.T) {
	r, _ := testRouter(t, t.TempDir())

	w := do(r, http.MethodPost, constants.RouteCheck, `{"hash": "!!!", "event": "apple"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"malformed_token"}`, w.Body.String())

	w = do(r, http.MethodPost, constants.RouteCheck, `{"hash": "MTIz", "event": "apple"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"malformed_token"}`, w.Body.String())

	w = do(r, http.MethodPost, constants.RouteCheck, `{"event": "apple"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid_request"}`, w.Body.String())

	w = do(r, http.MethodPost, constants.RouteCheck, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid_request"}`, w.Body.String())
}

func TestHealthzHandler(t *testing.T) {
	r, _ := testRouter(t, t.TempDir())

	w := do(r, http.MethodGet, constants.RouteHealthz, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["questions_loaded"])
	assert.Equal(t, float64(1), body["events_loaded"])
	assert.Equal(t, "development", body["env"])
}

func TestHomeHandler(t *testing.T) {
	dir := t.TempDir()
	r, _ := testRouter(t, dir)

	w := do(r, http.MethodGet, constants.RouteHome, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), constants.RouteGetEvent)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Eventdle</h1>"), 0o644))
	w = do(r, http.MethodGet, constants.RouteHome, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Eventdle</h1>")
}
