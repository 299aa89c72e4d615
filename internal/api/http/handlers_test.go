package http

import (
	"archive/tar"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/GameWarden/internal/domain/backup"
	"github.com/GriffinCanCode/GameWarden/internal/domain/command"
	"github.com/GriffinCanCode/GameWarden/internal/domain/session"
	"github.com/GriffinCanCode/GameWarden/internal/game"
	"github.com/GriffinCanCode/GameWarden/internal/game/sim"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/logging"
)

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store, err := backup.Load(filepath.Join(dir, "backups.jsonl"), 8)
	require.NoError(t, err)

	profile := game.Default()
	connector := sim.NewConnector(profile, logging.NewNop())
	coord := session.NewCoordinator(session.New(connector), store)
	dispatcher := command.NewDispatcher(coord, logging.NewNop())
	handlers := NewHandlers(coord, dispatcher, profile, dir, logging.NewNop())

	router := gin.New()
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/status", handlers.Status)
	router.GET("/backups", handlers.ListBackups)
	router.POST("/command", handlers.RunCommand)
	router.GET("/export", handlers.Export)
	return router, dir
}

func doGET(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func runCommand(t *testing.T, router *gin.Engine, text string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"text": text})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/command", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func replies(t *testing.T, body map[string]interface{}) []interface{} {
	t.Helper()
	list, ok := body["replies"].([]interface{})
	require.True(t, ok, "response should carry a replies array")
	return list
}

func TestRoot(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doGET(t, router, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "GameWarden", body["service"])
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doGET(t, router, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])

	store := body["store"].(map[string]interface{})
	assert.Equal(t, float64(0), store["snapshots"])
	assert.Equal(t, float64(8), store["capacity"])
}

func TestStatusLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doGET(t, router, "/status")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	sess := body["session"].(map[string]interface{})
	assert.Equal(t, false, sess["active"])

	w = runCommand(t, router, "/start ABC")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, replies(t, decodeBody(t, w)), 2)

	w = doGET(t, router, "/status")
	body = decodeBody(t, w)
	sess = body["session"].(map[string]interface{})
	assert.Equal(t, true, sess["active"])
}

func TestRunCommandInvalid(t *testing.T) {
	router, _ := newTestRouter(t)

	w := runCommand(t, router, "/fly")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["error"], "invalid command")
}

func TestRunCommandMissingText(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/command", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunCommandWithoutSession(t *testing.T) {
	router, _ := newTestRouter(t)

	w := runCommand(t, router, "/screenshot")

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["error"], "instance not started")
}

func TestRunCommandScreenshot(t *testing.T) {
	router, _ := newTestRouter(t)

	w := runCommand(t, router, "/start ABC")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = runCommand(t, router, "/screenshot")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	list := replies(t, decodeBody(t, w))
	require.Len(t, list, 2)

	last := list[1].(map[string]interface{})
	att := last["attachment"].(map[string]interface{})
	assert.Equal(t, "screenshot.png", att["name"])
	assert.Equal(t, "image/png", att["mime"])

	data, err := base64.StdEncoding.DecodeString(att["data"].(string))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestStopReturnsSaveCode(t *testing.T) {
	router, _ := newTestRouter(t)

	w := runCommand(t, router, "/start ABC")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = runCommand(t, router, "/stop")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	list := replies(t, decodeBody(t, w))
	require.Len(t, list, 2)

	code := list[1].(map[string]interface{})
	assert.Equal(t, "ABC", code["text"])
	assert.Equal(t, true, code["pre"])
}

func TestListBackupsOmitsSaveCodes(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doGET(t, router, "/backups")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["count"])

	w = runCommand(t, router, "/start SECRETCODE")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = runCommand(t, router, "/backup")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doGET(t, router, "/backups")
	body = decodeBody(t, w)
	assert.Equal(t, float64(1), body["count"])

	entry := body["backups"].([]interface{})[0].(map[string]interface{})
	assert.NotEmpty(t, entry["saved_at"])
	assert.Equal(t, float64(len("SECRETCODE")), entry["size_bytes"])

	assert.NotContains(t, w.Body.String(), "SECRETCODE")
}

func TestExport(t *testing.T) {
	router, _ := newTestRouter(t)

	w := runCommand(t, router, "/start ABC")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = runCommand(t, router, "/backup")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doGET(t, router, "/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".tar.gz")

	gz, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer gz.Close()

	var names []string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	assert.Contains(t, names, "backups.jsonl")
}

func TestExportMissingDataDir(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store, err := backup.Load(filepath.Join(dir, "backups.jsonl"), 8)
	require.NoError(t, err)

	profile := game.Default()
	coord := session.NewCoordinator(session.New(sim.NewConnector(profile, logging.NewNop())), store)
	dispatcher := command.NewDispatcher(coord, logging.NewNop())
	handlers := NewHandlers(coord, dispatcher, profile, filepath.Join(dir, "missing"), logging.NewNop())

	router := gin.New()
	router.GET("/export", handlers.Export)

	w := doGET(t, router, "/export")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
