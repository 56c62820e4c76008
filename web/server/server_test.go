package server

import (
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-thinlens/pkg/camera"
	"github.com/df07/go-thinlens/pkg/logx"
	"github.com/df07/go-thinlens/pkg/renderer"
	"github.com/df07/go-thinlens/pkg/scene"
)

func newTestServer(t *testing.T, console *Console) (*Server, *httptest.Server) {
	t.Helper()

	sc := scene.NewMirrorScene()
	sc.Width, sc.Height = 32, 24

	config := renderer.DefaultConfig()
	config.Samples = 1
	config.TileSize = 8

	logger := logx.Discard()
	if console != nil {
		logger = slog.New(NewConsoleHandler(logx.NewHandler(io.Discard, slog.LevelDebug), console))
	}

	s := NewServer(Options{
		Scene:   sc,
		Width:   32,
		Height:  24,
		Render:  config,
		Logger:  logger,
		Console: console,
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func put(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestGetPose(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var pose camera.Pose
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/pose", &pose))
	assert.Equal(t, 4.0, pose.Position.Z)
	assert.Equal(t, -1.0, pose.Direction.Z)
	assert.InDelta(t, 3.0, pose.FocalDistance, 1e-9)
}

func TestSetPose(t *testing.T) {
	s, ts := newTestServer(t, nil)

	resp := put(t, ts.URL+"/api/pose", `{"position":[0,0.5,2],"target":[0,0.5,-1]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pose camera.Pose
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pose))
	assert.InDelta(t, 1.0, pose.FocalDistance, 1e-9)
	assert.Equal(t, pose, s.Pose())

	resp = put(t, ts.URL+"/api/pose", `{"position":[1,1,1],"target":[1,1,1]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, pose, s.Pose())

	resp = put(t, ts.URL+"/api/pose", `{"position":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFrame(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/frame.png?scale=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "3.000", resp.Header.Get("X-Focal-Distance"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestFrame_BadParams(t *testing.T) {
	_, ts := newTestServer(t, nil)

	for _, query := range []string{"samples=0", "samples=abc", "scale=9"} {
		resp, err := http.Get(ts.URL + "/api/frame.png?" + query)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestInspect(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var result InspectResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/inspect?x=16&y=12", &result))
	assert.True(t, result.Hit)
	assert.Equal(t, "mirror", result.SurfaceType)
	assert.Equal(t, "sphere", result.GeometryType)
	assert.InDelta(t, 3.0, result.Distance, 0.01)
	assert.True(t, result.InFocus)
	assert.Equal(t, 1.0, result.Properties["radius"])

	// Top left looks past the sphere at the back wall
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/inspect?x=0&y=0", &result))
	assert.True(t, result.Hit)
	assert.Equal(t, "plane", result.GeometryType)
	assert.False(t, result.InFocus)

	var body map[string]string
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/inspect?x=32&y=0", &body))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/inspect?x=1", &body))
}

func TestScenes(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var infos []scene.Info
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/scenes", &infos))
	require.Len(t, infos, len(scene.Names()))
	assert.Equal(t, "default", infos[0].ID)
}

func TestLoadScene(t *testing.T) {
	s, ts := newTestServer(t, nil)

	resp := put(t, ts.URL+"/api/scene?name=empty", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, camera.MaxFocalDistance, s.Pose().FocalDistance)

	resp = put(t, ts.URL+"/api/scene?name=cornell", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = put(t, ts.URL+"/api/scene?name=/etc/secret.yaml", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = put(t, ts.URL+"/api/scene", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestControl(t *testing.T) {
	s, ts := newTestServer(t, nil)
	conn := dial(t, ts, "/api/control")

	tests := []struct {
		name        string
		commands    []string
		wantChanged bool
		wantZ       float64
		wantError   bool
	}{
		{"forward", []string{"forward"}, true, 3.9, false},
		{"nothing", nil, false, 3.9, false},
		{"unknown", []string{"fly"}, false, 3.9, true},
		{"back repeated", []string{"back", "back"}, true, 4.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteJSON(ControlRequest{Commands: tt.commands}))

			var reply ControlReply
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
			require.NoError(t, conn.ReadJSON(&reply))

			assert.Equal(t, tt.wantChanged, reply.Changed)
			assert.InDelta(t, tt.wantZ, reply.Pose.Position.Z, 1e-9)
			assert.Equal(t, tt.wantError, reply.Error != "")
			assert.Equal(t, s.Pose(), reply.Pose)
		})
	}
}

func TestConsoleStream(t *testing.T) {
	console := NewConsole()
	s, ts := newTestServer(t, console)
	conn := dial(t, ts, "/api/console")

	// Keep logging until the subscription is in place
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(10 * time.Millisecond):
				s.logger.Info("tick", "n", 1)
			}
		}
	}()

	var msg ConsoleMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "tick n=1", msg.Message)
	assert.Equal(t, "info", msg.Level)
}

func TestConsole_NoConsoleRoute(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/console")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
