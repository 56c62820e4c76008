// Package server exposes a camera over HTTP: its pose, depth previews of what
// it sees, and a websocket that drives it with movement commands.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-thinlens/pkg/camera"
	"github.com/df07/go-thinlens/pkg/renderer"
	"github.com/df07/go-thinlens/pkg/scene"
)

// Options configures a Server
type Options struct {
	Port          int
	Scene         *scene.Scene
	Width, Height int             // Used when the scene has no size of its own
	CameraOptions []camera.Option // Applied before the scene's own pose
	Render        renderer.Config
	SceneDir      string // Directory listed by /api/scenes
	StaticDir     string // Served at / when set
	Logger        *slog.Logger
	Console       *Console // Receives log records for /api/console; may be nil
}

// Server handles web requests for one shared camera. Reads of the camera
// hold the read lock, movement holds the write lock.
type Server struct {
	opts     Options
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	scene  *scene.Scene
	camera *camera.Camera
}

// NewServer creates a new web server looking into opts.Scene
func NewServer(opts Options) *Server {
	s := &Server{
		opts:   opts,
		logger: opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.setScene(opts.Scene)
	return s
}

// setScene replaces the scene and builds a fresh camera for it. Callers
// hold the write lock or own s exclusively.
func (s *Server) setScene(sc *scene.Scene) {
	width, height := sc.Size(s.opts.Width, s.opts.Height)
	opts := append(append([]camera.Option{}, s.opts.CameraOptions...), sc.CameraOptions()...)
	s.scene = sc
	s.camera = camera.NewCamera(width, height, sc.World, opts...)
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/pose", s.handleGetPose)
	mux.HandleFunc("PUT /api/pose", s.handleSetPose)
	mux.HandleFunc("GET /api/frame.png", s.handleFrame)
	mux.HandleFunc("GET /api/inspect", s.handleInspect)
	mux.HandleFunc("GET /api/scenes", s.handleScenes)
	mux.HandleFunc("PUT /api/scene", s.handleLoadScene)
	mux.HandleFunc("GET /api/control", s.handleControl)
	if s.opts.Console != nil {
		mux.HandleFunc("GET /api/console", s.handleConsole)
	}
	if s.opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.opts.StaticDir)))
	}

	return mux
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "addr", "http://localhost"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Pose returns the current camera pose
func (s *Server) Pose() camera.Pose {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera.Pose()
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetPose(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Pose())
}

// PoseRequest sets the camera explicitly
type PoseRequest struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
}

func (s *Server) handleSetPose(w http.ResponseWriter, r *http.Request) {
	var req PoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid pose: %v", err))
		return
	}

	s.mu.Lock()
	err := s.camera.SetPose(vec(req.Position), vec(req.Target), s.scene.World)
	pose := s.camera.Pose()
	s.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("pose set", "pose", pose.String())
	writeJSON(w, http.StatusOK, pose)
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	infos, err := scene.Catalog(s.opts.SceneDir, s.logger)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleLoadScene switches to the scene named by ?name=, a built-in or a
// file from the scene directory listing
func (s *Server) handleLoadScene(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing scene name")
		return
	}
	if scene.IsSceneFile(name) && !s.listedSceneFile(name) {
		writeError(w, http.StatusBadRequest, "unknown scene: "+name)
		return
	}

	sc, err := scene.Create(name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scene.ErrUnknownScene) || errors.Is(err, scene.ErrInvalidScene) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	s.mu.Lock()
	s.setScene(sc)
	pose := s.camera.Pose()
	s.mu.Unlock()

	s.logger.Info("scene loaded", "scene", sc.Name, "shapes", sc.World.Len())
	writeJSON(w, http.StatusOK, pose)
}

// listedSceneFile keeps clients from loading arbitrary paths
func (s *Server) listedSceneFile(path string) bool {
	files, err := scene.ListFiles(s.opts.SceneDir)
	if err != nil {
		return false
	}
	for _, f := range files {
		if f == path {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
