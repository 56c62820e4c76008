package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-thinlens/pkg/camera"
)

// ControlRequest is one message from a control client
type ControlRequest struct {
	Commands []string `json:"commands"`
}

// ControlReply answers every ControlRequest
type ControlReply struct {
	Changed bool        `json:"changed"`
	Pose    camera.Pose `json:"pose"`
	Error   string      `json:"error,omitempty"`
}

const writeWait = 5 * time.Second

// handleControl upgrades to a websocket on which each JSON ControlRequest is
// applied to the camera as one frame of movement
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("control upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	s.logger.Debug("control client connected", "remote", r.RemoteAddr)
	for {
		var req ControlRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("control client gone", "remote", r.RemoteAddr, "err", err)
			}
			return
		}

		reply := s.applyCommands(req.Commands)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Debug("control write failed", "err", err)
			return
		}
	}
}

// applyCommands moves the camera under the write lock
func (s *Server) applyCommands(names []string) ControlReply {
	cmds, err := camera.ParseCommands(names)
	if err != nil {
		return ControlReply{Pose: s.Pose(), Error: err.Error()}
	}

	s.mu.Lock()
	changed := s.camera.HandleMovement(cmds, s.scene.World)
	pose := s.camera.Pose()
	s.mu.Unlock()

	if changed {
		s.logger.Debug("camera moved", "commands", cmds.Names(), "focal_distance", pose.FocalDistance)
	}
	return ControlReply{Changed: changed, Pose: pose}
}

// handleConsole streams log messages to a websocket client until it leaves
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("console upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	messages, unsubscribe := s.opts.Console.Subscribe(100)
	defer unsubscribe()

	// Reading is only needed to notice the client closing
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-messages:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					s.logger.Debug("console write failed", "err", err)
				}
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
