package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/yildizm/DropPad/internal/controller"
	"github.com/yildizm/DropPad/internal/logger"
)

const keepAliveInterval = 15 * time.Second

// sessionResponse is returned by the session endpoints
type sessionResponse struct {
	ID      string           `json:"id" msgpack:"id"`
	State   string           `json:"state,omitempty" msgpack:"state,omitempty"`
	View    controller.View  `json:"view" msgpack:"view"`
	Effects []effectResponse `json:"effects,omitempty" msgpack:"effects,omitempty"`
}

type effectResponse struct {
	Kind    string                   `json:"kind"`
	Run     uint64                   `json:"run,omitempty"`
	Stage   string                   `json:"stage,omitempty"`
	DelayMs int64                    `json:"delay_ms,omitempty"`
	File    *controller.SelectedFile `json:"file,omitempty"`
}

// triggerRequest is the body of POST /sessions/:id/triggers
type triggerRequest struct {
	Type     string                    `json:"type"`
	Files    []controller.SelectedFile `json:"files"`
	HasFiles bool                      `json:"has_files"`
}

// toTrigger validates the request and maps it onto a controller trigger
func (r triggerRequest) toTrigger() (controller.Trigger, error) {
	for i, f := range r.Files {
		if f.Size < 0 {
			return nil, fmt.Errorf("files[%d]: negative size %d", i, f.Size)
		}
	}

	switch r.Type {
	case "open_picker":
		return controller.OpenPicker{}, nil
	case "file_chosen":
		return controller.FileChosen{Files: r.Files}, nil
	case "drag_over":
		return controller.DragOver{HasFiles: r.HasFiles || len(r.Files) > 0}, nil
	case "drag_leave":
		return controller.DragLeave{}, nil
	case "drop":
		return controller.Drop{Files: r.Files}, nil
	case "remove":
		return controller.Remove{}, nil
	case "analyze":
		return controller.Analyze{}, nil
	case "":
		return nil, fmt.Errorf("missing trigger type")
	default:
		return nil, fmt.Errorf("unknown trigger type %q", r.Type)
	}
}

func effectsResponse(effects []controller.Effect) []effectResponse {
	out := make([]effectResponse, 0, len(effects))
	for _, eff := range effects {
		r := effectResponse{Kind: eff.Kind.String(), Run: eff.Run, File: eff.File}
		if eff.Kind == controller.EffectSchedule {
			r.Stage = eff.Stage.String()
			r.DelayMs = eff.Delay.Milliseconds()
		}
		out = append(out, r)
	}
	return out
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  s.version,
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleCreateSession(c echo.Context) error {
	sess, err := s.sessions.Create()
	if err != nil {
		if err == ErrTooManySessions {
			return NewServiceUnavailableError("too many active sessions, try again later")
		}
		return NewInternalError("failed to create session", err)
	}
	return c.JSON(http.StatusCreated, sessionResponse{
		ID:   sess.ID,
		View: sess.Controller().View(),
	})
}

func (s *Server) lookup(c echo.Context) (*Session, error) {
	id := c.Param("id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, NewNotFoundError("session", id)
	}
	return sess, nil
}

func (s *Server) snapshotResponse(sess *Session) sessionResponse {
	snap := sess.Controller().Snapshot()
	return sessionResponse{
		ID:    sess.ID,
		State: snap.State.String(),
		View:  sess.Controller().View(),
	}
}

func (s *Server) handleGetSession(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.snapshotResponse(sess))
}

func (s *Server) handleGetViewMsgpack(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}
	data, err := msgpack.Marshal(s.snapshotResponse(sess))
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}

func (s *Server) handleTrigger(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}

	var req triggerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid trigger body", err)
	}
	trigger, err := req.toTrigger()
	if err != nil {
		return NewBadRequestError("invalid trigger", err)
	}

	out := sess.Controller().Dispatch(trigger)
	s.log.DebugWithFields("trigger %s", []logger.Field{logger.Session(sess.ID), logger.State(out.Snapshot.State)}, trigger.Name())

	return c.JSON(http.StatusOK, sessionResponse{
		ID:      sess.ID,
		State:   out.Snapshot.State.String(),
		View:    out.View,
		Effects: effectsResponse(out.Effects),
	})
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if !s.sessions.Delete(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleEvents streams the session's view changes as server-sent events.
// The current view is sent first so a page can render straight away.
func (s *Server) handleEvents(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}

	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	view := sess.Controller().View()
	if err := writeSSE(res, Event{Type: EventView, View: &view}); err != nil {
		return nil
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			sess.touch(time.Now())
			if err := writeSSE(res, ev); err != nil {
				s.log.DebugWithFields("event stream closed", []logger.Field{logger.Session(sess.ID), logger.Error(err)})
				return nil
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeSSE(res *echo.Response, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
