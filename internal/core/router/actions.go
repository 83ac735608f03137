package router

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mohammed-shakir/career-locator/internal/core/validate"
	"github.com/mohammed-shakir/career-locator/internal/flow"
	"github.com/mohammed-shakir/career-locator/internal/handoff"
)

type flowRequest struct {
	State *flow.State     `json:"state"`
	Event json.RawMessage `json:"event" validate:"required"`
}

type flowResponse struct {
	State flow.State `json:"state"`
}

// flow applies one event to a client-held state.
func (a *api) flow(w http.ResponseWriter, r *http.Request) {
	var req flowRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := a.v.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	var wire flow.WireEvent
	if err := json.Unmarshal(req.Event, &wire); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_event", err.Error())
		return
	}
	if err := a.v.Struct(wire); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_event", err.Error())
		return
	}
	ev, err := wire.Event(a.Config.Fallback)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_event", err.Error())
		return
	}

	state := flow.Initial()
	if req.State != nil {
		state = flow.Normalize(*req.State)
	}
	writeJSON(w, http.StatusOK, flowResponse{State: flow.Reduce(state, ev)})
}

type handoffResponse struct {
	ChatURL string          `json:"chatUrl"`
	Session handoff.Session `json:"session"`
}

func (a *api) handoff(w http.ResponseWriter, r *http.Request) {
	if a.Handoff == nil {
		writeError(w, http.StatusServiceUnavailable, "handoff_disabled", "")
		return
	}
	var req handoff.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := a.v.Struct(req); err != nil {
		var ve *validate.Error
		if errors.As(err, &ve) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request", ve.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	sess, err := a.Handoff.Start(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, handoffResponse{ChatURL: sess.ChatURL, Session: sess})
}
