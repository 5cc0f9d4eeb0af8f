package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/maxpoletaev/gridlink/api/model"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/protocol"
)

type PingHandler struct {
	client Client
}

func NewPingHandler(client Client) *PingHandler {
	return &PingHandler{client: client}
}

func (api *PingHandler) Register(r chi.Router) {
	r.Post("/ping", api.ping)
	r.Post("/ping/{member}", api.ping)
}

// ping measures the round trip of a ping request, either to any member or to
// the one given in the path.
func (api *PingHandler) ping(w http.ResponseWriter, r *http.Request) {
	var (
		member = chi.URLParam(r, "member")
		start  = time.Now()
		err    error
	)

	if member == "" {
		_, err = api.client.Invoke(r.Context(), protocol.EncodePingRequest())
	} else {
		id, parseErr := uuid.Parse(member)
		if parseErr != nil {
			writeError(w, r, http.StatusBadRequest, parseErr)
			return
		}

		_, err = api.client.InvokeOnMember(r.Context(), protocol.EncodePingRequest(), id)
	}

	if err != nil {
		writeError(w, r, statusOf(err), err)
		return
	}

	render.JSON(w, r, model.PingResponse{
		Member:    member,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, errs.ErrClientNotActive), errors.Is(err, errs.ErrClientOffline):
		return http.StatusServiceUnavailable
	case errors.Is(err, errs.ErrDisconnected), errors.Is(err, errs.ErrTargetNotMember):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, model.ErrorResponse{Error: err.Error()})
}
