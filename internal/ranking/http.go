package ranking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/flagquiz/flagquiz-api/internal/rejection"
	httperrors "github.com/flagquiz/flagquiz-api/pkg/http/errors"
	ws "github.com/flagquiz/flagquiz-api/pkg/http/ws"
)

const maxBodyBytes = 64 << 10

// HTTPHandler exposes the quiz session and ranking endpoints.
type HTTPHandler struct {
	svc      *Service
	hub      *ws.Hub
	upgrader *websocket.Upgrader
	logger   zerolog.Logger
}

// NewHTTPHandler constructs a ranking HTTP handler. hub and upgrader are only
// needed for the live stream.
func NewHTTPHandler(svc *Service, hub *ws.Hub, upgrader *websocket.Upgrader, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:      svc,
		hub:      hub,
		upgrader: upgrader,
		logger:   logger.With().Str("component", "ranking_http").Logger(),
	}
}

type submitResponse struct {
	Data    SubmitResult `json:"data"`
	Message string       `json:"message"`
}

type listResponse struct {
	Ranking []Entry `json:"ranking"`
}

// HandleStart handles POST /api/quiz/start
func (h *HTTPHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.svc.StartQuiz(r.Context(), req)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, vErr.Message, vErr.Field)
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("failed to start quiz session")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSessionStartFailed, "failed to start quiz session")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, resp)
}

// HandleSubmit handles POST /api/ranking
func (h *HTTPHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, vErr.Message, vErr.Field)
			return
		}
		if rej, ok := rejection.As(err); ok {
			hlog.FromRequest(r).Warn().
				Str("code", string(rej.Code)).
				Str("class", string(rej.Class())).
				Msg("score submission rejected")
			httperrors.RespondBadRequest(w, string(rej.Code), "invalid score detected: "+rej.Message)
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("failed to register score")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSubmitFailed, "failed to register score")
		return
	}

	httperrors.RespondJSON(w, http.StatusCreated, submitResponse{
		Data:    result,
		Message: "score registered",
	})
}

// HandleList handles GET /api/ranking?region=all&type=daily&format=flag-to-name
func (h *HTTPHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	boardType := query.Get("type")
	if boardType == "" {
		boardType = TypeDaily
	}

	entries, err := h.svc.List(r.Context(), boardType, query.Get("region"), query.Get("format"))
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			code := httperrors.ErrCodeValidationFailed
			if vErr.Field == "type" {
				code = httperrors.ErrCodeUnknownRankingType
			}
			httperrors.RespondValidationError(w, code, vErr.Message, vErr.Field)
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("type", boardType).Msg("failed to fetch ranking")
		httperrors.RespondInternalError(w, "failed to fetch ranking")
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	httperrors.RespondJSON(w, http.StatusOK, listResponse{Ranking: entries})
}

// HandleLive handles GET /api/ranking/live and streams ranking updates over WebSocket.
func (h *HTTPHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil || h.upgrader == nil {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "live ranking is not available")
		return
	}

	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.New()
	conn := ws.NewConnection(c, h.logger.With().Str("conn_id", id.String()).Logger())
	h.hub.Register(id, conn)
	defer h.hub.Unregister(id)

	go conn.WritePump()
	conn.ReadPump(func(msg ws.Message) error {
		if msg.Type == ws.TypePing {
			return conn.Send(ws.Message{Type: ws.TypePong, RequestID: msg.RequestID})
		}
		payload, _ := json.Marshal(ws.ErrorPayload{Code: "unknown_message_type", Message: "only ping is accepted"})
		return conn.Send(ws.Message{Type: ws.TypeError, Payload: payload, RequestID: msg.RequestID})
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON payload")
		return false
	}
	return true
}
