// Package server exposes the session flows over a small JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/ycwei/smartlook/internal/capture"
	"github.com/ycwei/smartlook/internal/fitting"
	"github.com/ycwei/smartlook/internal/llm"
	"github.com/ycwei/smartlook/internal/session"
	"github.com/ycwei/smartlook/internal/shopping"
)

// sessionHeader carries the session id on every request after creation.
const sessionHeader = "X-Session-ID"

// Server wires the session manager and orchestrators to HTTP handlers.
type Server struct {
	sessions *session.Manager
	shopper  *shopping.Orchestrator
	http     *resty.Client
}

func New(sessions *session.Manager, shopper *shopping.Orchestrator) *Server {
	return &Server{sessions: sessions, shopper: shopper, http: resty.New()}
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", s.handleCreateSession)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)

			r.Post("/garments", s.handleSubmitGarment)
			r.Post("/garments/confirm", s.handleConfirm)
			r.Post("/garments/retake", s.handleRetake)
			r.Get("/wardrobe", s.handleWardrobe)
			r.Put("/user-photo", s.handleUserPhoto)
			r.Post("/selection/{id}", s.handleToggleSelection)
			r.Post("/camera", s.handleBeginCapture)
			r.Delete("/camera", s.handleCancelCapture)
			r.Post("/tryon", s.handleTryOn)
			r.Delete("/tryon", s.handleDismissTryOn)
			r.Post("/shopping", s.handleShopping)
		})
	})

	return r
}

type contextKey string

const sessionKey contextKey = "session"

// withSession resolves the session from the request header.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(sessionHeader)
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing "+sessionHeader+" header")
			return
		}
		sess, ok := s.sessions.Get(id)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unknown session")
			return
		}
		ctx := contextWithSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the error taxonomy to HTTP statuses. Gateway
// failures never leave a handler unhandled: the machine has already been
// reset by the time the error arrives here.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, capture.ErrUnsupportedMedia),
		errors.Is(err, capture.ErrEmptyPayload),
		errors.Is(err, capture.ErrPermissionDenied),
		errors.Is(err, capture.ErrRemoteFetch),
		errors.Is(err, fitting.ErrNoUserPhoto),
		errors.Is(err, fitting.ErrEmptySelection),
		errors.Is(err, shopping.ErrNoUserPhoto),
		errors.Is(err, shopping.ErrNoBrands):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, llm.ErrMissingAPIKey):
		writeNotice(w, http.StatusInternalServerError, err, "API Key 未設定。請在設定中輸入您的 Google API Key。")
	case errors.Is(err, llm.ErrAnalysis):
		writeNotice(w, http.StatusBadGateway, err, "無法分析圖片，請稍後再試。")
	case errors.Is(err, llm.ErrTryOn):
		writeNotice(w, http.StatusBadGateway, err, "虛擬試穿生成失敗，請稍後再試。")
	case errors.Is(err, llm.ErrRecommendation):
		writeNotice(w, http.StatusBadGateway, err, "無法取得商品推薦，請稍後再試。")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeNotice pairs the technical error with the user-facing notice text
// the client shows while the machine has already returned to idle.
func writeNotice(w http.ResponseWriter, status int, err error, notice string) {
	writeJSON(w, status, map[string]string{
		"error":  err.Error(),
		"notice": notice,
	})
}
