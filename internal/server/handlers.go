package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ycwei/smartlook/internal/capture"
	"github.com/ycwei/smartlook/internal/llm"
	"github.com/ycwei/smartlook/internal/session"
	"github.com/ycwei/smartlook/internal/shopping"
	"github.com/ycwei/smartlook/internal/wardrobe"
)

func contextWithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(sessionKey).(*session.Session)
}

// imageRequest is the shared upload payload: a base64 image body, or a
// remote URL to fetch the image from.
type imageRequest struct {
	Image    string `json:"image"`
	ImageURL string `json:"imageUrl"`
}

// acquirePhoto resolves the request into a Photo. A base64 body wins when
// both fields are set.
func (s *Server) acquirePhoto(ctx context.Context, req imageRequest) (capture.Photo, error) {
	switch {
	case req.Image != "":
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return capture.Photo{}, fmt.Errorf("%w: image is not valid base64", capture.ErrUnsupportedMedia)
		}
		return capture.FromBytes(data)
	case req.ImageURL != "":
		return capture.FromURL(ctx, s.http, req.ImageURL)
	default:
		return capture.Photo{}, capture.ErrEmptyPayload
	}
}

// dataURI renders a photo the way the result views consume it.
func dataURI(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

type garmentView struct {
	ID          string    `json:"id"`
	Image       string    `json:"image"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	AddedAt     time.Time `json:"addedAt"`
}

func viewGarment(e wardrobe.GarmentEntry) garmentView {
	return garmentView{
		ID:          e.ID,
		Image:       dataURI(e.Image.Data, e.Image.MIMEType),
		Category:    string(e.Category),
		Description: e.Description,
		AddedAt:     e.AddedAt,
	}
}

type tryOnView struct {
	Image  string `json:"image,omitempty"`
	Advice string `json:"advice"`
}

func viewTryOn(r *llm.TryOnResult) tryOnView {
	view := tryOnView{Advice: r.Advice}
	if r.Image != nil {
		view.Image = dataURI(r.Image.Data, r.Image.MIMEType)
	}
	return view
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": sess.ID})
}

func (s *Server) handleSubmitGarment(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	photo, err := s.acquirePhoto(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	analysis, err := sess.SubmitGarment(r.Context(), photo)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":    sess.State(),
		"analysis": analysis,
	})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	entry, err := sess.Confirm()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewGarment(entry))
}

func (s *Server) handleRetake(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.Retake(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(sess.State())})
}

func (s *Server) handleWardrobe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	category := wardrobe.CategoryAll
	if q := r.URL.Query().Get("category"); q != "" {
		category = wardrobe.Category(q)
		if !category.IsValid() && category != wardrobe.CategoryAll {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", q))
			return
		}
	}

	entries := sess.Wardrobe().Filter(category)
	views := make([]garmentView, len(entries))
	for i, e := range entries {
		views[i] = viewGarment(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"garments": views})
}

func (s *Server) handleUserPhoto(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	photo, err := s.acquirePhoto(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// User-photo capture bypasses analysis entirely.
	if err := sess.SetUserPhoto(photo); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(sess.State())})
}

func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := chi.URLParam(r, "id")

	selected, err := sess.ToggleSelection(id)
	if err != nil {
		if errors.Is(err, session.ErrBusy) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"selected":  selected,
		"selection": sess.Selection(),
	})
}

func (s *Server) handleBeginCapture(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.BeginCameraCapture(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(sess.State())})
}

func (s *Server) handleCancelCapture(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.CancelCapture(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(sess.State())})
}

func (s *Server) handleTryOn(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	result, err := sess.GenerateTryOn(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewTryOn(result))
}

func (s *Server) handleDismissTryOn(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.DismissTryOnResult()
	w.WriteHeader(http.StatusNoContent)
}

type shoppingRequest struct {
	Brands []llm.Brand `json:"brands"`
}

type shoppingView struct {
	Recommendation *llm.ShopRecommendation `json:"recommendation"`
	Image          string                  `json:"image,omitempty"`
	TotalPrice     float64                 `json:"totalPrice"`
}

func (s *Server) handleShopping(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req shoppingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, b := range req.Brands {
		if !b.IsValid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown brand %q", b))
			return
		}
	}

	result, err := s.shopper.Run(r.Context(), sess.UserPhoto(), req.Brands)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	view := shoppingView{
		Recommendation: result.Recommendation,
		TotalPrice:     shopping.TotalPrice(result.Recommendation.Items),
	}
	if result.Image != nil {
		// Image absence is a soft degradation: the client falls back to
		// the plain user photo next to the text recommendation.
		view.Image = dataURI(result.Image.Data, result.Image.MIMEType)
	}
	writeJSON(w, http.StatusOK, view)
}
