// Package session owns the per-client state machine that sequences
// capture, analysis, confirmation, and try-on generation. All mutable
// session state (wardrobe, user photo, selection) lives here and is
// mutated only through Session methods.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ycwei/smartlook/internal/capture"
	"github.com/ycwei/smartlook/internal/fitting"
	"github.com/ycwei/smartlook/internal/llm"
	"github.com/ycwei/smartlook/internal/wardrobe"
)

// State is the current phase of the processing state machine. There is no
// persisted error state: failures reset to idle and are reported to the
// caller directly.
type State string

const (
	StateIdle            State = "idle"
	StateCapturing       State = "capturing"
	StateAnalyzing       State = "analyzing"
	StateAnalysisReady   State = "analysis_ready"
	StateGeneratingTryOn State = "generating_tryon"
)

var (
	// ErrBusy is returned when a flow-starting call arrives while another
	// flow is active. At most one flow runs per session.
	ErrBusy = errors.New("another flow is already in progress")

	// ErrInvalidState is returned when an operation is not valid in the
	// current state, e.g. confirming without a completed analysis.
	ErrInvalidState = errors.New("operation not valid in current state")
)

// Session is one client's state machine plus the state it owns: the
// wardrobe, the body photo, the garment selection, and the transient
// analysis and try-on results.
type Session struct {
	ID string

	gateway llm.Gateway
	fitter  *fitting.Orchestrator

	mu              sync.Mutex
	state           State
	wardrobe        *wardrobe.Store
	selection       *wardrobe.SelectionSet
	userPhoto       capture.Photo
	pendingPhoto    capture.Photo
	pendingAnalysis *llm.AnalysisResult
	tryOnResult     *llm.TryOnResult
}

func newSession(id string, gateway llm.Gateway) *Session {
	return &Session{
		ID:        id,
		gateway:   gateway,
		fitter:    fitting.NewOrchestrator(gateway),
		state:     StateIdle,
		wardrobe:  wardrobe.NewStore(),
		selection: wardrobe.NewSelectionSet(),
	}
}

// State returns the current machine state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wardrobe returns the session's garment store.
func (s *Session) Wardrobe() *wardrobe.Store {
	return s.wardrobe
}

// BeginCameraCapture enters the live-capture state. Only one flow may be
// active, so this fails with ErrBusy from any non-idle state.
func (s *Session) BeginCameraCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrBusy
	}
	s.state = StateCapturing
	return nil
}

// CancelCapture leaves the live-capture state without a frame.
func (s *Session) CancelCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCapturing {
		return fmt.Errorf("%w: not capturing", ErrInvalidState)
	}
	s.state = StateIdle
	return nil
}

// SubmitGarment runs the analysis flow for a garment photo: the machine
// moves to analyzing, the photo goes to the model, and on success the
// result is held pending user confirmation. On failure the machine resets
// to idle and the photo is discarded.
//
// Valid from idle (file or drag-drop upload) and from capturing (a camera
// frame arrived).
func (s *Session) SubmitGarment(ctx context.Context, photo capture.Photo) (*llm.AnalysisResult, error) {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateCapturing {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.state = StateAnalyzing
	s.pendingPhoto = photo
	s.mu.Unlock()

	result, err := s.gateway.AnalyzeGarment(ctx, photo.Data, photo.MIMEType)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateIdle
		s.pendingPhoto = capture.Photo{}
		log.Warn().Err(err).Str("session", s.ID).Msg("garment analysis failed")
		return nil, err
	}

	s.state = StateAnalysisReady
	s.pendingAnalysis = result
	return result, nil
}

// PendingAnalysis returns the photo and analysis awaiting confirmation.
func (s *Session) PendingAnalysis() (capture.Photo, *llm.AnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnalysisReady {
		return capture.Photo{}, nil, false
	}
	return s.pendingPhoto, s.pendingAnalysis, true
}

// Confirm commits the pending analysis as a new wardrobe entry and clears
// the transient image and result. It is valid exactly once per analysis.
func (s *Session) Confirm() (wardrobe.GarmentEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnalysisReady || s.pendingAnalysis == nil {
		return wardrobe.GarmentEntry{}, fmt.Errorf("%w: no analysis to confirm", ErrInvalidState)
	}

	entry := wardrobe.NewGarmentEntry(s.pendingPhoto, s.pendingAnalysis.Category, s.pendingAnalysis.Description)
	s.wardrobe.Append(entry)
	s.clearPendingLocked()

	log.Info().
		Str("session", s.ID).
		Str("garment", entry.ID).
		Str("category", string(entry.Category)).
		Msg("garment added to wardrobe")

	return entry, nil
}

// Retake discards the pending analysis without committing.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnalysisReady {
		return fmt.Errorf("%w: no analysis to discard", ErrInvalidState)
	}
	s.clearPendingLocked()
	return nil
}

func (s *Session) clearPendingLocked() {
	s.pendingPhoto = capture.Photo{}
	s.pendingAnalysis = nil
	s.state = StateIdle
}

// SetUserPhoto stores the body photo, replacing any previous one. The
// user-photo flow bypasses analysis entirely; the machine stays idle.
func (s *Session) SetUserPhoto(photo capture.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrBusy
	}
	s.userPhoto = photo
	return nil
}

// UserPhoto returns the current body photo, which may be zero.
func (s *Session) UserPhoto() capture.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userPhoto
}

// ToggleSelection flips a garment in or out of the try-on selection and
// reports whether it is now selected. The id must refer to a stored entry.
// Toggles are rejected while a flow is active: a toggle landing during
// try-on generation would be wiped by the success-path selection clear.
func (s *Session) ToggleSelection(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return false, ErrBusy
	}
	if _, ok := s.wardrobe.Get(id); !ok {
		return false, fmt.Errorf("garment %s is not in the wardrobe", id)
	}
	return s.selection.Toggle(id), nil
}

// Selection returns the selected garment ids in toggle order.
func (s *Session) Selection() []string {
	return s.selection.IDs()
}

// GenerateTryOn runs the fitting flow over the current selection. On
// success the result is held until dismissed and the selection is cleared
// for the next flow; on failure the selection and user photo are left
// untouched for a manual retry.
func (s *Session) GenerateTryOn(ctx context.Context) (*llm.TryOnResult, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	userPhoto := s.userPhoto
	ids := s.selection.IDs()
	if userPhoto.IsZero() {
		s.mu.Unlock()
		return nil, fitting.ErrNoUserPhoto
	}
	if len(ids) == 0 {
		s.mu.Unlock()
		return nil, fitting.ErrEmptySelection
	}
	s.state = StateGeneratingTryOn
	s.mu.Unlock()

	result, err := s.fitter.Generate(ctx, userPhoto, s.wardrobe, ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	if err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("try-on generation failed")
		return nil, err
	}

	s.tryOnResult = result
	s.selection.Clear()
	return result, nil
}

// TryOnResult returns the held try-on result, or nil.
func (s *Session) TryOnResult() *llm.TryOnResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tryOnResult
}

// DismissTryOnResult drops the held try-on result.
func (s *Session) DismissTryOnResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tryOnResult = nil
}
