package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/instaprep/instaprep-backend/internal/ai"
	"github.com/instaprep/instaprep-backend/internal/middleware"
	"github.com/instaprep/instaprep-backend/internal/model"
	"github.com/instaprep/instaprep-backend/internal/response"
	"github.com/instaprep/instaprep-backend/internal/service"
	"github.com/instaprep/instaprep-backend/internal/session"
	"github.com/instaprep/instaprep-backend/internal/validator"
)

// SessionHandler drives the prep-session lifecycle over HTTP. Everything
// here resolves the engine via the session service and translates engine
// errors into API codes.
type SessionHandler struct {
	sessions *service.SessionService
	runner   *ai.CodeRunner
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService, runner *ai.CodeRunner) *SessionHandler {
	return &SessionHandler{sessions: sessions, runner: runner}
}

// Create godoc
// POST /api/v1/sessions
// Creates a session in the setup-camera phase and starts question
// generation in the background.
func (h *SessionHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	id, err := h.sessions.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		if errors.Is(err, service.ErrSessionRunning) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session_id": id})
}

// Snapshot godoc
// POST /api/v1/sessions/:id/snapshot
// Stores the baseline face snapshot and moves the session to rules setup.
func (h *SessionHandler) Snapshot(c *gin.Context) {
	eng, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.SnapshotRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := eng.CaptureBaseline(req.ImageB64); err != nil {
		h.failEngine(c, err)
		return
	}
	h.sessions.MirrorState(c.Request.Context(), eng)
	response.Success(c, http.StatusOK, eng.State())
}

// Start godoc
// POST /api/v1/sessions/:id/start
// Performs the rules-acceptance transition and activates the session.
func (h *SessionHandler) Start(c *gin.Context) {
	eng, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := eng.StartActive(req.ScreenShareAcquired, req.FullscreenEntered); err != nil {
		h.failEngine(c, err)
		return
	}
	h.sessions.MirrorState(c.Request.Context(), eng)
	response.Success(c, http.StatusOK, eng.State())
}

// State godoc
// GET /api/v1/sessions/:id/state
// Returns a point-in-time snapshot for reconnecting clients.
func (h *SessionHandler) State(c *gin.Context) {
	eng, ok := h.resolve(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, eng.State())
}

// Paper godoc
// GET /api/v1/sessions/:id/paper
// Returns the sanitized question list. Available once the session is active.
func (h *SessionHandler) Paper(c *gin.Context) {
	eng, ok := h.resolve(c)
	if !ok {
		return
	}

	paper, err := eng.Paper()
	if err != nil {
		h.failEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": paper})
}

// Answer godoc
// POST /api/v1/sessions/:id/answer
// Writes one answer slot without moving the cursor.
func (h *SessionHandler) Answer(c *gin.Context) {
	eng, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := eng.Answer(req.Index, req.Value); err != nil {
		h.failEngine(c, err)
		return
	}
	h.sessions.MirrorState(c.Request.Context(), eng)
	response.Success(c, http.StatusOK, gin.H{})
}

// RunCode godoc
// POST /api/v1/sessions/:id/run-code
// Simulates execution of the candidate's code against the question's test
// cases. Does not record a submission.
func (h *SessionHandler) RunCode(c *gin.Context) {
	eng, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.RunCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := eng.QuestionAt(req.Index)
	if err != nil {
		h.failEngine(c, err)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrNoCodeProvided)
		return
	}

	result := h.runner.Run(c.Request.Context(), req.Code, req.Language, question)
	response.Success(c, http.StatusOK, result)
}

// SubmitCode godoc
// POST /api/v1/sessions/:id/submit-code
// Records an explicit coding submission. Only submitted code is graded.
func (h *SessionHandler) SubmitCode(c *gin.Context) {
	eng, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.RunCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := eng.SubmitCode(req.Index, req.Code); err != nil {
		h.failEngine(c, err)
		return
	}
	h.sessions.MirrorState(c.Request.Context(), eng)
	response.Success(c, http.StatusOK, gin.H{})
}

// Advance godoc
// POST /api/v1/sessions/:id/advance
// Moves to the next question. Interview rounds only ever move forward.
func (h *SessionHandler) Advance(c *gin.Context) {
	eng, ok := h.resolve(c)
	if !ok {
		return
	}

	moved, err := eng.AdvanceQuestion()
	if err != nil {
		h.failEngine(c, err)
		return
	}
	h.sessions.MirrorState(c.Request.Context(), eng)
	response.Success(c, http.StatusOK, gin.H{"moved": moved, "index": eng.State().QuestionIndex})
}

// Jump godoc
// POST /api/v1/sessions/:id/jump
// Moves the cursor to an arbitrary question (online assessment only).
func (h *SessionHandler) Jump(c *gin.Context) {
	eng, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.JumpRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := eng.JumpTo(req.Index); err != nil {
		h.failEngine(c, err)
		return
	}
	h.sessions.MirrorState(c.Request.Context(), eng)
	response.Success(c, http.StatusOK, gin.H{"index": req.Index})
}

// Finish godoc
// POST /api/v1/sessions/:id/finish
// Requests a normal finalization. Grading runs asynchronously; the client
// receives the result over the websocket or by polling the result endpoint.
func (h *SessionHandler) Finish(c *gin.Context) {
	eng, ok := h.resolve(c)
	if !ok {
		return
	}

	if eng.State().Phase != session.PhaseActive {
		response.Fail(c, http.StatusConflict, response.ErrSessionTerminated)
		return
	}
	eng.Finish()
	response.Success(c, http.StatusAccepted, gin.H{})
}

// Result godoc
// GET /api/v1/sessions/:id/result
// Returns the finalized attempt, 202 while grading is still in flight.
func (h *SessionHandler) Result(c *gin.Context) {
	eng, ok := h.resolve(c)
	if !ok {
		return
	}

	result := eng.Result()
	if result == nil {
		if eng.State().Finalizing {
			response.Success(c, http.StatusAccepted, gin.H{"status": "grading"})
			return
		}
		response.Fail(c, http.StatusConflict, response.ErrInvalidPhase)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// resolve fetches the caller's engine or writes the error response.
func (h *SessionHandler) resolve(c *gin.Context) (*session.Engine, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	eng, err := h.sessions.Engine(c.Param("id"), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotSessionOwner) {
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
			return nil, false
		}
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return nil, false
	}
	return eng, true
}

// failEngine maps engine errors to API error codes.
func (h *SessionHandler) failEngine(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrTerminated):
		response.Fail(c, http.StatusGone, response.ErrSessionTerminated)
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, session.ErrNotActive):
		response.Fail(c, http.StatusConflict, response.ErrInvalidPhase)
	case errors.Is(err, session.ErrGenerationPending):
		response.Fail(c, http.StatusConflict, response.ErrQuestionsPending)
	case errors.Is(err, session.ErrGenerationFailed):
		response.Fail(c, http.StatusBadGateway, response.ErrGenerationFailed)
	case errors.Is(err, session.ErrScreenShareNeeded):
		response.Fail(c, http.StatusBadRequest, response.ErrScreenShareNeeded)
	case errors.Is(err, session.ErrBaselineRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrSnapshotRequired)
	case errors.Is(err, session.ErrNavigationDenied):
		response.Fail(c, http.StatusForbidden, response.ErrNavigationDenied)
	case errors.Is(err, session.ErrIndexOutOfRange), errors.Is(err, session.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
