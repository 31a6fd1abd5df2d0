package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/ai"
	"github.com/instaprep/instaprep-backend/internal/model"
)

// Engine preconditions surfaced to handlers.
var (
	ErrGenerationPending = errors.New("question generation still in progress")
	ErrGenerationFailed  = errors.New("question generation failed")
	ErrBaselineRequired  = errors.New("baseline snapshot required before rules setup")
	ErrScreenShareNeeded = errors.New("screen share required for this round")
	ErrNotActive         = errors.New("session is not active")
)

// Notifier receives engine lifecycle pushes, typically fanned out over the
// session's websocket.
type Notifier interface {
	Warning(sessionID string, count, threshold int, reason string)
	Expired(sessionID string)
	Finalized(sessionID string, attempt model.TestAttempt)
}

// MalpracticeSink receives every recorded warning for durable storage. Runs
// on the engine loop; implementations must not block.
type MalpracticeSink func(sessionID string, candidateID int, kind EventKind, reason string, at time.Time)

// Config carries the tunables an engine needs beyond its identity.
type Config struct {
	WarningThreshold  int
	FaceCheckInterval time.Duration
}

// Engine drives one prep session from camera setup to its persisted result.
// All detector signals funnel through a single consumer goroutine, so
// warning accumulation and finalize triggers are serialized without shared
// counters between detectors.
type Engine struct {
	id          string
	candidateID int
	jobRole     string
	round       model.RoundType

	machine     *Machine
	ledger      *WarningLedger
	gate        *MediaGate
	coordinator *Coordinator
	matcher     ai.FaceMatcher
	cfg         Config
	notifier    Notifier
	sink        MalpracticeSink
	log         zerolog.Logger

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	genSet    *ai.GeneratedSet
	genErr    error
	questions *QuestionSet
	timer     *Timer
	proctor   *Proctor
	startedAt time.Time
	result    *model.TestAttempt
}

// NewEngine creates an engine in the setup-camera phase.
func NewEngine(id string, candidateID int, jobRole string, round model.RoundType, coordinator *Coordinator, matcher ai.FaceMatcher, notifier Notifier, sink MalpracticeSink, cfg Config, log zerolog.Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		id:          id,
		candidateID: candidateID,
		jobRole:     jobRole,
		round:       round,
		machine:     NewMachine(),
		gate:        NewMediaGate(),
		coordinator: coordinator,
		matcher:     matcher,
		cfg:         cfg,
		notifier:    notifier,
		sink:        sink,
		events:      make(chan Event, 64),
		ctx:         ctx,
		cancel:      cancel,
		log:         log.With().Str("component", "engine").Str("session_id", id).Logger(),
	}
	e.ledger = NewWarningLedger(cfg.WarningThreshold, func(reason string) {
		e.triggerFinalize(Outcome{Status: model.AttemptStatusDisqualified, Reason: reason})
	})
	return e
}

// ID returns the session identifier.
func (e *Engine) ID() string { return e.id }

// CandidateID returns the owning candidate.
func (e *Engine) CandidateID() int { return e.candidateID }

// Round returns the session's round type.
func (e *Engine) Round() model.RoundType { return e.round }

// SetGeneratedSet delivers the generated paper. Called from the background
// generation goroutine; activation waits on it.
func (e *Engine) SetGeneratedSet(set ai.GeneratedSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.genSet = &set
}

// SetGenerationError records that generation failed. The session cannot
// activate; the client is told to recreate it.
func (e *Engine) SetGenerationError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.genErr = err
}

// CaptureBaseline stores the reference snapshot and moves the session to
// rules setup. A live camera is what the snapshot proves, so it doubles as
// the camera gate.
func (e *Engine) CaptureBaseline(imageB64 string) error {
	if imageB64 == "" {
		return ErrBaselineRequired
	}
	if err := e.machine.Advance(PhaseSetupRules); err != nil {
		return err
	}
	e.gate.SetBaseline(imageB64)
	e.gate.SetCamera(true)
	return nil
}

// StartActive performs the rules-acceptance transition and launches the
// countdown, proctor, and event loop. Screen share is mandatory for
// interview rounds; fullscreen is requested but its absence only costs
// warnings later, never activation.
func (e *Engine) StartActive(screenShare, fullscreen bool) error {
	e.mu.Lock()
	if e.genErr != nil {
		e.mu.Unlock()
		return ErrGenerationFailed
	}
	if e.genSet == nil {
		e.mu.Unlock()
		return ErrGenerationPending
	}
	set := e.genSet
	e.mu.Unlock()

	if !e.round.Objective() && !screenShare {
		return ErrScreenShareNeeded
	}
	if err := e.machine.Advance(PhaseActive); err != nil {
		return err
	}

	e.gate.SetScreenShare(screenShare)
	e.gate.SetFullscreen(fullscreen)

	e.mu.Lock()
	e.questions = NewQuestionSet(set.Questions, e.round.Objective())
	e.timer = NewTimer(set.TimeLimitMinutes * 60)
	e.proctor = NewProctor(e.matcher, e.gate, e.cfg.FaceCheckInterval, e.events, e.log)
	e.startedAt = time.Now()
	timer, proctor := e.timer, e.proctor
	e.mu.Unlock()

	timer.Start()
	proctor.Start(e.ctx)
	go e.run(timer)

	e.log.Info().Int("questions", len(set.Questions)).Int("minutes", set.TimeLimitMinutes).Msg("Session activated")
	return nil
}

func (e *Engine) run(timer *Timer) {
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-timer.Expired():
			e.notifier.Expired(e.id)
			e.triggerFinalize(Outcome{Status: model.AttemptStatusCompleted})
			return
		case ev := <-e.events:
			if e.handle(ev) {
				return
			}
		}
	}
}

// handle processes one event and reports whether the loop should exit.
func (e *Engine) handle(ev Event) bool {
	if e.machine.Phase() != PhaseActive {
		return true
	}

	if ev.Kind == EventManualFinish {
		e.triggerFinalize(Outcome{Status: model.AttemptStatusCompleted})
		return true
	}

	if !ev.malpractice() {
		return false
	}

	count := e.ledger.Record(ev.Reason)
	if e.sink != nil {
		e.sink(e.id, e.candidateID, ev.Kind, ev.Reason, ev.At)
	}
	e.notifier.Warning(e.id, count, e.ledger.Threshold(), ev.Reason)
	e.log.Warn().Str("kind", string(ev.Kind)).Int("count", count).Msg("Warning recorded")

	// Record fires the disqualify callback at the threshold, which claims
	// the finalize latch; exit once that has happened.
	return e.machine.Finalizing()
}

// publish queues an event for the loop. Events land best-effort: a full
// queue during finalization drops the signal rather than blocking a handler.
func (e *Engine) publish(ev Event) {
	if e.machine.Phase() != PhaseActive {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.log.Warn().Str("kind", string(ev.Kind)).Msg("Event queue full, dropping")
	}
}

// ReportFocusLost records a tab switch or window blur.
func (e *Engine) ReportFocusLost(reason string) {
	if reason == "" {
		reason = "Window or tab lost focus"
	}
	e.publish(Event{Kind: EventFocusLost, Reason: reason, At: time.Now()})
}

// ReportFullscreenExited records that the client left fullscreen.
func (e *Engine) ReportFullscreenExited() {
	e.gate.SetFullscreen(false)
	e.publish(Event{Kind: EventFullscreenExited, Reason: "Exited fullscreen mode", At: time.Now()})
}

// SetFrame feeds the proctor the latest webcam frame.
func (e *Engine) SetFrame(imageB64 string) {
	e.mu.Lock()
	proctor := e.proctor
	e.mu.Unlock()
	if proctor != nil {
		proctor.SetFrame(imageB64)
	}
}

// Finish requests a normal, candidate-initiated finalization.
func (e *Engine) Finish() {
	e.publish(Event{Kind: EventManualFinish, At: time.Now()})
}

func (e *Engine) activeQuestions() (*QuestionSet, error) {
	if e.machine.Phase() != PhaseActive {
		return nil, ErrNotActive
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.questions == nil {
		return nil, ErrNotActive
	}
	return e.questions, nil
}

// Answer writes the answer slot for a question.
func (e *Engine) Answer(idx int, value string) error {
	qs, err := e.activeQuestions()
	if err != nil {
		return err
	}
	return qs.Answer(idx, value)
}

// SubmitCode records an explicit coding submission.
func (e *Engine) SubmitCode(idx int, code string) error {
	qs, err := e.activeQuestions()
	if err != nil {
		return err
	}
	return qs.SubmitCode(idx, code)
}

// AdvanceQuestion moves to the next question. Returns false on the last one.
func (e *Engine) AdvanceQuestion() (bool, error) {
	qs, err := e.activeQuestions()
	if err != nil {
		return false, err
	}
	return qs.Advance(), nil
}

// JumpTo moves the cursor for rounds with free navigation.
func (e *Engine) JumpTo(idx int) error {
	qs, err := e.activeQuestions()
	if err != nil {
		return err
	}
	return qs.JumpTo(idx)
}

// QuestionAt returns the full question at idx. Server-side callers only;
// the answer key must not reach the client.
func (e *Engine) QuestionAt(idx int) (model.Question, error) {
	qs, err := e.activeQuestions()
	if err != nil {
		return model.Question{}, err
	}
	questions := qs.Questions()
	if idx < 0 || idx >= len(questions) {
		return model.Question{}, ErrIndexOutOfRange
	}
	return questions[idx], nil
}

// Answers returns a copy of the current answer slots.
func (e *Engine) Answers() ([]string, error) {
	qs, err := e.activeQuestions()
	if err != nil {
		return nil, err
	}
	return qs.Answers(), nil
}

// Paper returns the sanitized question list for the client. Answer keys and
// explanations never leave the server while the session is live.
func (e *Engine) Paper() ([]model.SanitizedQuestion, error) {
	qs, err := e.activeQuestions()
	if err != nil {
		return nil, err
	}
	questions := qs.Questions()
	out := make([]model.SanitizedQuestion, len(questions))
	for i, q := range questions {
		out[i] = q.Sanitize()
	}
	return out, nil
}

// triggerFinalize claims the latch and runs the terminal sequence. Every
// trigger path converges here; only the first caller proceeds.
func (e *Engine) triggerFinalize(outcome Outcome) {
	if !e.machine.BeginFinalize() {
		return
	}

	e.mu.Lock()
	timer, proctor := e.timer, e.proctor
	var questions []model.Question
	var answers []string
	if e.questions != nil {
		questions = e.questions.Questions()
		answers = e.questions.Answers()
	}
	startedAt := e.startedAt
	e.mu.Unlock()

	e.machine.Terminate()
	if timer != nil {
		timer.Stop()
	}
	if proctor != nil {
		proctor.Stop()
	}
	e.gate.Release()
	e.cancel()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		attempt := model.TestAttempt{
			CandidateID:  e.candidateID,
			JobRole:      e.jobRole,
			RoundType:    e.round,
			WarningCount: e.ledger.Count(),
			StartedAt:    startedAt,
		}
		if err := e.coordinator.Finalize(ctx, &attempt, outcome, questions, answers); err != nil {
			e.log.Error().Err(err).Msg("Finalize persisted with errors")
		}

		e.mu.Lock()
		e.result = &attempt
		e.mu.Unlock()

		e.notifier.Finalized(e.id, attempt)
	}()
}

// Result returns the finalized attempt, nil while the session is live or
// grading is still in flight.
func (e *Engine) Result() *model.TestAttempt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// State is a point-in-time snapshot of the session for reconnecting clients.
type State struct {
	SessionID        string          `json:"session_id"`
	Phase            Phase           `json:"phase"`
	Round            model.RoundType `json:"round_type"`
	JobRole          string          `json:"job_role"`
	WarningCount     int             `json:"warning_count"`
	WarningThreshold int             `json:"warning_threshold"`
	RemainingSeconds int             `json:"remaining_seconds"`
	QuestionIndex    int             `json:"question_index"`
	QuestionTotal    int             `json:"question_total"`
	AnsweredCount    int             `json:"answered_count"`
	Visited          []bool          `json:"visited,omitempty"`
	GenerationReady  bool            `json:"generation_ready"`
	GenerationFailed bool            `json:"generation_failed"`
	Finalizing       bool            `json:"finalizing"`
}

// State captures the current snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := State{
		SessionID:        e.id,
		Phase:            e.machine.Phase(),
		Round:            e.round,
		JobRole:          e.jobRole,
		WarningCount:     e.ledger.Count(),
		WarningThreshold: e.ledger.Threshold(),
		GenerationReady:  e.genSet != nil,
		GenerationFailed: e.genErr != nil,
		Finalizing:       e.machine.Finalizing(),
	}
	if e.timer != nil {
		s.RemainingSeconds = e.timer.Remaining()
	}
	if e.questions != nil {
		s.QuestionIndex = e.questions.Index()
		s.QuestionTotal = e.questions.Len()
		s.AnsweredCount = e.questions.AnsweredCount()
		s.Visited = e.questions.VisitedList()
	}
	return s
}
