package live

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prepwise/prepwise/internal/models"
	"github.com/prepwise/prepwise/internal/providers/llm"
	"github.com/prepwise/prepwise/internal/services"
)

// Deps are the collaborators one live session drives.
type Deps struct {
	Interviews   services.InterviewService
	Feedback     services.FeedbackService
	Achievements services.AchievementService
	LLM          llm.Provider
	Log          *logrus.Logger
}

// Session is the in-memory state for one live interview connection. All
// mutation goes through the mutex; the boolean guards exist because the
// generation call suspends outside the lock while ticks and client events
// keep arriving.
type Session struct {
	interviewID string
	userID      string
	cfg         models.InterviewConfig

	deps Deps
	emit Emitter

	now        func() time.Time
	genTimeout time.Duration

	mu             sync.Mutex
	transcript     []models.TranscriptEntry
	questionsAsked int
	startTime      time.Time
	pausedAccum    time.Duration
	pauseStart     time.Time
	paused         bool
	aiSpeaking     bool
	processingUser bool
	ending         bool // one-way latch
	finished       bool // terminal sequence ran

	stopTick chan struct{}
	tickOnce sync.Once
	onFinish func()
}

func (s *Session) InterviewID() string { return s.interviewID }

// elapsedLocked computes elapsed seconds net of paused time; never negative.
// Caller holds s.mu.
func (s *Session) elapsedLocked() float64 {
	now := s.now()
	paused := s.pausedAccum
	if s.paused && !s.pauseStart.IsZero() {
		paused += now.Sub(s.pauseStart)
	}
	e := now.Sub(s.startTime) - paused
	if e < 0 {
		e = 0
	}
	return e.Seconds()
}

func (s *Session) Elapsed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Session) appendEntryLocked(speaker models.Speaker, text string) {
	s.transcript = append(s.transcript, models.TranscriptEntry{
		Speaker:   speaker,
		Text:      text,
		Timestamp: s.elapsedLocked(),
	})
}

func (s *Session) runTicker(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stopTick:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

func (s *Session) stopTicker() {
	s.tickOnce.Do(func() { close(s.stopTick) })
}

// Tick is the 1-second watchdog body. It emits a time update and, once the
// hard-end threshold passes with no turn in flight, latches the ending flag
// and forces termination. Exported so tests can drive it without waiting in
// wall-clock time.
func (s *Session) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.paused || s.ending || s.finished {
		s.mu.Unlock()
		return
	}
	elapsed := s.elapsedLocked()
	total := float64(s.cfg.Duration * 60)
	remaining := total - elapsed
	if remaining < 0 {
		remaining = 0
	}
	fire := IsHardEnd(s.cfg, elapsed) && !s.aiSpeaking && !s.processingUser
	if fire {
		s.ending = true
	}
	s.mu.Unlock()

	s.emit.Emit(EventTimeUpdate, TimeUpdatePayload{Elapsed: elapsed, Total: total, Remaining: remaining})

	if fire {
		s.forceEnd(ctx)
	}
}

func (s *Session) generate(ctx context.Context, hist []models.TranscriptEntry, ts TimeState) (string, error) {
	system := BuildSystemPrompt(s.cfg, ts)

	msgs := make([]llm.Message, 0, len(hist)+1)
	for _, e := range hist {
		role := llm.RoleUser
		if e.Speaker == models.SpeakerAI {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Text: e.Text})
	}
	if len(msgs) == 0 {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Text: KickoffInstruction})
	}

	cctx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()
	return s.deps.LLM.Continue(cctx, system, msgs)
}

// RunAITurn performs one interviewer turn. Re-entrant calls while a turn is
// already in flight are no-ops. A failed or empty generation returns control
// to the user without touching the transcript.
func (s *Session) RunAITurn(ctx context.Context) {
	s.mu.Lock()
	if s.aiSpeaking || s.finished {
		s.mu.Unlock()
		return
	}
	s.aiSpeaking = true
	ts := TimeState{Elapsed: s.elapsedLocked(), QuestionsAsked: s.questionsAsked}
	hist := append([]models.TranscriptEntry(nil), s.transcript...)
	s.mu.Unlock()

	s.emit.Emit(EventAIThinking, nil)

	text, err := s.generate(ctx, hist, ts)
	if err != nil {
		s.deps.Log.WithError(err).WithField("interview_id", s.interviewID).Error("ai turn failed")
		s.mu.Lock()
		s.aiSpeaking = false
		finished := s.finished
		s.mu.Unlock()
		if finished {
			return
		}
		s.emit.Emit(EventInterviewError, ErrorPayload{Message: "AI processing error. Please try again."})
		s.emit.Emit(EventYourTurn, nil)
		return
	}
	if text == "" {
		s.mu.Lock()
		s.aiSpeaking = false
		finished := s.finished
		s.mu.Unlock()
		if finished {
			return
		}
		s.emit.Emit(EventYourTurn, nil)
		return
	}

	s.mu.Lock()
	// the terminal sequence may have run while the generation was suspended;
	// its transcript snapshot is already persisted, so a late result is dropped
	if s.finished {
		s.aiSpeaking = false
		s.mu.Unlock()
		return
	}
	s.appendEntryLocked(models.SpeakerAI, text)
	if strings.Contains(text, "?") {
		s.questionsAsked++
	}
	closing := s.ending && isClosingStatement(text)
	endingNow := closing || s.ending
	s.aiSpeaking = false
	s.mu.Unlock()

	s.emit.Emit(EventAIResponseText, TextPayload{Text: text})
	s.emit.Emit(EventAISpeaking, SpeakingPayload{Text: text, NoSpeak: endingNow})

	if endingNow {
		s.emit.Emit(EventInterviewEnding, nil)
		s.end(ctx, models.StatusCompleted)
	} else {
		s.emit.Emit(EventYourTurn, nil)
	}
}

// FinishUserTurn accepts the finalized user utterance. Empty text (no speech
// detected) returns the turn to the user without a transcript append. A paused
// session accepts no input; the client must resume first.
func (s *Session) FinishUserTurn(ctx context.Context, text string) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if s.processingUser || s.paused || s.finished {
		s.mu.Unlock()
		return
	}
	if text == "" {
		s.mu.Unlock()
		s.emit.Emit(EventYourTurn, nil)
		return
	}
	s.processingUser = true
	s.appendEntryLocked(models.SpeakerUser, text)
	s.mu.Unlock()

	s.emit.Emit(EventUserTranscriptFinal, TextPayload{Text: text})

	s.RunAITurn(ctx)

	s.mu.Lock()
	s.processingUser = false
	s.mu.Unlock()
}

// Pause freezes the clock. No-op if already paused; it does not interrupt a
// generation already in flight.
func (s *Session) Pause() {
	s.mu.Lock()
	if s.paused || s.finished {
		s.mu.Unlock()
		return
	}
	s.paused = true
	s.pauseStart = s.now()
	s.mu.Unlock()

	s.emit.Emit(EventInterviewPaused, nil)
}

func (s *Session) Resume() {
	s.mu.Lock()
	if !s.paused || s.finished {
		s.mu.Unlock()
		return
	}
	s.pausedAccum += s.now().Sub(s.pauseStart)
	s.pauseStart = time.Time{}
	s.paused = false
	s.mu.Unlock()

	s.emit.Emit(EventInterviewResumed, nil)
}

// End handles a client-requested end. First caller wins the ending latch.
func (s *Session) End(ctx context.Context) {
	s.mu.Lock()
	if s.ending || s.finished {
		s.mu.Unlock()
		return
	}
	s.ending = true
	s.mu.Unlock()

	s.end(ctx, models.StatusCompleted)
}

// forceEnd runs the hard-end path: one last AI turn whose output the policy
// constrains to a closing statement, never spoken aloud, then termination.
func (s *Session) forceEnd(ctx context.Context) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.aiSpeaking = true
	ts := TimeState{Elapsed: s.elapsedLocked(), QuestionsAsked: s.questionsAsked}
	hist := append([]models.TranscriptEntry(nil), s.transcript...)
	s.mu.Unlock()

	s.emit.Emit(EventAIThinking, nil)

	text, err := s.generate(ctx, hist, ts)
	if err != nil {
		s.deps.Log.WithError(err).WithField("interview_id", s.interviewID).Error("forced closing turn failed")
	}

	s.mu.Lock()
	// a disconnect may have abandoned the session mid-generation
	if s.finished {
		s.aiSpeaking = false
		s.mu.Unlock()
		return
	}
	if err == nil && text != "" {
		s.appendEntryLocked(models.SpeakerAI, text)
	}
	s.aiSpeaking = false
	s.mu.Unlock()

	if err == nil && text != "" {
		s.emit.Emit(EventAIResponseText, TextPayload{Text: text})
		s.emit.Emit(EventAISpeaking, SpeakingPayload{Text: text, NoSpeak: true})
	}

	s.emit.Emit(EventInterviewEnding, nil)
	s.end(ctx, models.StatusCompleted)
}

// end runs the terminal sequence exactly once: stop the tick, persist the
// final record, run the scoring pass and the achievement evaluator, emit
// interview-complete, discard the session. A failed scoring pass downgrades
// to a null-feedback completion; it never blocks teardown.
func (s *Session) end(ctx context.Context, status models.InterviewStatus) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.ending = true
	duration := s.elapsedLocked()
	transcript := append([]models.TranscriptEntry(nil), s.transcript...)
	questionsAsked := s.questionsAsked
	s.mu.Unlock()

	s.stopTicker()
	defer s.discard()

	log := s.deps.Log.WithField("interview_id", s.interviewID)

	if err := s.deps.Interviews.Finalize(ctx, s.interviewID, status, s.now().UTC(), duration, transcript, questionsAsked); err != nil {
		log.WithError(err).Error("failed to persist final interview record")
	}

	s.emit.Emit(EventGeneratingFeedback, nil)

	if status != models.StatusCompleted || len(transcript) <= 1 {
		s.emit.Emit(EventInterviewComplete, CompletePayload{InterviewID: s.interviewID, NewAchievements: []models.AchievementInfo{}})
		return
	}

	fb, err := s.deps.Feedback.Score(ctx, s.interviewID, s.userID, s.cfg, transcript)
	if err != nil {
		log.WithError(err).Error("scoring pass failed")
		s.emit.Emit(EventInterviewComplete, CompletePayload{InterviewID: s.interviewID, NewAchievements: []models.AchievementInfo{}})
		return
	}

	newAchievements, err := s.deps.Achievements.OnInterviewCompleted(ctx, s.userID)
	if err != nil {
		log.WithError(err).Error("achievement evaluation failed")
		newAchievements = []models.AchievementInfo{}
	}

	feedbackID := fb.ID.Hex()
	s.emit.Emit(EventInterviewComplete, CompletePayload{
		InterviewID:     s.interviewID,
		FeedbackID:      &feedbackID,
		Feedback:        &fb.FeedbackData,
		NewAchievements: newAchievements,
	})
}

// Abandon is the disconnect path: persist an abandoned record with the
// current transcript, skip scoring entirely, discard the session.
func (s *Session) Abandon(ctx context.Context) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.ending = true
	duration := s.elapsedLocked()
	transcript := append([]models.TranscriptEntry(nil), s.transcript...)
	questionsAsked := s.questionsAsked
	s.mu.Unlock()

	s.stopTicker()
	defer s.discard()

	if err := s.deps.Interviews.Finalize(ctx, s.interviewID, models.StatusAbandoned, s.now().UTC(), duration, transcript, questionsAsked); err != nil {
		s.deps.Log.WithError(err).WithField("interview_id", s.interviewID).Error("failed to persist abandoned interview")
	}
}

func (s *Session) discard() {
	if s.onFinish != nil {
		s.onFinish()
	}
}

// Conservative closing phrases: a false positive cuts the interview short,
// a false negative only costs one extra turn. Checked only once the ending
// latch is set.
var closingPhrases = []string{
	"concludes our interview",
	"that wraps up",
	"end of our interview",
	"great place to wrap up",
	"that brings us to the end",
	"feedback ready",
	"feedback will be",
	"pleasure interviewing you",
	"wrap things up",
}

func isClosingStatement(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range closingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
