package live

import (
	"context"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/prepwise/prepwise/internal/models"
	"github.com/prepwise/prepwise/internal/providers/llm"
)

// --- test doubles ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordedEvent struct {
	name string
	data any
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Emit(name string, data any) {
	r.mu.Lock()
	r.events = append(r.events, recordedEvent{name: name, data: data})
	r.mu.Unlock()
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.name
	}
	return out
}

func (r *recorder) count(name string) int {
	n := 0
	for _, got := range r.names() {
		if got == name {
			n++
		}
	}
	return n
}

func (r *recorder) last(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].name == name {
			return r.events[i].data, true
		}
	}
	return nil, false
}

type fakeLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Continue(ctx context.Context, system string, history []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reply, f.err
}

func (f *fakeLLM) ScoreJSON(ctx context.Context, prompt string) (string, error) { return "{}", nil }
func (f *fakeLLM) Close() error                                                { return nil }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeInterviewSvc struct {
	mu        sync.Mutex
	finalized []models.InterviewStatus
}

func (f *fakeInterviewSvc) Start(ctx context.Context, userID string, cfg models.InterviewConfig) (*models.Interview, error) {
	return &models.Interview{ID: primitive.NewObjectID(), UserID: userID, Status: models.StatusInProgress, Config: cfg, StartedAt: time.Now()}, nil
}

func (f *fakeInterviewSvc) Finalize(ctx context.Context, id string, status models.InterviewStatus, endedAt time.Time, durationSeconds float64, transcript []models.TranscriptEntry, questionsAsked int) error {
	f.mu.Lock()
	f.finalized = append(f.finalized, status)
	f.mu.Unlock()
	return nil
}

func (f *fakeInterviewSvc) Get(ctx context.Context, userID, id string) (*models.Interview, error) {
	return nil, nil
}
func (f *fakeInterviewSvc) List(ctx context.Context, userID string) ([]models.Interview, error) {
	return nil, nil
}
func (f *fakeInterviewSvc) Delete(ctx context.Context, userID, id string) error { return nil }

func (f *fakeInterviewSvc) finalizedStatuses() []models.InterviewStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.InterviewStatus(nil), f.finalized...)
}

type fakeFeedbackSvc struct {
	mu    sync.Mutex
	fb    *models.Feedback
	err   error
	calls int
}

func (f *fakeFeedbackSvc) Score(ctx context.Context, interviewID, userID string, cfg models.InterviewConfig, transcript []models.TranscriptEntry) (*models.Feedback, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.fb, nil
}

func (f *fakeFeedbackSvc) GetByInterview(ctx context.Context, userID, interviewID string) (*models.Feedback, error) {
	return nil, nil
}
func (f *fakeFeedbackSvc) DeleteByInterview(ctx context.Context, interviewID string) error {
	return nil
}

func (f *fakeFeedbackSvc) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAchievementSvc struct {
	grants []models.AchievementInfo
	err    error
}

func (f *fakeAchievementSvc) OnInterviewCompleted(ctx context.Context, userID string) ([]models.AchievementInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.grants, nil
}

func (f *fakeAchievementSvc) List(ctx context.Context, userID string) ([]models.Achievement, error) {
	return nil, nil
}
func (f *fakeAchievementSvc) Streak(ctx context.Context, userID string) (models.Streak, error) {
	return models.Streak{}, nil
}

type sessionFixture struct {
	s    *Session
	rec  *recorder
	llm  *fakeLLM
	ivs  *fakeInterviewSvc
	fbs  *fakeFeedbackSvc
	achs *fakeAchievementSvc
	clk  *fakeClock
}

func newSessionFixture(cfg models.InterviewConfig) *sessionFixture {
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &sessionFixture{
		rec: &recorder{},
		llm: &fakeLLM{reply: "Tell me about yourself?"},
		ivs: &fakeInterviewSvc{},
		fbs: &fakeFeedbackSvc{
			fb: &models.Feedback{ID: primitive.NewObjectID(), FeedbackData: models.FeedbackData{OverallScore: 80, Grade: "B+"}},
		},
		achs: &fakeAchievementSvc{grants: []models.AchievementInfo{}},
		clk:  newFakeClock(),
	}
	f.s = &Session{
		interviewID: primitive.NewObjectID().Hex(),
		userID:      "user-1",
		cfg:         cfg,
		deps: Deps{
			Interviews:   f.ivs,
			Feedback:     f.fbs,
			Achievements: f.achs,
			LLM:          f.llm,
			Log:          log,
		},
		emit:       f.rec,
		now:        f.clk.Now,
		genTimeout: time.Second,
		startTime:  f.clk.Now(),
		stopTick:   make(chan struct{}),
	}
	return f
}

func (f *sessionFixture) seedTranscript(entries ...models.TranscriptEntry) {
	f.s.mu.Lock()
	f.s.transcript = append(f.s.transcript, entries...)
	f.s.mu.Unlock()
}

func (f *sessionFixture) transcriptLen() int {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return len(f.s.transcript)
}

// --- tests ---

func TestFinishUserTurnEmptyInput(t *testing.T) {
	f := newSessionFixture(baseConfig())

	f.s.FinishUserTurn(context.Background(), "   ")

	if got := f.transcriptLen(); got != 0 {
		t.Fatalf("transcript len = %d, want 0", got)
	}
	if f.llm.callCount() != 0 {
		t.Fatal("generation ran for empty input")
	}
	names := f.rec.names()
	if len(names) != 1 || names[0] != EventYourTurn {
		t.Fatalf("events = %v, want [%s]", names, EventYourTurn)
	}
}

func TestFinishUserTurnRunsOneAITurn(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.llm.reply = "Good answer. What is a goroutine?"

	f.s.FinishUserTurn(context.Background(), "I built the payments service.")

	f.s.mu.Lock()
	transcript := append([]models.TranscriptEntry(nil), f.s.transcript...)
	questions := f.s.questionsAsked
	processing := f.s.processingUser
	f.s.mu.Unlock()

	if len(transcript) != 2 {
		t.Fatalf("transcript len = %d, want 2", len(transcript))
	}
	if transcript[0].Speaker != models.SpeakerUser || transcript[1].Speaker != models.SpeakerAI {
		t.Fatalf("unexpected speakers: %v, %v", transcript[0].Speaker, transcript[1].Speaker)
	}
	if questions != 1 {
		t.Fatalf("questionsAsked = %d, want 1", questions)
	}
	if processing {
		t.Fatal("processingUser still set")
	}

	want := []string{EventUserTranscriptFinal, EventAIThinking, EventAIResponseText, EventAISpeaking, EventYourTurn}
	names := f.rec.names()
	if len(names) != len(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events = %v, want %v", names, want)
		}
	}
	if data, ok := f.rec.last(EventAISpeaking); !ok || data.(SpeakingPayload).NoSpeak {
		t.Fatal("mid-interview reply must be spoken aloud")
	}
}

func TestFinishUserTurnIgnoredWhilePaused(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.s.Pause()

	f.s.FinishUserTurn(context.Background(), "answer given while paused")

	if got := f.transcriptLen(); got != 0 {
		t.Fatalf("paused session accepted user input: transcript len = %d, want 0", got)
	}
	if f.llm.callCount() != 0 {
		t.Fatal("generation ran while paused")
	}
	names := f.rec.names()
	if len(names) != 1 || names[0] != EventInterviewPaused {
		t.Fatalf("events = %v, want [%s]", names, EventInterviewPaused)
	}

	// input flows again after resume
	f.s.Resume()
	f.s.FinishUserTurn(context.Background(), "answer after resume")
	if got := f.transcriptLen(); got != 2 {
		t.Fatalf("transcript len after resume = %d, want 2", got)
	}
}

func TestFinishUserTurnRejectsWhileProcessing(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.s.mu.Lock()
	f.s.processingUser = true
	f.s.mu.Unlock()

	f.s.FinishUserTurn(context.Background(), "double submit")

	if f.transcriptLen() != 0 {
		t.Fatal("transcript changed during in-flight turn")
	}
	if len(f.rec.names()) != 0 {
		t.Fatalf("events = %v, want none", f.rec.names())
	}
}

func TestRunAITurnReentrant(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.s.mu.Lock()
	f.s.aiSpeaking = true
	f.s.mu.Unlock()

	f.s.RunAITurn(context.Background())

	if f.llm.callCount() != 0 {
		t.Fatal("re-entrant turn reached the generator")
	}
	if len(f.rec.names()) != 0 {
		t.Fatalf("events = %v, want none", f.rec.names())
	}
}

func TestRunAITurnGenerationError(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.llm.err = context.DeadlineExceeded

	f.s.RunAITurn(context.Background())

	if f.transcriptLen() != 0 {
		t.Fatal("failed generation must not touch the transcript")
	}
	f.s.mu.Lock()
	speaking := f.s.aiSpeaking
	f.s.mu.Unlock()
	if speaking {
		t.Fatal("aiSpeaking not cleared after failure")
	}
	names := f.rec.names()
	want := []string{EventAIThinking, EventInterviewError, EventYourTurn}
	if len(names) != len(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events = %v, want %v", names, want)
		}
	}
}

func TestRunAITurnEmptyReply(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.llm.reply = ""

	f.s.RunAITurn(context.Background())

	if f.transcriptLen() != 0 {
		t.Fatal("empty reply appended to transcript")
	}
	names := f.rec.names()
	if len(names) != 2 || names[0] != EventAIThinking || names[1] != EventYourTurn {
		t.Fatalf("events = %v", names)
	}
}

func TestClosingPhraseIgnoredBeforeEnding(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.llm.reply = "Well, that wraps up the easy part. Now, how does a hash map work?"

	f.s.RunAITurn(context.Background())

	f.s.mu.Lock()
	finished := f.s.finished
	f.s.mu.Unlock()
	if finished {
		t.Fatal("closing phrase terminated a session that was not ending")
	}
	if f.rec.count(EventYourTurn) != 1 {
		t.Fatal("turn not returned to the user")
	}
}

func TestRunAITurnEndsWhenEndingLatched(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.seedTranscript(
		models.TranscriptEntry{Speaker: models.SpeakerAI, Text: "Tell me about yourself?"},
		models.TranscriptEntry{Speaker: models.SpeakerUser, Text: "I am a backend engineer."},
	)
	f.llm.reply = "That concludes our interview. Thank you, and best of luck!"
	f.s.mu.Lock()
	f.s.ending = true
	f.s.mu.Unlock()

	f.s.RunAITurn(context.Background())

	if data, ok := f.rec.last(EventAISpeaking); !ok || !data.(SpeakingPayload).NoSpeak {
		t.Fatal("closing statement must carry noSpeak")
	}
	if f.rec.count(EventInterviewEnding) != 1 {
		t.Fatal("interview-ending not emitted")
	}
	if f.rec.count(EventInterviewComplete) != 1 {
		t.Fatal("interview-complete not emitted")
	}
	if got := f.ivs.finalizedStatuses(); len(got) != 1 || got[0] != models.StatusCompleted {
		t.Fatalf("finalized = %v, want one completed", got)
	}
}

func TestTickEmitsTimeUpdate(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.clk.Advance(30 * time.Second)

	f.s.Tick(context.Background())

	data, ok := f.rec.last(EventTimeUpdate)
	if !ok {
		t.Fatal("no time-update emitted")
	}
	tu := data.(TimeUpdatePayload)
	if tu.Elapsed != 30 || tu.Total != 600 || tu.Remaining != 570 {
		t.Fatalf("time update = %+v", tu)
	}
}

func TestTickForcesHardEnd(t *testing.T) {
	cfg := baseConfig()
	cfg.Duration = 5
	f := newSessionFixture(cfg)
	f.seedTranscript(
		models.TranscriptEntry{Speaker: models.SpeakerAI, Text: "Tell me about yourself?"},
		models.TranscriptEntry{Speaker: models.SpeakerUser, Text: "I am a backend engineer."},
	)
	f.llm.reply = "I think that's a great place to wrap up. Thank you for your time!"
	f.achs.grants = []models.AchievementInfo{models.AchievementCatalog[0]}
	f.clk.Advance(298 * time.Second)

	f.s.Tick(context.Background())

	if data, ok := f.rec.last(EventAISpeaking); !ok || !data.(SpeakingPayload).NoSpeak {
		t.Fatal("forced closing must carry noSpeak")
	}
	if f.rec.count(EventInterviewEnding) != 1 || f.rec.count(EventGeneratingFeedback) != 1 {
		t.Fatalf("events = %v", f.rec.names())
	}
	data, ok := f.rec.last(EventInterviewComplete)
	if !ok {
		t.Fatal("no interview-complete")
	}
	cp := data.(CompletePayload)
	if cp.FeedbackID == nil || cp.Feedback == nil {
		t.Fatal("completed interview must carry its feedback")
	}
	if len(cp.NewAchievements) != 1 || cp.NewAchievements[0].ID != "first_interview" {
		t.Fatalf("achievements = %+v", cp.NewAchievements)
	}
	if got := f.ivs.finalizedStatuses(); len(got) != 1 || got[0] != models.StatusCompleted {
		t.Fatalf("finalized = %v", got)
	}
}

func TestTickDefersWhileTurnInFlight(t *testing.T) {
	cfg := baseConfig()
	cfg.Duration = 5
	f := newSessionFixture(cfg)
	f.clk.Advance(298 * time.Second)
	f.s.mu.Lock()
	f.s.aiSpeaking = true
	f.s.mu.Unlock()

	f.s.Tick(context.Background())

	f.s.mu.Lock()
	ending := f.s.ending
	f.s.mu.Unlock()
	if ending {
		t.Fatal("hard end fired while a turn was in flight")
	}
	names := f.rec.names()
	if len(names) != 1 || names[0] != EventTimeUpdate {
		t.Fatalf("events = %v, want only time-update", names)
	}
}

func TestTickSilentWhilePaused(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.s.Pause()
	before := len(f.rec.names())

	f.s.Tick(context.Background())

	if got := len(f.rec.names()); got != before {
		t.Fatalf("paused tick emitted events: %v", f.rec.names())
	}
}

func TestPauseFreezesClock(t *testing.T) {
	f := newSessionFixture(baseConfig())

	f.clk.Advance(10 * time.Second)
	f.s.Pause()
	f.clk.Advance(30 * time.Second)
	if got := f.s.Elapsed(); math.Abs(got-10) > 0.001 {
		t.Fatalf("elapsed while paused = %.3f, want 10", got)
	}

	f.s.Resume()
	f.clk.Advance(5 * time.Second)
	if got := f.s.Elapsed(); math.Abs(got-15) > 0.001 {
		t.Fatalf("elapsed after resume = %.3f, want 15", got)
	}
}

func TestPauseResumeIdempotent(t *testing.T) {
	f := newSessionFixture(baseConfig())

	f.s.Resume() // not paused yet
	f.s.Pause()
	f.s.Pause()
	f.s.Resume()
	f.s.Resume()

	if f.rec.count(EventInterviewPaused) != 1 {
		t.Fatalf("interview-paused count = %d", f.rec.count(EventInterviewPaused))
	}
	if f.rec.count(EventInterviewResumed) != 1 {
		t.Fatalf("interview-resumed count = %d", f.rec.count(EventInterviewResumed))
	}
}

func TestEndIdempotent(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.seedTranscript(
		models.TranscriptEntry{Speaker: models.SpeakerAI, Text: "Tell me about yourself?"},
		models.TranscriptEntry{Speaker: models.SpeakerUser, Text: "Sure."},
	)

	f.s.End(context.Background())
	f.s.End(context.Background())

	if got := f.ivs.finalizedStatuses(); len(got) != 1 {
		t.Fatalf("finalize ran %d times", len(got))
	}
	if f.rec.count(EventInterviewComplete) != 1 {
		t.Fatalf("interview-complete count = %d", f.rec.count(EventInterviewComplete))
	}
}

func TestEndShortTranscriptSkipsScoring(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.seedTranscript(models.TranscriptEntry{Speaker: models.SpeakerAI, Text: "Hello!"})

	f.s.End(context.Background())

	if f.fbs.callCount() != 0 {
		t.Fatal("scoring ran on a near-empty transcript")
	}
	data, ok := f.rec.last(EventInterviewComplete)
	if !ok {
		t.Fatal("no interview-complete")
	}
	cp := data.(CompletePayload)
	if cp.FeedbackID != nil || cp.Feedback != nil {
		t.Fatal("short transcript must complete without feedback")
	}
	if cp.NewAchievements == nil || len(cp.NewAchievements) != 0 {
		t.Fatalf("achievements = %#v, want empty list", cp.NewAchievements)
	}
}

func TestEndScoringFailureDegrades(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.seedTranscript(
		models.TranscriptEntry{Speaker: models.SpeakerAI, Text: "Tell me about yourself?"},
		models.TranscriptEntry{Speaker: models.SpeakerUser, Text: "Sure."},
	)
	f.fbs.err = context.DeadlineExceeded

	f.s.End(context.Background())

	if got := f.ivs.finalizedStatuses(); len(got) != 1 || got[0] != models.StatusCompleted {
		t.Fatalf("finalized = %v", got)
	}
	data, ok := f.rec.last(EventInterviewComplete)
	if !ok {
		t.Fatal("scoring failure must still complete the session")
	}
	if cp := data.(CompletePayload); cp.FeedbackID != nil {
		t.Fatal("failed scoring must yield a null feedback id")
	}
}

func TestEndAchievementFailureDegrades(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.seedTranscript(
		models.TranscriptEntry{Speaker: models.SpeakerAI, Text: "Tell me about yourself?"},
		models.TranscriptEntry{Speaker: models.SpeakerUser, Text: "Sure."},
	)
	f.achs.err = context.DeadlineExceeded

	f.s.End(context.Background())

	data, ok := f.rec.last(EventInterviewComplete)
	if !ok {
		t.Fatal("no interview-complete")
	}
	cp := data.(CompletePayload)
	if cp.FeedbackID == nil {
		t.Fatal("feedback lost on achievement failure")
	}
	if len(cp.NewAchievements) != 0 {
		t.Fatalf("achievements = %+v, want empty", cp.NewAchievements)
	}
}

func TestAbandonSkipsScoring(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.seedTranscript(
		models.TranscriptEntry{Speaker: models.SpeakerAI, Text: "Tell me about yourself?"},
		models.TranscriptEntry{Speaker: models.SpeakerUser, Text: "Sure."},
	)

	f.s.Abandon(context.Background())
	f.s.Abandon(context.Background())

	if got := f.ivs.finalizedStatuses(); len(got) != 1 || got[0] != models.StatusAbandoned {
		t.Fatalf("finalized = %v, want one abandoned", got)
	}
	if f.fbs.callCount() != 0 {
		t.Fatal("abandoned interview was scored")
	}
	if f.rec.count(EventInterviewComplete) != 0 || f.rec.count(EventGeneratingFeedback) != 0 {
		t.Fatalf("events = %v", f.rec.names())
	}
}

func TestAbandonAfterEndIsNoop(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.seedTranscript(
		models.TranscriptEntry{Speaker: models.SpeakerAI, Text: "Tell me about yourself?"},
		models.TranscriptEntry{Speaker: models.SpeakerUser, Text: "Sure."},
	)

	f.s.End(context.Background())
	f.s.Abandon(context.Background())

	if got := f.ivs.finalizedStatuses(); len(got) != 1 || got[0] != models.StatusCompleted {
		t.Fatalf("finalized = %v, want one completed", got)
	}
}

// gatedLLM suspends Continue until released, so a test can interleave other
// session calls with an in-flight generation.
type gatedLLM struct {
	entered chan struct{}
	release chan struct{}
	reply   string
}

func (g *gatedLLM) Continue(ctx context.Context, system string, history []llm.Message) (string, error) {
	close(g.entered)
	<-g.release
	return g.reply, nil
}

func (g *gatedLLM) ScoreJSON(ctx context.Context, prompt string) (string, error) { return "{}", nil }
func (g *gatedLLM) Close() error                                                 { return nil }

func TestLateGenerationDroppedAfterEnd(t *testing.T) {
	f := newSessionFixture(baseConfig())
	f.seedTranscript(
		models.TranscriptEntry{Speaker: models.SpeakerAI, Text: "Tell me about yourself?"},
		models.TranscriptEntry{Speaker: models.SpeakerUser, Text: "I am a backend engineer."},
	)
	g := &gatedLLM{entered: make(chan struct{}), release: make(chan struct{}), reply: "One more question for you?"}
	f.s.deps.LLM = g

	done := make(chan struct{})
	go func() {
		f.s.RunAITurn(context.Background())
		close(done)
	}()
	<-g.entered

	f.s.End(context.Background())
	close(g.release)
	<-done

	if got := f.transcriptLen(); got != 2 {
		t.Fatalf("late generation appended to a finalized transcript: len = %d, want 2", got)
	}
	if f.rec.count(EventAIResponseText) != 0 || f.rec.count(EventAISpeaking) != 0 {
		t.Fatalf("late generation emitted after completion: %v", f.rec.names())
	}
	if f.rec.count(EventInterviewComplete) != 1 {
		t.Fatalf("interview-complete count = %d", f.rec.count(EventInterviewComplete))
	}
	if got := f.ivs.finalizedStatuses(); len(got) != 1 || got[0] != models.StatusCompleted {
		t.Fatalf("finalized = %v, want one completed", got)
	}
}

func TestLateForcedClosingDroppedAfterAbandon(t *testing.T) {
	cfg := baseConfig()
	cfg.Duration = 5
	f := newSessionFixture(cfg)
	f.seedTranscript(
		models.TranscriptEntry{Speaker: models.SpeakerAI, Text: "Tell me about yourself?"},
		models.TranscriptEntry{Speaker: models.SpeakerUser, Text: "I am a backend engineer."},
	)
	g := &gatedLLM{entered: make(chan struct{}), release: make(chan struct{}), reply: "That concludes our interview."}
	f.s.deps.LLM = g
	f.clk.Advance(298 * time.Second)

	done := make(chan struct{})
	go func() {
		f.s.Tick(context.Background())
		close(done)
	}()
	<-g.entered

	f.s.Abandon(context.Background())
	close(g.release)
	<-done

	if got := f.transcriptLen(); got != 2 {
		t.Fatalf("forced closing appended after abandon: len = %d, want 2", got)
	}
	if got := f.ivs.finalizedStatuses(); len(got) != 1 || got[0] != models.StatusAbandoned {
		t.Fatalf("finalized = %v, want one abandoned", got)
	}
	if f.rec.count(EventInterviewComplete) != 0 {
		t.Fatalf("abandoned session emitted interview-complete: %v", f.rec.names())
	}
}

func TestIsClosingStatement(t *testing.T) {
	closing := []string{
		"I think that's a great place to wrap up. Thank you!",
		"That CONCLUDES our interview.",
		"We'll have your feedback ready shortly.",
		"It was a pleasure interviewing you today.",
	}
	for _, text := range closing {
		if !isClosingStatement(text) {
			t.Fatalf("%q not detected as closing", text)
		}
	}
	open := []string{
		"Can you wrap this logic in a function?",
		"What would you improve about your last project?",
		"",
	}
	for _, text := range open {
		if isClosingStatement(text) {
			t.Fatalf("%q wrongly detected as closing", text)
		}
	}
}
