package live

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prepwise/prepwise/internal/models"
	"github.com/prepwise/prepwise/internal/utils"
)

const (
	defaultTickInterval = time.Second
	defaultGenTimeout   = 30 * time.Second
)

// Manager owns the live sessions, keyed by connection id. It replaces the
// process-wide session map with an injectable registry so the transport
// layer and tests can control its lifetime.
type Manager struct {
	deps Deps

	tickInterval time.Duration
	genTimeout   time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	starting map[string]struct{}
}

type Option func(*Manager)

// WithTickInterval overrides the watchdog cadence; tests use a tiny value or
// drive Tick directly.
func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) { m.tickInterval = d }
}

func WithGenTimeout(d time.Duration) Option {
	return func(m *Manager) { m.genTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(deps Deps, opts ...Option) *Manager {
	m := &Manager{
		deps:         deps,
		tickInterval: defaultTickInterval,
		genTimeout:   defaultGenTimeout,
		now:          time.Now,
		sessions:     make(map[string]*Session),
		starting:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var (
	interviewTypes   = map[string]bool{"technical": true, "behavioral": true, "hr": true, "system-design": true, "mixed": true}
	difficulties     = map[string]bool{"easy": true, "medium": true, "hard": true, "expert": true}
	experienceLevels = map[string]bool{"fresher": true, "junior": true, "mid": true, "senior": true}
	interviewStyles  = map[string]bool{"friendly": true, "neutral": true, "challenging": true}
	companyStyles    = map[string]bool{"faang": true, "startup": true, "corporate": true, "general": true}
	modes            = map[string]bool{"practice": true, "assessment": true}
)

// NormalizeConfig fills enum defaults and validates the rest. A duration
// outside the supported tiers fails outright rather than silently defaulting.
func NormalizeConfig(cfg *models.InterviewConfig) error {
	const op = "live.NormalizeConfig"

	if strings.TrimSpace(cfg.Role) == "" {
		return utils.E(utils.CodeInvalidArgument, op, "role is required", nil)
	}
	if !interviewTypes[cfg.Type] {
		return utils.E(utils.CodeInvalidArgument, op, "invalid interview type", nil)
	}
	if !difficulties[cfg.Difficulty] {
		return utils.E(utils.CodeInvalidArgument, op, "invalid difficulty", nil)
	}
	if !experienceLevels[cfg.ExperienceLevel] {
		return utils.E(utils.CodeInvalidArgument, op, "invalid experience level", nil)
	}
	if !ValidDuration(cfg.Duration) {
		return utils.E(utils.CodeInvalidArgument, op, "duration must be one of 5, 10, 15, or 20 minutes", nil)
	}
	if len(cfg.FocusAreas) > 5 {
		return utils.E(utils.CodeInvalidArgument, op, "at most 5 focus areas", nil)
	}

	if cfg.InterviewStyle == "" {
		cfg.InterviewStyle = "neutral"
	} else if !interviewStyles[cfg.InterviewStyle] {
		return utils.E(utils.CodeInvalidArgument, op, "invalid interview style", nil)
	}
	if cfg.CompanyStyle == "" {
		cfg.CompanyStyle = "general"
	} else if !companyStyles[cfg.CompanyStyle] {
		return utils.E(utils.CodeInvalidArgument, op, "invalid company style", nil)
	}
	if cfg.Mode == "" {
		cfg.Mode = "assessment"
	} else if !modes[cfg.Mode] {
		return utils.E(utils.CodeInvalidArgument, op, "invalid mode", nil)
	}
	return nil
}

// Start validates the config, creates the persisted interview record, and
// brings up the session with its watchdog. At most one session per
// connection: a second start while one is active is rejected.
func (m *Manager) Start(ctx context.Context, connID, userID string, cfg models.InterviewConfig, emit Emitter) (*Session, error) {
	const op = "Manager.Start"

	if err := NormalizeConfig(&cfg); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if _, ok := m.sessions[connID]; ok {
		m.mu.Unlock()
		return nil, utils.E(utils.CodeConflict, op, "interview already in progress on this connection", nil)
	}
	if _, ok := m.starting[connID]; ok {
		m.mu.Unlock()
		return nil, utils.E(utils.CodeConflict, op, "interview already starting on this connection", nil)
	}
	m.starting[connID] = struct{}{}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.starting, connID)
		m.mu.Unlock()
	}()

	iv, err := m.deps.Interviews.Start(ctx, userID, cfg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		interviewID: iv.ID.Hex(),
		userID:      userID,
		cfg:         cfg,
		deps:        m.deps,
		emit:        emit,
		now:         m.now,
		genTimeout:  m.genTimeout,
		startTime:   m.now(),
		stopTick:    make(chan struct{}),
	}
	s.onFinish = func() { m.Remove(connID) }

	m.mu.Lock()
	m.sessions[connID] = s
	m.mu.Unlock()

	go s.runTicker(ctx, m.tickInterval)

	emit.Emit(EventInterviewStarted, StartedPayload{InterviewID: s.interviewID})

	// opening AI turn (the greeting)
	go s.RunAITurn(ctx)

	return s, nil
}

func (m *Manager) Get(connID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[connID]
}

func (m *Manager) Remove(connID string) {
	m.mu.Lock()
	delete(m.sessions, connID)
	m.mu.Unlock()
}

// Disconnect is the abnormal-close path: abandon whatever session the
// connection still owns.
func (m *Manager) Disconnect(ctx context.Context, connID string) {
	if s := m.Get(connID); s != nil {
		s.Abandon(ctx)
	}
	m.Remove(connID)
}
