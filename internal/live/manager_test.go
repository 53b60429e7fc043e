package live

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prepwise/prepwise/internal/models"
)

func newManagerFixture() (*Manager, *fakeInterviewSvc, *recorder) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	ivs := &fakeInterviewSvc{}
	deps := Deps{
		Interviews:   ivs,
		Feedback:     &fakeFeedbackSvc{},
		Achievements: &fakeAchievementSvc{},
		LLM:          &fakeLLM{reply: "Welcome! Tell me about yourself?"},
		Log:          log,
	}
	// a long tick interval keeps the watchdog quiet during the test
	m := NewManager(deps, WithTickInterval(time.Hour))
	return m, ivs, &recorder{}
}

func TestNormalizeConfigDefaults(t *testing.T) {
	cfg := models.InterviewConfig{
		Role:            "Backend Engineer",
		Type:            "technical",
		Difficulty:      "medium",
		ExperienceLevel: "mid",
		Duration:        10,
	}
	if err := NormalizeConfig(&cfg); err != nil {
		t.Fatalf("NormalizeConfig: %v", err)
	}
	if cfg.InterviewStyle != "neutral" || cfg.CompanyStyle != "general" || cfg.Mode != "assessment" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestNormalizeConfigRejects(t *testing.T) {
	valid := func() models.InterviewConfig {
		return models.InterviewConfig{
			Role:            "Backend Engineer",
			Type:            "technical",
			Difficulty:      "medium",
			ExperienceLevel: "mid",
			Duration:        10,
		}
	}

	cases := []struct {
		name   string
		mutate func(*models.InterviewConfig)
	}{
		{"missing role", func(c *models.InterviewConfig) { c.Role = "  " }},
		{"bad type", func(c *models.InterviewConfig) { c.Type = "casual" }},
		{"bad difficulty", func(c *models.InterviewConfig) { c.Difficulty = "impossible" }},
		{"bad experience", func(c *models.InterviewConfig) { c.ExperienceLevel = "guru" }},
		{"bad duration", func(c *models.InterviewConfig) { c.Duration = 7 }},
		{"zero duration", func(c *models.InterviewConfig) { c.Duration = 0 }},
		{"too many focus areas", func(c *models.InterviewConfig) {
			c.FocusAreas = []string{"a", "b", "c", "d", "e", "f"}
		}},
		{"bad style", func(c *models.InterviewConfig) { c.InterviewStyle = "hostile" }},
		{"bad company style", func(c *models.InterviewConfig) { c.CompanyStyle = "unicorn" }},
		{"bad mode", func(c *models.InterviewConfig) { c.Mode = "spectator" }},
	}
	for _, tc := range cases {
		cfg := valid()
		tc.mutate(&cfg)
		if err := NormalizeConfig(&cfg); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestManagerRejectsSecondStart(t *testing.T) {
	m, _, rec := newManagerFixture()
	ctx := context.Background()
	cfg := baseConfig()

	s, err := m.Start(ctx, "conn-1", "user-1", cfg, rec)
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if s == nil {
		t.Fatal("nil session")
	}

	if _, err := m.Start(ctx, "conn-1", "user-1", cfg, rec); err == nil {
		t.Fatal("second Start on the same connection must fail")
	}

	// a different connection is unaffected
	if _, err := m.Start(ctx, "conn-2", "user-2", cfg, rec); err != nil {
		t.Fatalf("Start on second connection: %v", err)
	}
}

func TestManagerDisconnectAbandons(t *testing.T) {
	m, ivs, rec := newManagerFixture()
	ctx := context.Background()

	if _, err := m.Start(ctx, "conn-1", "user-1", baseConfig(), rec); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.Disconnect(ctx, "conn-1")

	statuses := ivs.finalizedStatuses()
	if len(statuses) != 1 || statuses[0] != models.StatusAbandoned {
		t.Fatalf("finalized = %v, want one abandoned", statuses)
	}
	if m.Get("conn-1") != nil {
		t.Fatal("session still registered after disconnect")
	}

	// the connection can host a fresh interview afterwards
	if _, err := m.Start(ctx, "conn-1", "user-1", baseConfig(), rec); err != nil {
		t.Fatalf("Start after disconnect: %v", err)
	}
}

func TestManagerStartEmitsStarted(t *testing.T) {
	m, _, rec := newManagerFixture()

	s, err := m.Start(context.Background(), "conn-1", "user-1", baseConfig(), rec)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	data, ok := rec.last(EventInterviewStarted)
	if !ok {
		t.Fatal("interview-started not emitted")
	}
	if got := data.(StartedPayload).InterviewID; got != s.InterviewID() {
		t.Fatalf("started payload id = %q, want %q", got, s.InterviewID())
	}
}
