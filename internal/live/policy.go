package live

import (
	"fmt"
	"math"
	"strings"

	"github.com/prepwise/prepwise/internal/models"
)

// TimeState is the slice of session state the dialogue policy needs.
type TimeState struct {
	Elapsed        float64
	QuestionsAsked int
}

// KickoffInstruction is injected as the sole user message on the very first
// AI turn, when the transcript is still empty.
const KickoffInstruction = "[The interview is starting now. Greet the candidate and begin with your first question.]"

const contextCharLimit = 600

var styleTones = map[string]string{
	"friendly":    "Warm, encouraging, and supportive. Use conversational language. Offer brief positive reinforcement between questions.",
	"neutral":     "Professional, balanced, and fair. Polite but focused on assessment. No excessive praise or criticism.",
	"challenging": "Rigorous and direct. Probe for depth. Ask \"why\" and \"how\" follow-ups. Push the candidate to think harder.",
}

var companyTones = map[string]string{
	"faang":     "FAANG-style: structured, methodical questions focusing on fundamentals, system design, edge cases, and scalability.",
	"startup":   "Startup-style: practical problem-solving, breadth of knowledge, adaptability. More casual but thorough.",
	"corporate": "Corporate-style: formal structure, process-oriented questions, teamwork, domain expertise.",
	"general":   "Balanced interview covering both depth and breadth across relevant topics.",
}

func truncateContext(s string) string {
	if len(s) > contextCharLimit {
		return s[:contextCharLimit]
	}
	return s
}

func phaseDirective(cfg models.InterviewConfig, elapsed float64) string {
	total := float64(cfg.Duration * 60)
	minutesLeft := math.Max(0, math.Round((total-elapsed)/60))
	secondsLeft := math.Max(0, math.Round(total-elapsed))

	switch PhaseAt(cfg, elapsed) {
	case PhaseHardEnd:
		return `MANDATORY END — TIME IS UP:
You MUST end the interview NOW. Do NOT ask any more questions.
Say something warm and professional like:
"I think that's a great place to wrap up. Thank you so much for your time today — you've given some really thoughtful answers. We'll have your detailed feedback ready for you shortly. Best of luck!"
This MUST be your ENTIRE response. Do not add questions after this.`
	case PhaseWrapUp:
		return fmt.Sprintf(`WRAP-UP PHASE (%.0fs remaining):
- Ask your final question now. Do NOT skip the question — ask it.
- After the candidate responds to this question, you will wrap up in the NEXT turn.
- Do NOT say goodbye or conclude yet — just ask the question.`, secondsLeft)
	case PhaseMid:
		return fmt.Sprintf(`MID-INTERVIEW (%.0f min remaining):
- Continue with role-specific technical/behavioral questions
- Increase difficulty gradually
- Ask follow-ups when answers are vague`, minutesLeft)
	default:
		return fmt.Sprintf(`EARLY PHASE (%.0f min remaining):
- Start with easier, warm-up style questions
- Build rapport with the candidate`, minutesLeft)
	}
}

// BuildSystemPrompt assembles the interviewer instructions for one AI turn.
// It is stateless: called fresh on every turn with the latest time state.
func BuildSystemPrompt(cfg models.InterviewConfig, ts TimeState) string {
	tc := tierFor(cfg.Duration)

	tone, ok := styleTones[cfg.InterviewStyle]
	if !ok {
		tone = styleTones["neutral"]
	}
	company, ok := companyTones[cfg.CompanyStyle]
	if !ok {
		company = companyTones["general"]
	}

	focus := "General"
	if len(cfg.FocusAreas) > 0 {
		focus = strings.Join(cfg.FocusAreas, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert human interviewer conducting a live %s interview for the role of %s.\n\n", cfg.Type, cfg.Role)

	fmt.Fprintf(&b, "YOUR PERSONALITY:\n%s\nCompany approach: %s\n\n", tone, company)

	fmt.Fprintf(&b, "CANDIDATE PROFILE:\n- Experience: %s\n- Difficulty level: %s\n- Focus areas: %s\n", cfg.ExperienceLevel, cfg.Difficulty, focus)
	if cfg.ResumeText != "" {
		fmt.Fprintf(&b, "- Resume context: %s\n", truncateContext(cfg.ResumeText))
	}
	if cfg.JobDescription != "" {
		fmt.Fprintf(&b, "- Target job: %s\n", truncateContext(cfg.JobDescription))
	}
	b.WriteString("\n")

	if cfg.Mode == "practice" {
		b.WriteString("MODE: PRACTICE — Be helpful. If the candidate struggles, give gentle hints. After each answer, offer a brief constructive tip before the next question.\n\n")
	} else {
		b.WriteString("MODE: ASSESSMENT — Professional evaluation. No hints. Evaluate rigorously but fairly.\n\n")
	}

	fmt.Fprintf(&b, "TIME & PACING:\n- Total duration: %d minutes\n- Elapsed: %.0fs (%.0f min)\n- Questions asked: %d / target: %d\n%s\n\n",
		cfg.Duration, ts.Elapsed, math.Round(ts.Elapsed/60), ts.QuestionsAsked, tc.TargetQuestions, phaseDirective(cfg, ts.Elapsed))

	b.WriteString(`IMMUTABLE RULES:
1. Ask exactly ONE question per response. Never bundle multiple questions.
2. Keep responses concise — 2-3 sentences max for acknowledgment + question.
3. After the candidate answers, briefly acknowledge (1 sentence), then ask the next question.
4. For the FIRST message (empty transcript), greet the candidate warmly, introduce yourself, and ask a soft opening question like "Tell me about yourself" or "What interests you about this role?"
5. Progress from easier to harder questions naturally.
6. Ask follow-up questions when answers are vague or interesting.
7. Never repeat a question you already asked.
8. Stay in character as a human interviewer at all times. Never reveal you are an automated system.
9. Speak naturally — no markdown, no bullet points, no code blocks, no asterisks.
10. When concluding, be warm and genuine. Mention that feedback will be provided.
11. Never say "As an AI" or "I'm an AI assistant" — you are the interviewer.`)

	return b.String()
}
