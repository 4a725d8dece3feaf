// Package reminder phrases personalized medication reminders, asking a
// language model for the wording and falling back to a local template.
package reminder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/interfaces"
	"github.com/giygas/medcompanion-api/logging"
	"github.com/giygas/medcompanion-api/metrics"
	"golang.org/x/text/cases"
)

// Generation settings
const (
	DefaultModel       = "gpt-4o-mini"
	Temperature        = 0.6
	GenerationTimeout  = 15 * time.Second
	streakPraiseMinDay = 3
)

// Encouragements opens the second sentence of every reminder
var Encouragements = []string{
	"You're doing the right thing for your health.",
	"This small step really helps your health.",
	"You're taking good care of yourself.",
	"Your future self will thank you for this.",
	"Every dose helps keep you on track.",
}

const systemPrompt = `You write warm, encouraging medication reminders for older adults.

Rules:
- Use very simple words, readable by a child of 8 to 10.
- Write exactly two short sentences.
- Sentence 1 says it is time to take the medication, using the given time of day and the purpose when one is given.
- Sentence 2 begins with the given encouragement and then mentions the streak or the missed doses.
- Always use the verb "take".
- Write the person's name exactly as given.`

// Composer implements interfaces.ReminderComposer.
type Composer struct {
	generator interfaces.TextGenerator
	model     string
	now       func() time.Time
	pick      func(n int) int
}

var _ interfaces.ReminderComposer = (*Composer)(nil)

// Option customizes a Composer
type Option func(*Composer)

// WithClock sets the clock used for the time-of-day label
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithPicker sets how an encouragement index in [0,n) is chosen
func WithPicker(pick func(n int) int) Option {
	return func(c *Composer) { c.pick = pick }
}

func NewComposer(generator interfaces.TextGenerator, model string, opts ...Option) *Composer {
	if model == "" {
		model = DefaultModel
	}
	c := &Composer{
		generator: generator,
		model:     model,
		now:       time.Now,
		pick:      rand.IntN,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TimeOfDay labels an hour as morning, afternoon or evening
func TimeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "morning"
	case h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// plan holds the inputs shared by the prompt and the fallback
type plan struct {
	name, med, purpose string
	timeOfDay          string
	encouragement      string
	streak, missed     int
}

func (c *Composer) plan(req entities.ReminderRequest) plan {
	return plan{
		name:          strings.TrimSpace(req.UserName),
		med:           strings.TrimSpace(req.MedicationName),
		purpose:       strings.TrimSpace(req.Purpose),
		timeOfDay:     TimeOfDay(c.now()),
		encouragement: Encouragements[c.pick(len(Encouragements))],
		streak:        req.Adherence.CurrentStreak,
		missed:        req.Adherence.MissedInLastWeek,
	}
}

// Fallback builds the local two-sentence reminder
func (p plan) Fallback() string {
	base := fmt.Sprintf("Hey %s, it's time to take your %s %s", p.name, p.timeOfDay, p.med)
	if p.purpose != "" {
		base += " for your " + p.purpose
	}
	base += "."

	var second string
	switch {
	case p.streak >= streakPraiseMinDay:
		second = fmt.Sprintf("%s You've kept up with it for %d days in a row.", p.encouragement, p.streak)
	case p.missed > 0:
		second = p.encouragement + " Don't worry about earlier missed doses, just take this one now."
	default:
		second = p.encouragement
	}

	return base + " " + second
}

func (p plan) userPrompt() string {
	purpose := p.purpose
	if purpose == "" {
		purpose = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", p.name)
	fmt.Fprintf(&b, "Medication: %s\n", p.med)
	fmt.Fprintf(&b, "Purpose: %s\n", purpose)
	fmt.Fprintf(&b, "Time of day for sentence 1: %s\n", p.timeOfDay)
	fmt.Fprintf(&b, "Days in a row taken: %d\n", p.streak)
	fmt.Fprintf(&b, "Missed doses in the last week: %d\n", p.missed)
	fmt.Fprintf(&b, "Start sentence 2 with: %q\n", p.encouragement)
	b.WriteString("Write exactly two sentences, for example: \"Hey Tiff, it's time to take your morning Aspirin " +
		"for your pain relief. You're doing the right thing for your health, and you've kept up 5 days in a row.\"")
	return b.String()
}

// Compose returns a generated reminder, or the local fallback when the
// generator fails or its text does not mention "take" and the medication.
func (c *Composer) Compose(ctx context.Context, req entities.ReminderRequest) entities.ReminderResult {
	p := c.plan(req)
	result := entities.ReminderResult{Message: p.Fallback(), Source: entities.ReminderSourceFallback}

	if c.generator != nil {
		if msg, ok := c.generate(ctx, p); ok {
			result = entities.ReminderResult{Message: msg, Source: entities.ReminderSourceGenerated}
		}
	}

	metrics.ReminderMessagesTotal.WithLabelValues(result.Source).Inc()
	return result
}

func (c *Composer) generate(ctx context.Context, p plan) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, GenerationTimeout)
	defer cancel()

	msg, err := c.generator.Chat(ctx, []entities.ChatMessage{
		{Role: entities.RoleSystem, Content: systemPrompt},
		{Role: entities.RoleUser, Content: p.userPrompt()},
	}, entities.ChatOptions{Model: c.model, Temperature: Temperature})
	if err != nil {
		logging.Warn("Reminder generation failed, using fallback", "error", err)
		return "", false
	}

	msg = strings.TrimSpace(msg)
	if !usable(msg, p.med) {
		logging.Info("Generated reminder rejected, using fallback", "medication", p.med)
		return "", false
	}
	return msg, true
}

// usable reports whether msg mentions both "take" and the medication,
// ignoring case. A Caser holds state, so each call gets its own.
func usable(msg, med string) bool {
	if msg == "" {
		return false
	}
	fold := cases.Fold()
	folded := fold.String(msg)
	return strings.Contains(folded, fold.String("take")) && strings.Contains(folded, fold.String(med))
}
