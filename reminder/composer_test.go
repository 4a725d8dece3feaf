package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/giygas/medcompanion-api/entities"
)

// stubGenerator is a hand-written TextGenerator
type stubGenerator struct {
	reply    string
	err      error
	calls    int
	messages []entities.ChatMessage
	opts     entities.ChatOptions
}

func (s *stubGenerator) Chat(ctx context.Context, messages []entities.ChatMessage, opts entities.ChatOptions) (string, error) {
	s.calls++
	s.messages = messages
	s.opts = opts
	return s.reply, s.err
}

func at(hour int) func() time.Time {
	return func() time.Time { return time.Date(2026, 3, 14, hour, 30, 0, 0, time.UTC) }
}

func first(n int) int { return 0 }

func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		hour     int
		expected string
	}{
		{0, "morning"},
		{11, "morning"},
		{12, "afternoon"},
		{17, "afternoon"},
		{18, "evening"},
		{23, "evening"},
	}

	for _, tt := range tests {
		if got := TimeOfDay(at(tt.hour)()); got != tt.expected {
			t.Errorf("TimeOfDay(%d:30) = %s, want %s", tt.hour, got, tt.expected)
		}
	}
}

func TestComposeFallbackVariants(t *testing.T) {
	enc := Encouragements[0]

	tests := []struct {
		name     string
		req      entities.ReminderRequest
		hour     int
		expected string
	}{
		{
			name: "streak praise",
			req: entities.ReminderRequest{UserName: "Tiff", MedicationName: "Aspirin", Purpose: "pain relief",
				Adherence: entities.AdherenceStats{CurrentStreak: 5, MissedInLastWeek: 2}},
			hour:     8,
			expected: "Hey Tiff, it's time to take your morning Aspirin for your pain relief. " + enc + " You've kept up with it for 5 days in a row.",
		},
		{
			name: "missed doses",
			req: entities.ReminderRequest{UserName: "Sam", MedicationName: "Metformin",
				Adherence: entities.AdherenceStats{CurrentStreak: 2, MissedInLastWeek: 1}},
			hour:     14,
			expected: "Hey Sam, it's time to take your afternoon Metformin. " + enc + " Don't worry about earlier missed doses, just take this one now.",
		},
		{
			name:     "plain encouragement",
			req:      entities.ReminderRequest{UserName: " Ana ", MedicationName: " Lisinopril ", Purpose: "  "},
			hour:     20,
			expected: "Hey Ana, it's time to take your evening Lisinopril. " + enc,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComposer(&stubGenerator{err: errors.New("down")}, "", WithClock(at(tt.hour)), WithPicker(first))

			got := c.Compose(context.Background(), tt.req)
			if got.Message != tt.expected {
				t.Errorf("Message = %q\nwant      %q", got.Message, tt.expected)
			}
			if got.Source != entities.ReminderSourceFallback {
				t.Errorf("Source = %s, want fallback", got.Source)
			}
		})
	}
}

func TestComposeUsesGeneratedText(t *testing.T) {
	gen := &stubGenerator{reply: "  Hey Tiff, time to TAKE your morning ASPIRIN. You're doing great.  "}
	c := NewComposer(gen, "test-model", WithClock(at(9)), WithPicker(first))

	got := c.Compose(context.Background(), entities.ReminderRequest{UserName: "Tiff", MedicationName: "Aspirin"})

	if got.Source != entities.ReminderSourceGenerated {
		t.Fatalf("Source = %s, want generated", got.Source)
	}
	if got.Message != "Hey Tiff, time to TAKE your morning ASPIRIN. You're doing great." {
		t.Errorf("Message = %q", got.Message)
	}
	if gen.opts.Model != "test-model" || gen.opts.Temperature != Temperature {
		t.Errorf("unexpected options %+v", gen.opts)
	}
	if len(gen.messages) != 2 || gen.messages[0].Role != entities.RoleSystem || gen.messages[1].Role != entities.RoleUser {
		t.Fatalf("unexpected messages %+v", gen.messages)
	}
	prompt := gen.messages[1].Content
	for _, want := range []string{"Name: Tiff", "Medication: Aspirin", "Purpose: unknown", "morning", Encouragements[0]} {
		if !strings.Contains(prompt, want) {
			t.Errorf("user prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestComposeRejectsUnusableText(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"missing take", "Hey Tiff, Aspirin time. Good job."},
		{"missing medication", "Hey Tiff, time to take your pill. Good job."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComposer(&stubGenerator{reply: tt.reply}, "", WithClock(at(9)), WithPicker(first))

			got := c.Compose(context.Background(), entities.ReminderRequest{UserName: "Tiff", MedicationName: "Aspirin"})
			if got.Source != entities.ReminderSourceFallback {
				t.Errorf("Source = %s, want fallback for reply %q", got.Source, tt.reply)
			}
			if !strings.HasPrefix(got.Message, "Hey Tiff, it's time to take your morning Aspirin.") {
				t.Errorf("unexpected fallback %q", got.Message)
			}
		})
	}
}

func TestComposeCaseFoldsMedicationName(t *testing.T) {
	c := NewComposer(&stubGenerator{reply: "Time to take your STRASSE tablet."}, "", WithPicker(first))

	got := c.Compose(context.Background(), entities.ReminderRequest{UserName: "Jo", MedicationName: "Straße"})
	if got.Source != entities.ReminderSourceGenerated {
		t.Errorf("expected folded match between Straße and STRASSE, got %s", got.Source)
	}
}

func TestComposeWithoutGenerator(t *testing.T) {
	c := NewComposer(nil, "", WithClock(at(9)), WithPicker(first))

	got := c.Compose(context.Background(), entities.ReminderRequest{UserName: "Tiff", MedicationName: "Aspirin"})
	if got.Source != entities.ReminderSourceFallback || got.Message == "" {
		t.Errorf("expected non-empty fallback, got %+v", got)
	}
}

func TestEncouragementPickedFromList(t *testing.T) {
	for i := range Encouragements {
		c := NewComposer(nil, "", WithClock(at(9)), WithPicker(func(n int) int {
			if n != len(Encouragements) {
				t.Fatalf("picker called with n=%d", n)
			}
			return i
		}))

		got := c.Compose(context.Background(), entities.ReminderRequest{UserName: "A", MedicationName: "B"})
		if !strings.HasSuffix(got.Message, Encouragements[i]) {
			t.Errorf("expected encouragement %d in %q", i, got.Message)
		}
	}
}
