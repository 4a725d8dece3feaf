package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/medcompanion-api/config"
	"github.com/giygas/medcompanion-api/data"
	"github.com/giygas/medcompanion-api/druginfo"
	"github.com/giygas/medcompanion-api/email"
	"github.com/giygas/medcompanion-api/handlers"
	"github.com/giygas/medcompanion-api/health"
	"github.com/giygas/medcompanion-api/interfaces"
	"github.com/giygas/medcompanion-api/logging"
	"github.com/giygas/medcompanion-api/openai"
	"github.com/giygas/medcompanion-api/openfda"
	"github.com/giygas/medcompanion-api/reminder"
	"github.com/giygas/medcompanion-api/scheduler"
	"github.com/giygas/medcompanion-api/server"
	"github.com/giygas/medcompanion-api/speech"
	"github.com/giygas/medcompanion-api/validation"
)

const shutdownTimeout = 30 * time.Second

func main() {
	config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogger(logging.Options{
		Dir:            "logs",
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer func() {
		if err := logging.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close log file: %v\n", err)
		}
	}()

	if err := run(cfg); err != nil {
		logging.Error("Server stopped with error", "error", err)
		_ = logging.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	labels := openfda.NewClient(openfda.Config{
		BaseURL: cfg.OpenFDABaseURL,
		Timeout: cfg.OpenFDATimeout,
		APIKey:  cfg.OpenFDAAPIKey,
	})

	llm, err := openai.NewClient(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIReminderModel,
	})
	if err != nil {
		return fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	probers := []interfaces.Prober{labels, llm}
	deps := handlers.Dependencies{
		DrugInfo:       druginfo.NewService(labels),
		Reminders:      reminder.NewComposer(llm, cfg.OpenAIReminderModel),
		Chat:           llm,
		ChatModel:      cfg.OpenAIChatModel,
		Validator:      validation.NewInputValidator(),
		MaxRequestBody: cfg.MaxRequestBody,
	}

	if cfg.SpeechEnabled() {
		tts, err := speech.NewClient(speech.Config{
			APIKey:  cfg.ElevenLabsAPIKey,
			BaseURL: cfg.ElevenLabsBaseURL,
			VoiceID: cfg.ElevenLabsVoiceID,
		})
		if err != nil {
			return fmt.Errorf("failed to create ElevenLabs client: %w", err)
		}
		deps.Speech = tts
		probers = append(probers, tts)
	} else {
		logging.Warn("ELEVENLABS_API_KEY not set, /api/reminder-audio is disabled")
	}

	var dispatcher *email.Dispatcher
	if cfg.EmailEnabled() {
		sender, err := newEmailSender(ctx, cfg)
		if err != nil {
			return err
		}
		dispatcher = email.NewDispatcher(sender, cfg.EmailFrom)
		deps.Alerts = dispatcher
		logging.Info("Caregiver alerts enabled", "provider", sender.Provider())
	} else {
		logging.Warn("Email provider not configured, /api/caregiver-alert is disabled", "provider", cfg.EmailProvider)
	}

	store := data.NewStatusContainer(time.Now())
	names := make([]string, len(probers))
	for i, p := range probers {
		names[i] = p.Name()
	}
	deps.Health = health.NewHealthChecker(store, openfda.Vendor, names...)

	probes := scheduler.NewScheduler(store, cfg.ProbeInterval, probers...)
	if err := probes.Start(); err != nil {
		return err
	}
	defer probes.Stop()

	srv := server.NewServer(cfg, handlers.NewHTTPHandler(deps))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if dispatcher != nil {
		logging.Info("Waiting for queued emails...")
		if err := dispatcher.Close(shutdownCtx); err != nil {
			logging.Warn("Some caregiver emails may not have been sent", "error", err)
		}
	}

	return nil
}

func newEmailSender(ctx context.Context, cfg *config.Config) (interfaces.EmailSender, error) {
	switch cfg.EmailProvider {
	case config.EmailProviderSES:
		sender, err := email.NewSESSender(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to create SES sender: %w", err)
		}
		return sender, nil
	default:
		sender, err := email.NewResendSender(cfg.ResendAPIKey, cfg.ResendBaseURL, email.DefaultSendTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create Resend sender: %w", err)
		}
		return sender, nil
	}
}
