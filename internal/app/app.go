// Package app wires the trainer together: config, models, audio,
// recognition, analysis, notifications and the live feed server.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"speechtrainer/internal/audio"
	"speechtrainer/internal/config"
	"speechtrainer/internal/models"
	"speechtrainer/internal/notify"
	"speechtrainer/internal/server"
	"speechtrainer/internal/speech"
	"speechtrainer/internal/trainer"
)

// statsLogInterval - how often a stats line is written during a live
// session. Events still flow to the websocket at the full rate.
const statsLogInterval = time.Second

// App is the assembled application.
type App struct {
	config   *config.Config
	manager  *models.Manager
	factory  *speech.Factory
	notifier *notify.Notifier
	server   *server.Server
}

// New assembles the application from configuration. The microphone is
// opened lazily, only when a live session starts.
func New(cfg *config.Config) (*App, error) {
	manager, err := models.NewManager(cfg.ModelsDir())
	if err != nil {
		return nil, err
	}

	factory := speech.NewFactory(manager)
	factory.UseSpeaker = cfg.SpeakerAdaptation()

	return &App{
		config:   cfg,
		manager:  manager,
		factory:  factory,
		notifier: notify.New(cfg.NotificationsEnabled()),
		server:   server.New(manager),
	}, nil
}

// Manager returns the model manager.
func (a *App) Manager() *models.Manager {
	return a.manager
}

// RunLive runs a microphone session until ctx is cancelled.
// The report is returned for saving or printing.
func (a *App) RunLive(ctx context.Context, serve bool) (*trainer.Report, error) {
	if err := a.factory.Load(a.config.ModelID(), audio.SampleRate); err != nil {
		return nil, err
	}
	defer a.factory.Close()

	recorder, err := audio.New()
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	defer recorder.Close()

	if err := recorder.Start(); err != nil {
		return nil, fmt.Errorf("starting capture: %w", err)
	}

	session := trainer.New(a.factory.Current(), a.sessionOptions())

	if serve {
		addr := a.config.ListenAddr()
		go func() {
			if err := a.server.Listen(addr); err != nil {
				log.Printf("Live feed server stopped: %v", err)
			}
		}()
		defer a.server.Shutdown()
		log.Printf("Live feed on http://%s (websocket at /ws/live)", addr)
	}

	// Stop the microphone on cancel; the closed chunk channel ends the
	// session loop.
	go func() {
		<-ctx.Done()
		recorder.Stop()
	}()

	go a.consumeEvents(session)

	a.notifier.SessionStarted()
	log.Printf("Session %s started, model %s. Ctrl+C to finish.", session.ID(), a.factory.CurrentModelID())

	report, err := session.Run(ctx, recorder.Chunks())
	if err != nil {
		return nil, err
	}

	a.notifier.SessionStopped(fmt.Sprintf("%d words, %d WPM", report.Stats.TotalWords, report.Stats.WPM))
	return report, nil
}

// AnalyzeFile runs the full analysis pipeline over a WAV recording.
func (a *App) AnalyzeFile(ctx context.Context, path string) (*trainer.Report, error) {
	pcm, info, err := audio.ReadWAVFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// The recognizer runs at the recording's native rate.
	rec, err := a.factory.Create(a.config.ModelID(), float64(info.SampleRate))
	if err != nil {
		return nil, err
	}
	defer rec.Close()

	log.Printf("Analyzing %s: %d samples at %d Hz", path, info.NumSamples, info.SampleRate)

	// Decoding outruns real time, so the session runs on the audio
	// clock and pace metrics follow the recording's own timeline.
	opts := a.sessionOptions()
	opts.SampleRate = float64(info.SampleRate)

	session := trainer.New(rec, opts)
	go a.consumeEvents(session)

	return session.Run(ctx, trainer.StreamPCM(ctx, pcm, 4096))
}

func (a *App) sessionOptions() trainer.Options {
	return trainer.Options{
		Window:     time.Duration(a.config.WindowSeconds()) * time.Second,
		Confidence: a.config.Confidence(),
	}
}

// consumeEvents drains session events into the log, the notifier and the
// websocket feed.
func (a *App) consumeEvents(session *trainer.Session) {
	var lastLog time.Time
	var lastPartial string

	for ev := range session.Events() {
		a.server.Broadcast(ev)

		switch ev.Type {
		case trainer.EventPartial:
			lastPartial = ev.Text

		case trainer.EventFinal:
			lastPartial = ""
			log.Printf("» %s", session.Caption(""))

		case trainer.EventStats:
			if ev.Stats == nil {
				continue
			}
			a.notifier.Pace(ev.Stats.PacingFeedback)
			if now := time.Now(); now.Sub(lastLog) >= statsLogInterval {
				log.Printf("WPM %3d | %-11s | clarity %3.0f%% | words %d | fillers %d | repeats %d",
					ev.Stats.WPM, ev.Stats.PacingFeedback, ev.Stats.ClarityScore,
					ev.Stats.TotalWords, ev.Stats.FillerWords, ev.Stats.RepetitivePhrases)
				if lastPartial != "" {
					log.Printf("… %s", lastPartial)
				}
				lastLog = now
			}

		case trainer.EventError:
			log.Printf("Session error: %s", ev.Message)
			a.notifier.Error(ev.Message)
		}
	}
}
