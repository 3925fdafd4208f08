// Speech Trainer - real-time speaking practice with Vosk.
//
// Listens to the microphone, transcribes speech offline and reports
// pace, clarity, filler words and repeated phrases while you talk.
// Models are downloaded into the Speech directory next to the binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"speechtrainer/internal/app"
	"speechtrainer/internal/config"
	"speechtrainer/internal/models"
	"speechtrainer/internal/trainer"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const usage = `Speech Trainer %s

Usage: speechtrainer <command> [flags]

Commands:
  setup [model-id ...]   download models into the Speech directory
  verify [model-id ...]  check the Speech directory layout
  models                 list known models
  live                   run a live microphone session
  analyze <file.wav>     analyze a recording

Run 'speechtrainer <command> -h' for command flags.
`

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, Version)
		os.Exit(2)
	}

	cfg := config.New()
	cfg.ApplyEnv()

	var err error
	switch os.Args[1] {
	case "setup":
		err = runSetup(cfg, os.Args[2:])
	case "verify":
		err = runVerify(cfg, os.Args[2:])
	case "models":
		err = runModels(cfg)
	case "live":
		err = runLive(cfg, os.Args[2:])
	case "analyze":
		err = runAnalyze(cfg, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Printf(usage, Version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		fmt.Fprintf(os.Stderr, usage, Version)
		os.Exit(2)
	}

	if err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// setupIDs resolves the model arguments for setup and verify.
// No arguments means the configured model plus the speaker model;
// "all" means the whole registry.
func setupIDs(cfg *config.Config, args []string) []string {
	if len(args) == 0 {
		return []string{cfg.ModelID(), models.SpeakerModelID()}
	}
	if len(args) == 1 && args[0] == "all" {
		ids := make([]string, len(models.Registry))
		for i, m := range models.Registry {
			ids[i] = m.ID
		}
		return ids
	}
	return args
}

func runSetup(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	dir := fs.String("dir", cfg.ModelsDir(), "models directory (default: Speech next to the binary)")
	fs.Parse(args)

	manager, err := models.NewManager(*dir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, id := range setupIDs(cfg, fs.Args()) {
		info, ok := models.GetModel(id)
		if !ok {
			return fmt.Errorf("unknown model %q (see 'speechtrainer models')", id)
		}

		if manager.IsDownloaded(info) {
			log.Printf("%s: already present", info.ID)
			continue
		}

		log.Printf("%s: downloading %s (~%s)", info.ID, info.Name, humanize.Bytes(uint64(info.Size)))

		progress := make(chan models.Progress, 16)
		done := make(chan struct{})
		go func() {
			defer close(done)
			lastPrint := time.Time{}
			for p := range progress {
				if p.Done || time.Since(lastPrint) >= 2*time.Second {
					log.Printf("%s: %s / %s", p.ModelID,
						humanize.Bytes(uint64(p.Downloaded)), humanize.Bytes(uint64(p.Total)))
					lastPrint = time.Now()
				}
			}
		}()

		err := manager.Download(ctx, info, progress)
		close(progress)
		<-done
		if err != nil {
			return err
		}

		log.Printf("%s: unpacked into %s", info.ID, manager.ModelPath(info))
	}

	log.Printf("Setup complete. Models directory: %s", manager.Dir())
	return nil
}

func runVerify(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	dir := fs.String("dir", cfg.ModelsDir(), "models directory")
	fs.Parse(args)

	manager, err := models.NewManager(*dir)
	if err != nil {
		return err
	}

	ids := setupIDs(cfg, fs.Args())
	if err := manager.Verify(ids); err != nil {
		return err
	}

	log.Printf("Layout OK: %d model(s) present under %s", len(ids), manager.Dir())
	return nil
}

func runModels(cfg *config.Config) error {
	manager, err := models.NewManager(cfg.ModelsDir())
	if err != nil {
		return err
	}

	for _, m := range models.Registry {
		mark := " "
		if manager.IsDownloaded(m) {
			mark = "*"
		}
		lang := m.Language
		if lang == "" {
			lang = "-"
		}
		fmt.Printf("%s %-18s %-8s %-4s %-8s %s\n",
			mark, m.ID, models.KindName(m.Kind), lang, humanize.Bytes(uint64(m.Size)), m.Name)
	}
	fmt.Println("\n* downloaded")
	return nil
}

func runLive(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("live", flag.ExitOnError)
	serve := fs.Bool("serve", false, "expose the live feed over HTTP/websocket")
	report := fs.String("report", "", "write the session report to this JSON file")
	noNotify := fs.Bool("no-notify", false, "disable desktop notifications")
	fs.Parse(args)

	if *noNotify {
		cfg.OverrideNotifications(false)
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := application.RunLive(ctx, *serve)
	if err != nil {
		return err
	}

	return finishReport(rep, *report)
}

func runAnalyze(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	report := fs.String("report", "", "write the report to this JSON file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: speechtrainer analyze [flags] <file.wav>")
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := application.AnalyzeFile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	return finishReport(rep, *report)
}

func finishReport(rep *trainer.Report, path string) error {
	log.Printf("Session %s: %.1fs, %d words, %d WPM (%s), clarity %.0f%%, %d fillers, %d repeated phrases",
		rep.SessionID, rep.DurationSeconds, rep.Stats.TotalWords, rep.Stats.WPM,
		rep.Stats.PacingFeedback, rep.Stats.ClarityScore, rep.Stats.FillerWords,
		rep.Stats.RepetitivePhrases)

	if rep.Transcript != "" {
		log.Printf("Transcript: %s", rep.Transcript)
	}

	if path == "" {
		return nil
	}
	if err := rep.Save(path); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	log.Printf("Report written to %s", path)
	return nil
}
