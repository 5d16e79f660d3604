package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"fastlookup/internal/app"
	"fastlookup/internal/config"
	"fastlookup/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, logPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/fastlookup/config.yaml if not provided)")
	flag.StringVar(&logPath, "log", "", "Write logs to this file (default: discard)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Println("Usage: reader [--config=config.yaml] [--log=reader.log] book.txt")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := config.NewLogger(cfg.Log, logOut)

	svc, err := app.NewService(cfg, logger)
	if err != nil {
		log.Fatalf("failed to build service: %v", err)
	}
	bookPath := flag.Arg(0)
	data, err := os.ReadFile(bookPath)
	if err != nil {
		log.Fatalf("read book: %v", err)
	}

	m := tui.New(svc, string(data), tui.Options{
		Title:            filepath.Base(bookPath),
		PageSize:         cfg.Reader.PageSize,
		RecapWindow:      cfg.Reader.RecapWindow,
		SummarySentences: cfg.Reader.SummarySentences,
		Timeout:          2 * time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
