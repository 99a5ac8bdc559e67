package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/joho/godotenv/autoload"

	"github.com/Zachkp/pulse-folio/internal/activity"
	"github.com/Zachkp/pulse-folio/internal/config"
	"github.com/Zachkp/pulse-folio/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// the alt screen owns stdout, so logs go to a file when asked for
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if path := os.Getenv("PULSETOP_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	}

	sampler := activity.NewSampler(cfg.GitHubAPIURL, activity.Projects(cfg.GitHubOwner, cfg.GitHubRepos), logger)
	sampler.Token = cfg.GitHubToken
	sampler.Timeout = cfg.SamplerTimeout

	m := tui.New(sampler, cfg.PulseIntensity)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
