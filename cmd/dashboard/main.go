package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stockbot/config"
	"stockbot/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	defaultURL := "http://localhost:" + config.GetEnvOrDefault("PORT", "8080")
	baseURL := flag.String("url", defaultURL, "Service URL")
	monthsBack := flag.Int("months", config.DefaultMonthsBack, "Months scanned by the backfill trigger")
	flag.Parse()

	program := tea.NewProgram(tui.NewModel(*baseURL, *monthsBack))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}
