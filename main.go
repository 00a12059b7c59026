package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"mangapost/config"
	"mangapost/pkg/logger"
	"mangapost/service"
)

const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches the CLI subcommands.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("mangapost version %s\n", CliVersion)
	case "serve":
		exit(serve())
	case "db":
		loadDotEnv()
		service.SetDBPath(config.BadgerPath())
		exit(service.HandleDBCommand(os.Args[2:]))
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: mangapost <command> [options]
Commands:
  help            Display this help message.
  version         Show version information.
  serve           Run the dashboard and publishing API.
  db <command>    Maintain the badger database (init, clean, stats, backup, restore FILE).

Configuration is read from the environment and an optional .env file:
  PORT, ADMIN_PASSWORD, SESSION_SECRET, SESSION_TTL, COOKIE_SECURE,
  STORAGE_TYPE (badger|postgres|memory), BADGER_PATH, POSTGRES_DSN,
  NOTIFIER (telegram|log), TELEGRAM_BOT_TOKEN, TELEGRAM_CHANNEL_ID,
  LOG_LEVEL, LOG_FORMAT (json|text)
`
	fmt.Println(helpText)
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}
}

func serve() int {
	loadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}

	log, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := service.RunAppServer(ctx, cfg, log); err != nil {
		log.Error("Server exited", "error", err)
		return 1
	}
	return 0
}
