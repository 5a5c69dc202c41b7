package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/docuquery/cli/config"
	"github.com/docuquery/cli/internal/logger"
	"github.com/docuquery/cli/internal/tui"
)

func main() {
	var (
		writeConfigFlag = flag.Bool("write-config", false, "Write the default config to ~/.docuquery/config.yaml and exit")
	)
	flag.Parse()

	// Optional .env for credential overrides; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *writeConfigFlag {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config written")
		return
	}

	log := logger.New(cfg.Paths.LogFile)
	defer log.Sync()

	app, err := tui.NewApp(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing app: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}
