package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/counsel/internal/config"
	"github.com/matheus3301/counsel/internal/profile"
	"github.com/matheus3301/counsel/internal/server"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		server.Module(server.Params{Profile: profileName, Config: cfg.Server, Debug: *debugFlag}),
	)

	app.Run()
}
