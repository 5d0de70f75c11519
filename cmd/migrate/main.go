package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"github.com/m04kA/SMC-AgendaService/internal/config"
	"github.com/m04kA/SMC-AgendaService/migrations"
)

// Использование:
//
//	migrate [up|down|version|force <version>]
func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	m, err := migrations.New(cfg.Database.DSN())
	if err != nil {
		fmt.Printf("Failed to create migrator: %v\n", err)
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	cmd := "up"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Printf("Failed to read version: %v\n", verr)
			os.Exit(1)
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return
	case "force":
		if len(os.Args) < 3 {
			fmt.Println("force requires a version")
			os.Exit(1)
		}
		version, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			fmt.Printf("Invalid version: %v\n", convErr)
			os.Exit(1)
		}
		err = m.Force(version)
	default:
		fmt.Printf("Unknown command %q\n", cmd)
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fmt.Printf("Migration %s failed: %v\n", cmd, err)
		os.Exit(1)
	}
	fmt.Printf("Migration %s complete\n", cmd)
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.toml"
}
