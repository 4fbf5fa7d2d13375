package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/ManuelReschke/Candor/internal/pkg/database"
	"github.com/ManuelReschke/Candor/internal/pkg/env"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrator is the part of *migrate.Migrate the commands use.
type migrator interface {
	Up() error
	Steps(n int) error
	Migrate(version uint) error
	Force(version int) error
	Version() (version uint, dirty bool, err error)
}

type command struct {
	usage string
	run   func(m migrator, args []string) (string, error)
}

var commands = map[string]command{
	"up": {
		usage: "apply all pending migrations",
		run: func(m migrator, _ []string) (string, error) {
			return noChange(m.Up(), "schema is up to date", "migrations applied")
		},
	},
	"down": {
		usage: "roll back the last migration",
		run: func(m migrator, _ []string) (string, error) {
			if err := m.Steps(-1); err != nil {
				return "", err
			}
			return "rolled back one migration", nil
		},
	},
	"goto": {
		usage: "migrate to version N",
		run: func(m migrator, args []string) (string, error) {
			v, err := versionArg(args)
			if err != nil {
				return "", err
			}
			return noChange(m.Migrate(uint(v)), fmt.Sprintf("already at version %d", v), fmt.Sprintf("migrated to version %d", v))
		},
	},
	"force": {
		usage: "mark version N as applied and clear the dirty flag",
		run: func(m migrator, args []string) (string, error) {
			v, err := versionArg(args)
			if err != nil {
				return "", err
			}
			if err := m.Force(int(v)); err != nil {
				return "", err
			}
			return fmt.Sprintf("forced version %d", v), nil
		},
	},
	"status": {
		usage: "show the current version",
		run: func(m migrator, _ []string) (string, error) {
			v, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				return "no migrations applied", nil
			}
			if err != nil {
				return "", err
			}
			if dirty {
				return fmt.Sprintf("version %d (dirty)", v), nil
			}
			return fmt.Sprintf("version %d", v), nil
		},
	},
}

// commandOrder keeps the usage text stable.
var commandOrder = []string{"up", "down", "goto", "force", "status"}

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		printUsage()
		os.Exit(1)
	}

	log.Printf("[Migrate] %s", database.MigrationTarget())
	m, err := migrate.New(env.GetEnv("MIGRATIONS_PATH", "file://migrations"), database.MigrationURL())
	if err != nil {
		log.Fatalf("[Migrate] Init failed: %v", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Printf("[Migrate] Close failed: %v, %v", srcErr, dbErr)
		}
	}()

	msg, err := cmd.run(m, os.Args[2:])
	if err != nil {
		log.Fatalf("[Migrate] %s failed: %v", os.Args[1], err)
	}
	log.Printf("[Migrate] %s", msg)
}

func noChange(err error, unchanged, changed string) (string, error) {
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		return unchanged, nil
	case err != nil:
		return "", err
	default:
		return changed, nil
	}
}

func versionArg(args []string) (uint64, error) {
	if len(args) == 0 {
		return 0, errors.New("missing version number")
	}
	v, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version number %q: %w", args[0], err)
	}
	return v, nil
}

func printUsage() {
	fmt.Println("Usage: go run ./cmd/migrate <command> [N]")
	for _, name := range commandOrder {
		fmt.Printf("  %-7s %s\n", name, commands[name].usage)
	}
}
