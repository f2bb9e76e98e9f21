// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for Opsdesk using the Cobra
// library. It defines the root command, subcommands (seed, incident, ticket,
// user, login, backup, maintenance), flags, and the entry point.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsdesk/opsdesk/internal/config"
	"github.com/opsdesk/opsdesk/internal/db"
	"github.com/opsdesk/opsdesk/internal/i18n"
	"github.com/opsdesk/opsdesk/internal/logging"
	"github.com/opsdesk/opsdesk/internal/tickets"
)

var version = "dev" // this will be set by the linker

var cfgFile string

// Opened stores, shared by all subcommands for the lifetime of one
// invocation. The presentation layer (these commands) only ever calls core
// operations; it never touches files or tables directly.
var (
	cfg          config.Config
	generalStore db.Store
	cyberStore   db.Store
	ticketStore  *tickets.Store
)

// main is the entry point of the application.
func main() {
	if err := rootCmd.Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

var rootCmd *cobra.Command

func init() {
	rootCmd = newRootCmd()
}

// configDefaults are used when a key is not set in the config file, the
// environment, or by flags.
func configDefaults() map[string]any {
	return map[string]any{
		"database.type":  "sqlite",
		"incidents.dsn":  "./data/incidents.db",
		"cyber.dsn":      "./data/cyber_incidents.db",
		"tickets.path":   "./data/it_tickets.csv",
		"admin.username": "admin",
		"admin.password": "admin123",
		"language":       "en",
		"debug":          false,
	}
}

// flagBindings maps config keys to the persistent flags that carry them under
// a different name.
func flagBindings() map[string]string {
	return map[string]string{
		"database.type": "db-type",
		"language":      "lang",
	}
}

// newRootCmd creates and configures a new root cobra command. This function
// builds the main application command as well as fresh instances for
// isolated testing.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opsdesk",
		Short: "Opsdesk is the records store for an incident and ticket desk.",
		Long: `Opsdesk persists user accounts, incidents, cyber incidents and IT
tickets across a relational backend and a flat ticket file. It seeds
reference data idempotently on startup and verifies credentials without
ever storing plaintext secrets.

Running without a subcommand prints a status summary of the stores.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig[config.Config](cmd, configDefaults(), flagBindings(), &cfgFile)
			if err != nil {
				return err
			}
			logging.SetDebug(cfg.Debug)
			db.SetDebug(cfg.Debug)
			i18n.Init(cfg.Language)

			generalStore, err = db.NewStoreFromDSN(cfg.Database.Type, cfg.Incidents.DSN)
			if err != nil {
				return fmt.Errorf("%s", i18n.T("cli.error_init_store", err))
			}
			cyberStore, err = db.NewStoreFromDSN(cfg.Database.Type, cfg.Cyber.DSN)
			if err != nil {
				return fmt.Errorf("%s", i18n.T("cli.error_init_store", err))
			}
			ticketStore = tickets.NewStore(cfg.Tickets.Path)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if generalStore != nil {
				_ = generalStore.Close()
			}
			if cyberStore != nil {
				_ = cyberStore.Close()
			}
		},
		RunE: runStatus,
	}

	// Add subcommands to the newly created root command.
	cmd.AddCommand(seedCmd)
	cmd.AddCommand(incidentCmd)
	cmd.AddCommand(ticketCmd)
	cmd.AddCommand(userCmd)
	cmd.AddCommand(loginCmd)
	cmd.AddCommand(backupCmd)
	cmd.AddCommand(maintenanceCmd)
	cmd.AddCommand(configInitCmd)

	cmd.Version = version

	// Define flags
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is opsdesk.yaml in the config dir or CWD)")
	cmd.PersistentFlags().String("db-type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("lang", "en", `message language ("en", "de")`)
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	return cmd
}

// runStatus prints a short summary of each store: a cheap read against every
// backend so a misconfigured DSN surfaces immediately.
func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println(i18n.T("cli.status_header"))

	incidents, err := generalStore.ListLatest(db.TableIncidents, 5)
	if err != nil {
		return err
	}
	cyber, err := cyberStore.ListLatest(db.TableCyberIncidents, 5)
	if err != nil {
		return err
	}
	ts, err := ticketStore.Tail(5)
	if err != nil {
		return err
	}

	fmt.Printf("incidents (%s): %d recent\n", cfg.Incidents.DSN, len(incidents))
	for _, r := range incidents {
		fmt.Println("  " + r.String())
	}
	fmt.Printf("cyber incidents (%s): %d recent\n", cfg.Cyber.DSN, len(cyber))
	for _, r := range cyber {
		fmt.Println("  " + r.String())
	}
	fmt.Printf("tickets (%s): %d recent\n", cfg.Tickets.Path, len(ts))
	for _, t := range ts {
		fmt.Println("  " + t.String())
	}
	return nil
}
