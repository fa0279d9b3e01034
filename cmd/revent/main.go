package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/rzbill/revent/internal/config"
	"github.com/rzbill/revent/internal/runtime"
	logpkg "github.com/rzbill/revent/pkg/log"
)

func main() {
	// Respect REVENT_LOG_LEVEL for CLI output
	level := os.Getenv("REVENT_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "revent",
		Short: "Revent repository CLI",
		Long:  "Revent is a reactive entity engine. This CLI inspects and maintains its on-disk repositories.",
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (JSON)")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (overrides config)")

	openRuntime := func(cmd *cobra.Command) (*runtime.Runtime, error) {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := cfgpkg.Load(path)
		if err != nil {
			return nil, err
		}
		cfgpkg.FromEnv(&cfg)
		if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
			cfg.DataDir = dir
		}
		return runtime.Open(runtime.Options{Config: cfg, Logger: logger})
	}

	collectionsCmd := &cobra.Command{
		Use:   "collections",
		Short: "List entity collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			cols, err := rt.Store().Collections()
			if err != nil {
				return err
			}
			for _, m := range cols {
				fmt.Printf("%s\tcreated=%s\n", m.Name, time.UnixMilli(m.CreatedAtMs).Format(time.RFC3339))
			}
			return nil
		},
	}
	rootCmd.AddCommand(collectionsCmd)

	entitiesCmd := &cobra.Command{
		Use:   "entities <collection>",
		Short: "Dump entity snapshots of a collection as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			raw, err := rt.Store().RawEntities(args[0])
			if err != nil {
				return err
			}
			for _, e := range raw {
				fmt.Printf("%s\t%s\n", e.ID, e.Data)
			}
			return nil
		},
	}
	rootCmd.AddCommand(entitiesCmd)

	journalCmd := &cobra.Command{
		Use:   "journal <collection>",
		Short: "Show the CRUD journal of a collection, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			entries, err := rt.Store().RawJournal(args[0], limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				b, _ := json.Marshal(e)
				fmt.Println(string(b))
			}
			return nil
		},
	}
	journalCmd.Flags().Int("limit", 100, "Max records to show, newest kept (0 = all)")
	rootCmd.AddCommand(journalCmd)

	compactCmd := &cobra.Command{
		Use:   "compact",
		Short: "Compact the underlying store",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.Store().Compact(); err != nil {
				return err
			}
			fmt.Println("compaction done")
			return nil
		},
	}
	rootCmd.AddCommand(compactCmd)

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.CheckHealth(context.Background()); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
