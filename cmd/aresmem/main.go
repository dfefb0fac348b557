// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Command aresmem serves and inspects the ARES memory dataset.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mdhender/aresmem"
	"github.com/mdhender/aresmem/config"
	"github.com/mdhender/aresmem/query"
	"github.com/mdhender/aresmem/stores/sqlite"
	"github.com/mdhender/aresmem/web/auth"
	"github.com/mdhender/aresmem/web/store"
	"github.com/spf13/cobra"
)

func main() {
	addFlags := func(cmd *cobra.Command) error {
		cmd.PersistentFlags().String("config", "", "load configuration from file")
		cmd.PersistentFlags().Bool("debug", false, "log debugging information")
		cmd.PersistentFlags().Bool("log-with-default-flags", false, "log with default flags")
		cmd.PersistentFlags().Bool("log-with-shortfile", true, "log with short file name")
		cmd.PersistentFlags().Bool("log-with-timestamp", false, "log with timestamp")
		cmd.PersistentFlags().Bool("quiet", false, "log less information")
		cmd.PersistentFlags().Bool("show-version", false, "show version")
		cmd.PersistentFlags().Bool("verbose", false, "log more information")
		return nil
	}
	var cmdRoot = &cobra.Command{
		Use:   "aresmem",
		Short: "ARES memory query service",
		Long:  `Serve and inspect the ARES memory dataset (one JSON record per line)`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logWithDefaultFlags, _ := cmd.Flags().GetBool("log-with-default-flags")
			logWithShortFileName, _ := cmd.Flags().GetBool("log-with-shortfile")
			logWithTimestamp, _ := cmd.Flags().GetBool("log-with-timestamp")
			logFlags := 0
			if logWithShortFileName {
				logFlags |= log.Lshortfile
			}
			if logWithTimestamp {
				logFlags |= log.Ltime
			}
			if logWithDefaultFlags || logFlags == 0 {
				logFlags = log.LstdFlags
			}
			log.SetFlags(logFlags)

			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Printf("aresmem: version %q\n", aresmem.Version().Core())
			}

			return nil
		},
	}
	cmdRoot.AddCommand(cmdServe())
	cmdRoot.AddCommand(cmdStats())
	cmdRoot.AddCommand(cmdSearch())
	cmdRoot.AddCommand(cmdExport())
	cmdRoot.AddCommand(cmdHashKey())
	cmdRoot.AddCommand(cmdVersion())
	if err := addFlags(cmdRoot); err != nil {
		log.Fatal(err)
	}

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the settings for a subcommand, letting its flags override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	return config.Load(configFile, cmd.Flags())
}

func cmdStats() *cobra.Command {
	dataPath := config.DefaultDataPath
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dataPath, "data-path", dataPath, "path to the JSONL dataset")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "stats",
		Short:        "print dataset statistics",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			loader, err := store.NewLoader(cfg.DataPath)
			if err != nil {
				return err
			}
			stats, err := query.New(loader).Stats(cmd.Context())
			if err != nil {
				return err
			}
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				ls := loader.Stats()
				log.Printf("store: %d lines, %d kept, %d skipped, %d blank in %v\n", ls.Lines, ls.Kept, ls.Skipped, ls.Blank, ls.Elapsed)
			}
			return printJSON(stats)
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdSearch() *cobra.Command {
	dataPath := config.DefaultDataPath
	var q string
	var stepID int
	var minFPS, maxFPS, minBleeding, maxBleeding float64
	limit, offset := query.DefaultSearchLimit, 0
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dataPath, "data-path", dataPath, "path to the JSONL dataset")
		cmd.Flags().StringVarP(&q, "q", "q", q, "case-insensitive substring")
		cmd.Flags().IntVar(&stepID, "step-id", stepID, "exact step id")
		cmd.Flags().Float64Var(&minFPS, "min-fps", minFPS, "minimum frame rate")
		cmd.Flags().Float64Var(&maxFPS, "max-fps", maxFPS, "maximum frame rate")
		cmd.Flags().Float64Var(&minBleeding, "min-bleeding", minBleeding, "minimum bleeding score")
		cmd.Flags().Float64Var(&maxBleeding, "max-bleeding", maxBleeding, "maximum bleeding score")
		cmd.Flags().IntVar(&limit, "limit", limit, "maximum number of records")
		cmd.Flags().IntVar(&offset, "offset", offset, "records to skip")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "search",
		Short:        "filter records and print them as JSON",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			loader, err := store.NewLoader(cfg.DataPath)
			if err != nil {
				return err
			}

			f := query.Filters{Q: q}
			if cmd.Flags().Changed("step-id") {
				f.StepID = &stepID
			}
			for name, dst := range map[string]**float64{
				"min-fps":      &f.MinFPS,
				"max-fps":      &f.MaxFPS,
				"min-bleeding": &f.MinBleeding,
				"max-bleeding": &f.MaxBleeding,
			} {
				if cmd.Flags().Changed(name) {
					v, _ := cmd.Flags().GetFloat64(name)
					*dst = &v
				}
			}

			records, err := query.New(loader).Search(cmd.Context(), f, limit, offset)
			if err != nil {
				return err
			}
			return printJSON(records)
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdExport() *cobra.Command {
	dataPath := config.DefaultDataPath
	var dbPath string
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dataPath, "data-path", dataPath, "path to the JSONL dataset")
		cmd.Flags().StringVar(&dbPath, "db", dbPath, "SQLite file to create")
		return cmd.MarkFlagRequired("db")
	}
	var cmd = &cobra.Command{
		Use:          "export",
		Short:        "write the dataset to a new SQLite file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			loader, err := store.NewLoader(cfg.DataPath)
			if err != nil {
				return err
			}
			records, err := loader.Load(ctx)
			if err != nil {
				return err
			}

			started := time.Now()
			snap, err := sqlite.Create(ctx, dbPath)
			if err != nil {
				return err
			}
			defer snap.Close()
			if err := snap.Write(ctx, cfg.DataPath, records); err != nil {
				return err
			}
			tables, err := snap.TableStats(ctx)
			if err != nil {
				return err
			}
			log.Printf("export: %s: %d records, %d meta rows in %v\n", dbPath, tables["records"], tables["meta"], time.Since(started))
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdHashKey() *cobra.Command {
	cost := auth.DefaultCost
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().IntVar(&cost, "cost", cost, "bcrypt cost")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "hash-key [key]",
		Short:        "print a bcrypt hash for ARES_API_KEY_HASH",
		Long:         `Hash the given API key. With no key, a random key is generated and printed first.`,
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				var err error
				if key, err = auth.GenerateKey(); err != nil {
					return err
				}
				fmt.Printf("key:  %s\n", key)
			}
			hash, err := auth.HashKeyWithCost(key, cost)
			if err != nil {
				return err
			}
			fmt.Printf("hash: %s\n", hash)
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Println(aresmem.Version().String())
				return nil
			}
			fmt.Println(aresmem.Version().Core())
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
