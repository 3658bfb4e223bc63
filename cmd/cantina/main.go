package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cantina/internal/api"
	"cantina/internal/config"
	"cantina/internal/extract"
	"cantina/internal/fetch"
	"cantina/internal/importer"
	"cantina/internal/merge"
	"cantina/internal/session"
	"cantina/internal/store/all"
)

const version = "0.3.0"

var (
	configPath string
	userID     string
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("cantina ")

	rootCmd := &cobra.Command{
		Use:   "cantina",
		Short: "Wine-list ingestion and inventory reconciliation",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "local", "inventory owner id for CLI operations")

	rootCmd.AddCommand(importTextCmd())
	rootCmd.AddCommand(importSheetCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		log.Print(iss.Error())
	}
	if config.Blocking(issues) {
		return config.Config{}, fmt.Errorf("invalid config %s", configPath)
	}
	return cfg, nil
}

// buildImporter assembles the pipeline for one command invocation. The
// CLI has no identity provider; it runs as a fixed local user with a
// long-lived session.
func buildImporter(cmd *cobra.Command, cfg config.Config) (*importer.Importer, func(), error) {
	st, closeStore, err := all.Open(cmd.Context(), cfg.Store.StoreConfig())
	if err != nil {
		return nil, nil, err
	}

	sessions := session.NewManager(nil)
	sessions.Set(session.Session{UserID: userID, ExpiresAt: time.Now().Add(24 * time.Hour)})

	knowledge := extract.DefaultKnowledge()
	if cfg.KnowledgePath != "" {
		knowledge, err = extract.LoadKnowledge(cfg.KnowledgePath)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
	}

	fetcher := fetch.NewClient(fetch.Config{
		Timeout:        cfg.Fetch.Timeout.Std(),
		MaxRetries:     cfg.Fetch.MaxRetries,
		InitialBackoff: cfg.Fetch.InitialBackoff.Std(),
		MaxBackoff:     cfg.Fetch.MaxBackoff.Std(),
	})

	return importer.New(sessions, st, fetcher, extract.New(knowledge)), closeStore, nil
}

func importTextCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "import-text [file]",
		Short: "Analyze a pasted wine list and print the extracted candidates",
		Long: "Reads a free-text wine list from a file (or stdin when no file is\n" +
			"given), cleans it, extracts name, vintage, producer and provenance\n" +
			"per line, and prints the candidate records as JSON. Nothing is\n" +
			"persisted; confirmation happens through the web UI.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var text []byte
			if len(args) == 1 {
				text, err = os.ReadFile(args[0])
			} else {
				text, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			im, closeFn, err := buildImporter(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			batch, fl, err := im.AnalyzeText(cmd.Context(), string(text), category)
			if err != nil {
				return err
			}
			fl.Cancel()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(batch.Candidates)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category label for every record (e.g. ROSSI)")
	return cmd
}

func importSheetCmd() *cobra.Command {
	var (
		category        string
		mode            string
		ackReplace      string
		ackIrreversible string
	)

	cmd := &cobra.Command{
		Use:   "import-sheet <url-or-file>",
		Short: "Import a spreadsheet export directly into the inventory",
		Long: "Imports a Google Sheets link, a CSV URL, or a local .csv/.xlsx\n" +
			"file without per-record confirmation. Append mode merges into the\n" +
			"existing inventory preserving stock counts; replace mode deletes\n" +
			"the category first and requires both acknowledgement phrases.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			im, closeFn, err := buildImporter(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			confirm := merge.Confirmation{Replace: ackReplace, Irreversible: ackIrreversible}

			var report *importer.Report
			src := args[0]
			if f, statErr := os.Stat(src); statErr == nil && !f.IsDir() {
				file, err := os.Open(src)
				if err != nil {
					return err
				}
				defer file.Close()
				report, err = im.ImportCSV(cmd.Context(), file, src, category, importer.Mode(mode), confirm)
				if err != nil {
					return err
				}
			} else {
				report, err = im.ImportSheet(cmd.Context(), src, category, importer.Mode(mode), confirm)
				if err != nil {
					return err
				}
			}

			for _, r := range report.Results {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-40s stock=%d\n", r.Action, r.Name, r.Stock)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records merged, %d rows skipped\n",
				len(report.Results), report.SkippedRows)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category label of the imported list (e.g. ROSSI)")
	cmd.Flags().StringVar(&mode, "mode", "append", "append or replace")
	cmd.Flags().StringVar(&ackReplace, "ack-replace", "", "first replace acknowledgement phrase")
	cmd.Flags().StringVar(&ackIrreversible, "ack-irreversible", "", "second replace acknowledgement phrase")
	cmd.MarkFlagRequired("category")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the import API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			im, closeFn, err := buildImporter(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			return api.New(im, cfg.GridSize).Listen(cfg.Listen)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
