package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arkeep/internal/app"
	"arkeep/internal/config"
	"arkeep/internal/secret"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
func newApp() (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, termPrompt)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// termPrompt reads a passphrase from the terminal without echo.
func termPrompt(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}

var rootCmd = &cobra.Command{
	Use:   "arkeep",
	Short: "Per-file archive lifecycle manager",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init LABEL",
	Short: "Initialize configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(args[0], defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Label:    %s\n", cfg.Label)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Label:    %s\n", cfg.Label)
		fmt.Printf("Mode:     %s\n", cfg.BackupMode())
		fmt.Printf("Paranoid: %v\n", cfg.Paranoid)
		fmt.Printf("Store:    %s\n", cfg.Store.Type)
		for _, src := range cfg.Sources {
			fmt.Printf("Source:   %s\n", src)
		}
		return nil
	},
}

var configPassphraseCmd = &cobra.Command{
	Use:   "passphrase PATH",
	Short: "Write the store passphrase file (age-encrypted if PATH ends in .age)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		passphrase, err := termPrompt("Store passphrase: ")
		if err != nil {
			return err
		}

		unlock := ""
		if len(path) > 4 && path[len(path)-4:] == ".age" {
			unlock, err = termPrompt("Unlock passphrase for the encrypted file: ")
			if err != nil {
				return err
			}
		}

		if err := secret.SavePassphrase(path, passphrase, unlock); err != nil {
			return fmt.Errorf("saving passphrase: %w", err)
		}
		fmt.Printf("Passphrase written to %s\n", path)
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Archive new and changed files from all sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Backup()
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		fmt.Printf("Created %d archive(s), skipped %d unchanged file(s)\n",
			result.Created, result.Skipped)
		if len(result.Errors) > 0 {
			fmt.Printf("%d file(s) failed:\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %v\n", e)
			}
			return fmt.Errorf("%d file(s) failed", len(result.Errors))
		}
		return nil
	},
}

// prune command
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete archives the retention policy no longer keeps",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Prune(dryRun)
		if err != nil {
			return fmt.Errorf("prune failed: %w", err)
		}

		verb := "Deleted"
		if dryRun {
			verb = "Would delete"
		}
		fmt.Printf("%s %d archive(s), kept %d\n", verb, result.Deleted, result.Kept)
		if len(result.Errors) > 0 {
			fmt.Printf("%d deletion(s) failed:\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %v\n", e)
			}
			return fmt.Errorf("%d deletion(s) failed", len(result.Errors))
		}
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archives with their metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.ListArchives()
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No archives.")
			return nil
		}

		for _, rec := range records {
			size := "-"
			if rec.Metadata.Size != nil {
				size = humanize.Bytes(uint64(*rec.Metadata.Size))
			}
			path := rec.Metadata.SourcePath
			if path == "" {
				path = "(no metadata)"
			}
			fmt.Printf("%s  %s  %8s  %s\n",
				rec.CreatedAt.Format("2006-01-02 15:04:05"),
				rec.Name,
				size,
				path,
			)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded backup and prune runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt.Valid {
				duration = r.FinishedAt.Time.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("%-8s  %s  %-8s  created=%d skipped=%d deleted=%d failed=%d  %s\n",
				r.Operation,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				r.Created, r.Skipped, r.Deleted, r.Failures,
				duration,
			)
		}
		return nil
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the archive store is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Check(); err != nil {
			return err
		}
		fmt.Println("Archive store OK.")
		return nil
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Back up automatically when source files change",
	RunE: func(cmd *cobra.Command, args []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.Watch(ctx, debounce); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPassphraseCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().Bool("dry-run", false, "Report what would be deleted without deleting")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("debounce", 2*time.Second, "Quiet period before a watch-triggered backup")
}
