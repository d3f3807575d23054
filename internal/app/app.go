package app

import (
	"fmt"
	"log/slog"
	"os"

	"arkeep/internal/ark"
	"arkeep/internal/config"
	"arkeep/internal/fs"
	"arkeep/internal/journal"
	"arkeep/internal/model"
	"arkeep/internal/secret"
	"arkeep/internal/store"
)

// App is the application layer between the CLI and the archive service.
// It constructs all dependencies from config, exposes high-level operations,
// records runs in the journal, and manages resource lifecycle on Close.
type App struct {
	cfg     *config.Config
	store   ark.ArchiveStore
	journal journal.Journal
	service *ark.Service
	clock   ark.Clock
	idgen   ark.IDGenerator
	logger  *slog.Logger
	logFile *os.File
}

// NewApp creates a fully wired App from the given config. prompt is used to
// unlock an age-encrypted passphrase file, if one is configured.
// The caller must call Close when done.
func NewApp(cfg *config.Config, prompt secret.PromptFunc) (*App, error) {
	fsmgr := fs.NewOSFilesystemManager()
	clock := ark.RealClock{}
	idgen := ark.UUIDGenerator{}

	passphrase, err := secret.LoadPassphrase(cfg.Store.PassphraseFile, prompt)
	if err != nil {
		return nil, fmt.Errorf("loading store passphrase: %w", err)
	}

	st, err := store.NewStoreFromConfig(cfg.Store, passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating archive store: %w", err)
	}

	jrnl, err := journal.NewJournalFromConfig(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("creating journal: %w", err)
	}

	runID := idgen.New()
	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		jrnl.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := ark.NewService(st, fsmgr, &slogAdapter{l: logger}, clock,
		cfg.Label, cfg.Paranoid, cfg.BackupMode(), cfg.Sources)

	return &App{
		cfg:     cfg,
		store:   st,
		journal: jrnl,
		service: svc,
		clock:   clock,
		idgen:   idgen,
		logger:  logger,
		logFile: logFile,
	}, nil
}

// Backup runs a backup over all configured sources and records the run.
func (a *App) Backup() (ark.BackupResult, error) {
	var result ark.BackupResult
	err := a.recordRun("backup", func() error {
		var err error
		result, err = a.service.Backup()
		return err
	}, func() journal.Counts {
		return journal.Counts{
			Created:  result.Created,
			Skipped:  result.Skipped,
			Failures: len(result.Errors),
		}
	})
	return result, err
}

// Prune applies the configured retention policy and records the run.
// The policy must have at least one rule enabled.
func (a *App) Prune(dryRun bool) (ark.PruneResult, error) {
	policy := a.cfg.Retention.Policy()
	if !policy.Enabled() {
		return ark.PruneResult{}, fmt.Errorf("refusing to prune: %w", ark.ErrEmptyRetentionPolicy)
	}

	var result ark.PruneResult
	err := a.recordRun("prune", func() error {
		var err error
		result, err = a.service.Prune(policy, dryRun)
		return err
	}, func() journal.Counts {
		return journal.Counts{Deleted: result.Deleted, Failures: len(result.Errors)}
	})
	return result, err
}

// recordRun brackets op with journal start/finish records. Journal failures
// never mask the operation's own outcome.
func (a *App) recordRun(operation string, op func() error, counts func() journal.Counts) error {
	runID := a.idgen.New()
	if err := a.journal.StartRun(runID, operation, a.clock.Now()); err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}

	opErr := op()

	status := "success"
	if opErr != nil {
		status = "error"
	}
	if err := a.journal.FinishRun(runID, status, counts(), a.clock.Now()); err != nil && opErr == nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return opErr
}

// ListArchives returns all archive records with decoded metadata.
func (a *App) ListArchives() ([]model.ArchiveRecord, error) {
	return a.service.ListArchives()
}

// History returns the most recent recorded runs, newest first.
func (a *App) History(limit int) ([]*journal.Run, error) {
	return a.journal.ListRuns(limit)
}

// Check validates that the archive store is reachable.
func (a *App) Check() error {
	return a.service.Check()
}

// Close closes the journal and log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.journal.Close(); err != nil {
		firstErr = fmt.Errorf("closing journal: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
