package ark

import (
	"fmt"

	"arkeep/internal/model"
)

// Service is the orchestration layer that coordinates fingerprinting,
// archive creation and pruning for the CLI.
type Service struct {
	store   ArchiveStore
	fsmgr   FilesystemManager
	logger  Logger
	clock   Clock
	fp      *Fingerprinter
	pruner  *Pruner
	mode    model.BackupMode
	sources []string
}

// NewService creates a Service. label prefixes archive names; sources are
// the configured source directories; paranoid enables content-hash
// verification during dedup.
func NewService(store ArchiveStore, fsmgr FilesystemManager, logger Logger, clock Clock, label string, paranoid bool, mode model.BackupMode, sources []string) *Service {
	return &Service{
		store:   store,
		fsmgr:   fsmgr,
		logger:  logger,
		clock:   clock,
		fp:      NewFingerprinter(store, clock, logger, label, paranoid),
		pruner:  NewPruner(store, clock, logger),
		mode:    mode,
		sources: sources,
	}
}

// BackupResult reports what a backup run did. Errors holds per-file
// failures; they do not abort the remaining files.
type BackupResult struct {
	Created int
	Skipped int
	Errors  []error
}

// LoadRecords reads every archive's name, timestamp and decoded metadata
// from the store. A listing failure is fatal; an unreadable comment on an
// individual archive is not — the record is kept with empty metadata, which
// downstream code treats as legacy (cannot verify, never silently trusted).
func (s *Service) LoadRecords() ([]model.ArchiveRecord, error) {
	named, err := s.store.ListNamesWithTimes()
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}

	records := make([]model.ArchiveRecord, 0, len(named))
	for _, nt := range named {
		rec := model.ArchiveRecord{Name: nt.Name, CreatedAt: nt.CreatedAt}
		comment, err := s.store.ReadComment(nt.Name)
		if err != nil {
			s.logger.Warn("cannot read archive comment", "archive", nt.Name, "error", err)
		} else {
			rec.Metadata = DecodeComment(comment)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Backup walks every configured source directory, decides per file whether
// an archive is needed, and creates one where it is. Per-file failures are
// collected and the run continues.
func (s *Service) Backup() (BackupResult, error) {
	records, err := s.LoadRecords()
	if err != nil {
		return BackupResult{}, err
	}

	var result BackupResult
	for _, dir := range s.sources {
		p, err := s.fsmgr.Resolve(dir)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("resolving source %s: %w", dir, err))
			continue
		}
		if !p.IsDir() {
			result.Errors = append(result.Errors, fmt.Errorf("source is not a directory: %s", dir))
			continue
		}

		files, err := s.fsmgr.FindFiles(p, true)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("walking source %s: %w", dir, err))
			continue
		}

		for _, f := range files {
			created, err := s.backupFile(f, p.String(), &records)
			if err != nil {
				s.logger.Error("backing up file failed", "path", f.String(), "error", err)
				result.Errors = append(result.Errors, err)
				continue
			}
			if created {
				result.Created++
			} else {
				result.Skipped++
			}
		}
	}

	s.logger.Info("backup complete",
		"created", result.Created, "skipped", result.Skipped, "failed", len(result.Errors))
	return result, nil
}

// backupFile decides and, if needed, creates the archive for one file.
// Newly created records are appended to records so later decisions in the
// same run see them. Returns true when an archive was created.
func (s *Service) backupFile(f *Path, sourceDir string, records *[]model.ArchiveRecord) (bool, error) {
	info := f.Info()
	cand := model.FileCandidate{
		Path:      f.String(),
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		SourceDir: sourceDir,
	}
	if s.fp.paranoid {
		hash, err := s.fsmgr.HashFile(f)
		if err != nil {
			return false, fmt.Errorf("hashing %s: %w", f.String(), err)
		}
		cand.ContentHash = hash
	}

	decision, err := s.fp.Decide(cand, *records)
	if err != nil {
		return false, fmt.Errorf("deciding %s: %w", f.String(), err)
	}
	if decision.Action == Skip {
		s.logger.Debug("file unchanged, skipping", "path", cand.Path)
		return false, nil
	}

	size := cand.Size
	meta := model.ArchiveMetadata{
		SourcePath:  cand.Path,
		Size:        &size,
		ContentHash: cand.ContentHash,
		SourceDir:   cand.SourceDir,
	}
	if err := s.store.Create(cand.Path, decision.Name, EncodeComment(meta)); err != nil {
		return false, fmt.Errorf("creating archive %s: %w", decision.Name, err)
	}

	*records = append(*records, model.ArchiveRecord{
		Name:      decision.Name,
		CreatedAt: s.clock.Now(),
		Metadata:  meta,
	})
	s.logger.Info("archive created",
		"archive", decision.Name, "path", cand.Path, "action", decision.Action.String())
	return true, nil
}

// Prune loads all records and applies the retention policy.
func (s *Service) Prune(policy model.RetentionPolicy, dryRun bool) (PruneResult, error) {
	records, err := s.LoadRecords()
	if err != nil {
		return PruneResult{}, err
	}
	return s.pruner.Prune(records, policy, s.mode, dryRun)
}

// ListArchives returns all archive records with decoded metadata,
// in creation order.
func (s *Service) ListArchives() ([]model.ArchiveRecord, error) {
	return s.LoadRecords()
}

// Check validates that the archive store is reachable and usable.
func (s *Service) Check() error {
	if err := s.store.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
