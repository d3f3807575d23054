package ark

import (
	"fmt"

	"arkeep/internal/model"
)

// PruneResult reports what a prune run did. Errors holds per-archive delete
// failures; the run itself still counts as finished when Errors is non-empty.
type PruneResult struct {
	Deleted int
	Kept    int
	Errors  []error
}

// Pruner orchestrates grouping and retention evaluation across all groups
// and deletes the union of the per-group delete sets through the store.
type Pruner struct {
	store  ArchiveStore
	clock  Clock
	logger Logger
}

func NewPruner(store ArchiveStore, clock Clock, logger Logger) *Pruner {
	return &Pruner{store: store, clock: clock, logger: logger}
}

// Prune evaluates the policy over all records and deletes what no rule
// keeps. In metadata mode without a files-modified-within rule the whole
// repository is evaluated as a single ungrouped set, matching the behavior
// of repositories written before per-directory grouping existed; otherwise
// records are grouped by source directory and each group is evaluated
// independently.
//
// Individual delete failures are collected and do not abort the remaining
// deletions. When dryRun is set nothing is deleted; the result reports what
// would have been.
func (p *Pruner) Prune(records []model.ArchiveRecord, policy model.RetentionPolicy, mode model.BackupMode, dryRun bool) (PruneResult, error) {
	if !policy.Enabled() {
		return PruneResult{}, fmt.Errorf("pruning: %w", ErrEmptyRetentionPolicy)
	}

	groups := make(map[GroupKey][]model.ArchiveRecord)
	if mode == model.ModeMetadata && policy.KeepFilesModifiedWithin == "" {
		groups[GroupKey{}] = records
	} else {
		groups = GroupBySourceDir(records)
	}

	now := p.clock.Now()
	var result PruneResult
	var deletes []model.ArchiveRecord

	for key, group := range groups {
		verdict, err := Evaluate(group, policy, now, p.store, p.logger)
		if err != nil {
			return PruneResult{}, fmt.Errorf("evaluating group %s: %w", key, err)
		}
		p.logger.Debug("group evaluated", "group", key.String(),
			"keep", len(verdict.Keep), "delete", len(verdict.Delete))
		result.Kept += len(verdict.Keep)
		deletes = append(deletes, verdict.Delete...)
	}

	for _, rec := range deletes {
		if dryRun {
			p.logger.Info("would delete archive", "archive", rec.Name)
			result.Deleted++
			continue
		}
		if err := p.store.Delete(rec.Name); err != nil {
			p.logger.Error("deleting archive failed", "archive", rec.Name, "error", err)
			result.Errors = append(result.Errors, fmt.Errorf("deleting %s: %w", rec.Name, err))
			continue
		}
		p.logger.Info("archive deleted", "archive", rec.Name)
		result.Deleted++
	}

	return result, nil
}
