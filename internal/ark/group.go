package ark

import "arkeep/internal/model"

// GroupKey names one retention group. Archives written before the source
// directory field existed go into the explicit legacy group rather than
// colliding with a group whose source directory happens to be empty.
type GroupKey struct {
	SourceDir string
	Legacy    bool
}

// LegacyGroup is the catch-all key for archives lacking directory metadata.
var LegacyGroup = GroupKey{Legacy: true}

func (k GroupKey) String() string {
	if k.Legacy {
		return "(legacy)"
	}
	return k.SourceDir
}

// GroupBySourceDir partitions archives into independent retention groups
// keyed by source directory. No record is dropped: the counts across groups
// always sum to the input count.
func GroupBySourceDir(records []model.ArchiveRecord) map[GroupKey][]model.ArchiveRecord {
	groups := make(map[GroupKey][]model.ArchiveRecord)
	for _, rec := range records {
		key := LegacyGroup
		if rec.Metadata.SourceDir != "" {
			key = GroupKey{SourceDir: rec.Metadata.SourceDir}
		}
		groups[key] = append(groups[key], rec)
	}
	return groups
}
