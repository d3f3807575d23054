package ark

import (
	"strconv"
	"strings"

	"arkeep/internal/model"
)

// commentDelimiter separates metadata fields inside an archive comment.
// Three characters so it cannot collide with a single "|" in a file path.
const commentDelimiter = "|||"

// EncodeComment serializes archive metadata into the store's free-text
// comment field. Field order is fixed:
//
//	source_path|||size|||content_hash|||source_dir
//
// This is the one wire format this core owns; DecodeComment must keep
// accepting every generation of it.
func EncodeComment(m model.ArchiveMetadata) string {
	size := ""
	if m.Size != nil {
		size = strconv.FormatInt(*m.Size, 10)
	}
	return strings.Join([]string{m.SourcePath, size, m.ContentHash, m.SourceDir}, commentDelimiter)
}

// DecodeComment parses an archive comment written by any generation of the
// writer. There is no version tag; the format is dispatched on field count:
//
//	1 part:  path                          (oldest)
//	2 parts: path|||hash
//	3 parts: path|||size|||hash
//	4 parts: path|||size|||hash|||source_dir (current)
//
// Any other part count — and any size field that does not parse — falls back
// to treating the whole string as a bare path. Decoding never fails, so a
// repository mixing writer generations always makes forward progress.
// Unset fields stay unset rather than defaulting to misleading zero values.
func DecodeComment(s string) model.ArchiveMetadata {
	if s == "" {
		return model.ArchiveMetadata{}
	}

	parts := strings.Split(s, commentDelimiter)
	switch len(parts) {
	case 1:
		return model.ArchiveMetadata{SourcePath: parts[0]}
	case 2:
		return model.ArchiveMetadata{SourcePath: parts[0], ContentHash: parts[1]}
	case 3:
		size, ok := parseSize(parts[1])
		if !ok {
			return model.ArchiveMetadata{SourcePath: s}
		}
		return model.ArchiveMetadata{SourcePath: parts[0], Size: size, ContentHash: parts[2]}
	case 4:
		size, ok := parseSize(parts[1])
		if !ok {
			return model.ArchiveMetadata{SourcePath: s}
		}
		return model.ArchiveMetadata{
			SourcePath:  parts[0],
			Size:        size,
			ContentHash: parts[2],
			SourceDir:   parts[3],
		}
	default:
		return model.ArchiveMetadata{SourcePath: s}
	}
}

// parseSize parses the optional size field. An empty field is valid and
// stays unset; trailing empty fields may be omitted by older writers.
func parseSize(s string) (*int64, bool) {
	if s == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return nil, false
	}
	return &n, true
}
