package backup

import (
	"time"

	"github.com/dbxbak/dbxbak/internal/types"
	"github.com/dbxbak/dbxbak/internal/utils"
)

// FilterConfig decides which remote entries are worth downloading.
// Zero values mean "no limit": MaxSizeMB 0 disables the size cap and a
// zero Since disables the modification cutoff.
type FilterConfig struct {
	MaxSizeMB int64
	Since     time.Time
}

// MaxSizeBytes converts the configured cap to bytes. Decimal megabytes,
// matching how the flag is documented.
func (c FilterConfig) MaxSizeBytes() int64 {
	return c.MaxSizeMB * utils.MegabyteBytes
}

// ShouldDownload reports whether an entry passes the backup filter.
// Only files qualify; a file is rejected when it is strictly larger than
// the size cap or strictly older than the Since cutoff. Entries exactly
// at either boundary are accepted.
func ShouldDownload(entry types.FileMetadata, cfg FilterConfig) bool {
	if !entry.IsFile {
		return false
	}
	if cfg.MaxSizeMB > 0 && entry.Size > cfg.MaxSizeBytes() {
		return false
	}
	if !cfg.Since.IsZero() && entry.ServerModified.Before(cfg.Since) {
		return false
	}
	return true
}
