package migrate

import (
	"os"
	"path/filepath"

	"github.com/JonMunkholm/DumpMigration/internal/dump"
)

// MediaAudit reports which referenced author images exist on disk.
type MediaAudit struct {
	Checked int
	Found   int
	Missing []string
}

// AuditMedia checks the image files of the first limit authors against
// uploadsDir. Authors without an image are not counted.
func AuditMedia(db *dump.Database, uploadsDir string, limit int) MediaAudit {
	var audit MediaAudit
	t, ok := db.Table("authors")
	if !ok {
		return audit
	}

	rows := t.Rows
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, row := range rows {
		name, ok := present(field(row, authorImage))
		if !ok {
			continue
		}
		audit.Checked++
		if _, err := os.Stat(filepath.Join(uploadsDir, name)); err != nil {
			audit.Missing = append(audit.Missing, name)
			continue
		}
		audit.Found++
	}
	return audit
}
