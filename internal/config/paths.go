package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// SubmissionPath returns the expected location of one department's CSV
// export for the current run.
func (c *Config) SubmissionPath(dept domain.Department) string {
	return filepath.Join(c.Paths.SubmissionsDir, c.Pipeline.Submissions[string(dept)])
}

// OutputPath returns the location of the consolidated master CSV.
func (c *Config) OutputPath() string {
	return c.Paths.OutputFile
}

// EnsureDirectories creates every directory the application writes to.
// Called once at startup.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.SubmissionsDir,
		c.Paths.LogsDir,
		filepath.Dir(c.Paths.OutputFile),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}
	return nil
}
