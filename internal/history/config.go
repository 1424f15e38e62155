package history

import (
	"path/filepath"

	"codeberg.org/mutker/cpapflow/internal/errors"
)

const (
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/cpapflow/history.db"
	backupDirName  = "backups"
)

type Config struct {
	DBPath    string
	BackupDir string // defaults to "backups" next to the database
	Enabled   bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:  defaultDBPath,
		Enabled: false,
	}
}

func (c Config) Validate() error {
	if c.Enabled && c.DBPath == "" {
		return errors.New().New(ErrInvalidDBPath)
	}
	return nil
}

func (c Config) backupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(c.DBPath), backupDirName)
}
