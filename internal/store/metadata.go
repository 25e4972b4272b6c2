package store

import (
	"database/sql"

	"github.com/everesteng/assessor/internal/model"
)

// SetMetadata upserts a key-value pair in the test_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO test_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM test_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetTestInfo stores the active test's title and description as metadata rows.
func (s *Store) SetTestInfo(info model.TestInfo) error {
	if err := s.SetMetadata("test_title", info.Title); err != nil {
		return err
	}
	return s.SetMetadata("test_description", info.Description)
}

// GetTestInfo reads the active test's title and description from metadata.
func (s *Store) GetTestInfo() (model.TestInfo, error) {
	var info model.TestInfo
	var err error
	if info.Title, err = s.GetMetadata("test_title"); err != nil {
		return info, err
	}
	info.Description, err = s.GetMetadata("test_description")
	return info, err
}

// SetAdminPasswordHash stores the bcrypt hash of the shared admin password.
func (s *Store) SetAdminPasswordHash(hash string) error {
	return s.SetMetadata("admin_password_hash", hash)
}

// GetAdminPasswordHash returns the stored admin password hash, empty if unset.
func (s *Store) GetAdminPasswordHash() (string, error) {
	return s.GetMetadata("admin_password_hash")
}

// GetImportedFileHash returns the recorded content hash for a questions file.
// Returns empty string and nil error if the file was never imported.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT sha256 FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records the content hash for an imported questions file.
func (s *Store) SetImportedFileHash(path, hash string) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, sha256) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET sha256 = ?`,
		path, hash, hash,
	)
	return err
}
