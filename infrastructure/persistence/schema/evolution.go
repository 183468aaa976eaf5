// Package schema upgrades stored snapshot documents across schema versions.
// Snapshots are long-lived exports; a document written by an older build
// must still load after the snapshot shape changes.
package schema

import (
	"fmt"
	"sort"
	"time"
)

// Document is a snapshot decoded to a generic map, the form migrations
// operate on
type Document map[string]interface{}

// MigrationFunc transforms a document from one schema version to the next
type MigrationFunc func(doc Document) (Document, error)

// Migration is one step of the upgrade path
type Migration struct {
	FromVersion int
	ToVersion   int
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// AppliedMigration records one executed step
type AppliedMigration struct {
	FromVersion int       `json:"from_version"`
	ToVersion   int       `json:"to_version"`
	Description string    `json:"description"`
	AppliedAt   time.Time `json:"applied_at"`
}

// Evolution holds the registered migrations and walks documents to the
// current version
type Evolution struct {
	currentVersion int
	migrations     []Migration
	history        []AppliedMigration
}

// NewEvolution creates a manager targeting the given current version
func NewEvolution(currentVersion int) *Evolution {
	return &Evolution{currentVersion: currentVersion}
}

// CurrentVersion returns the version documents are upgraded to
func (e *Evolution) CurrentVersion() int {
	return e.currentVersion
}

// Register adds a migration step. Steps must move forward one version at a
// time and may not overlap.
func (e *Evolution) Register(migration Migration) error {
	if migration.ToVersion != migration.FromVersion+1 {
		return fmt.Errorf("migration must advance exactly one version, got %d -> %d",
			migration.FromVersion, migration.ToVersion)
	}
	if migration.Up == nil {
		return fmt.Errorf("migration %d -> %d has no up function", migration.FromVersion, migration.ToVersion)
	}
	for _, existing := range e.migrations {
		if existing.FromVersion == migration.FromVersion {
			return fmt.Errorf("migration from version %d already registered", migration.FromVersion)
		}
	}

	e.migrations = append(e.migrations, migration)
	sort.Slice(e.migrations, func(i, j int) bool {
		return e.migrations[i].FromVersion < e.migrations[j].FromVersion
	})
	return nil
}

// Upgrade walks a document from its version to the current one. A document
// already current is returned unchanged; a version ahead of the current
// build is rejected.
func (e *Evolution) Upgrade(doc Document, fromVersion int) (Document, error) {
	if fromVersion == e.currentVersion {
		return doc, nil
	}
	if fromVersion > e.currentVersion {
		return nil, fmt.Errorf("document version %d is newer than supported version %d",
			fromVersion, e.currentVersion)
	}

	version := fromVersion
	for version < e.currentVersion {
		migration, ok := e.migrationFrom(version)
		if !ok {
			return nil, fmt.Errorf("no migration registered from version %d", version)
		}

		upgraded, err := migration.Up(doc)
		if err != nil {
			return nil, fmt.Errorf("migration %d -> %d failed: %w",
				migration.FromVersion, migration.ToVersion, err)
		}

		doc = upgraded
		version = migration.ToVersion
		e.history = append(e.history, AppliedMigration{
			FromVersion: migration.FromVersion,
			ToVersion:   migration.ToVersion,
			Description: migration.Description,
			AppliedAt:   time.Now(),
		})
	}
	return doc, nil
}

// History returns the executed steps in order
func (e *Evolution) History() []AppliedMigration {
	out := make([]AppliedMigration, len(e.history))
	copy(out, e.history)
	return out
}

func (e *Evolution) migrationFrom(version int) (Migration, bool) {
	for _, migration := range e.migrations {
		if migration.FromVersion == version {
			return migration, true
		}
	}
	return Migration{}, false
}
