// Package scaffold turns raw up and down operations into the migration files
// of a plugin.
package scaffold

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"plugin-migrate/internal/codegen"
	"plugin-migrate/internal/filter"
	"plugin-migrate/internal/operation"
	"plugin-migrate/internal/schema"
)

var logger = loggo.GetLogger("plugin-migrate.scaffold")

const (
	// IDLayout is the timestamp prefix of migration ids, yyyyMMddHHmmss.
	IDLayout = "20060102150405"

	fileExtension     = ".cs"
	designerExtension = ".Designer.cs"

	// SnapshotFile holds the model a plugin's latest migration was built against.
	SnapshotFile = "ModelSnapshot.yaml"
)

// Request is everything needed to scaffold one migration.
type Request struct {
	Namespace string
	Name      string
	// ID overrides the clock-derived migration id.
	ID string
	// ContextType is the fully qualified data context; defaults to Model.Context.
	ContextType string

	Up   []operation.Operation
	Down []operation.Operation
	// Exclusions are table names whose operations are stripped from both lists.
	Exclusions set.Strings
	// Model is the target model recorded in the designer file.
	Model *schema.Model
}

// Migration is a scaffolded migration ready to be written.
type Migration struct {
	ID       string
	Name     string
	Source   string
	Metadata string

	// Up and Down are the operations left after exclusion.
	Up   []operation.Operation
	Down []operation.Operation
}

// Empty reports whether exclusion left nothing to migrate.
func (m *Migration) Empty() bool {
	return len(m.Up) == 0 && len(m.Down) == 0
}

type Scaffolder struct {
	generator *codegen.Generator
	clock     clock.Clock
}

func New(g *codegen.Generator, clk clock.Clock) *Scaffolder {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Scaffolder{generator: g, clock: clk}
}

// Scaffold filters the request's operations and generates both documents.
func (s *Scaffolder) Scaffold(req Request) (*Migration, error) {
	if err := codegen.ValidateIdentifier(req.Name); err != nil {
		return nil, errors.Annotate(err, "migration name")
	}

	id := req.ID
	if id == "" {
		id = s.clock.Now().UTC().Format(IDLayout) + "_" + req.Name
	}

	up := filter.Filter(req.Up, req.Exclusions)
	down := filter.Filter(req.Down, req.Exclusions)
	logger.Debugf("migration %s: %d/%d up and %d/%d down operations after exclusion",
		id, len(up), len(req.Up), len(down), len(req.Down))

	source, err := s.generator.GenerateMigration(req.Namespace, req.Name, up, down)
	if err != nil {
		return nil, errors.Annotatef(err, "generating migration %s", id)
	}
	metadata, err := s.generator.GenerateMetadata(req.Namespace, req.ContextType, req.Name, id, req.Model)
	if err != nil {
		return nil, errors.Annotatef(err, "generating metadata of %s", id)
	}

	return &Migration{
		ID:       id,
		Name:     req.Name,
		Source:   source,
		Metadata: metadata,
		Up:       up,
		Down:     down,
	}, nil
}

// Files returns the file names of the migration.
func (m *Migration) Files() (source, metadata string) {
	return m.ID + fileExtension, m.ID + designerExtension
}

// Save writes the migration into dir and returns the written paths. Existing
// files are never overwritten; when a file cannot be written, the ones
// already written are removed again.
func (m *Migration) Save(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Trace(err)
	}
	sourceName, metadataName := m.Files()
	files := []struct{ name, content string }{
		{sourceName, m.Source},
		{metadataName, m.Metadata},
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeNew(path, f.content); err != nil {
			for _, w := range written {
				if rmErr := os.Remove(w); rmErr != nil {
					logger.Warningf("removing partial migration file %s: %v", w, rmErr)
				}
			}
			return nil, errors.Trace(err)
		}
		written = append(written, path)
	}
	logger.Infof("wrote migration %s to %s", m.ID, dir)
	return written, nil
}

func writeNew(path, content string) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return errors.AlreadyExistsf("migration file %s", path)
	}
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := out.WriteString(content); err != nil {
		out.Close()
		return errors.Trace(err)
	}
	return errors.Trace(out.Close())
}

// Existing lists the ids of the migrations in dir, oldest first. A missing
// directory has none.
func Existing(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExtension) || strings.HasSuffix(name, designerExtension) {
			continue
		}
		id := strings.TrimSuffix(name, fileExtension)
		if i := strings.Index(id, "_"); i == len(IDLayout) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// FindExisting returns an AlreadyExists error when dir holds a migration
// with the given name.
func FindExisting(dir, name string) error {
	ids, err := Existing(dir)
	if err != nil {
		return errors.Trace(err)
	}
	for _, id := range ids {
		if id[len(IDLayout)+1:] == name {
			return errors.AlreadyExistsf("migration named %q (%s), please use another migration name", name, id)
		}
	}
	return nil
}
