package migrations

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	workspaces "github.com/goliatone/go-workspaces"
)

// CoreLabel labels the workspace, role, activity and profile tables shipped
// with this module.
const CoreLabel = "workspaces"

// Source is a labelled migration tree. Root files target postgres and files
// under sqlite/ override them for sqlite.
type Source struct {
	Label string
	FS    fs.FS
}

// File is one up migration resolved for a dialect.
type File struct {
	Source string
	Name   string
	SQL    string
}

var (
	mu      sync.RWMutex
	sources []Source
)

func init() {
	core, err := fs.Sub(workspaces.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return
	}
	Register(CoreLabel, core)
}

// Register adds a migration tree, typically host tables that reference
// workspaces or roles. Registering a label again replaces its tree.
func Register(label string, fsys fs.FS) {
	label = strings.TrimSpace(label)
	if fsys == nil || label == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	for i := range sources {
		if sources[i].Label == label {
			sources[i].FS = fsys
			return
		}
	}
	sources = append(sources, Source{Label: label, FS: fsys})
}

// Sources returns the registered trees in registration order.
func Sources() []Source {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Source, len(sources))
	copy(out, sources)
	return out
}

// Filesystems returns the registered trees without their labels, ready for
// go-persistence-bun RegisterDialectMigrations.
func Filesystems() []fs.FS {
	registered := Sources()
	out := make([]fs.FS, 0, len(registered))
	for _, src := range registered {
		out = append(out, src.FS)
	}
	return out
}

// UpFiles resolves the up migrations of every source for dialect. A sqlite
// override replaces the root file of the same name.
func UpFiles(dialect string) ([]File, error) {
	normalized, err := normalizeDialect(dialect)
	if err != nil {
		return nil, err
	}
	var out []File
	for _, src := range Sources() {
		names, err := upNames(src.FS, normalized)
		if err != nil {
			return nil, fmt.Errorf("migrations: %s: %w", src.Label, err)
		}
		for _, name := range names {
			body, err := fs.ReadFile(src.FS, name)
			if err != nil {
				return nil, fmt.Errorf("migrations: %s: %w", src.Label, err)
			}
			out = append(out, File{Source: src.Label, Name: path.Base(name), SQL: string(body)})
		}
	}
	return out, nil
}

func upNames(fsys fs.FS, dialect string) ([]string, error) {
	root, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}
	chosen := make(map[string]string, len(root))
	for _, name := range root {
		chosen[name] = name
	}
	if dialect == "sqlite" {
		overrides, err := fs.Glob(fsys, "sqlite/*.up.sql")
		if err != nil {
			return nil, err
		}
		for _, name := range overrides {
			chosen[path.Base(name)] = name
		}
	}
	keys := make([]string, 0, len(chosen))
	for key := range chosen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, chosen[key])
	}
	return out, nil
}
