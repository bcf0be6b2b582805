package schema

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ghg-data/inventory.report/internal/fsutil"
)

// IndexEntry maps a subcategory name to the form file describing it.
type IndexEntry struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Index is the top-level document listing every subcategory form.
type Index struct {
	Forms []IndexEntry `yaml:"forms"`
}

// Lookup finds the index entry for a subcategory name.
func (idx *Index) Lookup(name string) (*IndexEntry, bool) {
	for i := range idx.Forms {
		if idx.Forms[i].Name == name {
			return &idx.Forms[i], true
		}
	}
	return nil, false
}

// Load reads, parses and validates a single form document from disk.
func Load(path string) (*FormConfig, error) {
	return LoadFS(fsutil.OSFileSystem{}, path)
}

// LoadFS is Load against an explicit filesystem.
func LoadFS(fsys fsutil.FileSystem, path string) (*FormConfig, error) {
	data, err := fsys.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read form file %s: %w", path, err)
	}
	var cfg FormConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse form file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("form file %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadIndex reads and parses the forms index document.
func LoadIndex(fsys fsutil.FileSystem, path string) (*Index, error) {
	data, err := fsys.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read index file %s: %w", path, err)
	}
	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse index file %s: %w", path, err)
	}
	return &idx, nil
}

// Dir resolves and loads forms relative to a base directory. It loads the
// index once and individual forms on demand, matching the one-load-per-
// session lifecycle of the schema source.
type Dir struct {
	fsys  fsutil.FileSystem
	base  string
	index *Index
	forms map[string]*FormConfig
}

// OpenDir loads the index from dir/index.yaml and prepares lazy form loading.
func OpenDir(dir string) (*Dir, error) {
	return OpenDirFS(fsutil.OSFileSystem{}, dir)
}

// OpenDirFS is OpenDir against an explicit filesystem.
func OpenDirFS(fsys fsutil.FileSystem, dir string) (*Dir, error) {
	idx, err := LoadIndex(fsys, filepath.Join(dir, "index.yaml"))
	if err != nil {
		return nil, err
	}
	return &Dir{fsys: fsys, base: dir, index: idx, forms: make(map[string]*FormConfig)}, nil
}

// Index returns the loaded forms index.
func (d *Dir) Index() *Index { return d.index }

// Form loads (and caches) the validated form config for a subcategory.
func (d *Dir) Form(subcategory string) (*FormConfig, error) {
	if cfg, ok := d.forms[subcategory]; ok {
		return cfg, nil
	}
	entry, ok := d.index.Lookup(subcategory)
	if !ok {
		return nil, fmt.Errorf("no form configured for subcategory %q", subcategory)
	}
	cfg, err := LoadFS(d.fsys, filepath.Join(d.base, entry.Path))
	if err != nil {
		return nil, err
	}
	d.forms[subcategory] = cfg
	return cfg, nil
}

// General loads the cross-subcategory provider form from dir/general.yaml.
func (d *Dir) General() (*FormConfig, error) {
	return LoadFS(d.fsys, filepath.Join(d.base, "general.yaml"))
}
