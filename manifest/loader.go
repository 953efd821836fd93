package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/scheduler"
)

// Extensions are tried in order when a document is looked up by name.
var Extensions = []string{".yaml", ".yml", ".hcl"}

// FileLoader finds graph documents in a list of directories.
type FileLoader struct {
	// Dirs are searched in order. An empty list means the working directory.
	Dirs []string
	// Vars override HCL variable defaults.
	Vars map[string]cty.Value
}

// NewFileLoader creates a loader searching dirs.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{Dirs: dirs}
}

// Resolve returns the path of the document called name. A name that
// already points at an existing file is returned unchanged.
func (l *FileLoader) Resolve(name string) (string, error) {
	if isFile(name) {
		return name, nil
	}
	dirs := l.Dirs
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	hasExt := filepath.Ext(name) != ""
	for _, dir := range dirs {
		if hasExt {
			if p := filepath.Join(dir, name); isFile(p) {
				return p, nil
			}
			continue
		}
		for _, ext := range Extensions {
			if p := filepath.Join(dir, name+ext); isFile(p) {
				return p, nil
			}
		}
	}
	return "", errors.NotFound("graph document", name)
}

// Load resolves name and decodes the document according to its extension.
func (l *FileLoader) Load(name string) (*graph.Graph, error) {
	path, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}
	doc, err := l.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("graph document loaded", logger.Fields(
		"path", path,
		"nodes", len(doc.Graph.Nodes),
		"edges", len(doc.Graph.Edges),
	))
	return Build(doc)
}

// LoadDocument reads the document at path without building the graph.
func (l *FileLoader) LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NotFound("graph document", path).WithCause(err)
	}
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return DecodeHCLDocument(data, path, l.Vars)
	}
	return DecodeDocument(data)
}

// LoadConfig reads a scheduling configuration document.
func LoadConfig(path string) (scheduler.Config, error) {
	return LoadConfigOver(path, scheduler.DefaultConfig())
}

// LoadConfigOver reads a scheduling configuration document and applies it
// over base.
func LoadConfigOver(path string, base scheduler.Config) (scheduler.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, errors.NotFound("configuration document", path).WithCause(err)
	}
	return DecodeConfigOver(data, base)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
