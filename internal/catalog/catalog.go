// Package catalog loads persona, governance and standards documents from a
// project directory or from the defaults bundled into the binary.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gatekeep-ai/gatekeep/internal/logging"
)

//go:embed defaults
var bundled embed.FS

// Paths relative to a catalog root.
const (
	PersonasFile  = "personas/personas.yaml"
	GovernanceDir = "governance"
	StandardsDir  = "standards"
	PersonasDir   = "personas"
	VersionsFile  = "standards/versions.yaml"
	ManifestFile  = "manifest.yaml"
)

// BundledSource is reported by Source for the embedded defaults.
const BundledSource = "bundled"

// ErrNotFound is returned for unknown personas and standards.
var ErrNotFound = errors.New("not found")

// Bundled returns the embedded default catalog tree.
func Bundled() fs.FS {
	sub, err := fs.Sub(bundled, "defaults")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}

// Catalog reads catalog documents from an fs.FS root.
type Catalog struct {
	fsys   fs.FS
	dir    string
	logger *slog.Logger

	mu       sync.RWMutex
	personas personaList
	index    map[string]int
	routing  Routing
	flows    Workflows
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a catalog over fsys. dir is the on-disk root backing fsys,
// or "" when fsys is not a directory (bundled defaults, tests).
func New(fsys fs.FS, dir string, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		fsys:   fsys,
		dir:    dir,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Open creates a catalog rooted at dir on disk.
func Open(dir string, opts ...Option) (*Catalog, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog dir: %w", err)
	}
	return New(os.DirFS(abs), abs, opts...)
}

// OpenBundled creates a catalog over the embedded defaults.
func OpenBundled(opts ...Option) (*Catalog, error) {
	return New(Bundled(), "", opts...)
}

// Discover opens cwd when it contains a governance directory and the
// bundled defaults otherwise.
func Discover(cwd string, opts ...Option) (*Catalog, error) {
	if HasProjectCatalog(cwd) {
		return Open(cwd, opts...)
	}
	return OpenBundled(opts...)
}

// Resolve opens explicit when set, otherwise discovers from cwd.
func Resolve(explicit, cwd string, opts ...Option) (*Catalog, error) {
	if explicit != "" {
		info, err := os.Stat(explicit)
		if err != nil {
			return nil, fmt.Errorf("catalog dir %s: %w", explicit, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("catalog dir %s: not a directory", explicit)
		}
		return Open(explicit, opts...)
	}
	return Discover(cwd, opts...)
}

// HasProjectCatalog reports whether dir has a governance directory.
func HasProjectCatalog(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, GovernanceDir))
	return err == nil && info.IsDir()
}

// Source returns the on-disk root or BundledSource.
func (c *Catalog) Source() string {
	if c.dir == "" {
		return BundledSource
	}
	return c.dir
}

// Reload re-reads personas.yaml.
func (c *Catalog) Reload() error {
	var doc struct {
		Personas  personaList `yaml:"personas"`
		Routing   Routing     `yaml:"routing"`
		Workflows Workflows   `yaml:"workflows"`
	}
	if err := LoadYAML(c.fsys, PersonasFile, &doc); err != nil {
		return err
	}

	index := make(map[string]int, len(doc.Personas))
	for i, p := range doc.Personas {
		index[p.Name] = i
	}

	c.mu.Lock()
	c.personas = doc.Personas
	c.index = index
	c.routing = doc.Routing
	c.flows = doc.Workflows
	c.mu.Unlock()

	c.logger.Debug("catalog loaded", "source", c.Source(), "personas", len(doc.Personas))
	return nil
}

// Personas returns all personas in declaration order.
func (c *Catalog) Personas() []Persona {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Persona(nil), c.personas...)
}

// Persona looks up a persona by name.
func (c *Catalog) Persona(name string) (Persona, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[name]
	if !ok {
		return Persona{}, false
	}
	return c.personas[i], true
}

// Routing returns the keyword routing rules.
func (c *Catalog) Routing() Routing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.routing
}

// Workflows returns the workflow definitions.
func (c *Catalog) Workflows() Workflows {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.flows
}

// Governance loads the named governance files. Missing files are skipped;
// empty ones load as an empty mapping.
func (c *Catalog) Governance(files []string) ([]GovernanceDoc, error) {
	var docs []GovernanceDoc
	for _, file := range files {
		node, err := loadNode(c.fsys, path.Join(GovernanceDir, file))
		if err != nil {
			return nil, err
		}
		if node == nil {
			c.logger.Debug("governance file skipped", "file", file)
			continue
		}
		docs = append(docs, GovernanceDoc{File: file, Content: node})
	}
	return docs, nil
}

// Standard loads a standard by id. Unknown ids and missing or empty
// manifests return ErrNotFound.
func (c *Catalog) Standard(id string) (*Standard, error) {
	manifestPath := path.Join(StandardsDir, id, ManifestFile)
	if id == "" || strings.Contains(id, "/") || !fs.ValidPath(manifestPath) {
		return nil, fmt.Errorf("standard %q: %w", id, ErrNotFound)
	}

	var manifest struct {
		Standard *struct {
			ID      string   `yaml:"id"`
			Name    string   `yaml:"name"`
			Version string   `yaml:"version"`
			Files   []string `yaml:"files"`
		} `yaml:"standard"`
	}
	node, err := loadNode(c.fsys, manifestPath)
	if err != nil {
		return nil, err
	}
	if node == nil || isEmptyMapping(node) {
		return nil, fmt.Errorf("standard %q: %w", id, ErrNotFound)
	}
	if err := node.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("parse %s: %w", manifestPath, err)
	}

	std := &Standard{ID: id}
	if m := manifest.Standard; m != nil {
		if m.ID != "" {
			std.ID = m.ID
		}
		std.Name = m.Name
		std.Version = m.Version
		std.Files = m.Files
	}

	for _, file := range std.Files {
		var domain struct {
			Controls []Control `yaml:"controls"`
		}
		ok, err := loadYAML(c.fsys, path.Join(StandardsDir, id, file), &domain)
		if err != nil {
			return nil, err
		}
		if !ok {
			c.logger.Debug("standard domain skipped", "standard", id, "file", file)
			continue
		}
		std.Domains = append(std.Domains, Domain{
			Name:     strings.TrimSuffix(file, ".yaml"),
			Controls: domain.Controls,
		})
	}
	return std, nil
}

// Standards loads every id that exists, skipping unknown ones.
func (c *Catalog) Standards(ids []string) ([]*Standard, error) {
	var out []*Standard
	for _, id := range ids {
		std, err := c.Standard(id)
		if errors.Is(err, ErrNotFound) {
			c.logger.Debug("standard skipped", "standard", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, std)
	}
	return out, nil
}

// PersonaGovernance returns the governance documents for a persona.
// Unknown personas have none.
func (c *Catalog) PersonaGovernance(name string) ([]GovernanceDoc, error) {
	p, ok := c.Persona(name)
	if !ok {
		return nil, nil
	}
	return c.Governance(p.Governance)
}

// PersonaStandards returns the standards for a persona. Unknown personas
// have none.
func (c *Catalog) PersonaStandards(name string) ([]*Standard, error) {
	p, ok := c.Persona(name)
	if !ok {
		return nil, nil
	}
	return c.Standards(p.Standards)
}

// Versions reads standards/versions.yaml.
func (c *Catalog) Versions() ([]StandardVersion, error) {
	var doc struct {
		Standards versionList `yaml:"standards"`
	}
	if err := LoadYAML(c.fsys, VersionsFile, &doc); err != nil {
		return nil, err
	}
	return doc.Standards, nil
}

// Bundle is everything needed to build one persona's system prompt.
type Bundle struct {
	Persona    Persona
	Governance []GovernanceDoc
	Standards  []*Standard
}

// Bundle loads a persona with its governance and standards.
func (c *Catalog) Bundle(name string) (*Bundle, error) {
	p, ok := c.Persona(name)
	if !ok {
		return nil, fmt.Errorf("persona %q: %w", name, ErrNotFound)
	}
	gov, err := c.Governance(p.Governance)
	if err != nil {
		return nil, fmt.Errorf("load governance for %s: %w", name, err)
	}
	stds, err := c.Standards(p.Standards)
	if err != nil {
		return nil, fmt.Errorf("load standards for %s: %w", name, err)
	}
	return &Bundle{Persona: p, Governance: gov, Standards: stds}, nil
}

// LoadYAML decodes name from fsys into out. A missing or empty file leaves
// out untouched and is not an error.
func LoadYAML(fsys fs.FS, name string, out any) error {
	_, err := loadYAML(fsys, name, out)
	return err
}

// loadYAML reports whether name exists. An existing empty file is an empty
// document and decodes to nothing.
func loadYAML(fsys fs.FS, name string, out any) (bool, error) {
	data, ok, err := readFile(fsys, name)
	if err != nil || !ok {
		return false, err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("parse %s: %w", name, err)
	}
	return true, nil
}

// loadNode returns the root content node of name, or nil when the file is
// missing. Empty and null documents yield an empty mapping.
func loadNode(fsys fs.FS, name string) (*yaml.Node, error) {
	data, ok, err := readFile(fsys, name)
	if err != nil || !ok {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Tag == "!!null" {
		return emptyMapping(), nil
	}
	return doc.Content[0], nil
}

func emptyMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func isEmptyMapping(n *yaml.Node) bool {
	return n.Kind == yaml.MappingNode && len(n.Content) == 0
}

func readFile(fsys fs.FS, name string) ([]byte, bool, error) {
	if !fs.ValidPath(name) {
		return nil, false, nil
	}
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	return data, true, nil
}
