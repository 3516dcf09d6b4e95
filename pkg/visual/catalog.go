package visual

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for common error conditions.
var (
	ErrNoVisuals       = errors.New("visual: catalog is empty")
	ErrUnknownVisual   = errors.New("visual: unknown visual")
	ErrDuplicateVisual = errors.New("visual: duplicate visual name")
)

// DefaultAssetSuffix is appended to a visual's name to find its sound.
const DefaultAssetSuffix = "Visual.wav"

// AssetName returns the sound file name of a visual: its name without
// spaces followed by suffix.
func AssetName(name, suffix string) string {
	return strings.ReplaceAll(name, " ", "") + suffix
}

// ResolveAsset returns the path of name's sound file in dir, or "" when the
// file does not exist.
func ResolveAsset(dir, name, suffix string) string {
	if dir == "" {
		return ""
	}
	path := filepath.Join(dir, AssetName(name, suffix))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return path
}

// Entry is a registered visual and its resolved sound.
type Entry struct {
	Descriptor Descriptor
	// Asset is the sound file path, "" when the visual is silent.
	Asset string
}

// Catalog is the ordered, fixed set of visuals.
type Catalog struct {
	entries []Entry
	byName  map[string]int
	dir     string
	suffix  string
}

// NewCatalog registers descriptors in order and resolves their sounds in dir.
func NewCatalog(dir, suffix string, descriptors ...Descriptor) (*Catalog, error) {
	if len(descriptors) == 0 {
		return nil, ErrNoVisuals
	}
	if suffix == "" {
		suffix = DefaultAssetSuffix
	}
	c := &Catalog{
		byName: make(map[string]int, len(descriptors)),
		dir:    dir,
		suffix: suffix,
	}
	for _, d := range descriptors {
		key := normalizeName(d.Name())
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateVisual, d.Name())
		}
		c.byName[key] = len(c.entries)
		c.entries = append(c.entries, Entry{Descriptor: d})
	}
	c.Refresh()
	return c, nil
}

// Refresh re-resolves every sound asset against the assets directory.
func (c *Catalog) Refresh() {
	for i := range c.entries {
		c.entries[i].Asset = ResolveAsset(c.dir, c.entries[i].Descriptor.Name(), c.suffix)
	}
}

// Len returns the number of visuals.
func (c *Catalog) Len() int { return len(c.entries) }

// At returns the i-th entry.
func (c *Catalog) At(i int) Entry { return c.entries[i] }

// Entries returns a copy of every entry.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Lookup finds a visual by name, ignoring case and spaces.
func (c *Catalog) Lookup(name string) (int, error) {
	i, ok := c.byName[normalizeName(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVisual, name)
	}
	return i, nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}

// Selector tracks the active visual. It is owned by the playback loop and is
// not safe for concurrent use.
type Selector struct {
	catalog *Catalog
	index   int
}

// NewSelector starts at index 0.
func NewSelector(c *Catalog) *Selector {
	return &Selector{catalog: c}
}

// Next advances to the following visual, wrapping around.
func (s *Selector) Next() Descriptor {
	s.index = (s.index + 1) % s.catalog.Len()
	return s.Current()
}

// Previous moves to the preceding visual, wrapping around.
func (s *Selector) Previous() Descriptor {
	n := s.catalog.Len()
	s.index = (s.index - 1 + n) % n
	return s.Current()
}

// Select jumps to index i.
func (s *Selector) Select(i int) error {
	if i < 0 || i >= s.catalog.Len() {
		return fmt.Errorf("%w: index %d of %d", ErrUnknownVisual, i, s.catalog.Len())
	}
	s.index = i
	return nil
}

// Current returns the active descriptor.
func (s *Selector) Current() Descriptor { return s.catalog.At(s.index).Descriptor }

// Asset returns the sound of the active visual, "" when silent.
func (s *Selector) Asset() string { return s.catalog.At(s.index).Asset }

// Index returns the active index.
func (s *Selector) Index() int { return s.index }

// Catalog returns the catalog the selector cycles through.
func (s *Selector) Catalog() *Catalog { return s.catalog }
