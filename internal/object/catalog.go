package object

import (
	"fmt"
	"sort"

	"github.com/tatami-inc/beachmat-go/internal/binary"
)

const catalogSignature = "CTLG"

// Entry locates one dataset header.
type Entry struct {
	Name       string
	HeaderAddr uint64
	HeaderSize uint64
}

// Catalog is the name index of a container file.
type Catalog struct {
	entries map[string]Entry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Lookup returns the entry for name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// Add inserts an entry; it fails if the name is taken.
func (c *Catalog) Add(e Entry) error {
	if _, ok := c.entries[e.Name]; ok {
		return fmt.Errorf("dataset %q already in catalog", e.Name)
	}
	c.entries[e.Name] = e
	return nil
}

// Names returns every dataset name in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of datasets.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Encode returns the sealed on-disk form, entries in name order.
func (c *Catalog) Encode() []byte {
	enc := binary.NewEncoder(64)
	enc.PutString(catalogSignature)
	enc.PutUint32(uint32(len(c.entries)))
	for _, name := range c.Names() {
		e := c.entries[name]
		enc.PutUint16(uint16(len(name)))
		enc.PutString(name)
		enc.PutUint64(e.HeaderAddr)
		enc.PutUint64(e.HeaderSize)
	}
	return enc.Seal()
}

// DecodeCatalog parses a sealed catalog block.
func DecodeCatalog(block []byte) (*Catalog, error) {
	body, err := binary.Verify(block)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	dec := binary.NewDecoder(body)
	dec.Signature(catalogSignature)
	n := int(dec.Uint32())

	c := NewCatalog()
	for i := 0; i < n && dec.Err() == nil; i++ {
		name := string(dec.Bytes(int(dec.Uint16())))
		e := Entry{Name: name, HeaderAddr: dec.Uint64(), HeaderSize: dec.Uint64()}
		if dec.Err() != nil {
			break
		}
		if err := c.Add(e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
		}
	}
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: catalog: %v", ErrInvalidHeader, err)
	}
	return c, nil
}
