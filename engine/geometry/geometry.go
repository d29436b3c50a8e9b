// Package geometry holds CPU-side vertex data: named float attributes, an optional index
// list and a needs-update flag. It never holds GPU handles.
package geometry

import "sync"

// Well-known attribute names.
const (
	AttributePosition = "position"
	AttributeColor    = "color"
	AttributeSize     = "size"
)

// Attribute is a flat float array read in groups of ItemSize components per vertex.
type Attribute struct {
	Data     []float32
	ItemSize int
}

// Count returns the number of complete items in the attribute.
func (a Attribute) Count() int {
	if a.ItemSize <= 0 {
		return 0
	}
	return len(a.Data) / a.ItemSize
}

type geometry struct {
	mu          sync.Mutex
	attributes  map[string]Attribute
	index       []uint32
	needsUpdate bool
}

// Geometry defines the interface for renderable vertex data.
// Writers mark the geometry as needing an update whenever attribute or index data change;
// the renderer clears the flag once it has uploaded the new data.
type Geometry interface {
	// VertexCount returns the number of vertices described by the position attribute.
	//
	// Returns:
	//   - int: the vertex count, or 0 if no position attribute is set
	VertexCount() int

	// Attribute retrieves a named attribute.
	//
	// Parameters:
	//   - name: the attribute name
	//
	// Returns:
	//   - Attribute: the attribute
	//   - bool: false if no attribute with that name exists
	Attribute(name string) (Attribute, bool)

	// SetAttribute adds or replaces a named attribute and marks the geometry as needing an update.
	//
	// Parameters:
	//   - name: the attribute name
	//   - data: the flat component data
	//   - itemSize: the number of components per vertex
	SetAttribute(name string, data []float32, itemSize int)

	// Index returns the index list, or nil for non-indexed geometry.
	//
	// Returns:
	//   - []uint32: the indices
	Index() []uint32

	// SetIndex replaces the index list and marks the geometry as needing an update.
	//
	// Parameters:
	//   - index: the new indices, or nil to remove indexing
	SetIndex(index []uint32)

	// NeedsUpdate reports whether data changed since the last ClearNeedsUpdate.
	//
	// Returns:
	//   - bool: true if the data changed
	NeedsUpdate() bool

	// MarkNeedsUpdate flags the geometry as changed, e.g. after mutating attribute data in place.
	MarkNeedsUpdate()

	// ClearNeedsUpdate resets the needs-update flag.
	ClearNeedsUpdate()
}

var _ Geometry = &geometry{}

// NewGeometry creates an empty Geometry configured by options. A new geometry always
// starts out needing an update.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Geometry: the new geometry
func NewGeometry(options ...GeometryBuilderOption) Geometry {
	g := &geometry{
		attributes:  make(map[string]Attribute),
		needsUpdate: true,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *geometry) VertexCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attributes[AttributePosition].Count()
}

func (g *geometry) Attribute(name string) (Attribute, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.attributes[name]
	return a, ok
}

func (g *geometry) SetAttribute(name string, data []float32, itemSize int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attributes[name] = Attribute{Data: data, ItemSize: itemSize}
	g.needsUpdate = true
}

func (g *geometry) Index() []uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

func (g *geometry) SetIndex(index []uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.index = index
	g.needsUpdate = true
}

func (g *geometry) NeedsUpdate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.needsUpdate
}

func (g *geometry) MarkNeedsUpdate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.needsUpdate = true
}

func (g *geometry) ClearNeedsUpdate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.needsUpdate = false
}
