// Package resource_cache owns the GPU buffers of scene objects: it creates them on first
// sight, re-uploads them while the object keeps being drawn and frees them the first frame
// the object is not visited.
package resource_cache

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
)

// UploadPolicy controls when a cached entry's data is sent to the GPU again.
type UploadPolicy int

const (
	// UploadAlways re-uploads vertex and index data on every visit.
	UploadAlways UploadPolicy = iota
	// UploadOnChange re-uploads only when the geometry reports NeedsUpdate. The owner of the
	// cache clears the flag once every object sharing the geometry has been visited.
	UploadOnChange
)

// Entry is the cached GPU state of one scene object.
type Entry struct {
	VertexBuffer gpu.BufferHandle
	IndexBuffer  gpu.BufferHandle
	HasIndex     bool

	VertexBytes int
	VertexCount int
	IndexBytes  int
	IndexCount  int
	IndexFormat gpu.IndexFormat

	Topology  gpu.Topology
	Triangles int
}

// DrawCount returns the element count of the draw: indices if indexed, vertices otherwise.
func (e *Entry) DrawCount() int {
	if e.HasIndex {
		return e.IndexCount
	}
	return e.VertexCount
}

// Cache maps scene object ids to their GPU buffers. A Cache belongs to one renderer and
// is used from that renderer's goroutine only.
type Cache struct {
	ctx           gpu.Context
	uint32Indices bool
	policy        UploadPolicy

	entries map[uint64]*Entry

	vertexScratch []float32
	index16       []uint16
	index32       []uint32
}

// New creates an empty Cache that allocates buffers on ctx.
//
// Parameters:
//   - ctx: the context owning every buffer the cache creates
//   - uint32Indices: whether the context supports 32-bit index buffers
//   - options: functional options applied in order
//
// Returns:
//   - *Cache: the new cache
func New(ctx gpu.Context, uint32Indices bool, options ...CacheOption) *Cache {
	c := &Cache{
		ctx:           ctx,
		uint32Indices: uint32Indices,
		entries:       make(map[uint64]*Entry),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Ensure brings the GPU buffers of object id up to date with d.
//
// The returned bool is false when the object has nothing to draw this frame (zero vertices
// or KindNone); that is not an error. An *IndexWidthError is returned when an index does not
// fit in 16 bits and the context has no 32-bit index support; no buffers are created or
// changed for the object in that case.
//
// Parameters:
//   - id: the stable identity of the scene object
//   - d: the drawable carried by the object
//
// Returns:
//   - *Entry: the up-to-date entry, nil when skipped
//   - bool: true if the object should be drawn
//   - error: a fatal index width error or a context error
func (c *Cache) Ensure(id uint64, d Drawable) (*Entry, bool, error) {
	if d.Kind == KindNone || d.Geometry == nil {
		return nil, false, nil
	}
	g := d.Geometry
	vertexCount := g.VertexCount()
	if vertexCount == 0 {
		return nil, false, nil
	}

	index := g.Index()
	format := gpu.IndexUint16
	if len(index) > 0 {
		var maxIndex uint32
		for _, v := range index {
			maxIndex = max(maxIndex, v)
		}
		switch {
		case maxIndex > math.MaxUint16:
			if !c.uint32Indices {
				return nil, false, &IndexWidthError{ObjectID: id, MaxIndex: maxIndex}
			}
			format = gpu.IndexUint32
		case maxIndex == math.MaxUint16 && c.uint32Indices:
			// 0xFFFF is the 16-bit primitive restart value on WebGPU strips and WebGL 2.
			format = gpu.IndexUint32
		}
	}

	entry, exists := c.entries[id]
	if !exists {
		vb, err := c.ctx.CreateBuffer(gpu.BufferVertex)
		if err != nil {
			return nil, false, fmt.Errorf("object %d: create vertex buffer: %w", id, err)
		}
		entry = &Entry{VertexBuffer: vb}
		c.entries[id] = entry
		common.Logger().Debug("cache entry created", "id", id, "kind", d.Kind.String())
	}

	upload := !exists || c.policy == UploadAlways || g.NeedsUpdate()
	if upload {
		c.vertexScratch = Linearize(c.vertexScratch, g, d.Material)
		if err := c.ctx.UploadBuffer(entry.VertexBuffer, common.SliceToBytes(c.vertexScratch), false); err != nil {
			return nil, false, fmt.Errorf("object %d: upload vertices: %w", id, err)
		}
		entry.VertexBytes = len(c.vertexScratch) * 4
		entry.VertexCount = vertexCount

		if err := c.uploadIndex(id, entry, index, format); err != nil {
			return nil, false, err
		}
	}

	entry.Topology = d.Topology()
	entry.Triangles = TriangleEstimate(entry.Topology, entry.DrawCount())
	return entry, true, nil
}

func (c *Cache) uploadIndex(id uint64, entry *Entry, index []uint32, format gpu.IndexFormat) error {
	if len(index) == 0 {
		if entry.HasIndex {
			c.ctx.DeleteBuffer(entry.IndexBuffer)
		}
		entry.IndexBuffer, entry.HasIndex = 0, false
		entry.IndexBytes, entry.IndexCount = 0, 0
		return nil
	}

	if !entry.HasIndex {
		ib, err := c.ctx.CreateBuffer(gpu.BufferIndex)
		if err != nil {
			return fmt.Errorf("object %d: create index buffer: %w", id, err)
		}
		entry.IndexBuffer, entry.HasIndex = ib, true
	}

	var data []byte
	if format == gpu.IndexUint32 {
		c.index32 = append(c.index32[:0], index...)
		data = common.SliceToBytes(c.index32)
	} else {
		c.index16 = c.index16[:0]
		for _, v := range index {
			c.index16 = append(c.index16, uint16(v))
		}
		data = common.SliceToBytes(c.index16)
	}
	if err := c.ctx.UploadBuffer(entry.IndexBuffer, data, false); err != nil {
		return fmt.Errorf("object %d: upload indices: %w", id, err)
	}
	entry.IndexFormat = format
	entry.IndexCount = len(index)
	entry.IndexBytes = len(data)
	return nil
}

// Sweep frees the buffers of every entry whose id is not in visited. It is the only way
// entries leave the cache.
//
// Parameters:
//   - visited: the ids drawn this frame
//
// Returns:
//   - int: the number of entries evicted
func (c *Cache) Sweep(visited map[uint64]struct{}) int {
	evicted := 0
	for id, entry := range c.entries {
		if _, ok := visited[id]; ok {
			continue
		}
		c.release(entry)
		delete(c.entries, id)
		evicted++
		common.Logger().Debug("cache entry evicted", "id", id)
	}
	return evicted
}

// Entry returns the cached entry for id, if any.
func (c *Cache) Entry(id uint64) (*Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return len(c.entries) }

// BufferBytes sums the vertex and index bytes of every live entry.
func (c *Cache) BufferBytes() int64 {
	var total int64
	for _, e := range c.entries {
		total += int64(e.VertexBytes + e.IndexBytes)
	}
	return total
}

// Dispose frees every buffer and empties the cache.
func (c *Cache) Dispose() {
	for id, entry := range c.entries {
		c.release(entry)
		delete(c.entries, id)
	}
}

func (c *Cache) release(e *Entry) {
	c.ctx.DeleteBuffer(e.VertexBuffer)
	if e.HasIndex {
		c.ctx.DeleteBuffer(e.IndexBuffer)
	}
}
