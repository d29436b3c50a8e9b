package native

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/bridge"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// buffer is a gpu.BufferHandle backed by a native buffer that is created on first upload
// and regrown when an upload no longer fits. The gpu handle never changes.
type buffer struct {
	target   gpu.BufferTarget
	native   bridge.Handle
	capacity uint64
	size     uint64
	scratch  []byte
}

func (c *context) CreateBuffer(target gpu.BufferTarget) (gpu.BufferHandle, error) {
	h := gpu.BufferHandle(c.id())
	c.buffers[h] = &buffer{target: target}
	return h, nil
}

// UploadBuffer pads data to a multiple of 4 bytes, the copy granularity of WebGPU.
func (c *context) UploadBuffer(h gpu.BufferHandle, data []byte, _ bool) error {
	buf, ok := c.buffers[h]
	if !ok {
		return fmt.Errorf("native: unknown buffer %d", h)
	}
	padded := common.AlignUp(uint64(len(data)), 4)
	if padded == 0 {
		buf.size = 0
		return nil
	}
	if buf.native == 0 || buf.capacity < padded {
		usage := gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
		label := "Vertex Buffer"
		if buf.target == gpu.BufferIndex {
			usage = gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst
			label = "Index Buffer"
		}
		native, err := c.bridge.CreateBuffer(c.device, gputypes.BufferDescriptor{Label: label, Size: padded, Usage: usage})
		if err != nil {
			return fmt.Errorf("native: create buffer: %w", err)
		}
		c.release(&buf.native)
		buf.native, buf.capacity = native, padded
	}

	payload := data
	if uint64(len(data)) != padded {
		buf.scratch = append(buf.scratch[:0], data...)
		for uint64(len(buf.scratch)) < padded {
			buf.scratch = append(buf.scratch, 0)
		}
		payload = buf.scratch
	}
	if err := c.bridge.WriteBuffer(c.device, buf.native, 0, payload); err != nil {
		return fmt.Errorf("native: write buffer: %w", err)
	}
	buf.size = uint64(len(data))
	return nil
}

func (c *context) DeleteBuffer(h gpu.BufferHandle) {
	buf, ok := c.buffers[h]
	if !ok {
		return
	}
	delete(c.buffers, h)
	if c.vertexBuffer == buf {
		c.vertexBuffer = nil
	}
	if c.indexBuffer == buf {
		c.indexBuffer = nil
	}
	c.release(&buf.native)
}

// uniformRing holds one matrix per draw at dynamic offsets. Chunks are allocated as a frame
// needs them and reused by later frames; each chunk has its own bind group so draws already
// encoded keep pointing at their own chunk.
type uniformRing struct {
	alignment uint64
	chunks    []*ringChunk
	used      int
}

type ringChunk struct {
	buffer bridge.Handle
	group  bridge.Handle
	data   []byte
	count  int
}

// ringChunkSlots is the number of matrices one chunk holds.
const ringChunkSlots = 256

// push stores m and returns the chunk and dynamic offset to bind for the draw.
func (r *uniformRing) push(c *context, prog *program, m *mgl32.Mat4) (*ringChunk, uint32, error) {
	for r.used < len(r.chunks) && r.chunks[r.used].count == ringChunkSlots {
		r.used++
	}
	if r.used == len(r.chunks) {
		chunk, err := r.grow(c, prog)
		if err != nil {
			return nil, 0, err
		}
		r.chunks = append(r.chunks, chunk)
	}
	chunk := r.chunks[r.used]
	offset := uint64(chunk.count) * r.alignment
	copy(chunk.data[offset:offset+matrixSize], common.MatrixBytes(m))
	chunk.count++
	return chunk, uint32(offset), nil
}

func (r *uniformRing) grow(c *context, prog *program) (*ringChunk, error) {
	size := r.alignment * ringChunkSlots
	buf, err := c.bridge.CreateBuffer(c.device, gputypes.BufferDescriptor{
		Label: "Uniform Ring",
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create uniform ring: %w", err)
	}
	group, err := c.bridge.CreateBindGroup(c.device, prog.bindGroupLayout, []bridge.BufferBinding{{
		Binding: prog.uniformBinding,
		Buffer:  buf,
		Size:    matrixSize,
	}})
	if err != nil {
		c.bridge.Release(buf)
		return nil, fmt.Errorf("native: create uniform bind group: %w", err)
	}
	return &ringChunk{buffer: buf, group: group, data: make([]byte, size)}, nil
}

// flush writes the used part of every chunk touched this frame.
func (r *uniformRing) flush(c *context) error {
	for _, chunk := range r.chunks {
		if chunk.count == 0 {
			continue
		}
		n := uint64(chunk.count-1)*r.alignment + matrixSize
		if err := c.bridge.WriteBuffer(c.device, chunk.buffer, 0, chunk.data[:n]); err != nil {
			return fmt.Errorf("native: write uniform ring: %w", err)
		}
	}
	return nil
}

func (r *uniformRing) reset() {
	for _, chunk := range r.chunks {
		chunk.count = 0
	}
	r.used = 0
}

func (r *uniformRing) release(b bridge.Bridge) {
	for _, chunk := range r.chunks {
		b.Release(chunk.group)
		b.Release(chunk.buffer)
	}
	r.chunks, r.used = nil, 0
}
