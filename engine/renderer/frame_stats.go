package renderer

import "time"

// FrameStats describes the most recently rendered frame. It is replaced every frame.
type FrameStats struct {
	// FPS is the instantaneous rate derived from FrameTime, 0 for the first frame.
	FPS float64
	// FrameTime is the wall-clock time since the previous frame started.
	FrameTime time.Duration
	// Triangles is the estimated triangle count, with points counted one each.
	Triangles int
	// DrawCalls is the number of draws issued.
	DrawCalls int
	// BufferMemory is the byte size of every live cached vertex and index buffer.
	BufferMemory int64
	// TextureMemory is the byte size of surface-owned textures.
	TextureMemory int64
	// Timestamp is when the frame started.
	Timestamp time.Time
}
