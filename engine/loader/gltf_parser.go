package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.x")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer shorter than its byteLength")
)

// gltfParser decodes one document and reads typed data out of its accessors.
type gltfParser struct {
	// baseDir resolves relative buffer URIs. Empty disables external buffers.
	baseDir string
	doc     *gltfDocument
	glbBin  []byte
}

func parseFile(path string) (*gltfParser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	isGLB := strings.EqualFold(filepath.Ext(path), ".glb") ||
		(len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic)
	return parseBytes(data, isGLB, filepath.Dir(path))
}

func parseReader(r io.Reader, isGLB bool) (*gltfParser, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read glTF: %w", err)
	}
	return parseBytes(data, isGLB, "")
}

func parseBytes(data []byte, isGLB bool, baseDir string) (*gltfParser, error) {
	p := &gltfParser{baseDir: baseDir}
	if isGLB {
		var err error
		if data, err = p.splitGLB(data); err != nil {
			return nil, err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, errInvalidGLTFVersion
	}
	if len(doc.ExtensionsRequired) > 0 {
		return nil, fmt.Errorf("required glTF extensions not supported: %s", strings.Join(doc.ExtensionsRequired, ", "))
	}
	if err := p.loadBuffers(&doc); err != nil {
		return nil, err
	}
	p.doc = &doc
	return p, nil
}

// splitGLB returns the JSON chunk of a GLB container and keeps its binary chunk.
func (p *gltfParser) splitGLB(data []byte) ([]byte, error) {
	r := bytes.NewReader(data)
	var header glbHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read GLB header: %w", err)
	}
	if header.Magic != glbMagic {
		return nil, errInvalidGLBMagic
	}
	if header.Version != glbVersion {
		return nil, errInvalidGLBVersion
	}

	var jsonChunk []byte
	for {
		var chunk glbChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read GLB chunk header: %w", err)
		}
		if int64(chunk.Length) > int64(r.Len()) {
			return nil, fmt.Errorf("GLB chunk of %d bytes overruns the file", chunk.Length)
		}
		body := make([]byte, chunk.Length)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("read GLB chunk: %w", err)
		}
		switch chunk.Type {
		case glbChunkJSON:
			jsonChunk = body
		case glbChunkBIN:
			p.glbBin = body
		}
	}
	if jsonChunk == nil {
		return nil, errMissingJSONChunk
	}
	return jsonChunk, nil
}

func (p *gltfParser) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]
		switch {
		case buf.URI == "" && i == 0 && p.glbBin != nil:
			buf.data = p.glbBin
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		case strings.HasPrefix(buf.URI, "data:"):
			data, err := decodeDataURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.data = data
		default:
			if p.baseDir == "" {
				return fmt.Errorf("buffer %d: external URI %q needs a file path", i, buf.URI)
			}
			data, err := os.ReadFile(filepath.Join(p.baseDir, buf.URI))
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.data = data
		}
		if len(buf.data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

// decodeDataURI decodes data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, errInvalidBufferURI
	}
	if header := uri[len("data:"):comma]; !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URI encoding %q", header)
	}
	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}

// elements returns the tightly packed bytes of every element of an accessor.
func (p *gltfParser) elements(index int) (*gltfAccessor, []byte, error) {
	if index < 0 || index >= len(p.doc.Accessors) {
		return nil, nil, fmt.Errorf("accessor %d out of range", index)
	}
	acc := &p.doc.Accessors[index]
	if acc.Sparse != nil {
		return nil, nil, fmt.Errorf("accessor %d: sparse accessors not supported", index)
	}
	elemSize := componentSize(acc.ComponentType) * typeComponents(acc.Type)
	if elemSize == 0 {
		return nil, nil, fmt.Errorf("accessor %d: unknown layout %s/%d", index, acc.Type, acc.ComponentType)
	}
	out := make([]byte, acc.Count*elemSize)
	// An accessor without a buffer view is all zeros.
	if acc.BufferView == nil {
		return acc, out, nil
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(p.doc.BufferViews) {
		return nil, nil, fmt.Errorf("accessor %d: buffer view %d out of range", index, *acc.BufferView)
	}
	view := p.doc.BufferViews[*acc.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(p.doc.Buffers) {
		return nil, nil, fmt.Errorf("buffer view %d: buffer %d out of range", *acc.BufferView, view.Buffer)
	}
	data := p.doc.Buffers[view.Buffer].data

	stride := elemSize
	if view.ByteStride != nil && *view.ByteStride > 0 {
		stride = *view.ByteStride
	}
	start := view.ByteOffset + acc.ByteOffset
	if acc.Count > 0 {
		end := start + (acc.Count-1)*stride + elemSize
		if end > view.ByteOffset+view.ByteLength || end > len(data) {
			return nil, nil, fmt.Errorf("accessor %d reads past its buffer view", index)
		}
	}
	for i := 0; i < acc.Count; i++ {
		src := start + i*stride
		copy(out[i*elemSize:(i+1)*elemSize], data[src:src+elemSize])
	}
	return acc, out, nil
}

// readFloats reads an accessor of width components as float32, converting normalized
// integer components to [0, 1] or [-1, 1].
func (p *gltfParser) readFloats(index, width int) ([]float32, error) {
	acc, data, err := p.elements(index)
	if err != nil {
		return nil, err
	}
	if typeComponents(acc.Type) != width {
		return nil, fmt.Errorf("accessor %d is %s, want %d components", index, acc.Type, width)
	}
	if !acc.Normalized && acc.ComponentType != gltfComponentFloat {
		return nil, fmt.Errorf("accessor %d: integer components must be normalized", index)
	}
	out := make([]float32, acc.Count*width)
	switch acc.ComponentType {
	case gltfComponentFloat:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case gltfComponentUnsignedByte:
		for i := range out {
			out[i] = float32(data[i]) / math.MaxUint8
		}
	case gltfComponentUnsignedShort:
		for i := range out {
			out[i] = float32(binary.LittleEndian.Uint16(data[i*2:])) / math.MaxUint16
		}
	case gltfComponentByte:
		for i := range out {
			out[i] = max(float32(int8(data[i]))/math.MaxInt8, -1)
		}
	case gltfComponentShort:
		for i := range out {
			out[i] = max(float32(int16(binary.LittleEndian.Uint16(data[i*2:])))/math.MaxInt16, -1)
		}
	default:
		return nil, fmt.Errorf("accessor %d: component type %d is not a float type", index, acc.ComponentType)
	}
	return out, nil
}

func (p *gltfParser) readIndices(index int) ([]uint32, error) {
	acc, data, err := p.elements(index)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfTypeScalar {
		return nil, fmt.Errorf("index accessor %d is %s, want SCALAR", index, acc.Type)
	}
	out := make([]uint32, acc.Count)
	switch acc.ComponentType {
	case gltfComponentUnsignedByte:
		for i := range out {
			out[i] = uint32(data[i])
		}
	case gltfComponentUnsignedShort:
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case gltfComponentUnsignedInt:
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	default:
		return nil, fmt.Errorf("index accessor %d: unsupported component type %d", index, acc.ComponentType)
	}
	return out, nil
}
