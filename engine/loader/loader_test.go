package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/resource_cache"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// triangleBuffer packs 3 float positions, 3 normalized RGBA8 colors and 3 uint16 indices.
func triangleBuffer() []byte {
	var b bytes.Buffer
	for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		binary.Write(&b, binary.LittleEndian, v)
	}
	b.Write([]byte{255, 0, 0, 255, 0, 255, 0, 255, 0, 0, 255, 128})
	for _, i := range []uint16{0, 1, 2} {
		binary.Write(&b, binary.LittleEndian, i)
	}
	b.Write([]byte{0, 0})
	return b.Bytes()
}

func triangleDocument(uri string, byteLength int) map[string]any {
	buffer := map[string]any{"byteLength": byteLength}
	if uri != "" {
		buffer["uri"] = uri
	}
	return map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"scene": 0,
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"nodes": []any{
			map[string]any{"name": "base", "translation": []float32{1, 2, 3}, "children": []int{1}},
			map[string]any{"name": "tri", "mesh": 0, "scale": []float32{2, 2, 2}},
		},
		"meshes": []any{map[string]any{"primitives": []any{map[string]any{
			"attributes": map[string]int{"POSITION": 0, "COLOR_0": 1},
			"indices":    2,
			"material":   0,
		}}}},
		"materials": []any{map[string]any{
			"name":                 "red",
			"pbrMetallicRoughness": map[string]any{"baseColorFactor": []float32{1, 0, 0, 1}},
		}},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": gltfComponentFloat, "count": 3, "type": "VEC3"},
			map[string]any{"bufferView": 1, "componentType": gltfComponentUnsignedByte, "normalized": true, "count": 3, "type": "VEC4"},
			map[string]any{"bufferView": 2, "componentType": gltfComponentUnsignedShort, "count": 3, "type": "SCALAR"},
		},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			map[string]any{"buffer": 0, "byteOffset": 36, "byteLength": 12},
			map[string]any{"buffer": 0, "byteOffset": 48, "byteLength": 6},
		},
		"buffers": []any{buffer},
	}
}

func embeddedTriangle(t *testing.T) []byte {
	t.Helper()
	buf := triangleBuffer()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf)
	data, err := json.Marshal(triangleDocument(uri, len(buf)))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func glbTriangle(t *testing.T) []byte {
	t.Helper()
	bin := triangleBuffer()
	js, err := json.Marshal(triangleDocument("", len(bin)))
	if err != nil {
		t.Fatal(err)
	}
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	var b bytes.Buffer
	total := 12 + 8 + len(js) + 8 + len(bin)
	binary.Write(&b, binary.LittleEndian, glbHeader{Magic: glbMagic, Version: glbVersion, Length: uint32(total)})
	binary.Write(&b, binary.LittleEndian, glbChunkHeader{Length: uint32(len(js)), Type: glbChunkJSON})
	b.Write(js)
	binary.Write(&b, binary.LittleEndian, glbChunkHeader{Length: uint32(len(bin)), Type: glbChunkBIN})
	b.Write(bin)
	return b.Bytes()
}

func checkTriangle(t *testing.T, root scene.Node) {
	t.Helper()
	if len(root.Children()) != 1 {
		t.Fatalf("root children = %d, want 1", len(root.Children()))
	}
	base := root.Children()[0]
	if base.Name() != "base" || base.Position() != (mgl32.Vec3{1, 2, 3}) {
		t.Fatalf("base = %q at %v", base.Name(), base.Position())
	}
	if len(base.Children()) != 1 {
		t.Fatalf("base children = %d", len(base.Children()))
	}
	tri := base.Children()[0]
	if tri.Scale() != (mgl32.Vec3{2, 2, 2}) {
		t.Errorf("scale = %v", tri.Scale())
	}

	d := tri.Drawable()
	if d.Kind != resource_cache.KindMesh {
		t.Fatalf("kind = %v, want mesh", d.Kind)
	}
	if d.Geometry.VertexCount() != 3 {
		t.Fatalf("vertex count = %d", d.Geometry.VertexCount())
	}
	if got := d.Geometry.Index(); fmt.Sprint(got) != "[0 1 2]" {
		t.Errorf("index = %v", got)
	}
	colors, ok := d.Geometry.Attribute(geometry.AttributeColor)
	if !ok || colors.ItemSize != 3 {
		t.Fatalf("color attribute = %+v, %v", colors, ok)
	}
	if fmt.Sprint(colors.Data) != "[1 0 0 0 1 0 0 0 1]" {
		t.Errorf("colors = %v", colors.Data)
	}
	if d.Material.Color() != [3]float32{1, 0, 0} {
		t.Errorf("material color = %v", d.Material.Color())
	}
}

func TestLoadReaderEmbeddedBuffer(t *testing.T) {
	l := NewLoader()
	root, err := l.LoadReader("triangle", bytes.NewReader(embeddedTriangle(t)), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if root.Name() != "triangle" {
		t.Errorf("root name = %q", root.Name())
	}
	checkTriangle(t, root)
}

func TestLoadGLB(t *testing.T) {
	root, err := NewLoader().LoadReader("triangle.glb", bytes.NewReader(glbTriangle(t)), true)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	checkTriangle(t, root)
}

func TestLoadFileWithExternalBuffer(t *testing.T) {
	dir := t.TempDir()
	buf := triangleBuffer()
	if err := os.WriteFile(filepath.Join(dir, "triangle.bin"), buf, 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(triangleDocument("triangle.bin", len(buf)))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "triangle.gltf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader()
	root, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	checkTriangle(t, root)
	if names := l.Names(); len(names) != 1 || names[0] != path {
		t.Fatalf("names = %v", names)
	}
}

func TestInstancesShareGeometry(t *testing.T) {
	l := NewLoader()
	a, err := l.LoadReader("triangle", bytes.NewReader(embeddedTriangle(t)), false)
	if err != nil {
		t.Fatal(err)
	}
	b, ok := l.Instance("triangle")
	if !ok {
		t.Fatal("instance not cached")
	}
	triA := a.Children()[0].Children()[0]
	triB := b.Children()[0].Children()[0]
	if triA.ID() == triB.ID() {
		t.Fatal("instances share node ids")
	}
	if triA.Drawable().Geometry != triB.Drawable().Geometry {
		t.Fatal("instances do not share geometry")
	}
	if _, ok := l.Instance("missing"); ok {
		t.Fatal("instance of an unknown name")
	}
}

func TestDefaultColorForUnmaterialedPrimitives(t *testing.T) {
	doc := triangleDocument("", 0)
	buf := triangleBuffer()
	doc["buffers"] = []any{map[string]any{
		"byteLength": len(buf),
		"uri":        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf),
	}}
	prim := doc["meshes"].([]any)[0].(map[string]any)["primitives"].([]any)[0].(map[string]any)
	delete(prim, "material")
	data, _ := json.Marshal(doc)

	l := NewLoader(WithDefaultColor(common.RGB(0, 0, 1)))
	root, err := l.LoadReader("plain", bytes.NewReader(data), false)
	if err != nil {
		t.Fatal(err)
	}
	d := root.Children()[0].Children()[0].Drawable()
	if d.Material.Color() != [3]float32{0, 0, 1} {
		t.Fatalf("color = %v", d.Material.Color())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc map[string]any)
		want   string
	}{
		{"version", func(doc map[string]any) { doc["asset"] = map[string]any{"version": "1.0"} }, "version"},
		{"required extension", func(doc map[string]any) { doc["extensionsRequired"] = []string{"KHR_draco_mesh_compression"} }, "KHR_draco_mesh_compression"},
		{"accessor past view", func(doc map[string]any) {
			doc["accessors"].([]any)[0].(map[string]any)["count"] = 4
		}, "past its buffer view"},
		{"missing position", func(doc map[string]any) {
			prim := doc["meshes"].([]any)[0].(map[string]any)["primitives"].([]any)[0].(map[string]any)
			prim["attributes"] = map[string]int{"COLOR_0": 1}
		}, "POSITION"},
		{"node cycle", func(doc map[string]any) {
			doc["nodes"].([]any)[1].(map[string]any)["children"] = []int{0}
		}, "ancestor"},
		{"external buffer from reader", func(doc map[string]any) {
			doc["buffers"] = []any{map[string]any{"byteLength": 56, "uri": "triangle.bin"}}
		}, "file path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc map[string]any
			if err := json.Unmarshal(embeddedTriangle(t), &doc); err != nil {
				t.Fatal(err)
			}
			tt.mutate(doc)
			data, _ := json.Marshal(doc)
			_, err := NewLoader().LoadReader(tt.name, bytes.NewReader(data), false)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestBadGLB(t *testing.T) {
	data := glbTriangle(t)
	data[0] = 'x'
	if _, err := NewLoader().LoadReader("bad", bytes.NewReader(data), true); err == nil {
		t.Fatal("expected a magic number error")
	}
}

func TestLineLoopCloses(t *testing.T) {
	if got := closeLoop(nil, 3); fmt.Sprint(got) != "[0 1 2 0]" {
		t.Fatalf("closeLoop(nil, 3) = %v", got)
	}
	if got := closeLoop([]uint32{4, 5, 6}, 7); fmt.Sprint(got) != "[4 5 6 4]" {
		t.Fatalf("closeLoop = %v", got)
	}
}

func TestDecomposeInvertsModelMatrix(t *testing.T) {
	pos := mgl32.Vec3{1, -2, 3}
	rot := mgl32.Vec3{0.3, -1.1, 0.7}
	scale := mgl32.Vec3{2, 0.5, 1.5}
	m := common.ModelMatrix(pos, rot, scale)

	gotPos, gotRot, gotScale := decompose(m)
	if !gotPos.ApproxEqualThreshold(pos, 1e-5) {
		t.Errorf("position = %v, want %v", gotPos, pos)
	}
	if !gotScale.ApproxEqualThreshold(scale, 1e-5) {
		t.Errorf("scale = %v, want %v", gotScale, scale)
	}
	if !gotRot.ApproxEqualThreshold(rot, 1e-4) {
		t.Errorf("rotation = %v, want %v", gotRot, rot)
	}
}

func TestQuaternionRotation(t *testing.T) {
	// 90 degrees around Y.
	q := mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0})
	got := eulerYXZ(q.Mat4())
	if !got.ApproxEqualThreshold(mgl32.Vec3{0, math.Pi / 2, 0}, 1e-5) {
		t.Fatalf("euler = %v", got)
	}
}
