// Package loader imports glTF 2.0 (.gltf and .glb) files into scene nodes.
//
// Only static geometry is imported: positions, COLOR_0, indices, every primitive topology
// and the base color factor of each material. Textures, skins and animations are ignored.
package loader

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu           *sync.RWMutex
	cache        map[string]*asset
	defaultColor common.Color
}

// Loader imports model files and caches the parsed result. Every call that returns a node
// builds a fresh node tree, so one file can be placed in a scene many times; the instances
// share geometry and materials.
type Loader interface {
	// Load imports a .gltf or .glb file, or reuses the cached import of the same path.
	//
	// Parameters:
	//   - path: the file to import; relative buffer URIs resolve against its directory
	//
	// Returns:
	//   - scene.Node: a new instance of the file's default scene
	//   - error: error if the file cannot be read or is not a supported glTF document
	Load(path string) (scene.Node, error)

	// LoadReader imports a document from r and caches it under name. External buffer URIs
	// are rejected since there is no directory to resolve them against.
	//
	// Parameters:
	//   - name: the cache key
	//   - r: the document bytes
	//   - isGLB: true for the binary container format
	//
	// Returns:
	//   - scene.Node: a new instance of the document's default scene
	//   - error: error if the document cannot be parsed
	LoadReader(name string, r io.Reader, isGLB bool) (scene.Node, error)

	// Instance builds another node tree from a cached import.
	//
	// Parameters:
	//   - name: the path or name the file was loaded under
	//
	// Returns:
	//   - scene.Node: the new instance
	//   - bool: false if nothing is cached under name
	Instance(name string) (scene.Node, bool)

	// Names lists the cached imports in sorted order.
	Names() []string
}

var _ Loader = &loader{}

// NewLoader creates a Loader.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:           &sync.RWMutex{},
		cache:        make(map[string]*asset),
		defaultColor: common.RGB(0.8, 0.8, 0.8),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *loader) Load(path string) (scene.Node, error) {
	if n, ok := l.Instance(path); ok {
		return n, nil
	}
	p, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	return l.store(path, p)
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (scene.Node, error) {
	if n, ok := l.Instance(name); ok {
		return n, nil
	}
	p, err := parseReader(r, isGLB)
	if err != nil {
		return nil, err
	}
	return l.store(name, p)
}

func (l *loader) store(name string, p *gltfParser) (scene.Node, error) {
	a, err := buildAsset(name, p, l.defaultColor)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}
	l.mu.Lock()
	l.cache[name] = a
	l.mu.Unlock()

	common.Logger().Debug("model imported", "name", name, "meshes", len(a.meshes), "nodes", len(a.nodes))
	return a.instance(), nil
}

func (l *loader) Instance(name string) (scene.Node, bool) {
	l.mu.RLock()
	a, ok := l.cache[name]
	l.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return a.instance(), true
}

func (l *loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.cache))
	for name := range l.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// instance builds a node tree under a grouping root named after the asset. Multi-primitive
// meshes get one child node per primitive.
func (a *asset) instance() scene.Node {
	root := scene.NewNode(scene.WithName(a.name))
	for _, r := range a.roots {
		root.Add(a.instanceNode(r))
	}
	return root
}

func (a *asset) instanceNode(i int) scene.Node {
	src := a.nodes[i]
	n := scene.NewNode(
		scene.WithName(src.name),
		scene.WithPosition(src.position.X(), src.position.Y(), src.position.Z()),
		scene.WithRotation(src.rotation.X(), src.rotation.Y(), src.rotation.Z()),
		scene.WithScale(src.scale.X(), src.scale.Y(), src.scale.Z()),
	)
	if src.mesh >= 0 {
		prims := a.meshes[src.mesh]
		if len(prims) == 1 {
			n.SetDrawable(prims[0])
		} else {
			for _, d := range prims {
				n.Add(scene.NewNode(scene.WithDrawable(d)))
			}
		}
	}
	for _, c := range src.children {
		n.Add(a.instanceNode(c))
	}
	return n
}
