package scene

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// Scene is the root of a node graph plus the background the renderer clears to.
// It satisfies renderer.Scene.
type Scene interface {
	renderer.Scene

	// Add attaches nodes as roots, detaching each from any previous parent.
	//
	// Parameters:
	//   - nodes: the nodes to add
	Add(nodes ...Node)

	// Remove detaches a node wherever it sits in the graph. Its subtree goes with it.
	//
	// Parameters:
	//   - n: the node to remove
	//
	// Returns:
	//   - bool: true if the node was part of the scene
	Remove(n Node) bool

	// Roots returns a snapshot of the root nodes in insertion order.
	Roots() []Node

	// Find looks a node up by id anywhere in the graph, including hidden subtrees.
	//
	// Parameters:
	//   - id: the node id
	//
	// Returns:
	//   - Node: the node, or nil if it is not in the scene
	Find(id uint64) Node

	// SetBackground replaces the background.
	SetBackground(b common.Background)

	// Close stops the worker pool used by UpdateWorldMatrices.
	Close()
}

type scene struct {
	mu *sync.Mutex

	roots      []*node
	background common.Background

	workers int
	pool    worker.DynamicWorkerPool
}

var _ Scene = &scene{}

// NewScene creates an empty scene with no background.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:      &sync.Mutex{},
		workers: max(1, runtime.NumCPU()-1),
	}
	for _, option := range options {
		option(s)
	}
	s.pool = worker.NewDynamicWorkerPool(s.workers, 256, 1*time.Second)
	return s
}

func (s *scene) Background() common.Background {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.background
}

func (s *scene) SetBackground(b common.Background) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = b
}

func (s *scene) Add(nodes ...Node) {
	for _, n := range nodes {
		nd, ok := n.(*node)
		if !ok || nd == nil {
			continue
		}
		if old := nd.parentNode(); old != nil {
			old.Remove(nd)
		}
		s.mu.Lock()
		if s.indexOf(nd) < 0 {
			s.roots = append(s.roots, nd)
		}
		s.mu.Unlock()
	}
}

func (s *scene) Remove(n Node) bool {
	nd, ok := n.(*node)
	if !ok || nd == nil {
		return false
	}
	s.mu.Lock()
	if i := s.indexOf(nd); i >= 0 {
		s.roots = append(s.roots[:i], s.roots[i+1:]...)
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	parent := nd.parentNode()
	if parent == nil || s.Find(parent.id) == nil {
		return false
	}
	parent.Remove(nd)
	return true
}

// indexOf returns the root index of n, or -1. Caller must hold the mutex.
func (s *scene) indexOf(n *node) int {
	for i, r := range s.roots {
		if r == n {
			return i
		}
	}
	return -1
}

func (s *scene) Roots() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Node, len(s.roots))
	for i, r := range s.roots {
		out[i] = r
	}
	return out
}

func (s *scene) Find(id uint64) Node {
	var found Node
	var visit func(n Node) bool
	visit = func(n Node) bool {
		if n.ID() == id {
			found = n
			return true
		}
		for _, c := range n.Children() {
			if visit(c) {
				return true
			}
		}
		return false
	}
	for _, r := range s.Roots() {
		if visit(r) {
			break
		}
	}
	return found
}

// Walk visits visible nodes depth first, parents before children and siblings in insertion
// order. A hidden node hides its whole subtree.
func (s *scene) Walk(visit func(renderer.Node)) {
	var walk func(n *node)
	walk = func(n *node) {
		if !n.Visible() {
			return
		}
		visit(n)
		n.mu.Lock()
		children := append([]*node(nil), n.children...)
		n.mu.Unlock()
		for _, c := range children {
			walk(c)
		}
	}
	s.mu.Lock()
	roots := append([]*node(nil), s.roots...)
	s.mu.Unlock()
	for _, r := range roots {
		walk(r)
	}
}

// UpdateWorldMatrices recomposes every world matrix, hidden subtrees included. Root subtrees
// are independent, so each one is composed as a separate task on the worker pool; the call
// returns once all of them are done.
func (s *scene) UpdateWorldMatrices() {
	s.mu.Lock()
	roots := append([]*node(nil), s.roots...)
	s.mu.Unlock()

	if len(roots) < 2 {
		for _, r := range roots {
			r.updateWorld(mgl32.Ident4())
		}
		return
	}

	// The pool's own Wait blocks until workers idle out, which is too slow per frame.
	var wg sync.WaitGroup
	for i, r := range roots {
		wg.Add(1)
		root := r
		s.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				root.updateWorld(mgl32.Ident4())
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (s *scene) Close() {
	s.pool.Stop()
}
