package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestViewIsInverseOfWorld(t *testing.T) {
	c := NewCamera(WithPosition(3, 4, 5), WithLookAt(0, 1, 0))

	product := c.WorldMatrix().Mul4(c.ViewMatrix())
	if !product.ApproxEqualThreshold(mgl32.Ident4(), 1e-5) {
		t.Fatalf("world * view = %v", product)
	}
	eye := c.WorldMatrix().Col(3).Vec3()
	if !eye.ApproxEqual(mgl32.Vec3{3, 4, 5}) {
		t.Errorf("camera origin = %v", eye)
	}
}

func TestProjectionFollowsAspect(t *testing.T) {
	c := NewCamera(WithFov(float32(math.Pi/2)), WithNear(1), WithFar(10))
	c.SetAspect(2)
	before := c.ProjectionMatrix()
	c.UpdateMatrices()

	want := mgl32.Perspective(float32(math.Pi/2), 2, 1, 10)
	if !c.ProjectionMatrix().ApproxEqual(want) {
		t.Fatalf("projection = %v, want %v", c.ProjectionMatrix(), want)
	}
	if before.ApproxEqual(want) {
		t.Error("projection changed before UpdateMatrices")
	}
}

func TestCameraOnTargetKeepsView(t *testing.T) {
	c := NewCamera(WithPosition(0, 0, 5))
	view := c.ViewMatrix()
	c.SetPosition(mgl32.Vec3{})
	c.UpdateMatrices()
	if c.ViewMatrix() != view {
		t.Fatal("degenerate look-at replaced the view")
	}

	d := NewCamera(WithPosition(1, 1, 1), WithLookAt(1, 1, 1))
	if d.ViewMatrix() == (mgl32.Mat4{}) {
		t.Fatal("camera created on its target has no view")
	}
}

func TestControllerDrivesCamera(t *testing.T) {
	ctrl := NewCameraController(WithRadius(10), WithElevation(0), WithTarget(0, 2, 0))
	c := NewCamera(WithController(ctrl))

	if got := c.Position(); !got.ApproxEqual(mgl32.Vec3{0, 2, 10}) {
		t.Fatalf("position = %v", got)
	}

	ctrl.Orbit(float32(math.Pi/2), 0)
	c.UpdateMatrices()
	if got := c.Position(); !got.ApproxEqualThreshold(mgl32.Vec3{10, 2, 0}, 1e-4) {
		t.Fatalf("orbited position = %v", got)
	}
}

func TestControllerClamps(t *testing.T) {
	ctrl := NewCameraController(WithRadius(10), WithRadiusBounds(2, 20), WithZoomSpeed(1))

	ctrl.Zoom(100)
	if ctrl.Radius() != 2 {
		t.Errorf("zoomed radius = %v", ctrl.Radius())
	}
	ctrl.SetRadius(50)
	if ctrl.Radius() != 20 {
		t.Errorf("radius = %v", ctrl.Radius())
	}

	ctrl.Orbit(0, 10)
	if e := ctrl.Elevation(); e >= float32(math.Pi/2) {
		t.Errorf("elevation = %v, not clamped below pi/2", e)
	}
}

func TestControllerPanMovesTarget(t *testing.T) {
	ctrl := NewCameraController(WithRadius(10), WithElevation(0), WithPanSpeed(1))
	offset := ctrl.Position().Sub(ctrl.Target())

	ctrl.PanRight(2)
	if got := ctrl.Target(); !got.ApproxEqualThreshold(mgl32.Vec3{2, 0, 0}, 1e-5) {
		t.Fatalf("target after pan = %v", got)
	}
	if got := ctrl.Position().Sub(ctrl.Target()); !got.ApproxEqualThreshold(offset, 1e-5) {
		t.Errorf("pan changed the orbit offset: %v -> %v", offset, got)
	}

	ctrl.PanUp(1)
	if got := ctrl.Target().Y(); math.Abs(float64(got-1)) > 1e-5 {
		t.Errorf("target y after pan up = %v", got)
	}
}
