package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController owns a camera's position and target. The camera reads both on every
// UpdateMatrices. The controller orbits a target on a sphere (radius, azimuth, elevation)
// and can pan the target along the camera's local axes.
type CameraController interface {
	// Position returns the world-space position derived from the orbit state.
	Position() mgl32.Vec3

	// Target returns the orbit pivot.
	Target() mgl32.Vec3

	// SetTarget moves the orbit pivot, keeping radius and angles.
	//
	// Parameters:
	//   - t: world-space pivot
	SetTarget(t mgl32.Vec3)

	// Orbit rotates around the target. Elevation is clamped to the configured bounds.
	//
	// Parameters:
	//   - dAzimuth: horizontal change in radians
	//   - dElevation: vertical change in radians
	Orbit(dAzimuth, dElevation float32)

	// OrbitLeft, OrbitRight, OrbitUp and OrbitDown orbit by one OrbitSpeed step.
	OrbitLeft()
	OrbitRight()
	OrbitUp()
	OrbitDown()

	// Zoom moves toward the target by delta * ZoomSpeed, clamped to the radius bounds.
	// Positive delta zooms in.
	Zoom(delta float32)

	// Radius returns the distance from the target.
	Radius() float32

	// SetRadius sets the distance from the target, clamped to the radius bounds.
	SetRadius(radius float32)

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32

	// Elevation returns the angle above the horizontal plane in radians.
	Elevation() float32

	// PanRight and PanUp translate position and target together along the camera's
	// right and up axes by delta * PanSpeed.
	PanRight(delta float32)
	PanUp(delta float32)
}
