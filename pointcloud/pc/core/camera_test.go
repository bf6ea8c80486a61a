package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestOrbitCameraEyeDistance(t *testing.T) {
	cam := NewOrbitCamera(5)
	eye := cam.Eye()
	if !eye.ApproxEqualThreshold(mgl32.Vec3{0, 0, 5}, 1e-5) {
		t.Errorf("expected default eye on +Z, got %v", eye)
	}

	cam.Rotate(300, -200)
	for i := 0; i < 100; i++ {
		cam.Update()
	}
	if d := cam.Eye().Sub(cam.Target).Len(); d < 4.999 || d > 5.001 {
		t.Errorf("orbit changed distance: %v", d)
	}
}

func TestOrbitCameraDamping(t *testing.T) {
	cam := NewOrbitCamera(5)
	cam.Rotate(100, 0)
	total := -100 * cam.Sensitivity

	cam.Update()
	if got := cam.Yaw; got != total*0.25 {
		t.Errorf("first update should apply a quarter of the drag, got %v want %v", got, total*0.25)
	}
	for i := 0; i < 200; i++ {
		cam.Update()
	}
	if diff := cam.Yaw - total; diff > 1e-4 || diff < -1e-4 {
		t.Errorf("yaw should converge to %v, got %v", total, cam.Yaw)
	}
}

func TestOrbitCameraPitchClamp(t *testing.T) {
	cam := NewOrbitCamera(5)
	cam.Damping = 1
	cam.Rotate(0, 1e6)
	cam.Update()
	if cam.Pitch > maxPitch {
		t.Errorf("pitch not clamped: %v", cam.Pitch)
	}
}

func TestOrbitCameraZoom(t *testing.T) {
	cam := NewOrbitCamera(10)
	cam.Damping = 1
	cam.Zoom(1)
	cam.Update()
	if cam.Distance != 10*cam.ZoomSpeed {
		t.Errorf("expected distance %v, got %v", 10*cam.ZoomSpeed, cam.Distance)
	}
	cam.Zoom(-1000)
	cam.Update()
	if cam.Distance != cam.MaxDistance {
		t.Errorf("expected clamp to max distance, got %v", cam.Distance)
	}
}

func TestOrbitCameraProjectionDepthRange(t *testing.T) {
	cam := NewOrbitCamera(5)
	vp := cam.ViewProj(1)
	near := vp.Mul4x1(mgl32.Vec4{0, 0, 5 - cam.Near, 1})
	far := vp.Mul4x1(mgl32.Vec4{0, 0, 5 - cam.Far, 1})
	if z := near.Z() / near.W(); z < -1e-3 || z > 1e-3 {
		t.Errorf("near plane should map to depth 0, got %v", z)
	}
	if z := far.Z() / far.W(); z < 1-1e-2 || z > 1+1e-2 {
		t.Errorf("far plane should map to depth 1, got %v", z)
	}
}
