package depthcloud

import (
	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCameraModule orbits the cloud with a left drag and zooms with the
// scroll wheel. R returns to the initial view.
type OrbitCameraModule struct {
	Distance float32
	Damping  float32
}

// OrbitCamera is the camera resource. ViewProj is refreshed every Update.
type OrbitCamera struct {
	Camera   *core.OrbitCamera
	ViewProj mgl32.Mat4

	distance float32
	damping  float32
}

func (m OrbitCameraModule) Install(app *App, cmd *Commands) {
	distance := m.Distance
	if distance <= 0 {
		distance = 3
	}
	cam := &OrbitCamera{distance: distance, damping: m.Damping}
	cam.reset()
	cmd.AddResources(cam)
	app.UseSystem(
		System(orbitCameraSystem).
			InStage(Update),
	)
}

func (c *OrbitCamera) reset() {
	c.Camera = core.NewOrbitCamera(c.distance)
	if c.damping > 0 {
		c.Camera.Damping = c.damping
	}
	c.ViewProj = mgl32.Ident4()
}

func orbitCameraSystem(input *Input, cam *OrbitCamera) {
	if input.JustPressed[KeyR] {
		cam.reset()
	}
	if input.Pressed[MouseButtonLeft] {
		cam.Camera.Rotate(float32(input.MouseDeltaX), float32(input.MouseDeltaY))
	}
	cam.Camera.Zoom(float32(input.ScrollY))
	cam.Camera.Update()

	aspect := float32(1)
	if input.FramebufferWidth > 0 && input.FramebufferHeight > 0 {
		aspect = float32(input.FramebufferWidth) / float32(input.FramebufferHeight)
	}
	cam.ViewProj = cam.Camera.ViewProj(aspect)
}
