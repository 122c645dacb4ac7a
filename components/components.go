// Package components defines ECS components for the viewer scene.
package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/drape/xpbd"
)

// Transform places a cloth instance in the world.
type Transform struct {
	Offset mgl32.Vec3
}

// ClothSim attaches one simulator instance to a scene entity. Each cloth
// owns its full state, so instances step and fail independently.
type ClothSim struct {
	Sim   *xpbd.Cloth
	Label string

	// Last advance summary, kept for the HUD.
	Substeps int
	Residual float32
}
