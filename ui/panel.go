package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drape/config"
)

const (
	panelWidth  = 280
	sliderWidth = panelWidth - 90
)

// Panel holds the live values of the tuning controls. The game reads them
// back after Draw reports a change.
type Panel struct {
	Visible bool

	StepsPerSecond float32
	Compliance     float32
	WindSpeed      float32
	WindDrag       float32
	WindLift       float32
}

// Result reports what the user touched this frame.
type Result struct {
	RateChanged       bool
	ComplianceChanged bool
	WindChanged       bool
	ToggleWind        bool
	Reset             bool
}

// NewPanel seeds the controls from config.
func NewPanel(cfg *config.Config) *Panel {
	return &Panel{
		StepsPerSecond: float32(cfg.Solver.StepsPerSecond),
		Compliance:     float32(cfg.Cloth.Compliance),
		WindSpeed:      float32(cfg.Wind.VelocityX),
		WindDrag:       float32(cfg.Wind.Drag),
		WindLift:       float32(cfg.Wind.Lift),
	}
}

// Draw renders the panel and returns what changed.
func (p *Panel) Draw(windEnabled bool) Result {
	var res Result

	x := float32(rl.GetScreenWidth() - panelWidth - 10)
	y := float32(10)

	rl.DrawRectangle(int32(x)-10, 0, panelWidth+20, 380, rl.NewColor(0, 0, 0, 160))
	rl.DrawText("Solver", int32(x), int32(y), 20, rl.RayWhite)
	y += 30

	slider := func(label string, value, min, max float32, format string) float32 {
		rl.DrawText(label, int32(x), int32(y), 14, rl.LightGray)
		y += 18
		v := gui.SliderBar(
			rl.Rectangle{X: x, Y: y, Width: sliderWidth, Height: 20},
			fmt.Sprintf(format, min), fmt.Sprintf(format, max),
			value, min, max,
		)
		rl.DrawText(fmt.Sprintf(format, v), int32(x+sliderWidth+45), int32(y+2), 16, rl.RayWhite)
		y += 30
		return v
	}

	newRate := slider("Substeps per second", p.StepsPerSecond, 1, 1000, "%.0f")
	if newRate != p.StepsPerSecond {
		p.StepsPerSecond = newRate
		res.RateChanged = true
	}

	newCompliance := slider("Stretch compliance", p.Compliance, 0, 0.001, "%.4f")
	if newCompliance != p.Compliance {
		p.Compliance = newCompliance
		res.ComplianceChanged = true
	}

	rl.DrawText("Wind", int32(x), int32(y), 20, rl.RayWhite)
	y += 30

	newSpeed := slider("Speed (x axis)", p.WindSpeed, 0, 20, "%.1f")
	if newSpeed != p.WindSpeed {
		p.WindSpeed = newSpeed
		res.WindChanged = true
	}
	newDrag := slider("Drag", p.WindDrag, 0, 2, "%.2f")
	if newDrag != p.WindDrag {
		p.WindDrag = newDrag
		res.WindChanged = true
	}
	newLift := slider("Lift", p.WindLift, 0, 2, "%.2f")
	if newLift != p.WindLift {
		p.WindLift = newLift
		res.WindChanged = true
	}

	windText := "Enable Wind"
	if windEnabled {
		windText = "Disable Wind"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 120, Height: 30}, windText) {
		res.ToggleWind = true
	}
	if gui.Button(rl.Rectangle{X: x + 130, Y: y, Width: 120, Height: 30}, "Reset Cloth") {
		res.Reset = true
	}

	return res
}
