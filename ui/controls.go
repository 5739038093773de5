package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Tuning holds the detector and stealth parameters adjustable at runtime.
type Tuning struct {
	IgnoreBlue          bool
	MinimumLight        float32 // 0-255
	VisibilityThreshold float32 // 0-1
}

// ControlsAction reports what the user did on the controls panel.
type ControlsAction struct {
	TuningChanged bool
	SaveSnapshot  bool
	SaveConfig    bool
}

// ControlsPanel renders the overlay toggles and the tuning widgets.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the panel and applies widget edits to tuning.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry, tuning *Tuning) ControlsAction {
	var action ControlsAction
	if !c.visible {
		return action
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1
	}
	tuningHeight := int32(3*32 + 40)
	panelHeight := int32(totalItems)*lineHeight + padding*3 + lineHeight + tuningHeight

	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding
	rl.DrawText("Controls", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	for _, category := range categories {
		rl.DrawText(categoryLabel(category), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}
		y += 4
	}

	rl.DrawText("Tuning", c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	y += lineHeight

	fx := float32(c.x + padding)
	fw := float32(c.width - padding*2)

	ignore := gui.CheckBox(rl.Rectangle{X: fx, Y: float32(y), Width: 12, Height: 12}, "Ignore blue", tuning.IgnoreBlue)
	if ignore != tuning.IgnoreBlue {
		tuning.IgnoreBlue = ignore
		action.TuningChanged = true
	}
	y += 20

	rl.DrawText(fmt.Sprintf("Minimum light %.0f", tuning.MinimumLight), c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += 14
	minLight := gui.SliderBar(rl.Rectangle{X: fx, Y: float32(y), Width: fw, Height: 12}, "", "", tuning.MinimumLight, 0, 255)
	if minLight != tuning.MinimumLight {
		tuning.MinimumLight = minLight
		action.TuningChanged = true
	}
	y += 18

	rl.DrawText(fmt.Sprintf("Visible at %.2f", tuning.VisibilityThreshold), c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += 14
	threshold := gui.SliderBar(rl.Rectangle{X: fx, Y: float32(y), Width: fw, Height: 12}, "", "", tuning.VisibilityThreshold, 0, 1)
	if threshold != tuning.VisibilityThreshold {
		tuning.VisibilityThreshold = threshold
		action.TuningChanged = true
	}
	y += 20

	half := (fw - 6) / 2
	action.SaveSnapshot = gui.Button(rl.Rectangle{X: fx, Y: float32(y), Width: half, Height: 22}, "Snapshot")
	action.SaveConfig = gui.Button(rl.Rectangle{X: fx + half + 6, Y: float32(y), Width: half, Height: 22}, "Save config")

	return action
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "hud":
		return "HUD"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}
