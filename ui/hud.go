package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/thieflike/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Tick         int32
	FPS          int32
	Paused       bool
	Restored     string // Snapshot path the session was restored from
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(fmt.Sprintf("Tick: %d | FPS: %d", data.Tick, data.FPS), 10, 35, 16, rl.LightGray)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 55, 16, rl.Yellow)
	if data.Restored != "" {
		rl.DrawText("restored: "+data.Restored, 10, 75, 12, rl.Gray)
	}

	// Crosshair
	cx, cy := data.ScreenWidth/2, data.ScreenHeight/2
	rl.DrawLine(cx-6, cy, cx+6, cy, rl.Fade(rl.White, 0.6))
	rl.DrawLine(cx, cy-6, cx, cy+6, rl.Fade(rl.White, 0.6))
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PlayerView is the per-frame state shown by the player panel.
type PlayerView struct {
	Brightness float64
	Visibility float64
	Visible    bool

	Stance   string
	Mode     string
	Speed    float64
	Lean     float64
	MaxLean  float64
	Mantling bool
	Focus    string // Interactable under the crosshair

	Stage     string
	Cycles    int
	Threaded  bool
	Processed int64
	Dropped   int64
	Pending   int
}

// PlayerPanel describes the stealth and locomotion readout.
func PlayerPanel() PanelDescriptor {
	pv := func(d any) PlayerView { return d.(PlayerView) }
	return PanelDescriptor{
		ID:    "player",
		Title: "Player",
		Width: 260,
		Sections: []SectionDescriptor{
			{
				ID:    "light",
				Title: "Light",
				Fields: []FieldDescriptor{
					{ID: "brightness", Label: "Light", Widget: WidgetBar, Getter: func(d any) float32 { return float32(pv(d).Brightness) }},
					{ID: "visibility", Label: "Visibility", Widget: WidgetLevelBar, Getter: func(d any) float32 { return float32(pv(d).Visibility) }},
					{ID: "visible", Label: "Status", Widget: WidgetText, TextGetter: func(d any) string {
						if pv(d).Visible {
							return "VISIBLE"
						}
						return "hidden"
					}},
				},
			},
			{
				ID:    "motion",
				Title: "Motion",
				Fields: []FieldDescriptor{
					{ID: "stance", Label: "Stance", Widget: WidgetText, TextGetter: func(d any) string { return pv(d).Stance }},
					{ID: "mode", Label: "Mode", Widget: WidgetText, TextGetter: func(d any) string {
						if pv(d).Mantling {
							return pv(d).Mode + " (mantle)"
						}
						return pv(d).Mode
					}},
					{ID: "speed", Label: "Speed", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 { return float32(pv(d).Speed) }},
					{ID: "lean", Label: "Lean", Widget: WidgetCenteredBar, Range: FieldRange{Min: -20, Max: 20}, Getter: func(d any) float32 { return float32(pv(d).Lean) }},
					{ID: "focus", Label: "Use", Widget: WidgetText, TextGetter: func(d any) string { return pv(d).Focus },
						Visible: func(d any) bool { return pv(d).Focus != "" }},
				},
			},
			{
				ID:    "detector",
				Title: "Detector",
				Fields: []FieldDescriptor{
					{ID: "stage", Label: "Stage", Widget: WidgetText, TextGetter: func(d any) string { return pv(d).Stage }},
					{ID: "cycles", Label: "Cycles", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 { return float32(pv(d).Cycles) }},
					{ID: "worker", Label: "Worker", Widget: WidgetText, TextGetter: func(d any) string {
						v := pv(d)
						if !v.Threaded {
							return "inline"
						}
						return fmt.Sprintf("%d done, %d dropped, %d queued", v.Processed, v.Dropped, v.Pending)
					}},
				},
			},
		},
	}
}

// PlayerPanelFor returns PlayerPanel with the lean range matched to view.
func PlayerPanelFor(view PlayerView) PanelDescriptor {
	p := PlayerPanel()
	if view.MaxLean <= 0 {
		return p
	}
	for si := range p.Sections {
		for fi := range p.Sections[si].Fields {
			if p.Sections[si].Fields[fi].ID == "lean" {
				p.Sections[si].Fields[fi].Range = FieldRange{Min: float32(-view.MaxLean), Max: float32(view.MaxLean)}
			}
		}
	}
	return p
}

// PerfPanel renders the tick phase breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  Max: %s  %.0f tps",
		stats.AvgTickDuration.Round(time.Microsecond),
		stats.MaxTickDuration.Round(time.Microsecond),
		stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	if stats.OverBudget > 0 {
		rl.DrawText(fmt.Sprintf("%d slow ticks, mostly %s", stats.OverBudget, stats.Slowest), x, y, 12, rl.Red)
		y += 14
	}

	for _, ph := range telemetry.Phases {
		avg := stats.PhaseAvg[ph]
		pct := stats.PhasePct[ph]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", ph, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
