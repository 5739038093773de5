// Package lightdetect measures how brightly lit the player is by rendering
// two small views of a detector, reading them back without blocking the
// simulation, and averaging the lit-pixel fraction over a rolling window.
package lightdetect

// Pixel is an 8-bit RGBA sample read back from a render target.
type Pixel struct {
	R, G, B, A uint8
}

// Brightness returns the value compared against the light threshold.
// With ignoreBlue set only red and green contribute.
func (p Pixel) Brightness(ignoreBlue bool) float64 {
	if ignoreBlue {
		return (float64(p.R) + float64(p.G)) * 0.5
	}
	return (float64(p.R) + float64(p.G) + float64(p.B)) / 3
}

// CountLit returns the number of pixels whose brightness exceeds threshold.
func CountLit(pixels []Pixel, ignoreBlue bool, threshold float64) int {
	count := 0
	for _, p := range pixels {
		if p.Brightness(ignoreBlue) > threshold {
			count++
		}
	}
	return count
}

// CaptureRequest carries one cycle's readback to the sampler.
// It owns its pixel slices; NewCaptureRequest copies them.
type CaptureRequest struct {
	Top          []Pixel
	Bottom       []Pixel
	MinimumLight float64
	IgnoreBlue   bool
}

// NewCaptureRequest snapshots the readback buffers so the pipeline can reuse them.
func NewCaptureRequest(top, bottom []Pixel, minimumLight float64, ignoreBlue bool) CaptureRequest {
	return CaptureRequest{
		Top:          append([]Pixel(nil), top...),
		Bottom:       append([]Pixel(nil), bottom...),
		MinimumLight: minimumLight,
		IgnoreBlue:   ignoreBlue,
	}
}

// Result is the sampled lit-pixel counts for one cycle.
type Result struct {
	Top         int
	Bottom      int
	TotalPixels int
}

// Fraction returns the lit share of all sampled pixels, or 0 with no pixels.
func (r Result) Fraction() float64 {
	if r.TotalPixels == 0 {
		return 0
	}
	return float64(r.Top+r.Bottom) / float64(r.TotalPixels)
}

// Process samples both sides of the request.
func (r CaptureRequest) Process() Result {
	return Result{
		Top:         CountLit(r.Top, r.IgnoreBlue, r.MinimumLight),
		Bottom:      CountLit(r.Bottom, r.IgnoreBlue, r.MinimumLight),
		TotalPixels: len(r.Top) + len(r.Bottom),
	}
}
