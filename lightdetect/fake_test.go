package lightdetect

import "github.com/go-gl/mathgl/mgl64"

type fakeSource struct {
	name string
	loc  mgl64.Vec3
}

func (s *fakeSource) SetLocation(p mgl64.Vec3) { s.loc = p }

type fakeTarget struct {
	pixels []Pixel
}

func (t *fakeTarget) Size() (int, int) { return len(t.pixels), 1 }

type fakeFence struct {
	done bool
}

func (f *fakeFence) Complete() bool { return f.done }

// fakeDevice records submitted commands. Fences complete immediately when
// prompt is set; otherwise tests release them by hand.
type fakeDevice struct {
	prompt   bool
	calls    []string
	fences   []*fakeFence
	captures int
	deferred int
	reads    int
}

func (d *fakeDevice) CaptureScene(src Source) {
	d.captures++
	d.calls = append(d.calls, "capture:"+src.(*fakeSource).name)
}

func (d *fakeDevice) CaptureSceneDeferred(src Source) {
	d.deferred++
	d.calls = append(d.calls, "deferred:"+src.(*fakeSource).name)
}

func (d *fakeDevice) ReadPixels(t Target, dst *[]Pixel) {
	d.reads++
	*dst = append((*dst)[:0], t.(*fakeTarget).pixels...)
	d.calls = append(d.calls, "read")
}

func (d *fakeDevice) BeginFence() Fence {
	f := &fakeFence{done: d.prompt}
	d.fences = append(d.fences, f)
	return f
}

func (d *fakeDevice) release() {
	for _, f := range d.fences {
		f.done = true
	}
}

func newFakeResources(topLit, bottomLit, size int) (*fakeSource, *fakeSource, *fakeTarget, *fakeTarget) {
	mk := func(lit int) *fakeTarget {
		t := &fakeTarget{pixels: make([]Pixel, size)}
		for i := 0; i < lit; i++ {
			t.pixels[i] = Pixel{255, 255, 255, 255}
		}
		return t
	}
	return &fakeSource{name: "top"}, &fakeSource{name: "bottom"}, mk(topLit), mk(bottomLit)
}
