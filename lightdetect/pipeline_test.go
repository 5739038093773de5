package lightdetect

import (
	"errors"
	"testing"
	"time"
)

func testPipelineConfig() PipelineConfig {
	return PipelineConfig{
		UpdateInterval: 50 * time.Millisecond,
		SettleDelay:    100 * time.Millisecond,
		MinimumLight:   15,
	}
}

func TestPipelineMissingResourcesParks(t *testing.T) {
	dev := &fakeDevice{prompt: true}
	p := NewPipeline(dev, testPipelineConfig(), nil)

	if err := p.Ready(); !errors.Is(err, ErrNoResources) {
		t.Errorf("expected ErrNoResources, got %v", err)
	}

	top, bottom, _, _ := newFakeResources(0, 0, 4)
	p.SetSources(top, bottom)
	for i := 1; i <= 50; i++ {
		if _, ok := p.Update(time.Duration(i) * 10 * time.Millisecond); ok {
			t.Fatal("expected no request without targets")
		}
	}
	if p.Stage() != StageIdle {
		t.Errorf("expected idle stage, got %v", p.Stage())
	}
	if len(dev.calls) != 0 {
		t.Errorf("expected no device calls, got %v", dev.calls)
	}
}

func TestPipelineStageSequence(t *testing.T) {
	dev := &fakeDevice{prompt: true}
	p := NewPipeline(dev, testPipelineConfig(), nil)
	top, bottom, tt, bt := newFakeResources(2, 0, 4)
	p.SetSources(top, bottom)
	p.SetTargets(tt, bt)

	var seen []Stage
	var req CaptureRequest
	now := time.Duration(0)
	for i := 0; i < 200; i++ {
		now += 10 * time.Millisecond
		r, ok := p.Update(now)
		if len(seen) == 0 || seen[len(seen)-1] != p.Stage() {
			seen = append(seen, p.Stage())
		}
		if ok {
			req = r
			break
		}
	}

	want := []Stage{
		StageCaptureTop, StageWaitSettleTop,
		StageCaptureBottom, StageWaitSettleBottom,
		StageReadbackTop, StageWaitSettleReadback,
		StageReadbackBottom, StageDone,
	}
	if len(seen) != len(want) {
		t.Fatalf("expected stages %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("stage %d: expected %v, got %v", i, want[i], seen[i])
		}
	}

	if len(req.Top) != 4 || len(req.Bottom) != 4 {
		t.Errorf("expected 4 pixels per side, got %d/%d", len(req.Top), len(req.Bottom))
	}
	if dev.captures != 2 || dev.deferred != 0 {
		t.Errorf("expected two full captures on first run, got %d full %d deferred", dev.captures, dev.deferred)
	}

	// Parked in Done until completed
	for i := 0; i < 10; i++ {
		now += 10 * time.Millisecond
		if _, ok := p.Update(now); ok {
			t.Fatal("expected no second request while parked")
		}
	}
	p.Complete(now)
	if p.Stage() != StageIdle || p.Cycles() != 1 {
		t.Errorf("expected idle after complete with 1 cycle, got %v/%d", p.Stage(), p.Cycles())
	}
	if p.NextSample() != now+50*time.Millisecond {
		t.Errorf("expected next sample at %v, got %v", now+50*time.Millisecond, p.NextSample())
	}
}

func TestPipelineWaitsForFences(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPipeline(dev, testPipelineConfig(), nil)
	top, bottom, tt, bt := newFakeResources(0, 0, 4)
	p.SetSources(top, bottom)
	p.SetTargets(tt, bt)

	p.Update(10 * time.Millisecond)
	if p.Stage() != StageCaptureTop {
		t.Fatalf("expected capture_top, got %v", p.Stage())
	}
	for i := 2; i < 100; i++ {
		p.Update(time.Duration(i) * 10 * time.Millisecond)
	}
	if p.Stage() != StageCaptureTop {
		t.Errorf("expected pipeline to wait on the fence, got %v", p.Stage())
	}
	dev.release()
	p.Update(time.Second)
	if p.Stage() != StageWaitSettleTop {
		t.Errorf("expected wait_settle_top after fence, got %v", p.Stage())
	}
}

func TestPipelineSettleDelay(t *testing.T) {
	dev := &fakeDevice{prompt: true}
	p := NewPipeline(dev, testPipelineConfig(), nil)
	top, bottom, tt, bt := newFakeResources(0, 0, 4)
	p.SetSources(top, bottom)
	p.SetTargets(tt, bt)

	p.Update(10 * time.Millisecond) // capture top
	p.Update(20 * time.Millisecond) // fence done, settle armed until 120ms
	p.Update(120 * time.Millisecond)
	if p.Stage() != StageWaitSettleTop {
		t.Errorf("expected still settling at 120ms, got %v", p.Stage())
	}
	p.Update(121 * time.Millisecond)
	if p.Stage() != StageCaptureBottom {
		t.Errorf("expected bottom capture after settle, got %v", p.Stage())
	}
}

func TestPipelineSidesNeverOverlap(t *testing.T) {
	dev := &fakeDevice{prompt: true}
	p := NewPipeline(dev, testPipelineConfig(), nil)
	top, bottom, tt, bt := newFakeResources(1, 1, 4)
	p.SetSources(top, bottom)
	p.SetTargets(tt, bt)

	busy := func(s SideState) bool {
		return s == SideCapturing || s == SideSettling || s == SideReading
	}
	now := time.Duration(0)
	for i := 0; i < 300; i++ {
		now += 10 * time.Millisecond
		if _, ok := p.Update(now); ok {
			p.Complete(now)
		}
		if busy(p.SideState(SideTop)) && busy(p.SideState(SideBottom)) {
			t.Fatalf("both sides active in stage %v", p.Stage())
		}
	}
	if p.Cycles() < 2 {
		t.Errorf("expected at least 2 cycles, got %d", p.Cycles())
	}
	if dev.deferred == 0 {
		t.Error("expected deferred captures after the first cycle")
	}
}

func TestPipelineRetry(t *testing.T) {
	dev := &fakeDevice{prompt: true}
	p := NewPipeline(dev, testPipelineConfig(), nil)
	top, bottom, tt, bt := newFakeResources(0, 0, 4)
	p.SetSources(top, bottom)
	p.SetTargets(tt, bt)

	now := time.Duration(0)
	for p.Stage() != StageDone {
		now += 10 * time.Millisecond
		p.Update(now)
	}
	reads := dev.reads
	p.Retry()
	now += 10 * time.Millisecond
	if _, ok := p.Update(now); !ok {
		t.Error("expected request to be handed out again after retry")
	}
	if dev.reads != reads {
		t.Errorf("expected no new readback on retry, got %d extra", dev.reads-reads)
	}
}

func TestStageString(t *testing.T) {
	if StageWaitSettleReadback.String() != "wait_settle_readback" {
		t.Errorf("unexpected name %q", StageWaitSettleReadback.String())
	}
	if Stage(99).String() != "unknown" {
		t.Errorf("expected unknown, got %q", Stage(99).String())
	}
}

func TestPipelineSetThreshold(t *testing.T) {
	dev := &fakeDevice{prompt: true}
	p := NewPipeline(dev, testPipelineConfig(), nil)
	top, bottom, tt, bt := newFakeResources(2, 0, 4)
	p.SetSources(top, bottom)
	p.SetTargets(tt, bt)
	p.SetThreshold(255, true)

	now := time.Duration(0)
	for i := 0; i < 200; i++ {
		now += 10 * time.Millisecond
		req, ok := p.Update(now)
		if !ok {
			continue
		}
		if req.MinimumLight != 255 || !req.IgnoreBlue {
			t.Errorf("expected request to carry the new threshold, got %v/%v", req.MinimumLight, req.IgnoreBlue)
		}
		// White pixels sit exactly on 255 and do not exceed it
		if res := req.Process(); res.Top != 0 {
			t.Errorf("expected no lit pixels at threshold 255, got %d", res.Top)
		}
		return
	}
	t.Fatal("expected a finished cycle")
}
