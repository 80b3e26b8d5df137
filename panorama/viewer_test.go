package panorama

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/camera"
	"github.com/Carmen-Shannon/oxy-panorama/engine/host"
	"github.com/Carmen-Shannon/oxy-panorama/orientation"
)

type fakeContainer struct {
	id   string
	w, h int
}

func (c *fakeContainer) ID() string  { return c.id }
func (c *fakeContainer) Width() int  { return c.w }
func (c *fakeContainer) Height() int { return c.h }

type fakeScheduler struct {
	frames     []func()
	dispatched []func()
}

func (s *fakeScheduler) RequestFrame(fn func()) { s.frames = append(s.frames, fn) }
func (s *fakeScheduler) Dispatch(fn func())     { s.dispatched = append(s.dispatched, fn) }

// runFrames runs n loop iterations the way the engine does: dispatched work first, then the
// frames requested before the iteration began.
func (s *fakeScheduler) runFrames(n int) {
	for i := 0; i < n; i++ {
		d := s.dispatched
		s.dispatched = nil
		for _, fn := range d {
			fn()
		}
		f := s.frames
		s.frames = nil
		for _, fn := range f {
			fn()
		}
	}
}

type fakeHost struct {
	containers map[string]*fakeContainer
	sched      *fakeScheduler
}

func (h *fakeHost) Container(id string) (host.Container, bool) {
	c, ok := h.containers[id]
	if !ok {
		return nil, false
	}
	return c, true
}

func (h *fakeHost) Scheduler() host.Scheduler { return h.sched }

type fakeRenderer struct {
	draws    int
	w, h     int
	released bool
	err      error
}

func (r *fakeRenderer) Draw() error      { r.draws++; return r.err }
func (r *fakeRenderer) Resize(w, h int)  { r.w, r.h = w, h }
func (r *fakeRenderer) Size() (int, int) { return r.w, r.h }
func (r *fakeRenderer) Release()         { r.released = true }

type fakeLoader struct {
	calls int
	err   error
}

func (l *fakeLoader) Load(_ context.Context, locators []string) ([]common.TextureStagingData, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	tiles := make([]common.TextureStagingData, len(locators))
	for i, loc := range locators {
		tiles[i] = common.TextureStagingData{Name: loc, Pixels: make([]byte, 4), Width: 1, Height: 1}
	}
	return tiles, nil
}

var testImages = []string{"left.jpg", "right.jpg", "top.jpg", "bottom.jpg", "front.jpg", "back.jpg"}

type fixture struct {
	host      *fakeHost
	container *fakeContainer
	renderer  *fakeRenderer
	loader    *fakeLoader
	tiles     []common.TextureStagingData
}

func newFixture() *fixture {
	c := &fakeContainer{id: "container", w: 800, h: 600}
	return &fixture{
		host: &fakeHost{
			containers: map[string]*fakeContainer{"container": c},
			sched:      &fakeScheduler{},
		},
		container: c,
		renderer:  &fakeRenderer{},
		loader:    &fakeLoader{},
	}
}

func (f *fixture) options(extra ...ViewerBuilderOption) []ViewerBuilderOption {
	opts := []ViewerBuilderOption{
		WithTileLoader(f.loader),
		WithRendererFactory(func(_ host.Container, _ camera.Camera, tiles []common.TextureStagingData) (Renderer, error) {
			f.tiles = tiles
			return f.renderer, nil
		}),
	}
	return append(opts, extra...)
}

func (f *fixture) viewer(t *testing.T, extra ...ViewerBuilderOption) Viewer {
	t.Helper()
	v, err := NewViewer(f.host, "container", testImages, f.options(extra...)...)
	if err != nil {
		t.Fatalf("NewViewer: %v", err)
	}
	t.Cleanup(v.Release)
	return v
}

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestNewViewerErrors(t *testing.T) {
	loadErr := errors.New("boom")
	factoryErr := errors.New("no gpu")

	tests := []struct {
		name        string
		containerID string
		images      []string
		loaderErr   error
		factoryErr  error
		want        error
		wantLoads   int
	}{
		{name: "missing container", containerID: "nope", images: testImages, want: ErrContainerNotFound},
		{name: "too few tiles", containerID: "container", images: testImages[:5], want: ErrTileCount},
		{name: "too many tiles", containerID: "container", images: append(append([]string{}, testImages...), "x"), want: ErrTileCount},
		{name: "load failure", containerID: "container", images: testImages, loaderErr: loadErr, want: loadErr, wantLoads: 1},
		{name: "renderer failure", containerID: "container", images: testImages, factoryErr: factoryErr, want: factoryErr, wantLoads: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.loader.err = tt.loaderErr
			v, err := NewViewer(f.host, tt.containerID, tt.images,
				WithTileLoader(f.loader),
				WithRendererFactory(func(host.Container, camera.Camera, []common.TextureStagingData) (Renderer, error) {
					if tt.factoryErr != nil {
						return nil, tt.factoryErr
					}
					return f.renderer, nil
				}),
			)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if v != nil {
				t.Fatal("expected nil viewer on error")
			}
			if f.loader.calls != tt.wantLoads {
				t.Fatalf("expected %d loads, got %d", tt.wantLoads, f.loader.calls)
			}
			if len(f.host.sched.frames) != 0 {
				t.Fatal("expected nothing scheduled after a failed construction")
			}
		})
	}
}

func TestNewViewerSetsUpCameraAndRenderer(t *testing.T) {
	f := newFixture()
	v := f.viewer(t)

	cam := v.Camera()
	if !approx(float64(cam.Fov()), common.DegToRad(DefaultFov), 1e-5) {
		t.Fatalf("expected fov %v, got %v", common.DegToRad(DefaultFov), cam.Fov())
	}
	if !approx(float64(cam.Aspect()), 800.0/600.0, 1e-6) {
		t.Fatalf("expected aspect 4/3, got %v", cam.Aspect())
	}
	if cam.Near() != NearPlane || cam.Far() != FarPlane {
		t.Fatalf("expected clip planes 1/1100, got %v/%v", cam.Near(), cam.Far())
	}
	if len(f.tiles) != TileCount || f.tiles[0].Name != "left.jpg" {
		t.Fatalf("expected the six tiles in logical order, got %d", len(f.tiles))
	}
	if w, h := f.renderer.Size(); w != 800 || h != 600 {
		t.Fatalf("expected renderer sized 800x600, got %dx%d", w, h)
	}
	if !v.Running() || len(f.host.sched.frames) != 1 {
		t.Fatal("expected the render loop to be scheduled")
	}
}

func TestAutoStartDisabled(t *testing.T) {
	f := newFixture()
	v := f.viewer(t, WithAutoStart(false))
	if v.Running() || len(f.host.sched.frames) != 0 {
		t.Fatal("expected no frame scheduled")
	}
	v.Start()
	v.Start()
	if len(f.host.sched.frames) != 1 {
		t.Fatalf("expected one scheduled frame, got %d", len(f.host.sched.frames))
	}
}

func TestRenderLoopDrawsAndReschedules(t *testing.T) {
	f := newFixture()
	v := f.viewer(t, WithAnimated(true))

	f.host.sched.runFrames(10)
	if f.renderer.draws != 10 {
		t.Fatalf("expected 10 draws, got %d", f.renderer.draws)
	}
	if lon := v.Orientation().Lon; !approx(lon, 10*AutoRotateStep, 1e-9) {
		t.Fatalf("expected lon %v, got %v", 10*AutoRotateStep, lon)
	}

	v.Stop()
	f.host.sched.runFrames(5)
	if f.renderer.draws != 10 {
		t.Fatalf("expected no draws after Stop, got %d", f.renderer.draws)
	}

	v.Start()
	f.host.sched.runFrames(3)
	if f.renderer.draws != 13 {
		t.Fatalf("expected 13 draws after restart, got %d", f.renderer.draws)
	}
}

func TestRestartDropsStaleFrames(t *testing.T) {
	f := newFixture()
	v := f.viewer(t)

	v.Stop()
	v.Start()
	// The stale frame from the first generation and the fresh one are both queued.
	if len(f.host.sched.frames) != 2 {
		t.Fatalf("expected 2 queued frames, got %d", len(f.host.sched.frames))
	}
	f.host.sched.runFrames(4)
	if f.renderer.draws != 4 {
		t.Fatalf("expected exactly one loop drawing, got %d draws", f.renderer.draws)
	}
}

func TestDrawErrorsKeepTheLoopRunning(t *testing.T) {
	f := newFixture()
	f.renderer.err = errors.New("lost device")
	v := f.viewer(t)
	f.host.sched.runFrames(3)
	if f.renderer.draws != 3 || !v.Running() {
		t.Fatalf("expected 3 draws with the loop still running, got %d", f.renderer.draws)
	}
}

func TestLatitudeIsClamped(t *testing.T) {
	tests := []struct {
		lat, want float64
	}{
		{lat: 0, want: 0},
		{lat: 85, want: 85},
		{lat: 90, want: 85},
		{lat: 1e6, want: 85},
		{lat: -85, want: -85},
		{lat: -300, want: -85},
	}
	for _, tt := range tests {
		f := newFixture()
		v := f.viewer(t)
		v.SetOrientation(0, tt.lat)
		f.host.sched.runFrames(1)
		if got := v.Orientation().Lat; got != tt.want {
			t.Fatalf("lat %v: expected %v, got %v", tt.lat, tt.want, got)
		}
	}
}

func TestSphericalTarget(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		want     [3]float64
	}{
		{name: "lon 0", lon: 0, lat: 0, want: [3]float64{500, 0, 0}},
		{name: "lon 90", lon: 90, lat: 0, want: [3]float64{0, 0, 500}},
		{name: "lon 180", lon: 180, lat: 0, want: [3]float64{-500, 0, 0}},
		{name: "lat 85", lon: 0, lat: 85, want: [3]float64{500 * math.Sin(common.DegToRad(5)), 500 * math.Cos(common.DegToRad(5)), 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			v := f.viewer(t)
			v.SetOrientation(tt.lon, tt.lat)
			f.host.sched.runFrames(1)

			x, y, z := v.Target()
			if !approx(x, tt.want[0], 1e-9) || !approx(y, tt.want[1], 1e-9) || !approx(z, tt.want[2], 1e-9) {
				t.Fatalf("expected %v, got (%v, %v, %v)", tt.want, x, y, z)
			}
			if y >= TargetRadius {
				t.Fatalf("target reached the pole: y=%v", y)
			}

			tx, ty, tz := v.Camera().Controller().Target()
			if !approx(float64(tx), x, 1e-3) || !approx(float64(ty), y, 1e-3) || !approx(float64(tz), z, 1e-3) {
				t.Fatalf("camera target (%v, %v, %v) does not match (%v, %v, %v)", tx, ty, tz, x, y, z)
			}
		})
	}
}

func TestFocalLengthStaysInRange(t *testing.T) {
	f := newFixture()
	v := f.viewer(t)

	var got float64
	for i := 0; i < 100; i++ {
		got = v.IncreaseFocalLength()
		if got < MinFocalLength-1e-3 || got > MaxFocalLength+1e-3 {
			t.Fatalf("focal length %v out of range", got)
		}
	}
	if !approx(got, MaxFocalLength, 1e-3) {
		t.Fatalf("expected %v after zooming in, got %v", MaxFocalLength, got)
	}

	for i := 0; i < 100; i++ {
		got = v.DecreaseFocalLength()
		if got < MinFocalLength-1e-3 || got > MaxFocalLength+1e-3 {
			t.Fatalf("focal length %v out of range", got)
		}
	}
	if !approx(got, MinFocalLength, 1e-3) {
		t.Fatalf("expected %v after zooming out, got %v", MinFocalLength, got)
	}
	if !approx(v.FocalLength(), got, 1e-9) {
		t.Fatalf("FocalLength %v disagrees with last zoom result %v", v.FocalLength(), got)
	}
}

func TestZoomStepsByOne(t *testing.T) {
	f := newFixture()
	v := f.viewer(t)
	start := v.FocalLength()
	if got := v.IncreaseFocalLength(); !approx(got, start+1, 1e-3) {
		t.Fatalf("expected %v, got %v", start+1, got)
	}
	if got := v.DecreaseFocalLength(); !approx(got, start, 1e-3) {
		t.Fatalf("expected %v, got %v", start, got)
	}
}

func TestWideContainerZoomsTowardRange(t *testing.T) {
	f := newFixture()
	f.container.w, f.container.h = 3600, 720
	v := f.viewer(t)

	start := v.FocalLength()
	if start >= MinFocalLength {
		t.Fatalf("expected a seed below %v at aspect 5, got %v", MinFocalLength, start)
	}
	if got := v.DecreaseFocalLength(); !approx(got, start, 1e-6) {
		t.Fatalf("expected zooming out to keep %v, got %v", start, got)
	}
	if got := v.IncreaseFocalLength(); !approx(got, start+1, 1e-3) {
		t.Fatalf("expected %v after zooming in, got %v", start+1, got)
	}
}

func TestWheel(t *testing.T) {
	f := newFixture()
	v := f.viewer(t)
	start := v.FocalLength()

	if !v.Wheel(120) {
		t.Fatal("expected wheel events to be consumed")
	}
	if !approx(v.FocalLength(), start+1, 1e-3) {
		t.Fatalf("expected positive delta to zoom in, got %v", v.FocalLength())
	}
	if !v.Wheel(0) {
		t.Fatal("expected wheel events to be consumed")
	}
	v.Wheel(-3)
	if !approx(v.FocalLength(), start-1, 1e-3) {
		t.Fatalf("expected non-positive deltas to zoom out, got %v", v.FocalLength())
	}
}

func TestPointerDrag(t *testing.T) {
	f := newFixture()
	v := f.viewer(t, WithInitialOrientation(10, 5))

	v.PointerDown(100, 100)
	v.PointerMove(80, 120)
	c := v.Orientation()
	if !approx(c.Lon, 12, 1e-9) || !approx(c.Lat, 7, 1e-9) {
		t.Fatalf("expected lon 12 lat 7, got %+v", c)
	}

	v.PointerUp()
	v.PointerMove(0, 0)
	if c2 := v.Orientation(); c2.Lon != c.Lon || c2.Lat != c.Lat {
		t.Fatalf("expected moves after release to be ignored, got %+v", c2)
	}
}

func TestTouchDragMatchesPointer(t *testing.T) {
	f := newFixture()
	v := f.viewer(t, WithInitialOrientation(10, 5))

	v.TouchStart([]Touch{{ID: 1, X: 100, Y: 100}, {ID: 2, X: 0, Y: 0}})
	v.TouchMove([]Touch{{ID: 1, X: 80, Y: 120}})
	v.TouchMove(nil)
	c := v.Orientation()
	if !approx(c.Lon, 12, 1e-9) || !approx(c.Lat, 7, 1e-9) {
		t.Fatalf("expected lon 12 lat 7, got %+v", c)
	}
	v.TouchEnd(nil)
}

func TestReleaseRestoresAnimation(t *testing.T) {
	tests := []struct {
		name    string
		before  bool
		midDrag bool
	}{
		{name: "animated", before: true, midDrag: true},
		{name: "still, toggled on mid drag", before: false, midDrag: true},
		{name: "animated, toggled off mid drag", before: true, midDrag: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			v := f.viewer(t, WithAnimated(tt.before))

			v.PointerDown(0, 0)
			if v.IsAnimated() {
				t.Fatal("expected auto-rotation suspended during the drag")
			}
			v.SetAnimated(tt.midDrag)
			v.PointerUp()
			if v.IsAnimated() != tt.before {
				t.Fatalf("expected animated=%v after release, got %v", tt.before, v.IsAnimated())
			}
		})
	}
}

func TestDragSuspendsAutoRotation(t *testing.T) {
	f := newFixture()
	v := f.viewer(t, WithAnimated(true))
	v.PointerDown(0, 0)
	f.host.sched.runFrames(5)
	if lon := v.Orientation().Lon; lon != 0 {
		t.Fatalf("expected no rotation while dragging, got lon %v", lon)
	}
}

func TestFirstGestureWins(t *testing.T) {
	f := newFixture()
	v := f.viewer(t, WithAnimated(true))

	v.TouchStart([]Touch{{X: 100, Y: 100}})
	v.PointerDown(500, 500)
	v.PointerMove(0, 0)
	if c := v.Orientation(); c.Lon != 0 || c.Lat != 0 {
		t.Fatalf("expected pointer ignored during touch, got %+v", c)
	}
	v.PointerUp()
	if v.IsAnimated() {
		t.Fatal("expected pointer release not to end the touch gesture")
	}

	v.TouchMove([]Touch{{X: 90, Y: 100}})
	if lon := v.Orientation().Lon; !approx(lon, 1, 1e-9) {
		t.Fatalf("expected touch drag to apply, got lon %v", lon)
	}
	v.TouchEnd(nil)
	if !v.IsAnimated() {
		t.Fatal("expected animation restored after the touch ended")
	}

	// A new gesture may start once the first has ended.
	v.PointerDown(0, 0)
	v.PointerMove(-10, 0)
	if lon := v.Orientation().Lon; !approx(lon, 2, 1e-9) {
		t.Fatalf("expected pointer drag after touch end, got lon %v", lon)
	}
}

func TestHandleOrientation(t *testing.T) {
	f := newFixture()
	v := f.viewer(t, WithInitialOrientation(20, 3))

	v.HandleOrientation(100, 10)
	if c := v.Orientation(); c.Lon != 20 || c.Lat != 3 {
		t.Fatalf("expected the first reading only to seed the baseline, got %+v", c)
	}

	v.HandleOrientation(110, 10)
	if c := v.Orientation(); !approx(c.Lon, 30, 1e-9) || c.Lat != 3 {
		t.Fatalf("expected lon +10, got %+v", c)
	}

	v.HandleOrientation(110, 14)
	if lat := v.Orientation().Lat; !approx(lat, 7, 1e-9) {
		t.Fatalf("expected lat +4, got %v", lat)
	}

	// Differences keep the sign of the raw delta.
	v.HandleOrientation(-300, 14)
	if lon := v.Orientation().Lon; !approx(lon, 30-50, 1e-9) {
		t.Fatalf("expected lon 30 + mod(-410, 360) = -20, got %v", lon)
	}

	v.ResetOrientation()
	v.HandleOrientation(0, 0)
	if lon := v.Orientation().Lon; !approx(lon, -20, 1e-9) {
		t.Fatalf("expected reset to drop the baseline, got lon %v", lon)
	}
}

func TestStartResetsOrientationBaseline(t *testing.T) {
	f := newFixture()
	v := f.viewer(t)
	v.HandleOrientation(0, 0)
	v.Stop()
	v.Start()
	v.HandleOrientation(45, 0)
	if lon := v.Orientation().Lon; lon != 0 {
		t.Fatalf("expected the first reading after restart to seed only, got lon %v", lon)
	}
}

func TestOrientationSourceIsDispatched(t *testing.T) {
	f := newFixture()
	var feed orientation.Feed
	v := f.viewer(t, WithOrientationSource(&feed))

	feed.Publish(orientation.Event{Alpha: 10})
	feed.Publish(orientation.Event{Alpha: 25})
	if v.Orientation().Lon != 0 {
		t.Fatal("expected events to wait for the loop thread")
	}
	f.host.sched.runFrames(1)
	if lon := v.Orientation().Lon; !approx(lon, 15, 1e-9) {
		t.Fatalf("expected lon 15, got %v", lon)
	}

	v.Release()
	if feed.Len() != 0 {
		t.Fatalf("expected Release to unsubscribe, %d left", feed.Len())
	}
}

func TestNonFiniteOrientationIsDropped(t *testing.T) {
	f := newFixture()
	v := f.viewer(t, WithInitialOrientation(20, 3), WithAutoStart(false))

	v.HandleOrientation(0, 0)
	v.HandleOrientation(math.NaN(), 0)
	v.HandleOrientation(0, math.Inf(1))
	v.HandleOrientation(10, 10)
	if c := v.Orientation(); !approx(c.Lon, 30, 1e-9) || !approx(c.Lat, 13, 1e-9) {
		t.Fatalf("expected the finite baseline to survive, got %+v", c)
	}

	v.Start()
	f.host.sched.runFrames(1)
	x, y, z := v.Target()
	for _, c := range []float64{x, y, z} {
		if math.IsNaN(c) {
			t.Fatalf("expected a finite target, got (%v, %v, %v)", x, y, z)
		}
	}
}

func TestResizeAfterRelease(t *testing.T) {
	f := newFixture()
	v := f.viewer(t)
	v.Release()

	f.container.w, f.container.h = 1024, 512
	v.Resize()
	if w, h := f.renderer.Size(); w == 1024 || h == 512 {
		t.Fatalf("expected a released viewer to ignore resizes, got %dx%d", w, h)
	}
}

func TestResize(t *testing.T) {
	f := newFixture()
	v := f.viewer(t)

	f.container.w, f.container.h = 1024, 512
	v.Resize()
	if !approx(float64(v.Camera().Aspect()), 2, 1e-6) {
		t.Fatalf("expected aspect 2, got %v", v.Camera().Aspect())
	}
	if w, h := f.renderer.Size(); w != 1024 || h != 512 {
		t.Fatalf("expected surface 1024x512, got %dx%d", w, h)
	}

	// A minimized container keeps a usable aspect.
	f.container.w, f.container.h = 0, 0
	v.Resize()
	if v.Camera().Aspect() != 1 {
		t.Fatalf("expected aspect 1 for an empty container, got %v", v.Camera().Aspect())
	}
}

func TestReleaseStopsEverything(t *testing.T) {
	f := newFixture()
	v := f.viewer(t)
	v.Release()
	v.Release()
	if !f.renderer.released || v.Running() {
		t.Fatal("expected renderer released and loop stopped")
	}
	f.host.sched.runFrames(2)
	if f.renderer.draws != 0 {
		t.Fatalf("expected no draws after release, got %d", f.renderer.draws)
	}
}
