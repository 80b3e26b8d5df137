package window

import (
	"errors"
	"testing"
)

func TestNewEngineWindowDefaults(t *testing.T) {
	w := newEngineWindow()
	if w.ID() != "main" || w.Width() != 1280 || w.Height() != 720 {
		t.Fatalf("unexpected defaults id=%q %dx%d", w.ID(), w.Width(), w.Height())
	}
	if w.IsRunning() {
		t.Fatal("an unspawned window must not report running")
	}
	if w.SurfaceDescriptor() != nil {
		t.Fatal("an unspawned window has no surface")
	}
	if err := w.Close(); !errors.Is(err, ErrNotSpawned) {
		t.Fatalf("Close() = %v, want ErrNotSpawned", err)
	}
}

func TestNewEngineWindowClampsSize(t *testing.T) {
	tests := []struct {
		name          string
		options       []WindowBuilderOption
		width, height int
	}{
		{"too small", []WindowBuilderOption{WithWidth(10), WithHeight(10)}, 320, 240},
		{"too large", []WindowBuilderOption{WithWidth(5000), WithHeight(5000), WithMaxSize(1920, 1080)}, 1920, 1080},
		{"custom min", []WindowBuilderOption{WithMinSize(800, 600), WithWidth(640), WithHeight(480)}, 800, 600},
		{"in range", []WindowBuilderOption{WithWidth(1024), WithHeight(768)}, 1024, 768},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newEngineWindow(tt.options...)
			if w.Width() != tt.width || w.Height() != tt.height {
				t.Fatalf("got %dx%d, want %dx%d", w.Width(), w.Height(), tt.width, tt.height)
			}
		})
	}
}

func TestWindowOptions(t *testing.T) {
	w := newEngineWindow(WithID("pano"), WithTitle("Lobby"), WithFullscreen(true))
	if w.ID() != "pano" || w.title != "Lobby" || !w.Fullscreen() {
		t.Fatalf("options not applied: %+v", w)
	}
	// no platform window: toggling is a no-op
	w.ToggleFullscreen()
	if !w.Fullscreen() {
		t.Fatal("toggle without a platform window changed state")
	}
}

func TestFramebufferResizedNotifies(t *testing.T) {
	w := newEngineWindow()
	var gotW, gotH int
	w.SetResizeCallback(func(width, height int) { gotW, gotH = width, height })

	w.framebufferResized(800, 600)
	if w.Width() != 800 || w.Height() != 600 {
		t.Fatalf("size = %dx%d, want 800x600", w.Width(), w.Height())
	}
	if gotW != 800 || gotH != 600 {
		t.Fatalf("callback got %dx%d, want 800x600", gotW, gotH)
	}
}

func TestProcessMessagesWithoutPlatformReturns(t *testing.T) {
	w := newEngineWindow()
	calls := 0
	w.SetUpdateCallback(func() { calls++ })
	w.ProcessMessages()
	if calls != 0 {
		t.Fatalf("update ran %d times on an unspawned window", calls)
	}
}
