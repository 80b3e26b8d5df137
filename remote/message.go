package remote

import "github.com/Carmen-Shannon/oxy-panorama/panorama"

// Message types sent by the remote page.
const (
	TypeOrientation = "orientation"
	TypeTouchStart  = "touchstart"
	TypeTouchMove   = "touchmove"
	TypeTouchEnd    = "touchend"
	TypeZoom        = "zoom"
	TypeAnimate     = "animate"
	TypeReset       = "reset"
)

// Message types sent to the remote page.
const (
	TypeState = "state"
	TypeError = "error"
)

// Message is a control message from the remote page.
type Message struct {
	Type string `json:"type"`

	// orientation
	Alpha float64 `json:"alpha,omitempty"`
	Beta  float64 `json:"beta,omitempty"`
	Gamma float64 `json:"gamma,omitempty"`

	// touchstart, touchmove, touchend
	Touches []Touch `json:"touches,omitempty"`

	// zoom: positive zooms in, negative zooms out
	Delta int `json:"delta,omitempty"`

	// animate
	Animated bool `json:"animated,omitempty"`
}

// Touch is one contact point in page pixels.
type Touch struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// State is broadcast to every connected page after a control message is applied.
type State struct {
	Type        string  `json:"type"`
	FocalLength float64 `json:"focalLength"`
	Animated    bool    `json:"animated"`
}

type errorReply struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func toPanoramaTouches(in []Touch) []panorama.Touch {
	out := make([]panorama.Touch, len(in))
	for i, t := range in {
		out[i] = panorama.Touch{ID: t.ID, X: t.X, Y: t.Y}
	}
	return out
}
