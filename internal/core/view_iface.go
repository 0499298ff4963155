package core

import "github.com/dkeye/stagebridge/internal/domain"

// RenderTarget is a display surface that can render one video stream.
// The registry holds it by ViewID and never owns it.
type RenderTarget interface {
	Render(stream domain.Stream, preview Preview) error
	Clear()
	// Alive reports whether the surface still exists. Dead targets are
	// pruned on the next assignment pass.
	Alive() bool
}

// PropsTarget is implemented by render targets that accept view props.
type PropsTarget interface {
	SetProps(props domain.ViewProps)
}
