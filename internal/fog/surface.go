package fog

import (
	"image"
	"sync"
)

// Surface consumes committed frames. Commit runs on the goroutine that
// committed; the frame is only valid until the next commit, so surfaces copy
// whatever they keep.
type Surface interface {
	Commit(f *Frame)
}

// SurfaceFunc adapts a function to the Surface interface.
type SurfaceFunc func(f *Frame)

// Commit calls fn(f).
func (fn SurfaceFunc) Commit(f *Frame) { fn(f) }

// ImageSurface keeps the latest committed masks as two RGBA images. Readers
// on other goroutines take copies through Images.
type ImageSurface struct {
	mu         sync.Mutex
	discovered *image.RGBA
	visible    *image.RGBA
	generation uint64
	commits    int
}

// NewImageSurface creates a surface sized for a cols x rows grid.
func NewImageSurface(cols, rows int) *ImageSurface {
	return &ImageSurface{
		discovered: image.NewRGBA(image.Rect(0, 0, cols, rows)),
		visible:    image.NewRGBA(image.Rect(0, 0, cols, rows)),
	}
}

// Commit copies the frame's pixels.
func (s *ImageSurface) Commit(f *Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discovered.Rect.Dx() != f.Cols || s.discovered.Rect.Dy() != f.Rows {
		s.discovered = image.NewRGBA(image.Rect(0, 0, f.Cols, f.Rows))
		s.visible = image.NewRGBA(image.Rect(0, 0, f.Cols, f.Rows))
	}
	copy(s.discovered.Pix, f.Discovered)
	copy(s.visible.Pix, f.Visible)
	s.generation = f.Generation
	s.commits++
}

// Images returns copies of the discovered and visible masks.
func (s *ImageSurface) Images() (discovered, visible *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := image.NewRGBA(s.discovered.Rect)
	v := image.NewRGBA(s.visible.Rect)
	copy(d.Pix, s.discovered.Pix)
	copy(v.Pix, s.visible.Pix)
	return d, v
}

// Frame returns the stored masks as a detached frame.
func (s *ImageSurface) Frame() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := newFrame(s.discovered.Rect.Dx(), s.discovered.Rect.Dy())
	copy(f.Discovered, s.discovered.Pix)
	copy(f.Visible, s.visible.Pix)
	f.Generation = s.generation
	return f
}

// Generation returns the generation of the last committed frame.
func (s *ImageSurface) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Commits returns how many frames the surface received.
func (s *ImageSurface) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}
