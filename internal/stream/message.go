// Package stream publishes committed visibility frames to websocket clients.
package stream

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

// ErrMalformed is returned when a decoded message does not match its grid.
var ErrMalformed = errors.New("stream: malformed frame message")

// FrameMessage is the wire form of a committed frame. Masks carry one bit
// per cell, row-major, least significant bit first.
type FrameMessage struct {
	Generation uint64 `msgpack:"gen"`
	Cols       int    `msgpack:"cols"`
	Rows       int    `msgpack:"rows"`
	Discovered []byte `msgpack:"discovered"`
	Visible    []byte `msgpack:"visible"`
}

// Encode packs and marshals a frame.
func Encode(f *fog.Frame) ([]byte, error) {
	cells := f.Cells()
	msg := FrameMessage{
		Generation: f.Generation,
		Cols:       f.Cols,
		Rows:       f.Rows,
		Discovered: PackMask(f.Discovered, cells),
		Visible:    PackMask(f.Visible, cells),
	}
	data, err := msgpack.Marshal(&msg)
	if err != nil {
		return nil, fmt.Errorf("encode frame %d: %w", f.Generation, err)
	}
	return data, nil
}

// Decode unmarshals a message and checks the mask lengths.
func Decode(data []byte) (FrameMessage, error) {
	var msg FrameMessage
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return FrameMessage{}, fmt.Errorf("decode frame: %w", err)
	}
	want := packedLen(msg.Cols * msg.Rows)
	if msg.Cols < 0 || msg.Rows < 0 || len(msg.Discovered) != want || len(msg.Visible) != want {
		return FrameMessage{}, fmt.Errorf("decode frame %dx%d: %w", msg.Cols, msg.Rows, ErrMalformed)
	}
	return msg, nil
}

// IsVisible reports cell (x,y) of the visible mask.
func (m FrameMessage) IsVisible(x, y int) bool {
	return m.bit(m.Visible, x, y)
}

// IsDiscovered reports cell (x,y) of the discovered mask.
func (m FrameMessage) IsDiscovered(x, y int) bool {
	return m.bit(m.Discovered, x, y)
}

func (m FrameMessage) bit(mask []byte, x, y int) bool {
	if x < 0 || y < 0 || x >= m.Cols || y >= m.Rows {
		return false
	}
	i := y*m.Cols + x
	return mask[i/8]&(1<<(i%8)) != 0
}

func packedLen(cells int) int {
	return (cells + 7) / 8
}

// PackMask converts an RGBA8 mask of cells pixels into a bitset, testing
// each pixel's alpha channel.
func PackMask(mask []byte, cells int) []byte {
	out := make([]byte, packedLen(cells))
	for i := 0; i < cells; i++ {
		if mask[i*fog.BytesPerPixel+3] != 0 {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// UnpackMask expands a bitset back into one bool per cell.
func UnpackMask(packed []byte, cells int) []bool {
	out := make([]bool, cells)
	for i := range out {
		out[i] = packed[i/8]&(1<<(i%8)) != 0
	}
	return out
}
