// Package optical renders envelope text into a two-colour QR code image.
package optical

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/moyoez/qrdrop/envelope"
	"github.com/moyoez/qrdrop/tool"
	"github.com/moyoez/qrdrop/types"
)

const DefaultSize = 512

// byteModeCapacity is the largest byte-mode payload of a version 40 symbol.
var byteModeCapacity = map[qrcode.RecoveryLevel]int{
	qrcode.Low:     2953,
	qrcode.Medium:  2331,
	qrcode.High:    1663,
	qrcode.Highest: 1273,
}

// ParseLevel maps a config name onto a recovery level. Empty means Low.
func ParseLevel(name string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(name) {
	case "", "low", "l":
		return qrcode.Low, nil
	case "medium", "m":
		return qrcode.Medium, nil
	case "high", "q":
		return qrcode.High, nil
	case "highest", "h":
		return qrcode.Highest, nil
	}
	return qrcode.Low, fmt.Errorf("unknown QR recovery level %q", name)
}

// Capacity returns how many bytes of text fit in one code at level.
func Capacity(level qrcode.RecoveryLevel) int {
	return byteModeCapacity[level]
}

// Renderer turns envelope text into a square black and white image.
type Renderer struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewRenderer(size int, level qrcode.RecoveryLevel) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{size: size, level: level}
}

func (r *Renderer) Size() int {
	return r.size
}

func (r *Renderer) Capacity() int {
	return Capacity(r.level)
}

func (r *Renderer) encode(text string) (*qrcode.QRCode, error) {
	if limit := r.Capacity(); len(text) > limit {
		return nil, types.NewError(types.KindPayloadTooLarge, fmt.Errorf("payload is %d bytes, limit is %d", len(text), limit))
	}
	q, err := qrcode.New(text, r.level)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	q.ForegroundColor = color.Black
	q.BackgroundColor = color.White
	tool.DefaultLogger.Debugf("[Render] %d bytes -> version %d", len(text), q.VersionNumber)
	return q, nil
}

// RenderText renders arbitrary text. Text over the capacity of the recovery
// level is a PayloadTooLarge error.
func (r *Renderer) RenderText(text string) (image.Image, error) {
	q, err := r.encode(text)
	if err != nil {
		return nil, err
	}
	return q.Image(r.size), nil
}

// Render serializes env and renders it.
func (r *Renderer) Render(env envelope.Envelope) (image.Image, error) {
	text, err := env.Marshal()
	if err != nil {
		return nil, err
	}
	return r.RenderText(text)
}

// PNG renders env as PNG bytes.
func (r *Renderer) PNG(env envelope.Envelope) ([]byte, error) {
	text, err := env.Marshal()
	if err != nil {
		return nil, err
	}
	q, err := r.encode(text)
	if err != nil {
		return nil, err
	}
	return q.PNG(r.size)
}

// Matrix returns the module grid for text including the quiet zone;
// true is a dark module.
func (r *Renderer) Matrix(text string) ([][]bool, error) {
	q, err := r.encode(text)
	if err != nil {
		return nil, err
	}
	return q.Bitmap(), nil
}

// MaxFileSize is the largest raw file that fits with the given name overhead.
// It is an estimate for user feedback; Render is authoritative.
func (r *Renderer) MaxFileSize(fileName string, category types.Category) int {
	probe, err := envelope.Build(nil, fileName, category)
	if err != nil {
		return 0
	}
	text, err := probe.Marshal()
	if err != nil {
		return 0
	}
	// every 3 raw bytes cost 4 encoded bytes, plus up to 20 digits of size
	free := r.Capacity() - len(text) - 20
	if free <= 0 {
		return 0
	}
	return free / 4 * 3
}
