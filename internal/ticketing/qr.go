package ticketing

import (
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

var ErrEmptyQRTarget = errors.New("qr target is empty")

const (
	DefaultQRSize = 300
	// QR content the ticket scanners accept is capped well below the QR version 40 limit.
	maxQRTargetLen = 1024
)

// QROptions tunes how a ticket code is rendered.
type QROptions struct {
	Level      qrcode.RecoveryLevel
	Size       int
	HideBorder bool
}

// DefaultQROptions matches the printed ticket: highest recovery, 300px square.
func DefaultQROptions() QROptions {
	return QROptions{Level: qrcode.Highest, Size: DefaultQRSize}
}

// QRRenderer renders ticket targets into PNG images.
type QRRenderer struct {
	opts QROptions
}

func NewQRRenderer(opts QROptions) *QRRenderer {
	if opts.Size <= 0 {
		opts.Size = DefaultQRSize
	}
	return &QRRenderer{opts: opts}
}

// RenderPNG encodes target as a PNG QR code.
func (r *QRRenderer) RenderPNG(target string) ([]byte, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrEmptyQRTarget
	}
	if len(target) > maxQRTargetLen {
		return nil, fmt.Errorf("qr target too long: %d bytes", len(target))
	}
	code, err := qrcode.New(target, r.opts.Level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code.DisableBorder = r.opts.HideBorder
	png, err := code.PNG(r.opts.Size)
	if err != nil {
		return nil, fmt.Errorf("render qr png: %w", err)
	}
	return png, nil
}
