// Package qr renders PNG QR codes.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Encoder renders content at medium error correction.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode returns a size x size PNG. It fails when content exceeds the
// capacity of the largest QR version.
func (Encoder) Encode(content string, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return png, nil
}
