// Package tickets рендерит артефакты подтверждения регистрации: QR-код и PDF-билет
package tickets

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const DefaultQRSize = 256

// QRCodePNG кодирует код подтверждения в PNG
func QRCodePNG(code string, size int) ([]byte, error) {
	if code == "" {
		return nil, fmt.Errorf("confirmation code is empty")
	}
	if size <= 0 {
		size = DefaultQRSize
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
