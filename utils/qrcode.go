package utils

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const ticketQRSize = 256

// TicketQRCode кодирует содержимое билета в PNG.
func TicketQRCode(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, ticketQRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket qr code: %w", err)
	}
	return png, nil
}
