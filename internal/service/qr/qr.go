// Package qr renders text as base64 encoded PNG QR codes.
package qr

import (
	"encoding/base64"
	"fmt"
	"strings"

	goqr "github.com/skip2/go-qrcode"

	"github.com/MarvinPescos/balancehub/internal/apperr"
)

// ModuleSize is the pixel width of one QR module.
const ModuleSize = 10

// ErrEmptyText is returned for blank input.
var ErrEmptyText = apperr.Validation("Text is required and cannot be empty")

// PNG encodes text with low error correction and the standard four module
// quiet zone.
func PNG(text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	code, err := goqr.New(text, goqr.Low)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("Failed to generate QR code: %v", err))
	}
	size := len(code.Bitmap()) * ModuleSize
	png, err := code.PNG(size)
	if err != nil {
		return nil, apperr.Internal("Failed to generate QR code", err)
	}
	return png, nil
}

// Base64 returns PNG(text) as standard base64.
func Base64(text string) (string, error) {
	png, err := PNG(text)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// DataURL returns PNG(text) as an inline image URL.
func DataURL(text string) (string, error) {
	encoded, err := Base64(text)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + encoded, nil
}
