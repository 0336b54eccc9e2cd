package qrcode

import (
	"bytes"
	"image/png"
	"testing"
)

func TestPNGRendersSquareImage(t *testing.T) {
	data, err := PNG("4821", 128)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 128 || b.Dy() != 128 {
		t.Fatalf("expected 128x128, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestPNGRejectsEmptyContent(t *testing.T) {
	if _, err := PNG(" ", 0); err == nil {
		t.Fatal("expected error for empty content")
	}
}
