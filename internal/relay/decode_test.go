package relay

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeImageData_DataURIRoundTrip(t *testing.T) {
	original := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}
	uri := EncodeImageDataURI("image/png", original)

	mimeType, data, err := DecodeImageData(uri, "image/jpeg")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if mimeType != "image/png" {
		t.Fatalf("expected URI mime type to win, got %q", mimeType)
	}
	if !bytes.Equal(data, original) {
		t.Fatalf("round-trip mismatch: got %v want %v", data, original)
	}
}

func TestDecodeImageData_BareBase64UsesDeclaredMime(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))

	mimeType, data, err := DecodeImageData(payload, "image/webp")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if mimeType != "image/webp" {
		t.Fatalf("expected declared mime type, got %q", mimeType)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected payload: %q", data)
	}
}

func TestDecodeImageData_MalformedBase64(t *testing.T) {
	if _, _, err := DecodeImageData("not!!valid@@base64", "image/png"); err == nil {
		t.Fatal("expected error for malformed base64")
	}
}

func TestDecodeImageData_MalformedDataURI(t *testing.T) {
	// Looks like a data URI but is structurally invalid: must not fall back
	// to treating the whole string as base64.
	if _, _, err := DecodeImageData("data:image/png;base65,AAAA", "image/png"); err == nil {
		t.Fatal("expected error for malformed data URI")
	}
}

func TestMessageText_SkipsImageParts(t *testing.T) {
	msg := Message{Role: RoleUser, Parts: []Part{
		TextPart{Text: "a"},
		ImagePart{MimeType: "image/png", Data: []byte{1}},
		TextPart{Text: "b"},
	}}
	if got := msg.Text(); got != "ab" {
		t.Fatalf("expected %q, got %q", "ab", got)
	}
	if !msg.HasImage() {
		t.Fatal("expected HasImage to be true")
	}
}

func TestMessageText_EmptyPartsIsEmptyString(t *testing.T) {
	msg := Message{Role: RoleUser}
	if got := msg.Text(); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}
