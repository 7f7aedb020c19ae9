package upload

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

const MaxFileSize = 5 << 20

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type Service interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*Result, error)
}

type service struct {
	gateway Gateway
}

func NewService(gateway Gateway) Service {
	return &service{gateway: gateway}
}

// Upload validates the image by its content, not the client supplied type.
func (s *service) Upload(ctx context.Context, filename string, r io.Reader) (*Result, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	if len(content) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	if !allowedTypes[DetectType(content)] {
		return nil, ErrUnsupportedType
	}

	return s.gateway.Upload(ctx, filename, content)
}

// DetectType sniffs the media type, adding webp which net/http reports
// only on recent versions.
func DetectType(content []byte) string {
	if len(content) >= 12 && bytes.Equal(content[0:4], []byte("RIFF")) && bytes.Equal(content[8:12], []byte("WEBP")) {
		return "image/webp"
	}
	return http.DetectContentType(content)
}
