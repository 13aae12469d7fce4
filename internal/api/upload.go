package api

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

const (
	MaxImageSize = 20 * 1024 * 1024 // 20MB
)

// SupportedImageTypes returns the MIME types accepted as attachments
func SupportedImageTypes() []string {
	return []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	}
}

// ImageAttachment is a validated image ready to be sent with a prompt
type ImageAttachment struct {
	Path     string
	FileName string
	MIMEType string
	Size     int64
}

// NewImageAttachment checks that path is a supported image within the
// size limit.
func NewImageAttachment(path string) (*ImageAttachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxImageSize {
		return nil, fmt.Errorf("file size exceeds maximum %d bytes", MaxImageSize)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if !isSupportedType(mimeType) {
		return nil, fmt.Errorf("unsupported image type: %s", mimeType)
	}

	return &ImageAttachment{
		Path:     path,
		FileName: filepath.Base(path),
		MIMEType: mimeType,
		Size:     info.Size(),
	}, nil
}

func isSupportedType(mimeType string) bool {
	for _, supported := range SupportedImageTypes() {
		if strings.HasPrefix(mimeType, supported) {
			return true
		}
	}
	return false
}

// buildAskForm encodes the prompt submission as multipart form data:
// model always, prompt when it has content, image when attached.
func buildAskForm(req AskRequest) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("model", req.Model); err != nil {
		return nil, "", fmt.Errorf("failed to write model field: %w", err)
	}
	if strings.TrimSpace(req.Prompt) != "" {
		if err := writer.WriteField("prompt", req.Prompt); err != nil {
			return nil, "", fmt.Errorf("failed to write prompt field: %w", err)
		}
	}

	if req.Image != nil {
		file, err := os.Open(req.Image.Path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open image: %w", err)
		}
		defer file.Close()

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="image"; filename=%q`, req.Image.FileName))
		header.Set("Content-Type", req.Image.MIMEType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := io.Copy(part, io.LimitReader(file, MaxImageSize+1)); err != nil {
			return nil, "", fmt.Errorf("failed to write image data: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}
