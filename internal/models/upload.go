package models

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
)

// ErrEmptyUpload indicates an upload without a readable byte buffer.
var ErrEmptyUpload = errors.New("upload is empty")

// Upload stores a caller-submitted file in memory for the lifetime of one
// request.
type Upload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Reader returns a fresh ReadCloser for the stored bytes so the same upload can
// be forwarded more than once.
func (u Upload) Reader() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(u.Data))
}

// DefaultMIMEType is assumed whenever a caller omits the image type.
const DefaultMIMEType = "image/jpeg"

// InlineData is the {mimeType, data} pair the generative AI APIs accept for
// embedded binary content. Data is base64 without any data: prefix.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// IsEmpty reports whether the part carries no payload.
func (d InlineData) IsEmpty() bool {
	return d.Data == ""
}

// Bytes decodes the base64 payload.
func (d InlineData) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(d.Data)
}

// NonEmpty drops placeholder parts produced for unusable inputs.
func NonEmpty(parts []InlineData) []InlineData {
	out := make([]InlineData, 0, len(parts))
	for _, p := range parts {
		if !p.IsEmpty() {
			out = append(out, p)
		}
	}
	return out
}
