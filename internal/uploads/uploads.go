package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/ncecere/ai_media_studio/internal/models"
)

// ErrUnreadableUpload is returned when a multipart file part cannot be read.
var ErrUnreadableUpload = errors.New("upload is not readable")

// Files maps a multipart field name to the uploads submitted under it.
type Files map[string][]models.Upload

// FromForm reads every file part of form into memory.
func FromForm(form *multipart.Form) (Files, error) {
	files := Files{}
	if form == nil {
		return files, nil
	}
	for field, headers := range form.File {
		for _, fh := range headers {
			upload, err := load(fh)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", ErrUnreadableUpload, field, err)
			}
			files[field] = append(files[field], upload)
		}
	}
	return files, nil
}

// First returns the first upload of field, if any.
func (f Files) First(field string) (models.Upload, bool) {
	list := f[field]
	if len(list) == 0 {
		return models.Upload{}, false
	}
	return list[0], true
}

func load(fh *multipart.FileHeader) (models.Upload, error) {
	if fh == nil {
		return models.Upload{}, models.ErrEmptyUpload
	}
	file, err := fh.Open()
	if err != nil {
		return models.Upload{}, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return models.Upload{}, err
	}
	return models.Upload{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: strings.TrimSpace(fh.Header.Get("Content-Type")),
	}, nil
}
