package handler

import (
	"fmt"
	"io"

	"github.com/labstack/echo/v4"

	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

const maxImageSize = 5 * 1024 * 1024

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

func isAllowedImageType(contentType string) bool {
	return allowedImageTypes[contentType]
}

// imageFromForm opens the "image" part of a multipart upload. The caller
// must call the returned close func.
func imageFromForm(c echo.Context) (io.Reader, string, func(), error) {
	header, err := c.FormFile("image")
	if err != nil {
		return nil, "", nil, errors.BadRequest("Missing or invalid image", err)
	}

	if header.Size > maxImageSize {
		return nil, "", nil, errors.BadRequest(fmt.Sprintf("Image exceeds maximum allowed size (%dMB)", maxImageSize/(1024*1024)), nil)
	}

	contentType := header.Header.Get("Content-Type")
	if !isAllowedImageType(contentType) {
		return nil, "", nil, errors.BadRequest("Image type not supported, use JPEG, PNG or WebP", nil)
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", nil, errors.Internal("Failed to read image", err)
	}
	logger.Debug("received image %s (%d bytes, %s)", header.Filename, header.Size, contentType)

	return file, contentType, func() { file.Close() }, nil
}
