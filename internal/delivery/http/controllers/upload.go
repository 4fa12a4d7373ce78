package controllers

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/service/upload"
	"io"

	"github.com/gin-gonic/gin"
)

// FormImage opens the multipart "file" field. The caller must close the
// returned closer once the upload is done.
func FormImage(c *gin.Context) (upload.File, io.Closer, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return upload.File{}, nil, app_errors.ErrNotImage
	}
	file, err := fileHeader.Open()
	if err != nil {
		return upload.File{}, nil, err
	}
	return upload.File{
		Name:        fileHeader.Filename,
		Reader:      file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}, file, nil
}
