package upload

import (
	"DormBiz/internal/app_errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckImage(t *testing.T) {
	f := &File{Name: "desk.PNG", Size: 1024}
	assert.NoError(t, CheckImage(f, 0))
	assert.Equal(t, "image/png", f.ContentType)

	assert.ErrorIs(t, CheckImage(&File{Name: "a.png", Size: MaxImageBytes + 1}, 0), app_errors.ErrFileSize)
	assert.ErrorIs(t, CheckImage(&File{Name: "a.png", Size: 0}, 0), app_errors.ErrFileSize)
	assert.ErrorIs(t, CheckImage(&File{Name: "notes.pdf", Size: 10}, 0), app_errors.ErrNotImage)
	assert.ErrorIs(t, CheckImage(&File{Name: "a.png", Size: 10, ContentType: "text/plain"}, 0), app_errors.ErrNotImage)
	assert.ErrorIs(t, CheckImage(&File{Name: "a.png", Size: 2048}, 1024), app_errors.ErrFileSize)
}
