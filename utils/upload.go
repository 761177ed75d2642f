package utils

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// UploadDir is where multipart uploads land. Served statically at /uploads.
func UploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "./uploads"
}

// SaveUpload stores the named form file under UploadDir/subdir, prefixed
// with the owning record's id, and returns the public URL path.
func SaveUpload(c *gin.Context, field, subdir, id string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(UploadDir(), subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := id + "_" + filepath.Base(file.Filename)
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		return "", err
	}

	return "/uploads/" + subdir + "/" + name, nil
}
