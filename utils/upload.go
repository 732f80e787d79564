package utils

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSize = 5 << 20 // 5 MB

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// SaveUpload stores an uploaded image under destDir with a random
// filename and returns the relative path to persist. The original
// filename is never trusted.
func SaveUpload(c *gin.Context, file *multipart.FileHeader, destDir string) (string, error) {
	if file.Size > maxUploadSize {
		return "", errors.New("file exceeds the 5MB upload limit")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return "", errors.New("only jpg, jpeg, png and webp files are allowed")
	}

	filename := uuid.New().String() + ext
	dest := filepath.Join(destDir, filename)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		return "", err
	}
	return dest, nil
}
