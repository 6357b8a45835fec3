// Package config provides environment-backed defaults for go-facedetect commands.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Default configuration.
const (
	DefaultPort      = "8080"
	DefaultModelsDir = "models"
	DefaultCamera    = 0
)

// Port returns the dashboard port from FACEDETECT_PORT.
// Falls back to DefaultPort if not set.
func Port() string {
	if p := os.Getenv("FACEDETECT_PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// ModelsDir returns the directory holding the ONNX face models.
func ModelsDir() string {
	if dir := os.Getenv("FACEDETECT_MODELS"); dir != "" {
		return dir
	}
	return DefaultModelsDir
}

// MediaDir returns the directory the file picker opens in.
// Uses FACEDETECT_MEDIA_DIR, then the user's home directory, then ".".
func MediaDir() string {
	if dir := os.Getenv("FACEDETECT_MEDIA_DIR"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// CameraDevice returns the webcam index from FACEDETECT_CAMERA.
// Invalid values fall back to DefaultCamera.
func CameraDevice() int {
	if v := os.Getenv("FACEDETECT_CAMERA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return DefaultCamera
}

// ModelPath joins a model file name onto the models directory.
func ModelPath(dir, name string) string {
	return filepath.Join(dir, name)
}
