package multipart

import (
	"io"
	"os"
)

// FileSystem is the file access the builder needs to append parts from disk
type FileSystem interface {
	Exists(path string) bool
	IsDir(path string) bool
	Size(path string) (uint64, error)
	Open(path string) (io.ReadCloser, error)
}

// OSFileSystem reads from the local disk
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (OSFileSystem) Size(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, &os.PathError{Op: "size", Path: path, Err: os.ErrInvalid}
	}
	return uint64(info.Size()), nil
}

func (OSFileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
