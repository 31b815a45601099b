package multipart

import "errors"

var (
	ErrInvalidFileURL   = errors.New("body part url is not a local file")
	ErrInvalidFilename  = errors.New("body part filename invalid")
	ErrFileNotReachable = errors.New("body part file not reachable")
	ErrIsDirectory      = errors.New("body part file is a directory")
	ErrFileSize         = errors.New("body part file size not available")
	ErrStreamOpen       = errors.New("body part input stream creation failed")
	ErrStreamRead       = errors.New("multipart encoding failed: input stream read failed")
)
