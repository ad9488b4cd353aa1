package projects

import "errors"

var (
	ErrNotFound            = errors.New("project not found")
	ErrInvalidName         = errors.New("invalid project name")
	ErrSlugTaken           = errors.New("slug already in use")
	ErrVersionNotFound     = errors.New("version not found")
	ErrVersionExists       = errors.New("version name already exists")
	ErrReservedVersionName = errors.New("version name is reserved")
	ErrInvalidVersionName  = errors.New("invalid version name")
	ErrDefaultVersion      = errors.New("default version cannot be deleted")
	ErrSnapshotNotFound    = errors.New("snapshot not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrEmptyContent        = errors.New("content is empty")
)
