// Package router declares upload routes: which file types a route accepts,
// the per-type limits, the user hooks that run during an upload, and the
// registry the server resolves slugs against.
//
// Routes are built once at startup and are immutable after registration;
// the registry is safe for unbounded concurrent readers.
package router

import (
	"fmt"
	"strings"
)

// FileType names one bucket of per-type rules on a route.
type FileType string

const (
	TypeImage FileType = "image"
	TypeVideo FileType = "video"
	TypeAudio FileType = "audio"
	TypePDF   FileType = "pdf"
	TypeText  FileType = "text"

	// TypeBlob is the catch-all bucket. If a route configures it, any file
	// whose declared type matches no other bucket lands here.
	TypeBlob FileType = "blob"
)

// Defaults applied by normalization when a TypeConfig field is zero.
const (
	DefaultMaxFileSize        = int64(4 << 20) // 4 MiB
	DefaultMaxFileCount       = 1
	DefaultMinFileCount       = 1
	DefaultContentDisposition = "inline"
	DefaultACL                = "public-read"
)

// TypeConfig holds the rules for one file-type bucket. Zero fields are
// filled with defaults during normalization; a normalized config is what
// the GET introspection surface reports.
type TypeConfig struct {
	MaxFileSize        int64  `json:"maxFileSize"`
	MaxFileCount       int    `json:"maxFileCount"`
	MinFileCount       int    `json:"minFileCount"`
	ContentDisposition string `json:"contentDisposition"`
	ACL                string `json:"acl"`
}

func (c TypeConfig) normalized() TypeConfig {
	if c.MaxFileSize == 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.MaxFileCount == 0 {
		c.MaxFileCount = DefaultMaxFileCount
	}
	if c.MinFileCount == 0 {
		c.MinFileCount = DefaultMinFileCount
	}
	if c.ContentDisposition == "" {
		c.ContentDisposition = DefaultContentDisposition
	}
	if c.ACL == "" {
		c.ACL = DefaultACL
	}
	return c
}

func (c TypeConfig) validate(t FileType) error {
	if c.MaxFileSize < 0 || c.MaxFileCount < 0 || c.MinFileCount < 0 {
		return fmt.Errorf("type %q: negative limit", t)
	}
	if c.MaxFileCount > 0 && c.MinFileCount > c.MaxFileCount {
		return fmt.Errorf("type %q: minFileCount %d exceeds maxFileCount %d", t, c.MinFileCount, c.MaxFileCount)
	}
	return nil
}

// FileInfo is one file as declared in the upload action payload.
type FileInfo struct {
	Name string `json:"name" validate:"required"`
	Size int64  `json:"size" validate:"required,min=1"`
	Type string `json:"type"`
}

// resolveBucket maps a declared file type onto one of the configured
// buckets: exact bucket name first, then the major MIME type ("image/png"
// resolves to image), then the blob catch-all when configured.
func resolveBucket(declared string, types map[FileType]TypeConfig) (FileType, bool) {
	if _, ok := types[FileType(declared)]; ok {
		return FileType(declared), true
	}
	if major, _, ok := strings.Cut(declared, "/"); ok {
		if _, exists := types[FileType(major)]; exists {
			return FileType(major), true
		}
	}
	if _, ok := types[TypeBlob]; ok {
		return TypeBlob, true
	}
	return "", false
}
