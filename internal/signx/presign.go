package signx

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// PresignData is everything the ingest service needs to enforce an upload
// without re-deriving it: the data rides inside the signed query string.
type PresignData struct {
	AppID              string
	FileName           string
	FileSize           int64
	FileType           string
	Slug               string
	CustomID           string
	ContentDisposition string
	ACL                string
}

// PresignUploadURL builds and signs the direct-to-ingest PUT URL for one
// file key. The metadata is carried as x-ut-* query parameters covered by
// the signature, so the ingest service can trust it.
func PresignUploadURL(base *url.URL, key string, data PresignData, ttl time.Duration, apiKey string) (string, error) {
	u := base.JoinPath(key)

	q := u.Query()
	q.Set("x-ut-identifier", data.AppID)
	q.Set("x-ut-file-name", data.FileName)
	q.Set("x-ut-file-size", strconv.FormatInt(data.FileSize, 10))
	q.Set("x-ut-file-type", data.FileType)
	q.Set("x-ut-slug", data.Slug)
	if data.CustomID != "" {
		q.Set("x-ut-custom-id", data.CustomID)
	}
	if data.ContentDisposition != "" {
		q.Set("x-ut-content-disposition", data.ContentDisposition)
	}
	if data.ACL != "" {
		q.Set("x-ut-acl", data.ACL)
	}
	u.RawQuery = q.Encode()

	signed, err := SignURL(u.String(), ttl, apiKey)
	if err != nil {
		return "", fmt.Errorf("sign upload url: %w", err)
	}
	return signed, nil
}
