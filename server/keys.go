package server

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"

	"github.com/google/uuid"

	"github.com/uploadthing/uploadthing-go/router"
)

// deriveKey computes the upload key for one file: a hash over the route's
// configured key parts plus fresh entropy. Two requests for "the same" file
// therefore get distinct keys unless the route opted into deterministic
// keys.
func deriveKey(appID string, f *fileUpload, opts router.Options) string {
	h := sha256.New()
	h.Write([]byte(appID))

	for _, part := range opts.KeyParts {
		switch part {
		case router.KeyPartName:
			h.Write([]byte(f.Name))
		case router.KeyPartSize:
			h.Write([]byte(strconv.FormatInt(f.Size, 10)))
		case router.KeyPartType:
			h.Write([]byte(f.Type))
		case router.KeyPartCustomID:
			h.Write([]byte(f.CustomID))
		}
	}

	if !opts.DeterministicKeys {
		h.Write([]byte(uuid.NewString()))
	}

	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
