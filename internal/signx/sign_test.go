package signx

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "sk_test_0123456789abcdef"

func TestSignVerify_RoundTrip(t *testing.T) {
	payload := []byte(`{"status":"uploaded"}`)

	sig := Sign(payload, testKey)
	assert.True(t, strings.HasPrefix(sig, SignaturePrefix))
	assert.True(t, Verify(payload, sig, testKey))
}

func TestVerify_RejectsTamper(t *testing.T) {
	payload := []byte(`{"status":"uploaded"}`)
	sig := Sign(payload, testKey)

	assert.False(t, Verify([]byte(`{"status":"failed"}`), sig, testKey))
	assert.False(t, Verify(payload, sig, "other-key"))
	assert.False(t, Verify(payload, "", testKey))
	assert.False(t, Verify(payload, SignaturePrefix+"deadbeef", testKey))
}

func TestSignURL_VerifyURL_RoundTrip(t *testing.T) {
	signed, err := SignURL("https://ingest.example.com/abc123?x-ut-slug=avatar", time.Minute, testKey)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.NotEmpty(t, u.Query().Get("expires"))
	assert.NotEmpty(t, u.Query().Get("signature"))

	assert.NoError(t, VerifyURL(signed, testKey))
}

func TestVerifyURL_Expired(t *testing.T) {
	signed, err := SignURL("https://ingest.example.com/abc123", -time.Second, testKey)
	require.NoError(t, err)

	assert.ErrorIs(t, VerifyURL(signed, testKey), ErrExpired)
}

func TestVerifyURL_TamperedQueryFails(t *testing.T) {
	signed, err := SignURL("https://ingest.example.com/abc123?x-ut-file-size=100", time.Minute, testKey)
	require.NoError(t, err)

	tampered := strings.Replace(signed, "x-ut-file-size=100", "x-ut-file-size=999", 1)
	assert.ErrorIs(t, VerifyURL(tampered, testKey), ErrBadSignature)

	// extending the expiry must also break the signature, not report expired
	u, _ := url.Parse(signed)
	q := u.Query()
	q.Set("expires", "99999999999999")
	u.RawQuery = q.Encode()
	assert.ErrorIs(t, VerifyURL(u.String(), testKey), ErrBadSignature)
}

func TestVerifyURL_MissingSignature(t *testing.T) {
	assert.ErrorIs(t, VerifyURL("https://ingest.example.com/abc123?expires=1", testKey), ErrMissingSignature)
}

func TestPresignUploadURL_CarriesSignedMetadata(t *testing.T) {
	base, _ := url.Parse("https://ingest.example.com")

	signed, err := PresignUploadURL(base, "key123", PresignData{
		AppID:              "app1",
		FileName:           "a.png",
		FileSize:           1000,
		FileType:           "image/png",
		Slug:               "avatar",
		CustomID:           "cid-1",
		ContentDisposition: "inline",
		ACL:                "public-read",
	}, time.Minute, testKey)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/key123", u.Path)

	q := u.Query()
	assert.Equal(t, "app1", q.Get("x-ut-identifier"))
	assert.Equal(t, "a.png", q.Get("x-ut-file-name"))
	assert.Equal(t, "1000", q.Get("x-ut-file-size"))
	assert.Equal(t, "image/png", q.Get("x-ut-file-type"))
	assert.Equal(t, "avatar", q.Get("x-ut-slug"))
	assert.Equal(t, "cid-1", q.Get("x-ut-custom-id"))
	assert.Equal(t, "inline", q.Get("x-ut-content-disposition"))
	assert.Equal(t, "public-read", q.Get("x-ut-acl"))

	assert.NoError(t, VerifyURL(signed, testKey))
}

func TestPresignUploadURL_OmitsEmptyOptionalFields(t *testing.T) {
	base, _ := url.Parse("https://ingest.example.com")

	signed, err := PresignUploadURL(base, "k", PresignData{
		AppID: "app1", FileName: "a.bin", FileSize: 1, FileType: "blob", Slug: "files",
	}, time.Minute, testKey)
	require.NoError(t, err)

	u, _ := url.Parse(signed)
	_, hasCustom := u.Query()["x-ut-custom-id"]
	assert.False(t, hasCustom)
}
