package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentDigest(t *testing.T) {
	digest := ContentDigest([]byte("hello world"))
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", digest)

	// 同字节恒等，不受调用次数影响
	assert.Equal(t, digest, ContentDigest([]byte("hello world")))
	assert.NotEqual(t, digest, ContentDigest([]byte("hello world!")))
}

func TestContentDigestEmpty(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ContentDigest(nil))
}

func TestFileExt(t *testing.T) {
	assert.Equal(t, ".pdf", FileExt("notes.pdf", ""))
	assert.Equal(t, ".pdf", FileExt("Weird.Name.PDF", ""))
	assert.Equal(t, ".jpg", FileExt("avatar", "image/jpeg"))
	assert.Equal(t, ".png", FileExt("avatar", "image/png"))
	assert.Equal(t, "", FileExt("avatar", "application/octet-stream"))
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("image/png"))
	assert.True(t, IsImage("image/jpeg"))
	assert.False(t, IsImage("application/pdf"))
}

func TestValidateMimeType(t *testing.T) {
	pngHeader := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

	mime, err := ValidateMimeType(bytes.NewReader(pngHeader), []string{"image/"})
	assert.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = ValidateMimeType(bytes.NewReader([]byte("plain text content")), []string{"image/"})
	assert.Error(t, err)
}
