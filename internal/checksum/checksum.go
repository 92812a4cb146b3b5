package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// minAudioBytes is the smallest byte count a plausible audio stream can have.
// Anything shorter is treated as truncated.
const minAudioBytes = 256

// File computes the SHA-256 content checksum of the file at path. The
// checksum is the identity key for content dedup and is computed from the
// file bytes exactly once, before any catalog write.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyReadable checksums the file while confirming the full stream is
// readable and not obviously truncated. It returns the checksum together
// with the byte count actually read.
func VerifyReadable(path string) (sum string, size int64, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() < minAudioBytes {
		return "", info.Size(), fmt.Errorf("file %s is %d bytes; audio stream truncated or empty", path, info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open for verification: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	read, err := io.Copy(h, f)
	if err != nil {
		return "", read, fmt.Errorf("read %s: %w", path, err)
	}
	if read != info.Size() {
		return "", read, fmt.Errorf("file %s short read: got %d of %d bytes", path, read, info.Size())
	}
	return hex.EncodeToString(h.Sum(nil)), read, nil
}
