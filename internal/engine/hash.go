package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// HashFile computes the BLAKE3 hash of the file at path on fs, returning the
// hex-encoded digest.
func HashFile(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBlocks hashes a block range exactly as CopyRun would write it, with
// unreadable blocks as zeros. It also returns how many blocks were zeroed.
func HashBlocks(ctx context.Context, r BlockReader, start, count int64) (string, int64, error) {
	h := blake3.New()
	p, err := CopyRun(ctx, r, start, count, h, CopyOptions{})
	if err != nil {
		return "", p.Substituted, err
	}
	return hex.EncodeToString(h.Sum(nil)), p.Substituted, nil
}
