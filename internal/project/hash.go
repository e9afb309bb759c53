package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest - sha256 содержимого сценария, манифеста или их комбинации
type Digest [32]byte

// Sum хеширует содержимое файла.
func Sum(content []byte) Digest {
	return sha256.Sum256(content)
}

// Combine строит ключ результата: H( content || dep1 || dep2 ... ).
// Порядок deps должен быть детерминированным.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	h.Write(content[:])
	for _, d := range deps {
		h.Write(d[:])
	}
	var out Digest
	h.Sum(out[:0])
	return out
}

// Hex returns the full lowercase hex form, used for cache file names.
func (d Digest) Hex() string { return hex.EncodeToString(d[:]) }

// Short returns the first 12 hex digits for display.
func (d Digest) Short() string { return d.Hex()[:12] }

// IsZero reports whether d is the zero digest (no manifest, no content).
func (d Digest) IsZero() bool { return d == Digest{} }
