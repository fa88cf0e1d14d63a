// Package decode turns transport-encoded content back into comparable text.
package decode

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"go.keploy.io/comparator/pkg/models"
	"go.uber.org/zap"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Decoder undoes base64 and then gzip or brotli compression. Content that is
// not base64 is only decompressed. Text that merely looks like base64 is kept
// as it is when its decoded bytes are neither text nor compressed.
type Decoder struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Decoder {
	return &Decoder{logger: logger}
}

func (d *Decoder) Decode(content []byte) (string, error) {
	data := bytes.TrimSpace(content)
	if raw, ok := fromBase64(data); ok {
		out, err := d.decompress(raw, true)
		if err == nil {
			d.logger.Debug("content is base64", zap.Int("bytes", len(raw)))
			return out, nil
		}
		d.logger.Debug("content looks like base64 but does not decode to text", zap.Error(err))
	}
	return d.decompress(data, false)
}

// decompress returns data as text, inflating gzip or brotli first. A
// brotli stream that yields nothing is rejected when strict is set.
func (d *Decoder) decompress(data []byte, strict bool) (string, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", models.NewParseError("invalid gzip content: %v", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return "", models.NewParseError("invalid gzip content: %v", err)
		}
		d.logger.Debug("content is gzip", zap.Int("bytes", len(out)))
		return text(out)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return "", models.NewParseError("content is neither text, gzip nor brotli: %v", err)
	}
	if strict && len(out) == 0 {
		return "", models.NewParseError("brotli content is empty")
	}
	d.logger.Debug("content is brotli", zap.Int("bytes", len(out)))
	return text(out)
}

func fromBase64(data []byte) ([]byte, bool) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, false
	}
	out := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(out, data)
	if err != nil {
		return nil, false
	}
	return out[:n], true
}

func text(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", models.NewParseError("decoded content is not valid UTF-8")
	}
	return string(b), nil
}
