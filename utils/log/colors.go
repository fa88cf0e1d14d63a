package log

import (
	"bytes"
	"regexp"

	"github.com/fatih/color"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// colorEncoder is the console encoder with colored output restored. When
// fatih/color has colors turned off (NO_COLOR, no tty) the escapes are
// stripped instead.
type colorEncoder struct {
	*zapcore.EncoderConfig
	zapcore.Encoder
}

func NewColor(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return colorEncoder{
		EncoderConfig: &cfg,
		Encoder:       zapcore.NewConsoleEncoder(cfg),
	}
}

func (c colorEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf, err := c.Encoder.EncodeEntry(ent, fields)
	if err != nil {
		return nil, err
	}
	out := bytes.ReplaceAll(buf.Bytes(), []byte(`\u001b`), []byte("\u001b"))
	if color.NoColor {
		out = ansiEscape.ReplaceAll(out, nil)
	}
	buf.Reset()
	_, _ = buf.Write(out)
	return buf, nil
}

func (c colorEncoder) Clone() zapcore.Encoder {
	return colorEncoder{
		EncoderConfig: c.EncoderConfig,
		Encoder:       c.Encoder.Clone(),
	}
}
