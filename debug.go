package ikpose

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a console zerolog logger writing to w at the named
// level ("debug", "info", "warn", ...). Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().Timestamp().Str("component", "ikpose").Logger()
}

// debugMaxTreeDepth is the bone depth above which AddBone warns.
const debugMaxTreeDepth = 64

func (s *Skeleton) debugCheckTreeDepth(i int) {
	depth := 0
	for p := i; p >= 0; p = s.bones[p].Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		s.log.Warn().Str("bone", s.bones[i].Name).Int("depth", depth).
			Int("threshold", debugMaxTreeDepth).Msg("bone tree depth exceeds threshold")
	}
}

// debugMaxChildCount is the child count above which AddBone warns.
const debugMaxChildCount = 32

func (s *Skeleton) debugCheckChildCount(i int) {
	if n := len(s.bones[i].children); n > debugMaxChildCount {
		s.log.Warn().Str("bone", s.bones[i].Name).Int("children", n).
			Int("threshold", debugMaxChildCount).Msg("bone child count exceeds threshold")
	}
}

// LogPose writes every bone rotation, in degrees, at debug level.
func (c *Controller) LogPose() {
	if c.log.GetLevel() > zerolog.DebugLevel {
		return
	}
	for i := 0; i < c.skel.Len(); i++ {
		d := c.skel.Rotation(i).Degrees()
		c.log.Debug().Str("bone", c.skel.Bone(i).Name).Floats64("deg", d[:]).Msg("pose")
	}
}
