// Package logging builds the zap logger used by the CLI.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/verte-zerg/subcrack/internal/mcmc"
)

// Config selects level and encoding.
type Config struct {
	Level  string
	Format string
}

// New returns a logger writing to stderr.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("unknown log format %q (want console or json)", cfg.Format)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Encoding = format
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	zapCfg.DisableCaller = true
	zapCfg.DisableStacktrace = true
	zapCfg.Sampling = nil
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" {
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapCfg.Build()
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

const previewLen = 50

// SearchObserver logs search progress with structured fields.
type SearchObserver struct {
	Logger     *zap.Logger
	Ciphertext string
}

// OnProgress implements mcmc.Observer.
func (o SearchObserver) OnProgress(p mcmc.Progress) {
	o.Logger.Info("search progress",
		zap.Int("trial", p.Trial+1),
		zap.Int("iteration", p.Iteration),
		zap.String("preview", preview(p.CurrentKey.Apply(o.Ciphertext))),
		zap.Float64("score", p.CurrentScore),
		zap.Float64("best", p.BestScore),
		zap.Stringer("key", p.CurrentKey),
	)
}

// OnTrialDone implements mcmc.Observer.
func (o SearchObserver) OnTrialDone(res mcmc.TrialResult) {
	o.Logger.Info("trial finished",
		zap.Int("trial", res.Trial+1),
		zap.Stringer("key", res.BestKey),
		zap.Float64("score", res.BestScore),
		zap.String("decrypted", res.BestKey.Apply(o.Ciphertext)),
		zap.Int("explored", len(res.Explored)),
		zap.Int("accepted", res.Accepted),
		zap.Duration("elapsed", res.Duration),
	)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > previewLen {
		r = r[:previewLen]
	}
	return string(r)
}
