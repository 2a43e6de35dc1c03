// Package logger builds the zap logger shared by filesig commands.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Level is debug, info, warn or error. Anything else means info.
	Level string
	// Format is "json" or "console".
	Format string
	// OutputFile is a path, or "stdout"/"stderr". Files are appended to.
	OutputFile string
	// Service is attached to every entry; defaults to "filesig".
	Service string
}

func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil || cfg.Level == "" {
		level.SetLevel(zap.InfoLevel)
	}

	sink, err := writeSyncer(cfg.OutputFile)
	if err != nil {
		return nil, err
	}

	service := cfg.Service
	if service == "" {
		service = "filesig"
	}

	core := zapcore.NewCore(encoder(cfg.Format), sink, level)
	return zap.New(core, zap.AddCaller(), zap.Fields(zap.String("service", service))), nil
}

func encoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder

	if strings.EqualFold(format, "console") {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func writeSyncer(out string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(out) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", out, err)
	}
	return zapcore.AddSync(f), nil
}
