package ossfs

import (
	"context"
	"log/slog"

	"github.com/zenkj/ossfs/attr"
	"github.com/zenkj/ossfs/bridge"
)

type LoggerBridge struct {
	logger  *slog.Logger
	backend bridge.Operations
}

// Getattr implements bridge.Operations.
func (b *LoggerBridge) Getattr(ctx context.Context, path string) (attr.Record, error) {
	b.logger.DebugContext(ctx, "bridge operation", slog.String("operation", "getattr"), slog.String("path", path))
	return b.backend.Getattr(ctx, path)
}

// Readdir implements bridge.Operations.
func (b *LoggerBridge) Readdir(ctx context.Context, path string) ([]string, error) {
	b.logger.DebugContext(ctx, "bridge operation", slog.String("operation", "readdir"), slog.String("path", path))
	return b.backend.Readdir(ctx, path)
}

// Read implements bridge.Operations.
func (b *LoggerBridge) Read(ctx context.Context, path string, length int, offset int64) ([]byte, error) {
	b.logger.DebugContext(ctx, "bridge operation", slog.String("operation", "read"), slog.String("path", path), slog.Int("length", length), slog.Int64("offset", offset))
	return b.backend.Read(ctx, path, length, offset)
}

func WithLogger(backend bridge.Operations, logger *slog.Logger) *LoggerBridge {
	return &LoggerBridge{
		backend: backend,
		logger:  logger,
	}
}

var _ bridge.Operations = &LoggerBridge{}
