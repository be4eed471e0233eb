// Package storage publishes local files (synthesized audio, interview
// recordings) and hands back a URL clients can fetch them from.
package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/logger"
)

// Kind selects the container a file is published to.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Store uploads the file at path under name and returns its public URL.
type Store interface {
	PutFile(ctx context.Context, kind Kind, path, name, contentType string) (string, error)
}

// FallbackStore publishes to Primary and, when that fails, to Secondary.
type FallbackStore struct {
	Primary   Store
	Secondary Store
	Log       *zap.Logger
}

// PutFile implements Store.
func (s *FallbackStore) PutFile(ctx context.Context, kind Kind, path, name, contentType string) (string, error) {
	if s.Primary != nil {
		url, err := s.Primary.PutFile(ctx, kind, path, name, contentType)
		if err == nil {
			return url, nil
		}
		logger.OrNop(s.Log).Warn("primary upload failed, using fallback store",
			zap.String("kind", string(kind)), zap.String("name", name), zap.Error(err))
	}
	return s.Secondary.PutFile(ctx, kind, path, name, contentType)
}
