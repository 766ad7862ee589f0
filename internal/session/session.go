// Package session holds the result set currently on display. Each upload
// runs the loader and the extractor and, only if both succeed, replaces the
// previous result as a whole.
package session

import (
	"context"
	"sync/atomic"

	"github.com/ginjaninja78/airshopping-offers/internal/extractor"
	"github.com/ginjaninja78/airshopping-offers/internal/loader"
	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"go.uber.org/zap"
)

// Session owns the current result. It is safe for concurrent use.
type Session struct {
	loader  *loader.Loader
	options extractor.Options
	log     *zap.Logger

	current atomic.Pointer[offer.Result]
}

// New creates an empty session.
func New(l *loader.Loader, options extractor.Options, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if options.Logger == nil {
		options.Logger = log
	}
	return &Session{loader: l, options: options, log: log}
}

// Upload loads and extracts f. On success the new result replaces the
// current one and is returned. On failure the current result is kept.
func (s *Session) Upload(ctx context.Context, f loader.File) (*offer.Result, error) {
	text, err := s.loader.Load(ctx, f)
	if err != nil {
		s.log.Warn("upload rejected", zap.String("file", f.Name()), zap.String("kind", offer.Kind(err)), zap.Error(err))
		return nil, err
	}

	return s.replace(f.Name(), text)
}

// UploadPath is Upload for a file on disk.
func (s *Session) UploadPath(ctx context.Context, path string) (*offer.Result, error) {
	text, err := s.loader.LoadPath(ctx, path)
	if err != nil {
		s.log.Warn("upload rejected", zap.String("file", path), zap.String("kind", offer.Kind(err)), zap.Error(err))
		return nil, err
	}

	return s.replace(path, text)
}

func (s *Session) replace(source, text string) (*offer.Result, error) {
	result, err := extractor.ExtractText(text, s.options)
	if err != nil {
		s.log.Warn("extraction failed", zap.String("file", source), zap.String("kind", offer.Kind(err)), zap.Error(err))
		return nil, err
	}
	result.Source = source

	s.current.Store(result)
	s.log.Debug("result replaced",
		zap.String("file", source),
		zap.Int("groups", len(result.Groups)),
		zap.Int("records", len(result.Records)),
		zap.Int("dropped", result.Stats.Dropped),
	)

	return result, nil
}

// Current returns the result on display, or nil before the first
// successful upload.
func (s *Session) Current() *offer.Result {
	return s.current.Load()
}

// Clear drops the current result.
func (s *Session) Clear() {
	s.current.Store(nil)
}
