// =============================================================================
// AirShopping Offer Extractor - XML Loader
// =============================================================================
//
// This module accepts a file, checks that its name ends in ".xml" and reads
// its whole content as text. It replaces the file picker and file reader of
// a browser front-end: it never parses, it only produces text.
//
// FEATURES:
//   - Extension check before anything is opened or read
//   - UTF-8 decoding with BOM removal; other encodings by IANA name
//   - Maximum file size
//   - Context cancellation while reading
//
// ERRORS:
//   - offer.ErrInvalidFileType : the name does not end in ".xml"
//   - offer.ErrReadFailure     : open, read, size or decoding failure
//
// =============================================================================

package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Extension is the only accepted file name suffix.
const Extension = ".xml"

// File is anything with a name that can be read. *os.File satisfies it.
type File interface {
	Name() string
	io.Reader
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Loader.
type Options struct {
	// Encoding is the IANA name of the file encoding.
	// Default: "UTF-8"
	Encoding string

	// CaseInsensitiveExtension also accepts ".XML", ".Xml", ...
	// Default: false
	CaseInsensitiveExtension bool

	// MaxFileSize is the largest accepted content in bytes. Zero disables
	// the limit.
	MaxFileSize int64
}

// Loader reads XML files as text.
type Loader struct {
	options Options
}

// New creates a Loader.
func New(options Options) *Loader {
	return &Loader{options: options}
}

// =============================================================================
// LOADING
// =============================================================================

// CheckName validates a file name.
func (l *Loader) CheckName(name string) error {
	suffixed := strings.HasSuffix(name, Extension)
	if !suffixed && l.options.CaseInsensitiveExtension {
		suffixed = strings.HasSuffix(strings.ToLower(name), Extension)
	}
	if !suffixed {
		return fmt.Errorf("%w: %q does not end in %s", offer.ErrInvalidFileType, name, Extension)
	}
	return nil
}

// LoadPath checks the name of path, then opens and reads it. A file with
// the wrong name is never opened.
func (l *Loader) LoadPath(ctx context.Context, path string) (string, error) {
	if err := l.CheckName(path); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", offer.ErrReadFailure, err)
	}
	defer f.Close()

	return l.read(ctx, f)
}

// Load checks the name of f and reads its whole content as text.
func (l *Loader) Load(ctx context.Context, f File) (string, error) {
	if err := l.CheckName(f.Name()); err != nil {
		return "", err
	}
	return l.read(ctx, f)
}

func (l *Loader) read(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", offer.ErrReadFailure, err)
	}

	decoder, err := l.decoder()
	if err != nil {
		return "", fmt.Errorf("%w: %w", offer.ErrReadFailure, err)
	}

	var source io.Reader = &contextReader{ctx: ctx, r: r}
	if limit := l.options.MaxFileSize; limit > 0 {
		source = io.LimitReader(source, limit+1)
	}

	raw, err := io.ReadAll(source)
	if err != nil {
		return "", fmt.Errorf("%w: %w", offer.ErrReadFailure, err)
	}
	if limit := l.options.MaxFileSize; limit > 0 && int64(len(raw)) > limit {
		return "", fmt.Errorf("%w: file exceeds %d bytes", offer.ErrReadFailure, limit)
	}

	text, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", fmt.Errorf("%w: decoding %s: %w", offer.ErrReadFailure, l.encodingName(), err)
	}

	return string(text), nil
}

func (l *Loader) encodingName() string {
	if l.options.Encoding == "" {
		return "UTF-8"
	}
	return l.options.Encoding
}

// decoder returns the transformer turning file bytes into UTF-8. For UTF-8
// input a leading byte order mark is removed.
func (l *Loader) decoder() (transform.Transformer, error) {
	name := l.encodingName()

	switch strings.ToUpper(strings.ReplaceAll(name, "_", "-")) {
	case "UTF-8", "UTF8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc.NewDecoder(), nil
}

// contextReader stops reading once its context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
