package loader

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedReader struct {
	name string
	io.Reader
}

func (n namedReader) Name() string { return n.name }

// trackingReader records whether anything tried to read it.
type trackingReader struct {
	read bool
}

func (t *trackingReader) Read(p []byte) (int, error) {
	t.read = true
	return 0, io.EOF
}

func TestLoadText(t *testing.T) {
	l := New(Options{})

	text, err := l.Load(context.Background(), namedReader{"offers.xml", strings.NewReader("<a>é</a>")})
	require.NoError(t, err)
	assert.Equal(t, "<a>é</a>", text)
}

func TestLoadStripsBOM(t *testing.T) {
	l := New(Options{})

	text, err := l.Load(context.Background(), namedReader{"offers.xml", strings.NewReader("\xef\xbb\xbf<a/>")})
	require.NoError(t, err)
	assert.Equal(t, "<a/>", text)
}

func TestLoadRejectsWrongExtensionWithoutReading(t *testing.T) {
	l := New(Options{})

	for _, name := range []string{"data.txt", "offers.xml.bak", "offers", "offers.XML"} {
		t.Run(name, func(t *testing.T) {
			r := &trackingReader{}
			_, err := l.Load(context.Background(), namedReader{name, r})
			assert.ErrorIs(t, err, offer.ErrInvalidFileType)
			assert.False(t, r.read)
		})
	}
}

func TestLoadCaseInsensitiveExtension(t *testing.T) {
	l := New(Options{CaseInsensitiveExtension: true})

	_, err := l.Load(context.Background(), namedReader{"OFFERS.XML", strings.NewReader("<a/>")})
	assert.NoError(t, err)

	_, err = l.Load(context.Background(), namedReader{"offers.txt", strings.NewReader("<a/>")})
	assert.ErrorIs(t, err, offer.ErrInvalidFileType)
}

func TestLoadReadFailure(t *testing.T) {
	l := New(Options{})

	_, err := l.Load(context.Background(), namedReader{"offers.xml", iotest.ErrReader(errors.New("disk on fire"))})
	assert.ErrorIs(t, err, offer.ErrReadFailure)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestLoadCancelled(t *testing.T) {
	l := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, namedReader{"offers.xml", strings.NewReader("<a/>")})
	assert.ErrorIs(t, err, offer.ErrReadFailure)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadMaxFileSize(t *testing.T) {
	l := New(Options{MaxFileSize: 4})

	_, err := l.Load(context.Background(), namedReader{"offers.xml", strings.NewReader("<a></a>")})
	assert.ErrorIs(t, err, offer.ErrReadFailure)

	text, err := l.Load(context.Background(), namedReader{"offers.xml", strings.NewReader("<a/>")})
	require.NoError(t, err)
	assert.Equal(t, "<a/>", text)
}

func TestLoadLatin1(t *testing.T) {
	l := New(Options{Encoding: "ISO-8859-1"})

	text, err := l.Load(context.Background(), namedReader{"offers.xml", strings.NewReader("<a>Z\xfcrich</a>")})
	require.NoError(t, err)
	assert.Equal(t, "<a>Zürich</a>", text)
}

func TestLoadUnknownEncoding(t *testing.T) {
	l := New(Options{Encoding: "klingon-8"})

	_, err := l.Load(context.Background(), namedReader{"offers.xml", strings.NewReader("<a/>")})
	assert.ErrorIs(t, err, offer.ErrReadFailure)
}

func TestLoadPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "offers.xml")
	require.NoError(t, os.WriteFile(path, []byte("<a/>"), 0644))

	l := New(Options{})

	text, err := l.LoadPath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "<a/>", text)

	_, err = l.LoadPath(context.Background(), filepath.Join(dir, "missing.xml"))
	assert.ErrorIs(t, err, offer.ErrReadFailure)

	// The name is checked before the file is opened.
	_, err = l.LoadPath(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, offer.ErrInvalidFileType)
}
