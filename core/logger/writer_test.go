package logger

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAsyncWriterFansOutInOrder(t *testing.T) {
	a, b := &lockedBuffer{}, &lockedBuffer{}
	w := newAsyncWriter([]io.Writer{a, nil, b}, 16)

	for i := 0; i < 500; i++ {
		require.NoError(t, w.Write([]byte(strconv.Itoa(i)+"\n")))
	}
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(a.String()), "\n")
	require.Len(t, lines, 500)
	for i, l := range lines {
		assert.Equal(t, strconv.Itoa(i), l)
	}
	assert.Equal(t, a.String(), b.String())
	require.NoError(t, w.Close())
}

func TestAsyncWriterAfterClose(t *testing.T) {
	w := newAsyncWriter([]io.Writer{&lockedBuffer{}}, 0)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Write([]byte("late\n")), errWriterClosed)
	assert.NoError(t, w.Flush())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterReportsSinkError(t *testing.T) {
	w := newAsyncWriter([]io.Writer{failingWriter{}}, 1)
	require.NoError(t, w.Write([]byte("a line longer than the buffer\n")))

	assert.ErrorContains(t, w.Flush(), "disk full")
	assert.ErrorContains(t, w.Write([]byte("x")), "disk full")
	assert.ErrorContains(t, w.Close(), "disk full")
}
