package resilience

import (
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransientNil(t *testing.T) {
	assert.False(t, IsTransient(nil))
}

func TestIsTransientExplicitWrap(t *testing.T) {
	err := NewTransientError(eris.New("http 503 from data.ademe.fr"), 503)
	assert.True(t, IsTransient(err))

	wrapped := fmt.Errorf("agribalyse workbook: %w", err)
	assert.True(t, IsTransient(wrapped), "detected through the chain")
}

func TestIsTransientNetworkTimeout(t *testing.T) {
	err := &net.OpError{Op: "dial", Net: "tcp", Err: &timeoutErr{}}
	assert.True(t, IsTransient(err))
}

type timeoutErr struct{}

func (*timeoutErr) Error() string   { return "i/o timeout" }
func (*timeoutErr) Timeout() bool   { return true }
func (*timeoutErr) Temporary() bool { return true }

func TestIsTransientSyscall(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("read: %w", syscall.ECONNRESET)))
	assert.True(t, IsTransient(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)))
}

func TestIsTransientMessagePatterns(t *testing.T) {
	assert.True(t, IsTransient(eris.New("Get \"ftp://bulks.fao.org\": no such host")))
	assert.True(t, IsTransient(eris.New("write: broken pipe")))
	assert.False(t, IsTransient(eris.New("unexpected status 404 from comtradeapi.un.org")))
	assert.False(t, IsTransient(eris.New("zip: file not found in archive")))
}

func TestTransientErrorUnwrap(t *testing.T) {
	cause := eris.New("http 429 from comtradeapi.un.org")
	te := NewTransientError(cause, 429)
	assert.Equal(t, cause.Error(), te.Error())
	assert.Equal(t, 429, te.StatusCode)
	assert.ErrorIs(t, te, cause)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 410} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

func TestDefaultBackoffRetriesTransientOnly(t *testing.T) {
	b := DefaultBackoff()
	b.Base = time.Millisecond
	b.Cap = time.Millisecond
	b = b.normalized()

	assert.True(t, b.Retryable(NewTransientError(eris.New("http 502"), 502)))
	assert.False(t, b.Retryable(eris.New("unexpected status 403")))
}
