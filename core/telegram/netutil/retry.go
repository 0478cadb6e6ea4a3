// Package netutil classifies transport failures of Telegram API calls.
package netutil

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
	"time"
)

// ShouldRetry reports whether err is a transient network failure: a dial
// error, a timeout, a reset connection or a response cut short.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Backoff returns the wait before retry number attempt (1-based): base
// grows linearly and is capped at max when max > 0.
func Backoff(base time.Duration, attempt int, max time.Duration) time.Duration {
	if base <= 0 || attempt <= 0 {
		return 0
	}
	d := base * time.Duration(attempt)
	if max > 0 && d > max {
		return max
	}
	return d
}
