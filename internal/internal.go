package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// CloseWithErrLogf is making sure we log every error, even those from best effort tiny closers.
func CloseWithErrLogf(logger log.Logger, closer io.Closer, format string, a ...interface{}) {
	if closer == nil {
		return
	}

	err := closer.Close()
	if err == nil || errors.Is(err, os.ErrClosed) {
		return
	}

	if logger == nil {
		logger = log.NewLogfmtLogger(os.Stderr)
	}

	level.Warn(logger).Log("msg", "detected close error", "err", fmt.Errorf(format+", %w", append(a, err)...))
}

// MultiError is a collection of independent errors.
type MultiError struct {
	errs []error
}

// Add appends the error if it is not nil.
func (m *MultiError) Add(err error) {
	if err == nil {
		return
	}

	m.errs = append(m.errs, err)
}

// Len reports how many errors were collected.
func (m *MultiError) Len() int {
	return len(m.errs)
}

// Err returns nil when nothing was collected, otherwise the MultiError itself.
func (m *MultiError) Err() error {
	if m == nil || len(m.errs) == 0 {
		return nil
	}

	return m
}

func (m *MultiError) Error() string {
	if len(m.errs) == 1 {
		return m.errs[0].Error()
	}

	msgs := make([]string, 0, len(m.errs))
	for _, err := range m.errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Sprintf("%d errors: %s", len(m.errs), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.errs
}
