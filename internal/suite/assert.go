package suite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stretchr/testify/assert"
)

// ErrAssertion is returned when a scenario expectation is not met
var ErrAssertion = errors.New("assertion failed")

// failureRecorder satisfies assert.TestingT and keeps the failure text
type failureRecorder struct {
	failures []string
}

func (r *failureRecorder) Errorf(format string, args ...interface{}) {
	r.failures = append(r.failures, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (r *failureRecorder) Helper() {}

func (r *failureRecorder) err() error {
	if len(r.failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrAssertion, strings.Join(r.failures, "\n"))
}

// AssertTrue fails with msg unless cond holds
func AssertTrue(cond bool, msg string) error {
	r := &failureRecorder{}
	assert.True(r, cond, msg)
	return r.err()
}

// AssertFalse fails with msg if cond holds
func AssertFalse(cond bool, msg string) error {
	r := &failureRecorder{}
	assert.False(r, cond, msg)
	return r.err()
}

// AssertEqual fails with msg unless actual equals expected
func AssertEqual[T comparable](actual, expected T, msg string) error {
	r := &failureRecorder{}
	assert.Equal(r, expected, actual, msg)
	return r.err()
}
