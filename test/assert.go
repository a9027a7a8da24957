// Package test holds the assertion helpers shared by the package tests.
package test

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Assert fails the test if the condition is false.
func Assert(tb testing.TB, condition bool, msg string, v ...interface{}) {
	tb.Helper()

	if !condition {
		_, file, line, _ := runtime.Caller(1)
		tb.Fatalf("\033[31m%s:%d: "+msg+"\033[39m\n\n", append([]interface{}{filepath.Base(file), line}, v...)...)
	}
}

// Ok fails the test if an err is not nil.
func Ok(tb testing.TB, err error) {
	tb.Helper()

	if err != nil {
		_, file, line, _ := runtime.Caller(1)
		tb.Fatalf("\033[31m%s:%d: unexpected error: %s\033[39m\n\n", filepath.Base(file), line, err.Error())
	}
}

// Expected fails the test if err does not match target.
func Expected(tb testing.TB, err, target error) {
	tb.Helper()

	if !errors.Is(err, target) {
		_, file, line, _ := runtime.Caller(1)
		tb.Fatalf("\033[31m%s:%d: expected error %v, got %v\033[39m\n\n", filepath.Base(file), line, target, err)
	}
}

// Equals fails the test if exp is not equal to act.
func Equals(tb testing.TB, exp, act interface{}, opts ...cmp.Option) {
	tb.Helper()

	if diff := cmp.Diff(exp, act, opts...); diff != "" {
		_, file, line, _ := runtime.Caller(1)
		tb.Fatalf("\033[31m%s:%d: mismatch (-want +got):\n%s\033[39m\n\n", filepath.Base(file), line, diff)
	}
}
