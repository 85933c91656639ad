// Package guard flips the test-mode flag for any test binary importing it, so
// package main tests never start the real runtime.
package guard

import "os"

func init() {
	if os.Getenv("FORGELINE_TEST_MODE") == "" {
		_ = os.Setenv("FORGELINE_TEST_MODE", "1")
	}
}
