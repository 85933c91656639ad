package app

import (
	"os"
	"sync"
)

const testModeEnv = "FORGELINE_TEST_MODE"

var inTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether the process should skip runtime side effects
// such as opening the listener or connecting to backends.
func InTestMode() bool {
	return inTestMode()
}
