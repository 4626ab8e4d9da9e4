package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// JAMIYAH_TEST_MODE=1 makes the binaries exit before touching external
// services, so test harnesses can exec them safely.
const testModeEnv = "JAMIYAH_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeInit sync.Once
)

// InTestMode reports whether runtime side effects should be skipped.
func InTestMode() bool {
	testModeInit.Do(func() {
		testMode.Store(os.Getenv(testModeEnv) == "1")
	})
	return testMode.Load()
}

// RefreshTestMode re-reads the environment flag after it changes.
func RefreshTestMode() {
	testMode.Store(os.Getenv(testModeEnv) == "1")
}
