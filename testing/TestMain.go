// Package testing flips the application into test mode. Test packages import
// it for side effect so binaries under test skip external connections.
package testing

import (
	"os"
	stdtesting "testing"
)

func init() {
	_ = os.Setenv("JAMIYAH_TEST_MODE", "1")
}

func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
