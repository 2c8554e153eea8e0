package notify

import (
	"testing"

	"go.uber.org/goleak"
)

// The worker goroutine must always drain and exit on Close.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
