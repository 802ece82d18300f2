// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan_test

import (
	"testing"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfchan"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// =============================================================================
// Test Helpers
// =============================================================================

// retryWithTimeout retries f until it returns true or timeout expires.
// Reports failure with the given message if timeout is reached.
func retryWithTimeout(t *testing.T, timeout time.Duration, f func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	backoff := iox.Backoff{}
	for !f() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout after %v: %s", timeout, msg)
		}
		backoff.Wait()
	}
}

// waitSuspended waits until n operations of kind op have parked on
// channels of the given mode.
func waitSuspended(t *testing.T, m *lfchan.Metrics, mode lfchan.Mode, op string, n int) {
	t.Helper()
	c := lfchan.SuspensionsCounter(m, mode, op)
	retryWithTimeout(t, 5*time.Second, func() bool {
		return testutil.ToFloat64(c) >= float64(n)
	}, "waiting for "+op+" to park")
}

// skipUnderRace skips tests whose goroutines synchronize through atomix
// words, which the race detector sees as plain memory accesses.
func skipUnderRace(t *testing.T) {
	t.Helper()
	if lfchan.RaceEnabled {
		t.Skip("skip: atomix synchronization is invisible to the race detector")
	}
}
