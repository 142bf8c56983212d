// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testLoginProtectionConfig returns a config suitable for fast testing.
func testLoginProtectionConfig(maxAttempts int, lockoutDuration, attemptWindow time.Duration) LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       10,
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockoutDuration,
		AttemptWindow:     attemptWindow,
	}
}

func newTestLoginProtection(t *testing.T, cfg LoginProtectionConfig) *LoginProtection {
	t.Helper()
	lp := NewLoginProtection(cfg)
	t.Cleanup(lp.Close)
	return lp
}

func TestNewLoginProtectionDefaultValues(t *testing.T) {
	lp := newTestLoginProtection(t, LoginProtectionConfig{})
	def := DefaultLoginProtectionConfig()

	if lp.maxFailedAttempts != def.MaxFailedAttempts {
		t.Errorf("maxFailedAttempts = %d, want %d", lp.maxFailedAttempts, def.MaxFailedAttempts)
	}
	if lp.lockoutDuration != def.LockoutDuration {
		t.Errorf("lockoutDuration = %v, want %v", lp.lockoutDuration, def.LockoutDuration)
	}
	if lp.attemptWindow != def.AttemptWindow {
		t.Errorf("attemptWindow = %v, want %v", lp.attemptWindow, def.AttemptWindow)
	}
}

func TestLoginProtectionLockout(t *testing.T) {
	lp := newTestLoginProtection(t, testLoginProtectionConfig(3, time.Minute, time.Minute))

	for i := 1; i < 3; i++ {
		locked, _ := lp.RecordFailedAttempt("alice")
		if locked {
			t.Fatalf("locked after %d attempts, want 3", i)
		}
	}

	locked, d := lp.RecordFailedAttempt("alice")
	if !locked || d != time.Minute {
		t.Fatalf("RecordFailedAttempt() = (%v, %v), want (true, 1m)", locked, d)
	}

	if locked, remaining := lp.IsAccountLocked("alice"); !locked || remaining <= 0 {
		t.Errorf("IsAccountLocked() = (%v, %v), want locked", locked, remaining)
	}

	// Usernames are case-insensitive for lockout purposes.
	if locked, _ := lp.IsAccountLocked("  ALICE "); !locked {
		t.Error("lockout should apply regardless of username case")
	}

	if locked, _ := lp.IsAccountLocked("bob"); locked {
		t.Error("unrelated account should not be locked")
	}
}

func TestLoginProtectionRecordSuccessfulLogin(t *testing.T) {
	lp := newTestLoginProtection(t, testLoginProtectionConfig(3, time.Minute, time.Minute))

	lp.RecordFailedAttempt("alice")
	lp.RecordFailedAttempt("alice")
	if got := lp.GetRemainingAttempts("alice"); got != 1 {
		t.Fatalf("GetRemainingAttempts() = %d, want 1", got)
	}

	lp.RecordSuccessfulLogin("alice")
	if got := lp.GetRemainingAttempts("alice"); got != 3 {
		t.Errorf("GetRemainingAttempts() after success = %d, want 3", got)
	}
}

func TestLoginProtectionExponentialBackoff(t *testing.T) {
	lp := newTestLoginProtection(t, testLoginProtectionConfig(2, 50*time.Millisecond, time.Minute))

	lp.RecordFailedAttempt("alice")
	_, first := lp.RecordFailedAttempt("alice")

	time.Sleep(first + 10*time.Millisecond)

	lp.RecordFailedAttempt("alice")
	_, second := lp.RecordFailedAttempt("alice")

	if second != 2*first {
		t.Errorf("second lockout = %v, want %v", second, 2*first)
	}
}

func TestLoginProtectionBackoffCapped(t *testing.T) {
	lp := newTestLoginProtection(t, testLoginProtectionConfig(1, 20*time.Hour, time.Minute))

	lp.RecordFailedAttempt("alice")
	lp.attemptsMu.Lock()
	lp.failedAttempts["alice"].lockedUntil = time.Time{}
	lp.attemptsMu.Unlock()

	_, d := lp.RecordFailedAttempt("alice")
	if d != maxLockout {
		t.Errorf("lockout = %v, want cap %v", d, maxLockout)
	}
}

func TestLoginProtectionAttemptWindowReset(t *testing.T) {
	cfg := testLoginProtectionConfig(5, time.Minute, 50*time.Millisecond)
	lp := newTestLoginProtection(t, cfg)

	lp.RecordFailedAttempt("alice")
	if got := lp.GetRemainingAttempts("alice"); got != 4 {
		t.Errorf("GetRemainingAttempts() = %d, want 4", got)
	}

	time.Sleep(cfg.AttemptWindow + 20*time.Millisecond)

	if got := lp.GetRemainingAttempts("alice"); got != cfg.MaxFailedAttempts {
		t.Errorf("GetRemainingAttempts() after window = %d, want %d", got, cfg.MaxFailedAttempts)
	}
}

func TestLoginProtectionCleanupStaleEntries(t *testing.T) {
	lp := newTestLoginProtection(t, testLoginProtectionConfig(5, time.Minute, 10*time.Millisecond))

	lp.RecordFailedAttempt("alice")
	lp.CheckIPRateLimit("203.0.113.1")
	time.Sleep(20 * time.Millisecond)

	lp.cleanupStaleEntries()

	lp.attemptsMu.RLock()
	n := len(lp.failedAttempts)
	lp.attemptsMu.RUnlock()
	if n != 0 {
		t.Errorf("failedAttempts has %d entries after cleanup, want 0", n)
	}
	if lp.ipLimiters.size() != 1 {
		t.Errorf("ipLimiters size = %d, want 1 (below clear threshold)", lp.ipLimiters.size())
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	lp := newTestLoginProtection(t, LoginProtectionConfig{
		IPRateLimit: 0.001,
		IPBurst:     2,
	})

	wrapped := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	post := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if code := post("198.51.100.1:1000"); code != http.StatusOK {
			t.Fatalf("POST %d status = %d, want 200", i+1, code)
		}
	}
	if code := post("198.51.100.1:2000"); code != http.StatusTooManyRequests {
		t.Errorf("POST over burst status = %d, want 429", code)
	}
	if code := post("198.51.100.2:1000"); code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", code)
	}

	// GET is never limited.
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.RemoteAddr = "198.51.100.1:3000"
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rr.Code)
	}
}

func TestLimiterCacheClearIfExceeds(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	lc.get("a")
	lc.get("b")

	if lc.get("a") != lc.get("a") {
		t.Error("get should return the same limiter for the same key")
	}
	if lc.clearIfExceeds(2) {
		t.Error("clearIfExceeds(2) with 2 entries should not clear")
	}
	if !lc.clearIfExceeds(1) {
		t.Error("clearIfExceeds(1) with 2 entries should clear")
	}
	if lc.size() != 0 {
		t.Errorf("size after clear = %d, want 0", lc.size())
	}
}
