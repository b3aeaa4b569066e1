package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bdobrica/starpack/internal/starpack/engine"
)

type scriptedChecker struct {
	succeedOn int
	calls     int
}

func (s *scriptedChecker) Health(context.Context) error {
	s.calls++
	if s.succeedOn > 0 && s.calls >= s.succeedOn {
		return nil
	}
	return errors.New("connection refused")
}

func TestWaitUntilHealthy_SucceedsOnAttemptK(t *testing.T) {
	for k := 1; k <= 5; k++ {
		c := &scriptedChecker{succeedOn: k}
		if !engine.WaitUntilHealthy(context.Background(), c, 5, 0) {
			t.Errorf("k=%d: expected healthy", k)
		}
		if c.calls != k {
			t.Errorf("k=%d: %d probes, want %d", k, c.calls, k)
		}
	}
}

func TestWaitUntilHealthy_ExhaustsBudget(t *testing.T) {
	c := &scriptedChecker{}
	if engine.WaitUntilHealthy(context.Background(), c, 5, 0) {
		t.Fatal("expected unhealthy")
	}
	if c.calls != 5 {
		t.Errorf("%d probes, want exactly 5", c.calls)
	}
}

func TestEndpoint(t *testing.T) {
	cases := []struct {
		host string
		port int
		want string
	}{
		{"http://x", 0, "http://x"},
		{"http://x", 80, "http://x:80"},
		{"http://localhost", 1976, "http://localhost:1976"},
		{"https://engine.example.com/", 0, "https://engine.example.com"},
	}
	for _, tc := range cases {
		if got := engine.Endpoint(tc.host, tc.port); got != tc.want {
			t.Errorf("Endpoint(%q, %d) = %q, want %q", tc.host, tc.port, got, tc.want)
		}
	}
}
