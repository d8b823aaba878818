package main

import "testing"

func TestHandler(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		status := Handler([]string{"config"}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}
	})

	t.Run("arithmetic", func(t *testing.T) {
		status := Handler([]string{"arithmetic"}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}
	})

	t.Run("loop", func(t *testing.T) {
		status := Handler([]string{"loop"}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}
	})

	t.Run("short-circuit", func(t *testing.T) {
		status := Handler([]string{"short-circuit"}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}
	})

	t.Run("unknown demo", func(t *testing.T) {
		status := Handler([]string{"does-not-exist"}, nil)
		if status == 0 {
			t.Fatalf("expected a non-zero exit status for an unknown demo")
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		status := Handler(nil, nil)
		if status == 0 {
			t.Fatalf("expected a non-zero exit status when no argument is given")
		}
	})
}
