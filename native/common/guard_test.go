package common

import (
	"errors"
	"testing"
)

type view map[string]bool

func (v view) IsPaused(module string) bool { return v[module] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, "lending"); err != nil {
		t.Fatalf("nil view must allow: %v", err)
	}
	if err := Guard(view{}, ""); err != nil {
		t.Fatalf("empty module must allow: %v", err)
	}
	if err := Guard(view{"lending": true}, "lending"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("paused module error = %v, want ErrModulePaused", err)
	}
	if err := Guard(view{"lending": true}, "amm"); err != nil {
		t.Fatalf("other module must allow: %v", err)
	}
}
