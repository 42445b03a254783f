package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkliu/usagemon/internal/domain"
)

func TestFileRunRegistry_RegisterAndCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	registry := NewFileRunRegistryWithPath(path)

	info := domain.RunInfo{
		PID:          12345,
		StartedAt:    time.Now().Unix(),
		LogDirectory: "/tmp/logs",
		AppVersion:   "0.1.0",
	}

	if err := registry.Register(info); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	got, err := registry.Current()
	if err != nil {
		t.Fatalf("failed to read current: %v", err)
	}
	if got == nil {
		t.Fatal("expected a registered run")
	}

	if got.PID != 12345 {
		t.Errorf("expected PID 12345, got %d", got.PID)
	}
	if got.LogDirectory != "/tmp/logs" {
		t.Errorf("expected log directory '/tmp/logs', got '%s'", got.LogDirectory)
	}
	if got.LastHeartbeat == 0 {
		t.Error("expected register to stamp a heartbeat")
	}
}

func TestFileRunRegistry_CurrentWithoutFile(t *testing.T) {
	registry := NewFileRunRegistryWithPath(filepath.Join(t.TempDir(), "run.json"))

	got, err := registry.Current()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil run when registry file is absent")
	}
}

func TestFileRunRegistry_Heartbeat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	registry := NewFileRunRegistryWithPath(path)

	if err := registry.Heartbeat(); err == nil {
		t.Error("expected heartbeat without a registered run to fail")
	}

	if err := registry.Register(domain.RunInfo{PID: 1}); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	if err := registry.Heartbeat(); err != nil {
		t.Fatalf("heartbeat failed: %v", err)
	}

	got, err := registry.Current()
	if err != nil {
		t.Fatalf("failed to read current: %v", err)
	}
	if got.LastHeartbeat == 0 {
		t.Error("expected heartbeat timestamp to be set")
	}
}

func TestFileRunRegistry_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	registry := NewFileRunRegistryWithPath(path)

	if err := registry.Register(domain.RunInfo{PID: 1}); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	if err := registry.Clear(); err != nil {
		t.Fatalf("failed to clear: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected registry file to be removed")
	}

	// Clearing an already-clear registry is fine.
	if err := registry.Clear(); err != nil {
		t.Fatalf("second clear failed: %v", err)
	}
}
