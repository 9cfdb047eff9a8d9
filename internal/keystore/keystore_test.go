package keystore

import (
	"errors"
	"testing"
)

func TestGenerateSetsFirstKeyAsDefault(t *testing.T) {
	ks, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := ks.Generate("alice"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	name, err := ks.DefaultName()
	if err != nil {
		t.Fatalf("DefaultName: %v", err)
	}
	if name != "alice" {
		t.Fatalf("expected default %q, got %q", "alice", name)
	}

	priv, err := ks.LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if priv == nil {
		t.Fatal("expected a non-nil private key")
	}
}

func TestGenerateSecondKeyDoesNotChangeDefault(t *testing.T) {
	ks, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := ks.Generate("alice"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := ks.Generate("bob"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	name, err := ks.DefaultName()
	if err != nil {
		t.Fatalf("DefaultName: %v", err)
	}
	if name != "alice" {
		t.Fatalf("expected default to remain %q, got %q", "alice", name)
	}
}

func TestSetDefaultRejectsUnknownKey(t *testing.T) {
	ks, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ks.SetDefault("nope"); err == nil {
		t.Fatal("expected an error setting a nonexistent key as default")
	}
}

func TestListAndDelete(t *testing.T) {
	ks, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := ks.Generate("alice"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := ks.Generate("bob"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Fatalf("unexpected key list: %v", names)
	}

	if err := ks.Delete("bob"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	names, err = ks.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != "alice" {
		t.Fatalf("unexpected key list after delete: %v", names)
	}
}

func TestDefaultNameErrorsWhenUnset(t *testing.T) {
	ks, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := ks.DefaultName(); !errors.Is(err, ErrNoDefaultKey) {
		t.Fatalf("expected ErrNoDefaultKey, got %v", err)
	}
}
