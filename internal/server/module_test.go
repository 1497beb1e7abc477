package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matheus3301/counsel/internal/config"
	"go.uber.org/fx"
)

func TestModuleGraph(t *testing.T) {
	cfg := config.Default().Server
	cfg.JWTSecret = "x"
	if err := fx.ValidateApp(Module(Params{Profile: "test", Config: cfg})); err != nil {
		t.Fatalf("fx graph invalid: %v", err)
	}
}

func TestLoadSeedRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	if err := os.WriteFile(path, []byte("[[users]]\nid = \"a\"\nnickname = \"x\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSeed(path); err == nil {
		t.Error("LoadSeed() expected error for unknown key")
	}
}
