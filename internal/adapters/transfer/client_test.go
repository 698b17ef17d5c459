package transfer

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
)

func writeTestKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}

func TestLoadSigner(t *testing.T) {
	signer, err := loadSigner(writeTestKey(t))
	if err != nil {
		t.Fatalf("load signer: %v", err)
	}
	if signer.PublicKey().Type() != ssh.KeyAlgoED25519 {
		t.Errorf("unexpected key type %s", signer.PublicKey().Type())
	}
}

func TestLoadSigner_MissingKey(t *testing.T) {
	_, err := loadSigner(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestLoadSigner_BadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage")
	if err := os.WriteFile(path, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := loadSigner(path)
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestDownload_Unreachable(t *testing.T) {
	c := New("127.0.0.1", 1, "nobody", writeTestKey(t),
		WithDialTimeout(200*time.Millisecond))
	_, err := c.Download(context.Background(), "/remote/file.txt", t.TempDir())
	if !errors.Is(err, ErrDial) {
		t.Fatalf("expected ErrDial, got %v", err)
	}
}
