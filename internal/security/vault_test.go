package security

import (
	"path/filepath"
	"testing"
)

type testPayload struct {
	APIKey string `json:"api_key"`
	PIN    string `json:"pin"`
}

func TestSealOpenRoundTrip(t *testing.T) {
	in := testPayload{APIKey: "angel-key-123", PIN: "4321"}

	vault, err := Seal(in, "master-pass")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if vault.Version != 1 || vault.Ciphertext == "" {
		t.Errorf("vault = %+v", vault)
	}

	var out testPayload
	if err := vault.Open("master-pass", &out); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestOpenRejectsWrongPassphrase(t *testing.T) {
	vault, err := Seal(testPayload{APIKey: "k"}, "right")
	if err != nil {
		t.Fatal(err)
	}

	var out testPayload
	if err := vault.Open("wrong", &out); err == nil {
		t.Error("wrong passphrase accepted")
	}
}

func TestSealRejectsEmptyPassphrase(t *testing.T) {
	if _, err := Seal(testPayload{}, ""); err == nil {
		t.Error("empty passphrase accepted")
	}
}

func TestSealIsSalted(t *testing.T) {
	a, err := Seal(testPayload{APIKey: "k"}, "pass")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Seal(testPayload{APIKey: "k"}, "pass")
	if err != nil {
		t.Fatal(err)
	}
	if a.Salt == b.Salt || a.Ciphertext == b.Ciphertext {
		t.Error("identical payloads produced identical vaults")
	}
}

func TestSaveLoadVault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	in := testPayload{APIKey: "angel-key-123", PIN: "4321"}

	if err := SaveVault(path, in, "master-pass"); err != nil {
		t.Fatalf("SaveVault: %v", err)
	}

	var out testPayload
	if err := LoadVault(path, "master-pass", &out); err != nil {
		t.Fatalf("LoadVault: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v", out)
	}
}

func TestMask(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", "***"},
		{"feed-token-98765", "************8765"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
