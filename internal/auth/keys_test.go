package auth

import (
	"strings"
	"testing"
)

func TestHashKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "whitespace is trimmed",
			input: "  vp_test-api-key  ",
			want:  HashKey("vp_test-api-key"),
		},
		{
			name:  "empty string",
			input: "",
			want:  "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashKey(tt.input); got != tt.want {
				t.Errorf("HashKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashKey_DifferentInputsDifferentOutputs(t *testing.T) {
	if HashKey("key1") == HashKey("key2") {
		t.Error("Different keys produced same hash")
	}
	if len(HashKey("key1")) != 64 {
		t.Error("expected a 64-char hex digest")
	}
}

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	k2, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	if !strings.HasPrefix(k1, KeyPrefix) {
		t.Errorf("key %q missing prefix %q", k1, KeyPrefix)
	}
	if len(k1) != len(KeyPrefix)+48 {
		t.Errorf("unexpected key length %d", len(k1))
	}
	if k1 == k2 {
		t.Error("GenerateKey returned the same key twice")
	}
}
