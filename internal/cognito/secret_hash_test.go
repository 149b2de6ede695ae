package cognito_test

import (
	"testing"

	"github.com/jaekwang-park/todo-web/internal/cognito"
)

const testClientID = "3n4b5urk1ft4fl3mwuhh3k7ecr"

func TestComputeSecretHash(t *testing.T) {
	tests := []struct {
		username string
		want     string
	}{
		{"operator@example.com", "RoivvMkgPoE/9fYL3GTLD56i2+TWnik83ZklC4mxmAw="},
		{"ops@example.com", "90T04lgYuiceRna7XOo7inlru3g9VeSPhnNzTz61nug="},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			got := cognito.ComputeSecretHash(tt.username, testClientID, "s3cr3t")
			if got != tt.want {
				t.Errorf("ComputeSecretHash() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComputeSecretHash_DependsOnSecret(t *testing.T) {
	a := cognito.ComputeSecretHash("operator@example.com", testClientID, "s3cr3t")
	b := cognito.ComputeSecretHash("operator@example.com", testClientID, "other")
	if a == b {
		t.Error("different secrets should produce different hashes")
	}
}
