package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashService_Format(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("SecureP@ssw0rd!")
	require.NoError(t, err)

	parts := strings.Split(hash, "$")
	require.Len(t, parts, 6)
	assert.Equal(t, "argon2id", parts[1])
	assert.Equal(t, "v=19", parts[2])
	assert.Equal(t, "m=65536,t=1,p=4", parts[3])

	again, err := svc.Hash("SecureP@ssw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt is random per hash")
}

func TestArgon2HashService_Verify(t *testing.T) {
	svc := NewArgon2HashService()
	long := strings.Repeat("a", 1000)

	tests := []struct {
		name   string
		stored string
		given  string
		want   bool
	}{
		{"password", "correct-horse", "correct-horse", true},
		{"wrong password", "correct-horse", "Correct-horse", false},
		{"empty secret", "", "", true},
		{"long secret", long, long, true},
		{"normalized answer", NormalizeAnswer("  Alexandria "), NormalizeAnswer("ALEXANDRIA"), true},
		{"raw answer", NormalizeAnswer("  Alexandria "), "ALEXANDRIA", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := svc.Hash(tt.stored)
			require.NoError(t, err)

			ok, err := svc.Verify(tt.given, hash)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestArgon2HashService_VerifyMalformed(t *testing.T) {
	svc := NewArgon2HashService()
	good, err := svc.Hash("pw")
	require.NoError(t, err)

	tests := map[string]string{
		"not a hash":  "plaintext",
		"bcrypt":      "$2a$10$abcdefghijklmnopqrstuv$abcdefghijklmnopqrstuvwxyz12345",
		"old version": strings.Replace(good, "v=19", "v=16", 1),
		"bad params":  strings.Replace(good, "m=65536,t=1,p=4", "m=x", 1),
		"bad salt":    strings.Join(append(strings.Split(good, "$")[:4], "!!", strings.Split(good, "$")[5]), "$"),
	}
	for name, encoded := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify("pw", encoded)
			assert.Error(t, err)
		})
	}
}
