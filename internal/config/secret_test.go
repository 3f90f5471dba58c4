package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretKey_Redacts(t *testing.T) {
	key := SecretKey(validKey)
	cfg := Config{EncryptionKey: key, ListenAddr: "127.0.0.1:8080"}

	for _, verb := range []string{"%v", "%s", "%q", "%x", "%#v", "%+v"} {
		t.Run(verb, func(t *testing.T) {
			out := fmt.Sprintf(verb, key)
			assert.NotContains(t, out, validKey)
			assert.NotContains(t, fmt.Sprintf(verb, cfg), validKey)
		})
	}

	assert.Equal(t, "[SECRET]", key.String())
}

func TestSecretKey_JSON(t *testing.T) {
	data, err := json.Marshal(Config{EncryptionKey: SecretKey(validKey)})
	require.NoError(t, err)

	assert.NotContains(t, string(data), validKey)
	assert.Contains(t, string(data), `"EncryptionKey":"[SECRET]"`)
}

func TestSecretKey_Slog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logger.Info("loaded", "key", SecretKey(validKey))

	assert.NotContains(t, buf.String(), validKey)
	assert.Contains(t, buf.String(), "[SECRET]")
}

func TestSecretKey_Bytes(t *testing.T) {
	b, err := SecretKey(validKey).Bytes()

	require.NoError(t, err)
	require.Len(t, b, 32)
	assert.Equal(t, byte(0x00), b[0])
	assert.Equal(t, byte(0x1f), b[31])
}
