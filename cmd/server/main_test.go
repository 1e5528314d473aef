package main

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophreddit/internal/server/keystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeygen_WritesLoadableKeystore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "keystore.age")
	var out bytes.Buffer

	require.NoError(t, keygen([]string{"-k", path, "-p", "pw"}, &out))
	assert.Contains(t, out.String(), "EdDSA")

	ks, err := keystore.Load(path, "pw")
	require.NoError(t, err)
	assert.Equal(t, "EdDSA", ks.Algorithm())

	// refuses to overwrite
	require.Error(t, keygen([]string{"-k", path, "-p", "pw"}, io.Discard))
}

func TestKeygen_PromptsForPassphrase(t *testing.T) {
	orig := readPassphrase
	t.Cleanup(func() { readPassphrase = orig })
	readPassphrase = func(string, io.Writer) (string, error) { return "prompted", nil }

	path := filepath.Join(t.TempDir(), "keystore.age")
	require.NoError(t, keygen([]string{"-k", path}, io.Discard))

	_, err := keystore.Load(path, "prompted")
	require.NoError(t, err)
}

func TestKeygen_UnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.age")
	err := keygen([]string{"-k", path, "-p", "pw", "-type", "dsa"}, io.Discard)
	require.Error(t, err)
}
