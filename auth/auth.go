// Package auth resolves GitHub credentials and manages GitHub App
// installation tokens.
package auth

import (
	"fmt"
	"os"
	"strings"
)

// LoadPrivateKey reads a GitHub App private key and checks it looks
// like PEM before handing it to the signer.
func LoadPrivateKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("private key file not found: %s", path)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(data)), "-----BEGIN") {
		return nil, fmt.Errorf("private key file does not appear to be in PEM format: %s", path)
	}
	return data, nil
}
