package cli

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/absfs/pagefs"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

type deriveFlags struct {
	hash         string
	iterations   int
	length       int
	salt         string
	saltHex      string
	passwordFile string
	out          string
}

func newDeriveCmd() *cobra.Command {
	var fl deriveFlags

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive a key from a password with PBKDF2",
		Long: `Derive a key with PBKDF2-HMAC and print it in hex.

The password is read from --password-file or, without it, from standard
input. A single trailing newline is not part of the password. With --out the
hex key is written atomically to a file instead of standard output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDerive(cmd, fl)
		},
	}

	f := cmd.Flags()
	f.StringVar(&fl.hash, "hash", "sha256", "Hash function: sha256, sha384 or sha512")
	f.IntVarP(&fl.iterations, "iterations", "i", 100000, "PBKDF2 iteration count")
	f.IntVarP(&fl.length, "length", "n", 32, "Derived key length in bytes")
	f.StringVar(&fl.salt, "salt", "", "Salt as a string")
	f.StringVar(&fl.saltHex, "salt-hex", "", "Salt in hex")
	f.StringVar(&fl.passwordFile, "password-file", "", "File holding the password")
	f.StringVarP(&fl.out, "out", "o", "", "Write the key to this file")
	cmd.MarkFlagsMutuallyExclusive("salt", "salt-hex")
	cmd.MarkFlagsOneRequired("salt", "salt-hex")

	return cmd
}

func runDerive(cmd *cobra.Command, fl deriveFlags) error {
	h, err := pagefs.ParseHash(fl.hash)
	if err != nil {
		return err
	}

	salt := []byte(fl.salt)
	if fl.saltHex != "" {
		salt, err = hex.DecodeString(fl.saltHex)
		if err != nil {
			return pagefs.NewValidationError("salt-hex", fl.saltHex, err.Error())
		}
	}

	password, err := readPassword(cmd.InOrStdin(), fl.passwordFile)
	if err != nil {
		return err
	}

	req := pagefs.DerivedKeyRequest{
		Hash:       h,
		Password:   password,
		Salt:       salt,
		Iterations: fl.iterations,
		KeyLength:  fl.length,
	}
	key, err := req.Derive()
	if err != nil {
		return err
	}
	defer pagefs.Wipe(key)

	encoded := make([]byte, hex.EncodedLen(len(key))+1)
	hex.Encode(encoded, key)
	encoded[len(encoded)-1] = '\n'
	defer pagefs.Wipe(encoded)

	if fl.out == "" {
		_, err := cmd.OutOrStdout().Write(encoded)
		return err
	}
	if err := atomic.WriteFile(fl.out, bytes.NewReader(encoded)); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	if err := os.Chmod(fl.out, 0600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	return nil
}

// readPassword reads the password from path, or from r when path is empty,
// and drops one trailing "\n" or "\r\n".
func readPassword(r io.Reader, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(r)
	}
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if bytes.HasSuffix(data, []byte("\n")) {
		data = bytes.TrimSuffix(data[:len(data)-1], []byte("\r"))
	}
	if len(data) == 0 {
		return nil, errors.New("read password: password is empty")
	}
	return data, nil
}
