package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/careplus/frontdesk/pkg/security"
)

// hashPassword reads one password line from r and writes its bcrypt hash,
// the value expected in admin.password_hash.
func hashPassword(r io.Reader, w io.Writer) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read password: %w", err)
	}
	hash, err := security.NewBcryptHasher(bcrypt.DefaultCost).Hash(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}
