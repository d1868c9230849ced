// Command passhash hashes and verifies passwords from the command line and
// serves the HTTP API.
//
// Usage:
//
//	passhash hash      [-config file] [-cost N] [-driver bcrypt|argon2id]   < plaintext
//	passhash verify    -hash HASH                                           < plaintext
//	passhash inspect   [-config file] HASH
//	passhash calibrate [-target 250ms] [-max 31]
//	passhash serve     [-config file]
//
// Plaintext is read from standard input; one trailing newline is dropped.
// verify exits 0 on a match, 1 on a mismatch and 2 on usage errors.
package main

import (
	"context"
	"os"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
