package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hasbyte1/passhash/config"
	"github.com/hasbyte1/passhash/hashing"
	"github.com/hasbyte1/passhash/internal/app"
)

// Exit codes.
const (
	exitOK       = 0
	exitMismatch = 1
	exitUsage    = 2
	exitFailure  = 3
)

// maxStdin bounds how much plaintext is read.
const maxStdin = 4 << 10

var errUsage = errors.New("usage error")

type command struct {
	name  string
	short string
	run   func(ctx context.Context, env *cliEnv, args []string) (int, error)
}

type cliEnv struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

var commands = []command{
	{"hash", "hash plaintext read from stdin", runHash},
	{"verify", "verify plaintext read from stdin against -hash", runVerify},
	{"inspect", "print the parameters stored in a hash", runInspect},
	{"calibrate", "find the bcrypt cost that takes about -target", runCalibrate},
	{"serve", "run the HTTP API", runServe},
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	env := &cliEnv{stdin: stdin, stdout: stdout, stderr: stderr}
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	name, rest := args[0], args[1:]
	if name == "-h" || name == "-help" || name == "--help" || name == "help" {
		usage(stdout)
		return exitOK
	}
	if name == "version" {
		fmt.Fprintln(stdout, version)
		return exitOK
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		code, err := c.run(ctx, env, rest)
		switch {
		case errors.Is(err, flag.ErrHelp):
			return exitOK
		case errors.Is(err, errUsage):
			fmt.Fprintf(stderr, "passhash %s: %v\n", name, err)
			return exitUsage
		case err != nil:
			fmt.Fprintf(stderr, "passhash %s: %v\n", name, err)
			return exitFailure
		}
		return code
	}

	fmt.Fprintf(stderr, "passhash: unknown command %q\n", name)
	usage(stderr)
	return exitUsage
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: passhash <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.short)
	}
	fmt.Fprintf(w, "  %-10s %s\n", "version", "print the version")
}

func newFlagSet(env *cliEnv, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("passhash "+name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// readPlaintext reads stdin and drops one trailing "\n" or "\r\n". A lone
// trailing "\r" is part of the plaintext.
func readPlaintext(r io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxStdin+1))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if len(b) > maxStdin {
		return "", fmt.Errorf("%w: stdin exceeds %d bytes", hashing.ErrInvalidInput, maxStdin)
	}
	s := string(b)
	if strings.HasSuffix(s, "\n") {
		s = strings.TrimSuffix(s, "\n")
		s = strings.TrimSuffix(s, "\r")
	}
	return s, nil
}

func loadConfig(path string) (*config.Config, error) {
	l, err := config.NewLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Config()
}

func loadManager(path string) (*hashing.Manager, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	return hashing.NewManagerWith(hashing.DriverName(cfg.Hashing.Driver),
		cfg.Hashing.BcryptOptions(), cfg.Hashing.Argon2Options())
}

func runHash(_ context.Context, env *cliEnv, args []string) (int, error) {
	fs := newFlagSet(env, "hash")
	cfgPath := fs.String("config", "", "config file")
	cost := fs.Int("cost", 0, "bcrypt cost (4-31); 0 uses the configured driver and cost")
	driver := fs.String("driver", "", "driver to hash with (bcrypt, argon2id); empty uses the configured default")
	if err := parse(fs, args); err != nil {
		return exitUsage, err
	}
	if fs.NArg() != 0 {
		return exitUsage, fmt.Errorf("%w: plaintext is read from stdin, not arguments", errUsage)
	}

	if *cost != 0 && *driver != "" && *driver != string(hashing.DriverBcrypt) {
		return exitUsage, fmt.Errorf("%w: -cost applies to bcrypt only, not %q", errUsage, *driver)
	}

	m, err := loadManager(*cfgPath)
	if err != nil {
		return exitFailure, err
	}
	if *driver != "" {
		if err := m.SetDefaultDriver(hashing.DriverName(*driver)); err != nil {
			return exitUsage, fmt.Errorf("%w: %v", errUsage, err)
		}
	}
	plaintext, err := readPlaintext(env.stdin)
	if err != nil {
		return exitFailure, err
	}

	var hash string
	if *cost != 0 {
		h, err := hashing.NewBcryptHasher(hashing.BcryptOptions{Cost: *cost})
		if err != nil {
			return exitUsage, fmt.Errorf("%w: %v", errUsage, err)
		}
		hash, err = h.Make(plaintext)
		if err != nil {
			return exitFailure, err
		}
	} else if hash, err = m.Make(plaintext); err != nil {
		return exitFailure, err
	}
	fmt.Fprintln(env.stdout, hash)
	return exitOK, nil
}

func runVerify(_ context.Context, env *cliEnv, args []string) (int, error) {
	fs := newFlagSet(env, "verify")
	encoded := fs.String("hash", "", "stored hash to verify against (required)")
	quiet := fs.Bool("q", false, "print nothing; report through the exit code only")
	if err := parse(fs, args); err != nil {
		return exitUsage, err
	}
	if *encoded == "" {
		return exitUsage, fmt.Errorf("%w: -hash is required", errUsage)
	}

	plaintext, err := readPlaintext(env.stdin)
	if err != nil {
		return exitFailure, err
	}
	m, err := hashing.NewDefaultManager()
	if err != nil {
		return exitFailure, err
	}
	if m.Verify(plaintext, *encoded) {
		if !*quiet {
			fmt.Fprintln(env.stdout, "match")
		}
		return exitOK, nil
	}
	if !*quiet {
		fmt.Fprintln(env.stdout, "mismatch")
	}
	return exitMismatch, nil
}

type inspectOutput struct {
	Driver      string         `json:"driver"`
	Params      map[string]any `json:"params"`
	NeedsRehash bool           `json:"needs_rehash"`
}

func runInspect(_ context.Context, env *cliEnv, args []string) (int, error) {
	fs := newFlagSet(env, "inspect")
	cfgPath := fs.String("config", "", "config file; needs_rehash is judged against it")
	if err := parse(fs, args); err != nil {
		return exitUsage, err
	}
	if fs.NArg() != 1 {
		return exitUsage, fmt.Errorf("%w: expected exactly one hash argument", errUsage)
	}
	encoded := fs.Arg(0)

	m, err := loadManager(*cfgPath)
	if err != nil {
		return exitFailure, err
	}
	info, err := m.Info(encoded)
	if err != nil {
		return exitFailure, err
	}
	needs, err := m.NeedsRehash(encoded)
	if err != nil {
		return exitFailure, err
	}

	enc := json.NewEncoder(env.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(inspectOutput{Driver: string(info.Driver), Params: info.Params, NeedsRehash: needs}); err != nil {
		return exitFailure, err
	}
	return exitOK, nil
}

func runCalibrate(_ context.Context, env *cliEnv, args []string) (int, error) {
	fs := newFlagSet(env, "calibrate")
	target := fs.Duration("target", 250*time.Millisecond, "desired time per hash")
	ceiling := fs.Int("max", hashing.MaxCost, "highest cost to try")
	if err := parse(fs, args); err != nil {
		return exitUsage, err
	}
	if *target <= 0 {
		return exitUsage, fmt.Errorf("%w: -target must be positive", errUsage)
	}

	cost, err := hashing.Calibrate(*target, *ceiling)
	if err != nil {
		if errors.Is(err, hashing.ErrInvalidCostFactor) {
			return exitUsage, fmt.Errorf("%w: %v", errUsage, err)
		}
		return exitFailure, err
	}
	fmt.Fprintln(env.stdout, cost)
	return exitOK, nil
}

func runServe(ctx context.Context, env *cliEnv, args []string) (int, error) {
	fs := newFlagSet(env, "serve")
	cfgPath := fs.String("config", "", "config file; hashing settings are reloaded when it changes")
	if err := parse(fs, args); err != nil {
		return exitUsage, err
	}

	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		return exitFailure, err
	}
	cfg, err := loader.Config()
	if err != nil {
		return exitFailure, err
	}
	logger := app.NewLogger(cfg.Log, env.stderr)

	a, err := app.New(ctx, cfg, logger, version)
	if err != nil {
		return exitFailure, err
	}
	if *cfgPath != "" {
		if err := loader.Watch(a.Reload); err != nil {
			logger.Warn().Err(err).Msg("config hot reload disabled")
		}
	}
	if err := a.Run(ctx); err != nil {
		return exitFailure, err
	}
	return exitOK, nil
}
