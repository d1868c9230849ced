package hashing_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hasbyte1/passhash/hashing"
)

func ExampleHash() {
	hash, err := hashing.Hash("my-secret-password", hashing.MinCost)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(len(hash), hash[:7])
	fmt.Println(hashing.Verify("my-secret-password", hash))
	fmt.Println(hashing.Verify("not-my-password", hash))
	// Output:
	// 60 $2b$04$
	// true
	// false
}

func ExampleCompare() {
	hash, _ := hashing.Hash("hunter2", hashing.MinCost)

	if err := hashing.Compare("hunter3", hash); errors.Is(err, hashing.ErrVerificationFailed) {
		fmt.Println("rejected")
	}
	// Output: rejected
}

func ExampleDecode() {
	d, err := hashing.Decode("$2a$10$XajjQvNhvvRt5GSeFk1xFeyqRrsxkhBkUiQeg0dt.wU1qD4aFDcga")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(d.Version, d.Cost, len(d.Salt), len(d.Digest))
	// Output: 2a 10 16 23
}

// Example_defaultManager demonstrates the recommended out-of-the-box setup.
func Example_defaultManager() {
	// NewDefaultManager registers bcrypt and argon2id; bcrypt is the default.
	m, err := hashing.NewDefaultManager()
	if err != nil {
		log.Fatal(err)
	}

	hash, err := m.Make("my-secret-password")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(m.DefaultDriver(), m.Verify("my-secret-password", hash))
	// Output: bcrypt true
}

// Example_keyRotation_NeedsRehash illustrates the algorithm upgrade pattern:
// detect when a stored hash uses a different algorithm or cost, then re-hash
// on next successful login.
func Example_keyRotation_NeedsRehash() {
	m, _ := hashing.NewManagerWith(hashing.DriverBcrypt,
		hashing.BcryptOptions{Cost: hashing.MinCost},
		hashing.Argon2Options{Memory: 16, Time: 1, Threads: 2, KeyLen: 16})

	legacyHash, _ := m.Make("user-password")
	_ = m.SetDefaultDriver(hashing.DriverArgon2id)

	if !m.Verify("user-password", legacyHash) {
		log.Fatal("login failed")
	}
	if needs, _ := m.NeedsRehash(legacyHash); needs {
		newHash, _ := m.Make("user-password")
		_ = newHash // persist newHash here
		fmt.Println("password re-hashed with argon2id")
	}
	// Output: password re-hashed with argon2id
}

// Example_hashInfo shows how to inspect the parameters embedded in a hash.
func Example_hashInfo() {
	h, _ := hashing.NewArgon2idHasher(hashing.DefaultArgon2Options())
	hash, _ := h.Make("inspect-me")

	info, err := h.Info(hash)
	if err != nil {
		log.Fatal(err)
	}

	out, _ := json.Marshal(map[string]any{
		"driver": info.Driver,
		"memory": info.Params["memory"],
		"time":   info.Params["time"],
	})
	fmt.Println(string(out))
	// Output: {"driver":"argon2id","memory":65536,"time":3}
}

// Example_detectDriver demonstrates auto-detecting which algorithm produced a hash.
func Example_detectDriver() {
	h, _ := hashing.NewBcryptHasher(hashing.BcryptOptions{Cost: hashing.MinCost})
	hash, _ := h.Make("pw")

	driver, ok := hashing.DetectDriver(hash)
	fmt.Println(driver, ok)
	// Output: bcrypt true
}

// ExampleHasher_interface shows callers accepting a hashing.Hasher so they
// stay independent of the algorithm in use.
func ExampleHasher_interface() {
	storePassword := func(h hashing.Hasher, password string) string {
		hash, _ := h.Make(password)
		return hash
	}

	argH, _ := hashing.NewArgon2idHasher(hashing.Argon2Options{Memory: 16, Time: 1, Threads: 2, KeyLen: 16})
	fmt.Println(argH.Verify("demo", storePassword(argH, "demo")))

	bcH, _ := hashing.NewBcryptHasher(hashing.BcryptOptions{Cost: hashing.MinCost})
	fmt.Println(bcH.Verify("demo", storePassword(bcH, "demo")))

	// Output:
	// true
	// true
}
