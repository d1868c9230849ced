package hashing

import (
	"fmt"
	"sync"
)

// Manager is a thread-safe driver registry and dispatcher.
//
// Register one or more named [Hasher] implementations, nominate a default
// driver, and call [Manager.Make] / [Manager.Verify] through the Manager.
// Verification picks the driver from the hash's version tag, so hashes
// written by a previous default keep verifying after a switch.
//
// A [sync.RWMutex] serialises writes (RegisterDriver, SetDefaultDriver) while
// allowing concurrent reads. No lock is held while a hash is computed.
type Manager struct {
	mu      sync.RWMutex
	drivers map[DriverName]Hasher
	def     DriverName
}

// NewManager creates an empty Manager with the given default driver name.
// Drivers must be registered with [Manager.RegisterDriver] before use.
func NewManager(defaultDriver DriverName) *Manager {
	return &Manager{
		drivers: make(map[DriverName]Hasher),
		def:     defaultDriver,
	}
}

// NewDefaultManager creates a Manager with bcrypt at [DefaultCost] as the
// default driver and Argon2id registered with its defaults.
func NewDefaultManager() (*Manager, error) {
	return NewManagerWith(DriverBcrypt, DefaultBcryptOptions(), DefaultArgon2Options())
}

// NewManagerWith builds a Manager with both built-in drivers configured from
// the given options and def as the default driver.
func NewManagerWith(def DriverName, bopts BcryptOptions, aopts Argon2Options) (*Manager, error) {
	bcryptH, err := NewBcryptHasher(bopts)
	if err != nil {
		return nil, fmt.Errorf("hashing: failed to create bcrypt hasher: %w", err)
	}
	argon2idH, err := NewArgon2idHasher(aopts)
	if err != nil {
		return nil, fmt.Errorf("hashing: failed to create argon2id hasher: %w", err)
	}

	m := NewManager(def)
	_ = m.RegisterDriver(DriverBcrypt, bcryptH)
	_ = m.RegisterDriver(DriverArgon2id, argon2idH)
	if _, err := m.resolveDefault(); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterDriver adds or replaces a named hasher in the Manager.
func (m *Manager) RegisterDriver(name DriverName, h Hasher) error {
	if name == "" {
		return ErrEmptyDriverName
	}
	if h == nil {
		return ErrNilHasher
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[name] = h
	return nil
}

// Driver returns the [Hasher] registered under name, or [ErrDriverNotFound].
func (m *Manager) Driver(name DriverName) (Hasher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDriverNotFound, name)
	}
	return h, nil
}

// SetDefaultDriver changes the driver used by [Manager.Make] and
// [Manager.NeedsRehash]. The named driver must already be registered.
func (m *Manager) SetDefaultDriver(name DriverName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[name]; !ok {
		return fmt.Errorf("%w: %q is not registered; call RegisterDriver first",
			ErrDriverNotFound, name)
	}
	m.def = name
	return nil
}

// DefaultDriver returns the name of the currently configured default driver.
func (m *Manager) DefaultDriver() DriverName {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.def
}

// HasDriver reports whether a driver with the given name is registered.
func (m *Manager) HasDriver(name DriverName) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.drivers[name]
	return ok
}

// Make hashes plaintext using the default driver.
func (m *Manager) Make(plaintext string) (string, error) {
	h, err := m.resolveDefault()
	if err != nil {
		return "", err
	}
	return h.Make(plaintext)
}

// Verify reports whether plaintext matches encoded, dispatching on the
// version tag. An unrecognised tag or an unregistered driver is a mismatch.
func (m *Manager) Verify(plaintext, encoded string) bool {
	h, err := m.resolveByHash(encoded)
	if err != nil {
		return false
	}
	return h.Verify(plaintext, encoded)
}

// NeedsRehash reports whether encoded should be re-hashed: either it was
// produced by a different driver than the current default, or the default
// driver's parameters have changed since.
func (m *Manager) NeedsRehash(encoded string) (bool, error) {
	detected, ok := DetectDriver(encoded)
	if !ok {
		return false, fmt.Errorf("%w: unrecognised version tag", ErrMalformedHash)
	}

	if detected != m.DefaultDriver() {
		return true, nil
	}

	h, err := m.Driver(detected)
	if err != nil {
		return false, err
	}
	return h.NeedsRehash(encoded)
}

// Info extracts metadata from encoded by detecting which driver produced it.
func (m *Manager) Info(encoded string) (HashInfo, error) {
	h, err := m.resolveByHash(encoded)
	if err != nil {
		return HashInfo{}, err
	}
	return h.Info(encoded)
}

func (m *Manager) resolveDefault() (Hasher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.drivers[m.def]
	if !ok {
		return nil, fmt.Errorf("%w: default driver %q has not been registered",
			ErrDriverNotFound, m.def)
	}
	return h, nil
}

func (m *Manager) resolveByHash(encoded string) (Hasher, error) {
	name, ok := DetectDriver(encoded)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognised version tag", ErrMalformedHash)
	}
	return m.Driver(name)
}
