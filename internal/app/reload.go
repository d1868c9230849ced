package app

import (
	"fmt"

	"github.com/hasbyte1/passhash/config"
	"github.com/hasbyte1/passhash/hashing"
)

// ApplyHashing swaps in drivers built from cfg and selects cfg.Driver as the
// default. Hashes already stored keep verifying; only new hashes and
// NeedsRehash answers follow the new parameters.
func (a *App) ApplyHashing(cfg config.HashingConfig) error {
	b, err := hashing.NewBcryptHasher(cfg.BcryptOptions())
	if err != nil {
		return fmt.Errorf("app: reload bcrypt: %w", err)
	}
	ar, err := hashing.NewArgon2idHasher(cfg.Argon2Options())
	if err != nil {
		return fmt.Errorf("app: reload argon2id: %w", err)
	}
	if !a.manager.HasDriver(hashing.DriverName(cfg.Driver)) {
		return fmt.Errorf("app: reload: %w: %s", hashing.ErrDriverNotFound, cfg.Driver)
	}

	if err := a.manager.RegisterDriver(hashing.DriverBcrypt, b); err != nil {
		return err
	}
	if err := a.manager.RegisterDriver(hashing.DriverArgon2id, ar); err != nil {
		return err
	}
	return a.manager.SetDefaultDriver(hashing.DriverName(cfg.Driver))
}

// Reload is a [config.Loader.Watch] callback. Only hashing settings are
// applied live; everything else needs a restart.
func (a *App) Reload(cfg *config.Config, err error) {
	if err != nil {
		a.log.Error().Err(err).Msg("config reload rejected; keeping previous settings")
		return
	}
	if err := a.ApplyHashing(cfg.Hashing); err != nil {
		a.log.Error().Err(err).Msg("config reload failed; keeping previous settings")
		return
	}
	a.log.Info().
		Str("driver", cfg.Hashing.Driver).
		Int("bcrypt_cost", cfg.Hashing.BcryptCost).
		Msg("hashing settings reloaded")
}
