// Package settings persists the sidekick's user-facing settings.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jetsetgo/sidekick-setup/internal/config"
)

// Core types the device menu cycles between
const (
	CoreDefault = "Default"
	CoreCustom  = "Custom"
)

// ErrNotFound is returned when a backend has no stored value for a key
var ErrNotFound = errors.New("settings: not found")

// Settings represents the persisted device settings
type Settings struct {
	UserName       string `json:"user_name"`
	SidekickName   string `json:"sidekick_name"`
	SetupCompleted bool   `json:"setup_completed"`
	Mute           bool   `json:"mute"`
	CoreType       string `json:"core_type"`
}

// Defaults returns the settings a fresh device starts with
func Defaults(d config.DefaultsConfig) Settings {
	return Settings{
		UserName:     d.UserName,
		SidekickName: d.SidekickName,
		CoreType:     CoreDefault,
	}
}

// Store is a settings backend
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
	Reset(ctx context.Context) error
	Close() error
}

// Open returns the backend selected by cfg.Store.Driver
func Open(cfg *config.Config) (Store, error) {
	defaults := Defaults(cfg.Defaults)
	switch cfg.Store.Driver {
	case "json":
		return NewFileStore(cfg.Store.Path, defaults), nil
	case "sqlite":
		return OpenSQLite(cfg.Store.Path, defaults)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// ToggleMute flips the mute flag and returns the new value
func ToggleMute(ctx context.Context, st Store) (bool, error) {
	s, err := st.Load(ctx)
	if err != nil {
		return false, err
	}
	s.Mute = !s.Mute
	if err := st.Save(ctx, s); err != nil {
		return false, err
	}
	return s.Mute, nil
}

// ToggleCoreType switches between the default and custom core
func ToggleCoreType(ctx context.Context, st Store) (string, error) {
	s, err := st.Load(ctx)
	if err != nil {
		return "", err
	}
	if s.CoreType == CoreDefault || s.CoreType == "" {
		s.CoreType = CoreCustom
	} else {
		s.CoreType = CoreDefault
	}
	if err := st.Save(ctx, s); err != nil {
		return "", err
	}
	return s.CoreType, nil
}
