package supervisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/config"
)

// LaunchMode selects the launch strategy for a game.
type LaunchMode string

const (
	ModeExe    LaunchMode = "exe"
	ModeClient LaunchMode = "client"
)

// LaunchConfig is everything the supervisor needs to start one game.
type LaunchConfig struct {
	GameID     string
	Name       string
	Mode       LaunchMode
	Executable string
	Args       string
	WorkingDir string

	ClientAppID       string
	ClientProcessName string

	Auxiliaries []string
	Delay       time.Duration
}

// NewLaunchConfig converts a catalog entry into a LaunchConfig.
func NewLaunchConfig(game config.GameDefinition) *LaunchConfig {
	cfg := &LaunchConfig{
		GameID:            game.ID,
		Name:              game.Name,
		Mode:              LaunchMode(strings.ToLower(strings.TrimSpace(game.Mode))),
		Executable:        game.Executable,
		Args:              game.Args,
		WorkingDir:        game.WorkingDir,
		ClientAppID:       game.ClientAppID,
		ClientProcessName: game.ClientProcessName,
		Auxiliaries:       append([]string(nil), game.Auxiliaries...),
	}
	if game.DelaySec > 0 {
		cfg.Delay = time.Duration(game.DelaySec) * time.Second
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeExe
		if strings.TrimSpace(game.ClientAppID) != "" {
			cfg.Mode = ModeClient
		}
	}
	return cfg
}

// Validate checks the fields required by the selected mode.
func (c *LaunchConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: launch config is nil", ErrMissingField)
	}
	switch c.Mode {
	case ModeClient:
		if strings.TrimSpace(c.ClientAppID) == "" {
			return fmt.Errorf("%w: game %q has no client app id", ErrMissingField, c.label())
		}
	case ModeExe, "":
		if strings.TrimSpace(c.Executable) == "" {
			return fmt.Errorf("%w: game %q has no executable path", ErrMissingField, c.label())
		}
	default:
		return fmt.Errorf("%w: game %q has unknown mode %q", ErrMissingField, c.label(), c.Mode)
	}
	return nil
}

func (c *LaunchConfig) label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.GameID
}

// SplitArgs splits an argument string on whitespace. Quoted arguments that
// contain spaces are not supported.
func SplitArgs(args string) []string {
	return strings.Fields(args)
}
