package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const gamesFile = "games.yaml"

// GameDefinition represents one entry of the kiosk catalog
type GameDefinition struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Order int    `json:"order" yaml:"order"`
	// Hidden entries stay in the catalog but are not offered for launch.
	Hidden bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	// Mode is "exe" or "client"; empty selects "client" when ClientAppID is set.
	Mode       string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Executable string `json:"executable,omitempty" yaml:"executable,omitempty"`
	Args       string `json:"args,omitempty" yaml:"args,omitempty"`
	WorkingDir string `json:"working_dir,omitempty" yaml:"working_dir,omitempty"`

	ClientAppID       string `json:"client_app_id,omitempty" yaml:"client_app_id,omitempty"`
	ClientProcessName string `json:"client_process_name,omitempty" yaml:"client_process_name,omitempty"`

	CoverPath   string   `json:"cover_path,omitempty" yaml:"cover_path,omitempty"`
	DelaySec    int      `json:"delay_sec,omitempty" yaml:"delay_sec,omitempty"`
	Auxiliaries []string `json:"extra_apps,omitempty" yaml:"extra_apps,omitempty"`
}

// LoadGames loads game definitions from games.yaml in configDir
func LoadGames(configDir string) ([]GameDefinition, error) {
	gamesPath := filepath.Join(configDir, gamesFile)

	data, err := os.ReadFile(gamesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []GameDefinition{}, nil
		}
		return nil, fmt.Errorf("failed to read games file: %w", err)
	}

	var file struct {
		Games []GameDefinition `yaml:"games"`
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse games file: %w", err)
	}

	seen := make(map[string]bool, len(file.Games))
	for i := range file.Games {
		if err := ValidateGameDefinition(&file.Games[i]); err != nil {
			return nil, fmt.Errorf("invalid game definition at index %d: %w", i, err)
		}
		if seen[file.Games[i].ID] {
			return nil, fmt.Errorf("duplicate game id %q", file.Games[i].ID)
		}
		seen[file.Games[i].ID] = true
	}

	sortGames(file.Games)
	return file.Games, nil
}

// SaveGames writes game definitions to games.yaml in configDir
func SaveGames(configDir string, games []GameDefinition) error {
	file := struct {
		Games []GameDefinition `yaml:"games"`
	}{
		Games: games,
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal games: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	gamesPath := filepath.Join(configDir, gamesFile)
	if err := os.WriteFile(gamesPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write games file: %w", err)
	}

	return nil
}

// ValidateGameDefinition checks required fields and normalizes Mode.
func ValidateGameDefinition(game *GameDefinition) error {
	game.ID = strings.TrimSpace(game.ID)
	if game.ID == "" {
		return fmt.Errorf("game ID is required")
	}
	if strings.TrimSpace(game.Name) == "" {
		return fmt.Errorf("game name is required")
	}
	if game.DelaySec < 0 {
		return fmt.Errorf("delay_sec must not be negative")
	}

	game.Mode = strings.ToLower(strings.TrimSpace(game.Mode))
	if game.Mode == "" {
		game.Mode = "exe"
		if strings.TrimSpace(game.ClientAppID) != "" {
			game.Mode = "client"
		}
	}

	switch game.Mode {
	case "exe":
		if strings.TrimSpace(game.Executable) == "" {
			return fmt.Errorf("executable is required for exe games")
		}
		if !isValidPath(game.Executable) {
			return fmt.Errorf("executable contains invalid characters")
		}
		if game.WorkingDir != "" && !isValidPath(game.WorkingDir) {
			return fmt.Errorf("working_dir contains invalid characters")
		}
		if game.Args != "" && !isValidArgs(game.Args) {
			return fmt.Errorf("args contains invalid characters")
		}
	case "client":
		if strings.TrimSpace(game.ClientAppID) == "" {
			return fmt.Errorf("client_app_id is required for client games")
		}
		if strings.ContainsAny(game.ClientAppID, " \t\n/\\") {
			return fmt.Errorf("client_app_id contains invalid characters")
		}
	default:
		return fmt.Errorf("mode must be 'exe' or 'client'")
	}

	for _, aux := range game.Auxiliaries {
		if !isValidPath(aux) {
			return fmt.Errorf("extra app %q contains invalid characters", aux)
		}
	}

	return nil
}

func sortGames(games []GameDefinition) {
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].Order < games[j].Order
	})
}

func isValidPath(s string) bool {
	// Block shell metacharacters that could allow command injection
	dangerous := ";|&$`<>\"'\n"
	return !strings.ContainsAny(s, dangerous)
}

func isValidArgs(s string) bool {
	// Arguments might contain some punctuation but definitely not command separators
	dangerous := ";|&`$<>\n"
	return !strings.ContainsAny(s, dangerous)
}
