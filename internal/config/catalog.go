package config

import (
	"fmt"
	"sync"
)

// GameCatalog handles thread-safe access to game definitions
type GameCatalog struct {
	configDir string
	mutex     sync.RWMutex
	games     []GameDefinition
}

// NewGameCatalog creates a catalog backed by configDir/games.yaml
func NewGameCatalog(configDir string) (*GameCatalog, error) {
	gc := &GameCatalog{
		configDir: configDir,
		games:     []GameDefinition{},
	}

	if err := gc.Load(); err != nil {
		return nil, err
	}

	return gc, nil
}

// Load reads the catalog from disk
func (gc *GameCatalog) Load() error {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()

	games, err := LoadGames(gc.configDir)
	if err != nil {
		return err
	}
	gc.games = games
	return nil
}

// Save writes the current catalog to disk
func (gc *GameCatalog) Save() error {
	gc.mutex.RLock()
	defer gc.mutex.RUnlock()

	return SaveGames(gc.configDir, gc.games)
}

// GetAll returns a copy of all game definitions in catalog order
func (gc *GameCatalog) GetAll() []GameDefinition {
	gc.mutex.RLock()
	defer gc.mutex.RUnlock()

	result := make([]GameDefinition, len(gc.games))
	copy(result, gc.games)
	return result
}

// Visible returns the games offered for launch, in catalog order
func (gc *GameCatalog) Visible() []GameDefinition {
	gc.mutex.RLock()
	defer gc.mutex.RUnlock()

	result := make([]GameDefinition, 0, len(gc.games))
	for _, g := range gc.games {
		if !g.Hidden {
			result = append(result, g)
		}
	}
	return result
}

// GetByID returns a game definition by ID
func (gc *GameCatalog) GetByID(id string) (GameDefinition, bool) {
	gc.mutex.RLock()
	defer gc.mutex.RUnlock()

	for _, g := range gc.games {
		if g.ID == id {
			return g, true
		}
	}
	return GameDefinition{}, false
}

// Add adds a new game definition
func (gc *GameCatalog) Add(game GameDefinition) error {
	if err := ValidateGameDefinition(&game); err != nil {
		return fmt.Errorf("invalid game definition: %w", err)
	}

	gc.mutex.Lock()
	defer gc.mutex.Unlock()

	for _, g := range gc.games {
		if g.ID == game.ID {
			return fmt.Errorf("game with ID %s already exists", game.ID)
		}
	}

	gc.games = append(gc.games, game)
	sortGames(gc.games)
	return nil // Call Save() explicitly after adding
}

// Update replaces an existing game definition
func (gc *GameCatalog) Update(game GameDefinition) error {
	if err := ValidateGameDefinition(&game); err != nil {
		return fmt.Errorf("invalid game definition: %w", err)
	}

	gc.mutex.Lock()
	defer gc.mutex.Unlock()

	for i, g := range gc.games {
		if g.ID == game.ID {
			gc.games[i] = game
			sortGames(gc.games)
			return nil
		}
	}

	return fmt.Errorf("game with ID %s not found", game.ID)
}

// Delete removes a game definition
func (gc *GameCatalog) Delete(id string) error {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()

	for i, g := range gc.games {
		if g.ID == id {
			gc.games = append(gc.games[:i], gc.games[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("game with ID %s not found", id)
}
