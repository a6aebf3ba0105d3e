package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"meal-rotation/internal/recipe"
)

// ErrNotFound is returned when no backup file exists for a recipe version.
var ErrNotFound = errors.New("backup not found")

// RecipeStore provides a file-based backup for recipes, one file per version.
type RecipeStore struct {
	basePath string
}

// NewRecipeStore creates a new RecipeStore and ensures the base directory exists.
func NewRecipeStore(basePath string) (*RecipeStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &RecipeStore{basePath: basePath}, nil
}

// getVersionedPath returns the full path for a given recipe ID and version.
func (s *RecipeStore) getVersionedPath(recipeID int64, version int) string {
	filename := fmt.Sprintf("%d_v%d.json", recipeID, version)
	return filepath.Join(s.basePath, filename)
}

// Save writes the recipe, history included, under its current version and
// drops files of older versions.
func (s *RecipeStore) Save(rec recipe.Recipe) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	if err := s.RemoveStaleVersions(rec.ID); err != nil {
		return err
	}

	filePath := s.getVersionedPath(rec.ID, rec.CurrentVersion())
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

// Load retrieves a recipe from a specific version file.
func (s *RecipeStore) Load(recipeID int64, version int) (recipe.Recipe, error) {
	return s.loadFile(s.getVersionedPath(recipeID, version))
}

func (s *RecipeStore) loadFile(path string) (recipe.Recipe, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return recipe.Recipe{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
	}
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to read recipe file: %w", err)
	}

	var rec recipe.Recipe
	if err := json.Unmarshal(data, &rec); err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to unmarshal recipe %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

// Exists checks if a specific version of a recipe file exists.
func (s *RecipeStore) Exists(recipeID int64, version int) bool {
	_, err := os.Stat(s.getVersionedPath(recipeID, version))
	return err == nil
}

// LoadAll returns the newest backed up version of every recipe, ordered by ID.
func (s *RecipeStore) LoadAll() ([]recipe.Recipe, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*_v*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob backup files: %w", err)
	}

	latest := make(map[int64]int)
	for _, match := range matches {
		id, version, ok := parseFilename(filepath.Base(match))
		if !ok {
			continue
		}
		if version > latest[id] {
			latest[id] = version
		}
	}

	ids := make([]int64, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]recipe.Recipe, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Load(id, latest[id])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// RemoveStaleVersions removes all files associated with a recipeID.
func (s *RecipeStore) RemoveStaleVersions(recipeID int64) error {
	pattern := filepath.Join(s.basePath, fmt.Sprintf("%d_v*.json", recipeID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to glob stale files: %w", err)
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", match, err)
		}
	}
	return nil
}

// parseFilename splits "<id>_v<version>.json".
func parseFilename(name string) (int64, int, bool) {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return 0, 0, false
	}
	idPart, versionPart, ok := strings.Cut(base, "_v")
	if !ok {
		return 0, 0, false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	version, err := strconv.Atoi(versionPart)
	if err != nil || version < 1 {
		return 0, 0, false
	}
	return id, version, true
}
