package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// This file implements the municipality repository: an immutable, indexed
// table of Brazilian municipalities loaded once at process start. The
// embedded snapshot can be replaced with a larger file via MUNICIPALITIES_FILE.

//go:embed municipios.json
var municipalitySeed []byte

// CityRepository indexes the municipality table by id and by normalized name.
// It is read-only after construction and safe for concurrent use.
type CityRepository struct {
	byID   map[string]City
	byName map[string]City
	cities []City
}

// LoadCityRepository reads the municipality snapshot from path, or from the
// embedded seed when path is empty.
func LoadCityRepository(path string, logger *slog.Logger) (*CityRepository, error) {
	data := municipalitySeed
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read municipalities file: %w", err)
		}
		data = fileData
	}

	var cities []City
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("could not parse municipalities snapshot: %w", err)
	}
	if len(cities) == 0 {
		return nil, fmt.Errorf("municipalities snapshot is empty")
	}

	repo := &CityRepository{
		byID:   make(map[string]City, len(cities)),
		byName: make(map[string]City, len(cities)),
		cities: cities,
	}
	for _, city := range cities {
		repo.byID[city.ID] = city
		key, err := normalizeCityName(city.Name)
		if err != nil {
			logger.Warn("could not normalize municipality name, skipping name index", "city", city.Name, "error", err)
			continue
		}
		repo.byName[key] = city
	}

	logger.Info("municipality table loaded", "count", len(cities))
	return repo, nil
}

// Get returns the municipality by IBGE id.
func (r *CityRepository) Get(cityID string) (City, error) {
	city, ok := r.byID[cityID]
	if !ok {
		return City{}, errCityNotFound(cityID)
	}
	return city, nil
}

// GetByName looks a municipality up by its normalized name.
func (r *CityRepository) GetByName(name string) (City, bool) {
	key, err := normalizeCityName(name)
	if err != nil {
		return City{}, false
	}
	city, ok := r.byName[key]
	return city, ok
}

// All returns the full table. Callers must not mutate the slice.
func (r *CityRepository) All() []City {
	return r.cities
}

// CityDistance pairs a neighbor with its haversine distance from the center.
type CityDistance struct {
	City       City
	DistanceKm float64
}

// Neighbors returns every municipality within radiusKm of the center city,
// sorted by ascending distance. The center itself is excluded, as are
// municipalities without coordinates.
func (r *CityRepository) Neighbors(cityID string, radiusKm float64) (City, []CityDistance, error) {
	center, err := r.Get(cityID)
	if err != nil {
		return City{}, nil, err
	}
	centerCoords, ok := center.Coordinates()
	if !ok {
		return City{}, nil, errCoordinatesNotFound(cityID)
	}

	var neighbors []CityDistance
	for _, candidate := range r.cities {
		if candidate.ID == center.ID {
			continue
		}
		coords, ok := candidate.Coordinates()
		if !ok {
			continue
		}
		distance := centerCoords.DistanceKm(coords)
		if distance <= radiusKm {
			neighbors = append(neighbors, CityDistance{City: candidate, DistanceKm: Round(distance, 1)})
		}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].DistanceKm == neighbors[j].DistanceKm {
			return neighbors[i].City.ID < neighbors[j].City.ID
		}
		return neighbors[i].DistanceKm < neighbors[j].DistanceKm
	})

	return center, neighbors, nil
}
