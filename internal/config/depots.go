package config

import (
	"fmt"
	"os"
	"strings"

	"school-bus-trip-service/internal/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFleetPrefix is prepended to 4-digit vehicle numbers.
const DefaultFleetPrefix = "NT"

// Fleet is the depot table plus the vehicle prefix, loaded from YAML.
type Fleet struct {
	FleetPrefix string       `yaml:"fleet_prefix" validate:"required,len=2,alpha"`
	Depots      []DepotEntry `yaml:"depots" validate:"required,min=1,dive"`
}

type DepotEntry struct {
	Name string  `yaml:"name" validate:"required"`
	Lon  float64 `yaml:"lon" validate:"gte=-180,lte=180"`
	Lat  float64 `yaml:"lat" validate:"gte=-90,lte=90"`
}

// DefaultFleet returns the built-in yard table.
func DefaultFleet() Fleet {
	return Fleet{
		FleetPrefix: DefaultFleetPrefix,
		Depots: []DepotEntry{
			{Name: "Greenpoint", Lon: -73.941033, Lat: 40.728215},
			{Name: "Conner", Lon: -73.829986, Lat: 40.886504},
			{Name: "Zerega", Lon: -73.845146, Lat: 40.830833},
			{Name: "Sharrotts", Lon: -74.241755, Lat: 40.539022},
			{Name: "Richmond", Lon: -74.128391, Lat: 40.638804},
			{Name: "Jamaica", Lon: -73.777627, Lat: 40.703080},
		},
	}
}

// LoadFleet reads and validates a fleet file. An empty path yields DefaultFleet.
func LoadFleet(path string) (Fleet, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultFleet(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Fleet{}, fmt.Errorf("load fleet: read %q: %w", path, err)
	}

	var f Fleet
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Fleet{}, fmt.Errorf("load fleet: parse yaml %q: %w", path, err)
	}
	f.FleetPrefix = strings.ToUpper(strings.TrimSpace(f.FleetPrefix))

	if err := validator.New().Struct(f); err != nil {
		return Fleet{}, fmt.Errorf("load fleet: validate %q: %w", path, err)
	}

	seen := make(map[string]struct{}, len(f.Depots))
	for _, d := range f.Depots {
		k := strings.ToLower(strings.TrimSpace(d.Name))
		if _, ok := seen[k]; ok {
			return Fleet{}, fmt.Errorf("load fleet: duplicate depot %q", d.Name)
		}
		seen[k] = struct{}{}
	}

	return f, nil
}

// DomainDepots converts the table for the services layer, preserving file order.
func (f Fleet) DomainDepots() []domain.Depot {
	out := make([]domain.Depot, 0, len(f.Depots))
	for _, d := range f.Depots {
		out = append(out, domain.Depot{
			Name:        strings.TrimSpace(d.Name),
			Coordinates: domain.Coordinates{Lon: d.Lon, Lat: d.Lat},
		})
	}
	return out
}
