package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// activityRow is the YAML row shape for one master activity.
type activityRow struct {
	ID                uint32 `yaml:"id"`
	MapID             uint32 `yaml:"map_id"`
	Difficulty        int    `yaml:"difficulty"`
	Type              int    `yaml:"type"`
	MinLevel          int    `yaml:"min_level"`
	MaxLevel          int    `yaml:"max_level"`
	RequiredExpansion int    `yaml:"required_expansion"`
	Flags             uint32 `yaml:"flags"`
	ExternalSlotCode  uint32 `yaml:"external_slot_code"`
	RandomParentID    uint32 `yaml:"random_parent_id"`
}

type staticFile struct {
	Activities []activityRow       `yaml:"activities"`
	Groups     map[uint32][]uint32 `yaml:"groups"`
}

// StaticSource reads the master activity list and the random-pool grouping
// table from a single YAML file. It implements both ActivitySource and
// GroupingSource, the two catalog.Load inputs the sqlite-backed
// SQLiteSource does not cover.
type StaticSource struct {
	file staticFile
}

// LoadStaticSource parses the YAML file at path.
func LoadStaticSource(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read static catalog source: %w", err)
	}
	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse static catalog source: %w", err)
	}
	return &StaticSource{file: f}, nil
}

// LoadActivities implements ActivitySource.
func (s *StaticSource) LoadActivities() ([]lfg.Activity, error) {
	out := make([]lfg.Activity, 0, len(s.file.Activities))
	for _, r := range s.file.Activities {
		out = append(out, lfg.Activity{
			ID:                r.ID,
			MapID:             r.MapID,
			Difficulty:        lfg.Difficulty(r.Difficulty),
			Type:              lfg.ActivityType(r.Type),
			MinLevel:          r.MinLevel,
			MaxLevel:          r.MaxLevel,
			RequiredExpansion: r.RequiredExpansion,
			Flags:             lfg.Flag(r.Flags),
			ExternalSlotCode:  r.ExternalSlotCode,
			RandomParentID:    r.RandomParentID,
		})
	}
	return out, nil
}

// LoadGroups implements GroupingSource.
func (s *StaticSource) LoadGroups() (map[uint32][]uint32, error) {
	return s.file.Groups, nil
}
