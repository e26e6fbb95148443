// Package catalog builds and serves the immutable, in-memory index of
// activity definitions the rest of the Dungeon-Finder core reads from. It
// is a pure function of the rows handed to Load: nothing here opens a
// database connection itself, so the package is testable with in-memory
// fakes. A concrete modernc.org/sqlite-backed row source lives in sqlite.go.
package catalog

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// TemplateRow is one row of lfg_dungeon_template.
type TemplateRow struct {
	ActivityID        uint32
	X, Y, Z           float32
	Orientation       float32
	RequiredItemLevel int
}

// RewardRow is one row of lfg_dungeon_rewards.
type RewardRow struct {
	ActivityID           uint32
	MaxLevel             int
	FirstQuestID         uint32
	OtherQuestID         uint32
	ShortageQuestID      uint32
	CompletionsPerPeriod int
	DailyReset           bool
}

// TemplateSource yields the entrance/item-level rows for every templated
// activity.
type TemplateSource interface {
	LoadTemplates() ([]TemplateRow, error)
}

// RewardSource yields reward rows, order not guaranteed; Load sorts them
// by (ActivityID, MaxLevel) before attaching.
type RewardSource interface {
	LoadRewards() ([]RewardRow, error)
}

// ActivitySource is the game's master activity store: the full set of
// known activity definitions the Dungeon-Finder catalog cross-references
// against. It is a collaborator outside this subsystem's scope; the core
// only reads from it at load time.
type ActivitySource interface {
	LoadActivities() ([]lfg.Activity, error)
}

// GroupingSource supplies the supplemental grouping table merged into a
// random activity's computed expansion set.
type GroupingSource interface {
	// LoadGroups returns, for each random activity id, additional concrete
	// activity ids that belong to its expansion beyond what RandomParentID
	// already implies.
	LoadGroups() (map[uint32][]uint32, error)
}

// SeasonPolicy maps activities to holidays and reports whether a holiday is
// currently active. Activities absent from the mapping are never seasonal.
type SeasonPolicy interface {
	HolidayFor(activityID uint32) (holidayID uint32, ok bool)
	IsHolidayActive(holidayID uint32) bool
}

// MapPolicy is the subset of the host's map policy the catalog loader needs:
// the default entrance trigger for activities whose template row carries no
// coordinates.
type MapPolicy interface {
	DefaultEntrance(mapID uint32) (lfg.Entrance, bool)
}

// Catalog is the immutable, loaded index. Every method is safe to call
// concurrently without external synchronization since nothing here is
// mutated after Load returns.
type Catalog struct {
	entries   map[uint32]lfg.CatalogEntry
	expansion map[uint32]map[uint32]struct{}
	season    SeasonPolicy
}

// Get returns the catalog entry for activityID, if loaded.
func (c *Catalog) Get(activityID uint32) (lfg.CatalogEntry, bool) {
	e, ok := c.entries[activityID]
	return e, ok
}

// AllIDs returns every loaded activity id, in no particular order.
func (c *Catalog) AllIDs() []uint32 {
	ids := make([]uint32, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	return ids
}

// Expansion returns the set of concrete activity ids a random activity
// expands to. The returned set is nil if randomActivityID is not a loaded
// random activity.
func (c *Catalog) Expansion(randomActivityID uint32) map[uint32]struct{} {
	return c.expansion[randomActivityID]
}

// IterateAvailable returns every activity of type random, raid, or
// dungeon-with-seasonal-or-lfr-flag whose level range covers level, whose
// required expansion is at most expansion, and whose seasonal flag (if
// set) is currently active.
func (c *Catalog) IterateAvailable(level, expansion int) []uint32 {
	var ids []uint32
	for id, e := range c.entries {
		if !c.eligibleType(e) {
			continue
		}
		if e.MinLevel > level || e.MaxLevel < level {
			continue
		}
		if e.RequiredExpansion > expansion {
			continue
		}
		if e.Flags.Has(lfg.FlagSeasonal) && !c.inSeason(id) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Catalog) eligibleType(e lfg.CatalogEntry) bool {
	switch e.Type {
	case lfg.ActivityRandom, lfg.ActivityRaid:
		return true
	case lfg.ActivityDungeon:
		return e.Flags.Has(lfg.FlagSeasonal) || e.Flags.Has(lfg.FlagLFRA) || e.Flags.Has(lfg.FlagLFRB)
	default:
		return false
	}
}

// InSeason reports whether activityID's mapped holiday (if any) is
// currently active. Activities with no season-policy entry are never
// seasonal.
func (c *Catalog) InSeason(activityID uint32) bool {
	return c.inSeason(activityID)
}

func (c *Catalog) inSeason(activityID uint32) bool {
	if c.season == nil {
		return false
	}
	holiday, ok := c.season.HolidayFor(activityID)
	if !ok {
		return false
	}
	return c.season.IsHolidayActive(holiday)
}

// Load builds a Catalog from the supplied sources, following the loading
// contract: unknown activities and rows with no resolvable entrance are
// skipped with a logged error, not a fatal failure; only a catalog with
// both tables empty is treated as an error.
func Load(templates TemplateSource, rewards RewardSource, activities ActivitySource, groups GroupingSource, mapPolicy MapPolicy, season SeasonPolicy, log *slog.Logger) (*Catalog, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "catalog")

	masterActivities, err := activities.LoadActivities()
	if err != nil {
		return nil, fmt.Errorf("load master activities: %w", err)
	}
	master := make(map[uint32]lfg.Activity, len(masterActivities))
	for _, a := range masterActivities {
		master[a.ID] = a
	}

	templateRows, err := templates.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	rewardRows, err := rewards.LoadRewards()
	if err != nil {
		return nil, fmt.Errorf("load rewards: %w", err)
	}

	entries := make(map[uint32]lfg.CatalogEntry)
	for _, row := range templateRows {
		act, known := master[row.ActivityID]
		if !known {
			log.Error("unknown activity in template row", "activity_id", row.ActivityID)
			continue
		}

		entrance := lfg.Entrance{X: row.X, Y: row.Y, Z: row.Z, Orientation: row.Orientation}
		if row.X == 0 && row.Y == 0 && row.Z == 0 && act.Type != lfg.ActivityRandom {
			fallback, ok := mapPolicy.DefaultEntrance(act.MapID)
			if !ok {
				log.Error("no default entrance for activity", "activity_id", row.ActivityID, "map_id", act.MapID)
				continue
			}
			entrance = fallback
		}

		entries[row.ActivityID] = lfg.CatalogEntry{
			Activity:          act,
			Entrance:          entrance,
			RequiredItemLevel: row.RequiredItemLevel,
		}
	}

	sort.Slice(rewardRows, func(i, j int) bool {
		if rewardRows[i].ActivityID != rewardRows[j].ActivityID {
			return rewardRows[i].ActivityID < rewardRows[j].ActivityID
		}
		return rewardRows[i].MaxLevel < rewardRows[j].MaxLevel
	})
	for _, row := range rewardRows {
		entry, ok := entries[row.ActivityID]
		if !ok {
			log.Error("reward row for unknown catalog entry", "activity_id", row.ActivityID)
			continue
		}
		entry.Rewards = append(entry.Rewards, lfg.RewardTier{
			MaxLevel:             row.MaxLevel,
			FirstQuestID:         row.FirstQuestID,
			OtherQuestID:         row.OtherQuestID,
			ShortageQuestID:      row.ShortageQuestID,
			CompletionsPerPeriod: row.CompletionsPerPeriod,
			DailyReset:           row.DailyReset,
		})
		entries[row.ActivityID] = entry
	}

	if len(templateRows) == 0 && len(rewardRows) == 0 {
		return nil, fmt.Errorf("catalog load: both template and reward tables are empty")
	}

	var groupTable map[uint32][]uint32
	if groups != nil {
		groupTable, err = groups.LoadGroups()
		if err != nil {
			return nil, fmt.Errorf("load groups: %w", err)
		}
	}

	expansion := make(map[uint32]map[uint32]struct{})
	for id, e := range entries {
		if e.Type != lfg.ActivityRandom {
			continue
		}
		set := make(map[uint32]struct{})
		for otherID, other := range entries {
			if other.Type == lfg.ActivityRandom {
				continue
			}
			if other.RandomParentID == id {
				set[otherID] = struct{}{}
			}
		}
		for _, extra := range groupTable[id] {
			set[extra] = struct{}{}
		}
		expansion[id] = set
	}

	return &Catalog{entries: entries, expansion: expansion, season: season}, nil
}
