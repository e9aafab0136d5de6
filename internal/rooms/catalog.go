package rooms

import (
	"fmt"
	"os"

	"reserve/config"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Room is a bookable space. The set of rooms is fixed configuration: it is loaded
// once at startup and never mutated at runtime. Capacity is informational only and
// is not enforced against reservations.
type Room struct {
	ID       string `json:"id"       yaml:"id"`
	Name     string `json:"name"     yaml:"name"`
	Capacity int    `json:"capacity" yaml:"capacity"`
}

// Catalog is an immutable, ordered lookup table of rooms.
type Catalog struct {
	rooms []Room
	byID  map[string]Room
}

type catalogFile struct {
	Rooms []Room `yaml:"rooms"`
}

var defaultRooms = []Room{
	{ID: "room-1", Name: "Common Room Ground Floor", Capacity: 10},
	{ID: "room-2", Name: "Common Room 3rd Floor", Capacity: 8},
	{ID: "room-3", Name: "Common Room 5th Floor", Capacity: 12},
}

// Load reads the room catalog from the given YAML file. An empty path selects the
// built-in default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		log.Info().Int("rooms", len(defaultRooms)).Msg("No rooms catalog configured, using built-in defaults")

		return NewCatalog(defaultRooms)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rooms catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing rooms catalog %s: %w", path, err)
	}

	catalog, err := NewCatalog(file.Rooms)
	if err != nil {
		return nil, err
	}

	log.Info().Int("rooms", len(file.Rooms)).Str("path", path).Msg("Rooms catalog loaded")

	return catalog, nil
}

// New loads the catalog configured in APP_ROOMS_CATALOG. A broken catalog file
// is a startup error, not something to limp along with.
func New(config *config.Config) *Catalog {
	catalog, err := Load(config.App.RoomsCatalog)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load rooms catalog")
	}

	return catalog
}

// NewCatalog builds a catalog from the given rooms, rejecting empty sets,
// duplicate ids and non-positive capacities.
func NewCatalog(list []Room) (*Catalog, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("rooms catalog is empty")
	}

	byID := make(map[string]Room, len(list))

	for _, room := range list {
		if room.ID == "" {
			return nil, fmt.Errorf("room %q has no id", room.Name)
		}

		if room.Capacity <= 0 {
			return nil, fmt.Errorf("room %s has non-positive capacity %d", room.ID, room.Capacity)
		}

		if _, dup := byID[room.ID]; dup {
			return nil, fmt.Errorf("duplicate room id %s", room.ID)
		}

		byID[room.ID] = room
	}

	rooms := make([]Room, len(list))
	copy(rooms, list)

	return &Catalog{rooms: rooms, byID: byID}, nil
}

// Get returns the room with the given id.
func (c *Catalog) Get(id string) (Room, bool) {
	room, ok := c.byID[id]

	return room, ok
}

// Exists reports whether a room with the given id is configured.
func (c *Catalog) Exists(id string) bool {
	_, ok := c.byID[id]

	return ok
}

// Rooms returns the rooms in catalog order. The slice is a copy.
func (c *Catalog) Rooms() []Room {
	rooms := make([]Room, len(c.rooms))
	copy(rooms, c.rooms)

	return rooms
}
