package catalog

import "strings"

// Category is the spot grouping key. Values come from the catalog API
// and are normalized at the decode boundary so sorting and grouping
// work on a single canonical form.
type Category string

// CategoryFarm is the sentinel lowest-priority category: farm spots
// always render after everything else.
const CategoryFarm Category = "farm"

// Priority returns the sort tier of the category. Lower renders first.
func (c Category) Priority() int {
	if c == CategoryFarm {
		return 1
	}
	return 0
}

// NormalizeCategory canonicalizes a raw category string from the API.
func NormalizeCategory(raw string) Category {
	return Category(strings.ToLower(strings.TrimSpace(raw)))
}

// Spot is one point of interest on a map. Immutable once fetched: the
// sync pass that fetched it owns it and discards it after rendering.
type Spot struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Category    Category `json:"category"`
	Map         string   `json:"map"`
	Server      string   `json:"server"`
	Damage      string   `json:"damage"`
	Description string   `json:"description,omitempty"`
	VideoURL    string   `json:"videoUrl,omitempty"`
	VideoFile   string   `json:"videoFile,omitempty"`
}

// KnownServers are the deployments the catalog exposes. They drive the
// slash-command server choices and header validation.
var KnownServers = []string{"main", "classic", "hardcore"}

// FallbackMaps is the fixed map list used when the catalog cannot be
// asked for one. It must never be empty.
var FallbackMaps = []string{
	"chernarus",
	"livonia",
	"namalsk",
	"sakhal",
	"deerisle",
	"banov",
}

// ValidServer reports whether name is a known server.
func ValidServer(name string) bool {
	for _, s := range KnownServers {
		if s == name {
			return true
		}
	}
	return false
}
