// Package inventory defines the reporting structure of the GHG inventory:
// sectors, their subcategories, the pending/validated collection each
// subcategory persists to, the key fields a record must carry to be
// promotable, and the activity mappings used for collation and dashboards.
package inventory

import "strings"

// Sector names follow the IPCC 2006 top-level split.
const (
	SectorIPPU   = "IPPU"
	SectorWaste  = "Waste"
	SectorEnergy = "Energy"
	SectorAFOLU  = "AFOLU"
)

// Sectors lists all sectors in dashboard navigation order.
var Sectors = []string{SectorIPPU, SectorEnergy, SectorWaste, SectorAFOLU}

// Aggregation selects how an activity column is collated across records
// within one year.
type Aggregation string

const (
	AggSum  Aggregation = "sum"
	AggMean Aggregation = "mean"
)

// Activity maps one record column to a reportable activity line.
type Activity struct {
	Label       string
	Column      string
	Units       string
	Notes       string
	Aggregation Aggregation
}

// Subcategory is one named reporting category with its own form schema and
// its own pending/validated collections.
type Subcategory struct {
	// Name is the canonical identifier used in form state keys and the
	// subcategory column of persisted records.
	Name string
	// DisplayName is the human-readable IPCC category label.
	DisplayName string
	Sector      string
	// PendingCollection and ValidatedCollection name the two stores a
	// record moves between. A record lives in exactly one at a time.
	PendingCollection   string
	ValidatedCollection string
	// KeyFields must be present, non-null and (for numbers) positive
	// before a pending record can be promoted.
	KeyFields []string
	// FormFile is the schema document under the forms directory.
	FormFile   string
	Activities []Activity
}

// Code returns the IPCC category code, the prefix of the display name
// (e.g. "2A3" for "2A3 - Glass Production").
func (s *Subcategory) Code() string {
	if i := strings.Index(s.DisplayName, " - "); i >= 0 {
		return s.DisplayName[:i]
	}
	return s.DisplayName
}

// Registry resolves subcategories by name and sector.
type Registry struct {
	subcategories []Subcategory
	byName        map[string]*Subcategory
}

// NewRegistry builds a registry from subcategory definitions.
func NewRegistry(subs []Subcategory) *Registry {
	r := &Registry{subcategories: subs, byName: make(map[string]*Subcategory, len(subs))}
	for i := range r.subcategories {
		r.byName[r.subcategories[i].Name] = &r.subcategories[i]
	}
	return r
}

// Lookup finds a subcategory by canonical name.
func (r *Registry) Lookup(name string) (*Subcategory, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// BySector returns the subcategories belonging to a sector, in definition order.
func (r *Registry) BySector(sector string) []*Subcategory {
	var out []*Subcategory
	for i := range r.subcategories {
		if r.subcategories[i].Sector == sector {
			out = append(out, &r.subcategories[i])
		}
	}
	return out
}

// All returns every registered subcategory in definition order.
func (r *Registry) All() []*Subcategory {
	out := make([]*Subcategory, len(r.subcategories))
	for i := range r.subcategories {
		out[i] = &r.subcategories[i]
	}
	return out
}

// Collections returns every pending and validated collection name, used to
// provision the store.
func (r *Registry) Collections() []string {
	var out []string
	for i := range r.subcategories {
		out = append(out, r.subcategories[i].PendingCollection, r.subcategories[i].ValidatedCollection)
	}
	return out
}
