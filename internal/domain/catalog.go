package domain

import "sort"

// Catalog holds the static project and activity tables. It is built once at
// startup and only read afterwards.
type Catalog struct {
	projects   map[string]int64
	activities map[string]int64
}

func NewCatalog(projects, activities map[string]int64) Catalog {
	c := Catalog{
		projects:   make(map[string]int64, len(projects)),
		activities: make(map[string]int64, len(activities)),
	}
	for k, v := range projects {
		c.projects[k] = v
	}
	for k, v := range activities {
		c.activities[k] = v
	}
	return c
}

// DefaultActivities mirrors the activity ids of a stock OpenProject install.
func DefaultActivities() map[string]int64 {
	return map[string]int64{
		"Development":    3,
		"Support":        5,
		"Meeting":        14,
		"Testing":        4,
		"Specification":  2,
		"Other":          6,
		"Change Request": 15,
		"Management":     16,
	}
}

func (c Catalog) ProjectID(name string) (int64, bool) {
	id, ok := c.projects[name]
	return id, ok
}

func (c Catalog) ActivityID(name string) (int64, bool) {
	id, ok := c.activities[name]
	return id, ok
}

// ProjectNames returns the configured project names in sorted order.
func (c Catalog) ProjectNames() []string { return sortedKeys(c.projects) }

// ActivityNames returns the configured activity names in sorted order.
func (c Catalog) ActivityNames() []string { return sortedKeys(c.activities) }

func sortedKeys(m map[string]int64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
