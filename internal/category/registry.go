package category

import "codeberg.org/mutker/laserlog/internal/device"

// Registry is the fixed, ordered set of categories bound to one controller.
type Registry struct {
	byID    map[ID]Category
	ordered []Category
}

// NewRegistry builds every category against dev. All categories start
// excluded.
func NewRegistry(dev device.Controller) *Registry {
	return NewRegistryFrom(
		newPower(dev),
		newDiodeCurrents(dev),
		newTemperatures(dev),
		newTECPower(dev),
		newSensors(dev),
		newPulseInfo(dev),
		newMotors(dev),
		newAlarms(dev),
		newTECCurrent(dev),
		newTECVoltage(dev),
	)
}

// NewRegistryFrom builds a registry from arbitrary categories, ordered by
// Order. Categories with ids outside Order are appended in argument order.
func NewRegistryFrom(categories ...Category) *Registry {
	r := &Registry{byID: make(map[ID]Category, len(categories))}
	for _, c := range categories {
		r.byID[c.ID()] = c
	}

	placed := make(map[ID]bool, len(categories))
	for _, id := range order {
		if c, ok := r.byID[id]; ok {
			r.ordered = append(r.ordered, c)
			placed[id] = true
		}
	}
	for _, c := range categories {
		if !placed[c.ID()] {
			r.ordered = append(r.ordered, c)
			placed[c.ID()] = true
		}
	}

	return r
}

// Get returns the category registered under id.
func (r *Registry) Get(id ID) (Category, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Ordered returns every category in header order.
func (r *Registry) Ordered() []Category {
	return append([]Category(nil), r.ordered...)
}

// Visible returns the user-facing categories in header order.
func (r *Registry) Visible() []Category {
	out := make([]Category, 0, len(visible))
	for _, c := range r.ordered {
		for _, id := range visible {
			if c.ID() == id {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Included returns the currently included categories in header order.
func (r *Registry) Included() []Category {
	var out []Category
	for _, c := range r.ordered {
		if c.IsIncluded() {
			out = append(out, c)
		}
	}
	return out
}
