package selection

import (
	"fmt"

	"github.com/fitonboard/backend/pkg/apperrors"
)

const (
	MinDisclosure = 1
	MaxDisclosure = 4
)

// Disclosure tracks the progressive-reveal step of the equipment
// customisation wizard. Level 1 shows categories, 2 the items under chosen
// categories, 3 the variants under chosen items and 4 is the review step.
type Disclosure struct {
	Level int `json:"level"`
}

func NewDisclosure() *Disclosure {
	return &Disclosure{Level: MinDisclosure}
}

func tierFor(level int) Level {
	return levels[level-1]
}

// Advance moves one level deeper. Levels 1–3 need at least one selection in
// the tier they reveal, unless nothing in that tier could be chosen.
func (d *Disclosure) Advance(cat *Catalog, data Data) error {
	if d.Level >= MaxDisclosure {
		return apperrors.New(apperrors.CodeStepIncomplete, "already at the review step")
	}
	if d.Level < MinDisclosure {
		d.Level = MinDisclosure
	}

	tier := tierFor(d.Level)
	if len(data.Keys(tier)) == 0 && len(d.revealedAt(cat, data, tier)) > 0 {
		return apperrors.New(apperrors.CodeStepIncomplete,
			fmt.Sprintf("select at least one %s option to continue", tier))
	}

	d.Level++
	return nil
}

func (d *Disclosure) Retreat() {
	if d.Level > MinDisclosure {
		d.Level--
	}
}

// Visible lists the catalog entries shown at the current level, tier by
// tier in catalog order.
func (d *Disclosure) Visible(cat *Catalog, data Data) []Entry {
	upTo := d.Level
	if upTo > len(levels) {
		upTo = len(levels)
	}
	var out []Entry
	for i := 1; i <= upTo; i++ {
		out = append(out, d.revealedAt(cat, data, tierFor(i))...)
	}
	return out
}

func (d *Disclosure) revealedAt(cat *Catalog, data Data, tier Level) []Entry {
	if tier == LevelPrimary {
		return cat.Roots()
	}
	parentTier := levels[tier.Depth()-1]
	var out []Entry
	for _, root := range cat.Roots() {
		out = append(out, collectUnder(cat, data, root, parentTier)...)
	}
	return out
}

// collectUnder walks the catalog in order and returns the children of
// selected entries at parentTier.
func collectUnder(cat *Catalog, data Data, e Entry, parentTier Level) []Entry {
	if e.Level == parentTier {
		if n, ok := data[e.Key]; ok && n.Selected {
			return cat.ChildrenOf(e.Key)
		}
		return nil
	}
	var out []Entry
	for _, child := range cat.ChildrenOf(e.Key) {
		out = append(out, collectUnder(cat, data, child, parentTier)...)
	}
	return out
}
