package resolve

import (
	"strings"

	"cardledger/internal/inventory"
)

// SearchUnit groups items that share a coarse identity key so one search and
// score pass serves every copy of the same product. Units live for a single
// run.
type SearchUnit struct {
	Key            string
	Representative *inventory.Item
	ItemIDs        []int64
}

// UnitKey builds the grouping key from the lowercased name, lowercased set,
// and the card number as stored. Intentionally coarser than the scoring
// normalization: grouping only needs to be cheap and stable.
func UnitKey(item *inventory.Item) string {
	if item == nil {
		return ""
	}
	return strings.ToLower(item.Name) + "|" + strings.ToLower(item.SetName) + "|" + item.CardNumber
}

// BatchItems groups items into search units. Unit order follows first
// appearance; member IDs preserve input order. The representative is the
// first item seen for the key.
func BatchItems(items []*inventory.Item) []*SearchUnit {
	units := make([]*SearchUnit, 0, len(items))
	index := make(map[string]*SearchUnit, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		key := UnitKey(item)
		if unit, ok := index[key]; ok {
			unit.ItemIDs = append(unit.ItemIDs, item.ID)
			continue
		}
		unit := &SearchUnit{
			Key:            key,
			Representative: item,
			ItemIDs:        []int64{item.ID},
		}
		index[key] = unit
		units = append(units, unit)
	}
	return units
}
