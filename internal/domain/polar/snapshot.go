package polar

import "sort"

// Snapshot is the serializable form of a Table, used by the persistence
// adapter. Bin entries are sorted for stable output.
type Snapshot struct {
	Grid    Grid       `json:"grid"`
	Regatta string     `json:"regatta,omitempty"`
	Bins    []BinEntry `json:"bins"`
}

// BinEntry pairs a bucket key with its accumulated statistics.
type BinEntry struct {
	Speed int `json:"speed"`
	Angle int `json:"angle"`
	Bin   Bin `json:"bin"`
}

// Snapshot extracts a serializable copy of the table.
func (t *Table) Snapshot() Snapshot {
	s := Snapshot{Grid: t.Grid, Regatta: t.Regatta, Bins: make([]BinEntry, 0, len(t.Bins))}
	for k, b := range t.Bins {
		s.Bins = append(s.Bins, BinEntry{Speed: k.Speed, Angle: k.Angle, Bin: *b})
	}
	sort.Slice(s.Bins, func(i, j int) bool {
		if s.Bins[i].Speed != s.Bins[j].Speed {
			return s.Bins[i].Speed < s.Bins[j].Speed
		}
		return s.Bins[i].Angle < s.Bins[j].Angle
	})
	return s
}

// FromSnapshot rebuilds a Table from its serialized form.
func FromSnapshot(s Snapshot) *Table {
	t := NewTable(s.Grid, s.Regatta)
	for _, e := range s.Bins {
		bin := e.Bin
		t.Bins[Key{Speed: e.Speed, Angle: e.Angle}] = &bin
	}
	return t
}
