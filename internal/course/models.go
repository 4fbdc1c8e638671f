package course

// SubUnit is the smallest completable teaching unit within a module.
// Completing every sub-unit of every module reads as 100% course progress.
type SubUnit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Quiz  *Quiz  `json:"quiz,omitempty"`
}

type Module struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	SubUnits []SubUnit `json:"sub_units"`
}

type Course struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Modules []Module `json:"modules"`
}

// Quiz is the question set a sub-unit is assessed on, answered under a
// time limit.
type Quiz struct {
	TimeLimitSec int        `json:"time_limit_sec"`
	Questions    []Question `json:"questions"`
}

type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"` // index into Options; never served to learners
}

// TotalSubUnits counts sub-units across all modules.
func (c Course) TotalSubUnits() int {
	n := 0
	for _, m := range c.Modules {
		n += len(m.SubUnits)
	}
	return n
}

// FindSubUnit returns the sub-unit for (moduleID, subUnitID), if any.
func (c Course) FindSubUnit(moduleID, subUnitID string) (SubUnit, bool) {
	for _, m := range c.Modules {
		if m.ID != moduleID {
			continue
		}
		for _, su := range m.SubUnits {
			if su.ID == subUnitID {
				return su, true
			}
		}
	}
	return SubUnit{}, false
}
