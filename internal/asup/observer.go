package asup

// Observer is told about sections and rows the parser could not use. It is
// purely diagnostic; parsing results never depend on it.
type Observer interface {
	SectionMissing(table string)
	RowDiscarded(table, line string)
	TableDecoded(table string, rows int)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) SectionMissing(string)       {}
func (NopObserver) RowDiscarded(string, string) {}
func (NopObserver) TableDecoded(string, int)    {}

type multiObserver []Observer

func (m multiObserver) SectionMissing(table string) {
	for _, o := range m {
		o.SectionMissing(table)
	}
}

func (m multiObserver) RowDiscarded(table, line string) {
	for _, o := range m {
		o.RowDiscarded(table, line)
	}
}

func (m multiObserver) TableDecoded(table string, rows int) {
	for _, o := range m {
		o.TableDecoded(table, rows)
	}
}

// Observers fans events out to every non-nil observer
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	if len(m) == 0 {
		return NopObserver{}
	}
	return m
}
