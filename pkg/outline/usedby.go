package outline

// ComputeUsedBy fills the reverse-dependency lists on signals and trends:
// which trends read each signal, and which logic rules read each trend.
// Existing UsedBy entries are replaced. Order follows the declaration order
// of the referencing entities.
func ComputeUsedBy(o *Outline) {
	signals := make(map[string]*Signal, len(o.Signals))
	for i := range o.Signals {
		o.Signals[i].UsedBy = nil
		signals[o.Signals[i].Name] = &o.Signals[i]
	}

	trends := make(map[string]*Trend, len(o.Trends))
	for i := range o.Trends {
		o.Trends[i].UsedBy = nil
		trends[o.Trends[i].Name] = &o.Trends[i]
	}

	for _, t := range o.Trends {
		for _, dep := range t.DependsOn {
			if s, ok := signals[dep]; ok {
				s.UsedBy = append(s.UsedBy, t.Name)
			}
		}
	}

	for _, l := range o.Logic {
		for _, dep := range l.DependsOn {
			if tr, ok := trends[dep]; ok {
				tr.UsedBy = append(tr.UsedBy, l.Name)
			}
		}
	}
}
