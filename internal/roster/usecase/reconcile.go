package usecase

// Delta is a requested change to one student's course codes
type Delta struct {
	Add    []string
	Remove []string
}

// Reconcile applies d to current and reports whether the resulting set
// differs from current. Existing order is kept, duplicates are dropped and
// added codes are appended in request order.
func Reconcile(current []string, d Delta) (next []string, changed bool) {
	removed := make(map[string]struct{}, len(d.Remove))
	for _, code := range d.Remove {
		removed[code] = struct{}{}
	}

	seen := make(map[string]struct{}, len(current)+len(d.Add))
	next = make([]string, 0, len(current)+len(d.Add))
	for _, code := range current {
		if _, drop := removed[code]; drop {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		next = append(next, code)
	}
	for _, code := range d.Add {
		if _, drop := removed[code]; drop {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		next = append(next, code)
	}

	return next, !sameSet(current, seen)
}

func sameSet(codes []string, set map[string]struct{}) bool {
	distinct := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if _, ok := set[code]; !ok {
			return false
		}
		distinct[code] = struct{}{}
	}
	return len(distinct) == len(set)
}
