package wizard

// Reset returns an empty application for flow.
func Reset(flow Flow) State {
	return State{Flow: flow, Stage: Empty, Values: Values{}, Touched: map[string]bool{}}
}

// ApplyStepUpdate merges partial into a copy of state and prunes fields whose
// governing selection is off. A nil value in partial clears the field. The
// pruning runs on every update, so applying the same update twice yields the
// same record.
func ApplyStepUpdate(state State, partial Values) State {
	next := state.Clone()
	if next.Values == nil {
		next.Values = Values{}
	}
	merge(next.Values, next.Touched, partial)
	prune(next.Values, next.Touched)
	return next
}

// ApplyBorrowerUpdate is ApplyStepUpdate for a co-borrower. The borrower is
// created when absent.
func ApplyBorrowerUpdate(state State, borrowerID string, partial Values) State {
	next := state.Clone()
	idx := -1
	for i, b := range next.CoBorrowers {
		if b.ID == borrowerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		next.CoBorrowers = append(next.CoBorrowers, Borrower{ID: borrowerID, Values: Values{}, Touched: map[string]bool{}})
		idx = len(next.CoBorrowers) - 1
	}

	b := &next.CoBorrowers[idx]
	if b.Values == nil {
		b.Values = Values{}
	}
	merge(b.Values, b.Touched, partial)
	prune(b.Values, b.Touched)
	return next
}

// RemoveBorrower drops a co-borrower. Unknown ids leave state unchanged.
func RemoveBorrower(state State, borrowerID string) State {
	next := state.Clone()
	kept := next.CoBorrowers[:0]
	for _, b := range next.CoBorrowers {
		if b.ID != borrowerID {
			kept = append(kept, b)
		}
	}
	next.CoBorrowers = kept
	return next
}

// Touch marks fields as interacted with. Pruned fields are never touched.
func Touch(state State, fields ...string) State {
	next := state.Clone()
	if next.Touched == nil {
		next.Touched = make(map[string]bool, len(fields))
	}
	for _, f := range fields {
		next.Touched[f] = true
	}
	prune(next.Values, next.Touched)
	return next
}

func merge(values Values, touched map[string]bool, partial Values) {
	for k, v := range partial {
		if v == nil {
			delete(values, k)
			delete(touched, k)
			continue
		}
		values[k] = v
	}
}

func prune(values Values, touched map[string]bool) {
	if NormalizeAdditionalIncome(values.String(FieldAdditionalIncome)) == AdditionalIncomeNone {
		clearFields(values, touched, AdditionalIncomeFields)
	}
	if NormalizeObligation(values.String(FieldObligation)) == ObligationNone {
		clearFields(values, touched, ObligationFields)
	}
}

func clearFields(values Values, touched map[string]bool, fields []string) {
	for _, f := range fields {
		delete(values, f)
		delete(touched, f)
	}
}
