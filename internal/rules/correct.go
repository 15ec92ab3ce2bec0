package rules

// The generation backend sometimes places an indicator reference in the
// wrong field group for the condition kind: a threshold condition with the
// reference in indicator1/indicator2, or a cross condition with one side
// in indicator. CorrectCondition repairs exactly that class of mistake
// with typed field moves. It is a single best-effort pass: values that
// cannot be inferred from the condition's own fields are never fabricated,
// and a condition that is already correct is returned unchanged.

// CorrectCondition repairs one condition in place. It returns true when a
// field move was applied.
func CorrectCondition(cond *StepCondition) bool {
	switch cond.Kind {
	case KindAbove, KindBelow:
		if cond.Indicator != "" {
			return false
		}
		// Move a lone misplaced reference into indicator. Two populated
		// cross fields are ambiguous and are left for validation to reject.
		if cond.Indicator1 != "" && cond.Indicator2 == "" {
			cond.Indicator = cond.Indicator1
			cond.Indicator1 = ""
			return true
		}
		if cond.Indicator2 != "" && cond.Indicator1 == "" {
			cond.Indicator = cond.Indicator2
			cond.Indicator2 = ""
			return true
		}

	case KindCrossover, KindCrossunder:
		if cond.Indicator1 == "" && cond.Indicator != "" {
			cond.Indicator1 = cond.Indicator
			cond.Indicator = ""
			return true
		}
	}

	return false
}

// Correct walks every condition of every step in every list and applies
// CorrectCondition. Conditions are corrected independently, so the result
// does not depend on walk order. Returns the number of repaired conditions.
func (r *TemplateRules) Correct() int {
	fixed := 0
	for _, steps := range [][]StrategyStep{r.LongEntry, r.LongExit, r.ShortEntry, r.ShortExit} {
		for i := range steps {
			for j := range steps[i].Conditions {
				if CorrectCondition(&steps[i].Conditions[j]) {
					fixed++
				}
			}
		}
	}
	return fixed
}

// Correct applies the auto-correction pass to a signal template's flat
// condition list.
func (r *SignalTemplateRules) Correct() int {
	fixed := 0
	for i := range r.Conditions {
		if CorrectCondition(&r.Conditions[i]) {
			fixed++
		}
	}
	return fixed
}
