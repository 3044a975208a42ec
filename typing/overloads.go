package typing

// MatchType scores how well an actual argument type matches the type of a
// formal parameter of a predefined procedure signature: 2 for identical types,
// 1 for a match through a virtual type category and 0 for no match.
func MatchType(expected, actual Type) int {
	if expected == actual {
		return 2
	}

	switch expected.Kind() {
	case KindAnyType:
		return 1
	case KindEntire:
		if IsInteger(actual) {
			return 1
		}
	case KindFloating:
		if IsReal(actual) {
			return 1
		}
	case KindNumeric:
		if IsNumeric(actual) {
			return 1
		}
	}

	return 0
}

// Dispatch selects the signature of an overloaded predefined procedure that
// best matches the actual argument types.  Every signature that does not have
// more parameters than there are arguments is scored by summing the match
// scores of its parameters; a single non-matching parameter rejects the
// signature.  Dispatch succeeds only if exactly one signature attains the
// maximum score: it returns nil if there are no or several winners.
//
// Type-cast procedures (`isCast`) do not score: they yield a copy of their
// only signature whose return type is the explicit type argument.
func Dispatch(signatures []*ProcedureType, actuals []Type, typeType Type, isCast bool) *ProcedureType {
	if isCast && typeType != nil {
		sig := *signatures[0]
		sig.Return = typeType
		return &sig
	}

	winners, _ := Candidates(signatures, actuals)
	if len(winners) == 1 {
		return winners[0]
	}

	return nil
}

// Candidates returns the signatures attaining the maximum score for the given
// argument types along with that score.
func Candidates(signatures []*ProcedureType, actuals []Type) ([]*ProcedureType, int) {
	maxScore := 0
	var winners []*ProcedureType

	for _, sig := range signatures {
		if len(actuals) < len(sig.Params) {
			continue
		}

		score := 0
		for i, param := range sig.Params {
			if actuals[i] == nil {
				score = -1
				break
			}

			match := MatchType(param.Type, actuals[i])
			if match == 0 {
				score = -1
				break
			}

			score += match
		}

		if score > maxScore {
			winners = []*ProcedureType{sig}
			maxScore = score
		} else if score == maxScore {
			winners = append(winners, sig)
		}
	}

	return winners, maxScore
}
