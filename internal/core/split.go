package core

// Share splitting for one expense: equal split with remainder correction
// and manual per-member edits with automatic rebalancing of the rest.
//
// All functions are pure; the caller owns the participant selection and the
// current share map and passes them in by value on every call. Participant
// order is significant: the last participant in the slice absorbs the
// rounding remainder, so a given (total, participants) pair always produces
// the same map.

// roundDiv divides total cents by n with half-up rounding.
// Both arguments must be non-negative, n > 0.
func roundDiv(total, n int64) int64 {
	return (2*total + n) / (2 * n)
}

// EqualSplit divides total equally among participants. Every participant
// except the last receives the half-up rounded per-head share; the last
// receives whatever brings the sum back to exactly total. On tiny totals
// the rounded per-head share is capped at what is still unassigned, so no
// share ever goes negative.
//
// An empty participant slice yields an empty map; the caller is expected to
// treat a zero-participant expense as invalid before persisting anything.
func EqualSplit(total Money, participants []string) (map[string]Money, error) {
	if total.Cents < 0 {
		return nil, ErrInvalidAmount
	}
	shares := make(map[string]Money, len(participants))
	if len(participants) == 0 {
		return shares, nil
	}
	perHead := roundDiv(total.Cents, int64(len(participants)))
	var assigned int64
	for _, id := range participants[:len(participants)-1] {
		share := perHead
		if remaining := total.Cents - assigned; share > remaining {
			share = remaining
		}
		shares[id] = Money{Cents: share}
		assigned += share
	}
	shares[participants[len(participants)-1]] = Money{Cents: total.Cents - assigned}
	return shares, nil
}

// ApplyManualEdit pins editedID's share to newValue and re-equalizes the
// remainder over the other participants, preserving the sum invariant.
//
// participants is the selected set in insertion order and must be the key
// set of current. The input map is never mutated; on error the caller keeps
// its previous shares unchanged.
//
// If editedID is the only participant its share is forced to total and
// newValue is ignored. Otherwise the edit is rejected with ErrShareTooLarge
// when it leaves nothing (or a negative amount) for the others.
func ApplyManualEdit(current map[string]Money, participants []string, editedID string, newValue, total Money) (map[string]Money, error) {
	if total.Cents < 0 || newValue.Cents <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if _, ok := current[editedID]; !ok {
		return nil, ErrUnknownEditor
	}

	others := make([]string, 0, len(participants)-1)
	for _, id := range participants {
		if id != editedID {
			others = append(others, id)
		}
	}

	if len(others) == 0 {
		return map[string]Money{editedID: total}, nil
	}

	remaining := total.Cents - newValue.Cents
	if remaining <= 0 {
		return nil, ErrShareTooLarge
	}

	shares, err := EqualSplit(Money{Cents: remaining}, others)
	if err != nil {
		return nil, err
	}
	shares[editedID] = newValue
	return shares, nil
}

// RecomputeOnSelectionChange discards the previous shares entirely and
// re-equalizes over the new selection. Partial-share retention across
// membership changes has no well-defined meaning, so adding or removing a
// participant always resets the split.
func RecomputeOnSelectionChange(total Money, newSelection []string) (map[string]Money, error) {
	return EqualSplit(total, newSelection)
}
