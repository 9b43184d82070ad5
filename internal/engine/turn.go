package engine

import "fmt"

// Contribution is one working creature's share of a turn.
type Contribution struct {
	CreatureID CreatureID `json:"creature_id"`
	Name       string     `json:"name"`
	Facility   string     `json:"facility"`
	Yield      Yield      `json:"yield"`
}

// TurnReport describes one resolved turn.
type TurnReport struct {
	Turn          int            `json:"turn"` // The turn that was resolved
	Currency      int            `json:"currency"`
	Tech          int            `json:"tech"`
	Contributions []Contribution `json:"contributions"`
}

// AdvanceTurn resolves one turn: every non-idle creature works its facility,
// the summed yields are added to the balances and the turn counter advances
// by one. All yields are computed before anything is applied, so an
// assignment to a facility outside the unlocked set fails the whole turn and
// leaves the state untouched.
func AdvanceTurn(s *State) (TurnReport, error) {
	report := TurnReport{Turn: s.Turn}

	for _, oc := range s.Roster {
		name, working := oc.Assignment.Facility()
		if !working {
			continue
		}
		f, ok := s.Unlocked[name]
		if !ok {
			return TurnReport{}, &IntegrityError{
				Op:     "advance turn",
				Detail: fmt.Sprintf("creature %d assigned to %q", oc.ID, name),
				Err:    ErrFacilityLocked,
			}
		}

		y := Efficiency(oc.Archetype, f)
		report.Currency += y.Currency
		report.Tech += y.Tech
		report.Contributions = append(report.Contributions, Contribution{
			CreatureID: oc.ID,
			Name:       oc.Archetype.Name,
			Facility:   name,
			Yield:      y,
		})
	}

	s.Currency += report.Currency
	s.Tech += report.Tech
	s.Turn++
	return report, nil
}
