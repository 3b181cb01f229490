package domain

// Airspeed window, in knots, inside which the aircraft is taken to be airborne.
const (
	minAirborneSpeed = 60.0
	maxAirborneSpeed = 300.0
)

// InferFlightPhase derives a WOW_IND variable from indicated airspeed: 0
// (airborne) where 60 < ias < 300, else 1. Only the first sub-sample of each
// second is used. Fill values fall outside the window and read as ground.
func InferFlightPhase(ias Variable) Variable {
	speeds := ias.FirstColumn()
	wow := make([]float64, len(speeds))
	for i, s := range speeds {
		if s > minAirborneSpeed && s < maxAirborneSpeed {
			continue
		}
		wow[i] = 1
	}
	return Variable{
		Name:  GroundIndicatorVariable,
		Data:  wow,
		Width: 1,
		Type:  Int8,
		Attrs: Attributes{
			"long_name": "Weight on wheels indicator inferred from " + ias.Name,
			"units":     "1",
		},
	}
}
