package epidemic

import "math"

// Day reports what happened on one simulated day.
type Day struct {
	Index         int // zero-based day number
	NewInfections int
	Recovered     int
	Deaths        int
	Infected      int // infected pool at the end of the day
	BedsNeeded    int
}

// Trial is a single outbreak run advanced one day at a time.
// The zero value is not usable; create one with NewTrial.
type Trial struct {
	params      Params
	infectProb  float64
	susceptible int
	infected    int
	deceased    int
	peakBeds    int
	exceeded    bool
	days        int
}

// NewTrial prepares a trial at day 0.
func NewTrial(p Params) *Trial {
	return &Trial{
		params:      p,
		infectProb:  p.R0 / float64(p.Population),
		susceptible: p.Population - p.InitialInfected,
		infected:    p.InitialInfected,
	}
}

// Done reports whether the trial has reached its duration or run out of
// infected individuals.
func (t *Trial) Done() bool {
	return t.days >= t.params.DurationDays || t.infected <= 0
}

// Step simulates one day using four draws from src. It returns false without
// drawing anything once the trial is done.
func (t *Trial) Step(src Source) (Day, bool) {
	if t.Done() {
		return Day{}, false
	}
	day := Day{Index: t.days}
	t.days++

	newInfections := truncate(float64(t.infected) * t.infectProb * float64(t.susceptible) * src.Float64())
	if newInfections > t.susceptible {
		newInfections = t.susceptible
	}
	t.susceptible -= newInfections
	t.infected += newInfections

	recovered := truncate(float64(t.infected) * t.params.RecoveryRate * src.Float64())
	deaths := truncate(float64(t.infected) * t.params.FatalityRate * src.Float64())
	t.infected -= recovered + deaths
	t.deceased += deaths

	beds := truncate(float64(t.infected) * t.params.HospitalizationRate * (0.5 + src.Float64()))
	if beds > t.peakBeds {
		t.peakBeds = beds
	}
	if beds > t.params.BedCapacity {
		t.exceeded = true
	}

	day.NewInfections = newInfections
	day.Recovered = recovered
	day.Deaths = deaths
	day.Infected = t.infected
	day.BedsNeeded = beds
	return day, true
}

// Outcome returns the accumulated result so far.
func (t *Trial) Outcome() Outcome {
	return Outcome{
		PeakBeds:         t.peakBeds,
		CapacityExceeded: t.exceeded,
		Deceased:         t.deceased,
		DaysRun:          t.days,
	}
}

// Simulate runs one complete trial.
func Simulate(p Params, src Source) Outcome {
	t := NewTrial(p)
	for {
		if _, ok := t.Step(src); !ok {
			return t.Outcome()
		}
	}
}

// truncate converts toward zero, saturating at the int range. NaN maps to 0 so
// degenerate inputs such as a zero population cannot panic or wrap.
func truncate(x float64) int {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= math.MaxInt:
		return math.MaxInt
	case x <= math.MinInt:
		return math.MinInt
	}
	return int(x)
}
