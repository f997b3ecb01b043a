// Package epidemic implements the day-stepped stochastic outbreak model that
// turns one random stream into one trial outcome.
//
// # Model
//
// A trial starts with Params.InitialInfected infected individuals and the rest
// of the population susceptible. Every simulated day consumes exactly four
// uniform draws from the [Source], in this order:
//
//  1. new infections: infected × (R0 / population) × susceptible × u1,
//     capped at the remaining susceptible count
//  2. recoveries: infected × RecoveryRate × u2
//  3. deaths: infected × FatalityRate × u3
//  4. bed demand: infected × HospitalizationRate × (0.5 + u4)
//
// Products are truncated toward zero. Recoveries and deaths are removed from
// the infected pool without clamping, so the pool may go negative on a day
// where they outnumber it; the trial then ends on the next loop check.
//
// The trial stops after Params.DurationDays days or as soon as no one is
// infected, whichever comes first.
//
// # Usage
//
//	p := epidemic.Params{DurationDays: 100, Population: 100000, InitialInfected: 10, R0: 2.5,
//		HospitalizationRate: 0.1, RecoveryRate: 0.1, FatalityRate: 0.01, BedCapacity: 1000}
//	out := epidemic.Simulate(p, epidemic.NewSource(42))
//
// Use [Trial] directly to observe each simulated [Day].
//
// # Thread Safety
//
// Params and Outcome are plain values and safe to share. A Source must be owned
// by exactly one goroutine; Simulate touches no other state.
package epidemic
