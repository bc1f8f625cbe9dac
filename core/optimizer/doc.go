// Package optimizer builds the hourly dispatch plan of a household energy
// system as a single linear program.
//
// Devices register variable series in a shared Registry, signed
// contributions to the per-hour energy Balance and terms of the Cost
// objective. Supply counts positively in the balance, consumption and
// charging negatively; battery discharge and grid export are non-positive
// variables. Once every device is added, Solve hands the assembled problem to
// an lp.Solver and TimeSeries exposes the result as device -> role -> values.
package optimizer
