// Package lambda converts a pump cell current reading into a lambda
// (air/fuel ratio relative to stoichiometric) value using a
// sensor-type-specific table, the role the original firmware's
// GetLambda/lambda_conversion.h played upstream of every CAN encoder.
package lambda

import "wbo-ecu-core/internal/wbostatus"

// point is one (pump current mA, lambda) sample of a sensor's
// published current-to-lambda curve.
type point struct {
	currentMA float32
	lambda    float32
}

// lsu49Table is the Bosch LSU4.9 current-to-lambda curve, the
// published reference curve used by most open wideband controllers.
var lsu49Table = []point{
	{-2.0, 0.68},
	{-1.85, 0.70},
	{-1.30, 0.80},
	{-0.76, 0.90},
	{-0.36, 0.97},
	{0.00, 1.00},
	{0.34, 1.05},
	{0.80, 1.10},
	{1.50, 1.20},
	{2.40, 1.40},
	{3.60, 1.70},
	{4.90, 2.00},
	{7.30, 3.00},
	{9.20, 4.00},
}

// lsu42Table is the LSU4.2's narrower current range; same shape as
// LSU4.9, scaled down.
var lsu42Table = []point{
	{-1.70, 0.68},
	{-1.57, 0.70},
	{-1.10, 0.80},
	{-0.65, 0.90},
	{-0.31, 0.97},
	{0.00, 1.00},
	{0.29, 1.05},
	{0.68, 1.10},
	{1.28, 1.20},
	{2.04, 1.40},
	{3.06, 1.70},
	{4.17, 2.00},
	{6.21, 3.00},
	{7.82, 4.00},
}

// lsuAdvTable is the wider-range LSU-ADV curve.
var lsuAdvTable = []point{
	{-2.30, 0.68},
	{-2.13, 0.70},
	{-1.50, 0.80},
	{-0.87, 0.90},
	{-0.41, 0.97},
	{0.00, 1.00},
	{0.39, 1.05},
	{0.92, 1.10},
	{1.73, 1.20},
	{2.76, 1.40},
	{4.14, 1.70},
	{5.64, 2.00},
	{8.40, 3.00},
	{10.58, 4.00},
}

func tableFor(sensor wbostatus.SensorType) []point {
	switch sensor {
	case wbostatus.LSU42:
		return lsu42Table
	case wbostatus.LSUADV:
		return lsuAdvTable
	default:
		return lsu49Table
	}
}

// FromPumpCurrent interpolates pumpCurrentMA against sensor's table,
// clamping to the table's endpoints outside its range.
func FromPumpCurrent(sensor wbostatus.SensorType, pumpCurrentMA float32) float32 {
	table := tableFor(sensor)

	if pumpCurrentMA <= table[0].currentMA {
		return table[0].lambda
	}
	last := len(table) - 1
	if pumpCurrentMA >= table[last].currentMA {
		return table[last].lambda
	}

	for i := 0; i < last; i++ {
		a, b := table[i], table[i+1]
		if pumpCurrentMA >= a.currentMA && pumpCurrentMA <= b.currentMA {
			frac := (pumpCurrentMA - a.currentMA) / (b.currentMA - a.currentMA)
			return a.lambda + frac*(b.lambda-a.lambda)
		}
	}
	return table[last].lambda
}
