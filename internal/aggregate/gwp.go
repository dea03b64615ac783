package aggregate

import (
	"math"
	"strings"
)

// Gas names
const (
	GasCO2  = "CO2"
	GasCH4  = "CH4"
	GasN2O  = "N2O"
	GasSF6  = "SF6"
	GasNF3  = "NF3"
	GasHFC  = "HFC"
	GasPFC  = "PFC"
	GasCO2e = "CO2E"
)

// IPCC AR5 100 year global warming potentials. HFC and PFC factors are
// published per blend in CO2e already.
var gwp = map[string]float64{
	GasCO2:  1,
	GasCH4:  28,
	GasN2O:  265,
	GasSF6:  23500,
	GasNF3:  16100,
	GasHFC:  1,
	GasPFC:  1,
	GasCO2e: 1,
}

// GWP returns the global warming potential of a gas, unknown gases count as CO2e
func GWP(gas string) float64 {
	name := strings.ToUpper(strings.TrimSpace(gas))
	if v, ok := gwp[name]; ok {
		return v
	}
	if strings.HasPrefix(name, "HFC") || strings.HasPrefix(name, "R-") {
		return gwp[GasHFC]
	}
	if strings.HasPrefix(name, "PFC") {
		return gwp[GasPFC]
	}
	return 1
}

// CO2e converts an activity value into kg CO2e
func CO2e(value, factor, gwp float64) float64 {
	return value * factor * gwp
}

// Finite reports whether every value is a real number
func Finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
