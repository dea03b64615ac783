package aggregate

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/RedHatInsights/carbon_ledger/internal/models/calculation"
	"github.com/stretchr/testify/assert"
)

func TestBucket(t *testing.T) {
	tests := map[string]string{
		"Fuel combustion":                 CategoryEnergy,
		"Mobile combustion vehicle fleet": CategoryEnergy,
		"Imported electricity and energy": CategoryEnergy,
		"Purchased ELECTRICITY":           CategoryElectricity,
		"Purchased heat and steam":        CategoryHeatSteam,
		"Refrigerant and fugitive gases":  CategoryFugitive,
		"Employee commuting":              CategoryTransport,
		"Freight transport":               CategoryTransport,
		"Owned vehicle travel":            CategoryTransport,
		"Waste disposal":                  CategoryWaste,
		"Water supply and treatment":      CategoryWater,
		"Purchased goods and services":    CategoryMaterials,
		"Industrial processes":            CategoryOther,
		"":                                CategoryOther,
	}
	for category, bucket := range tests {
		assert.Equal(t, bucket, Bucket(category), category)
	}
}

func rows() []calculation.Calculation {
	return []calculation.Calculation{
		{Step: "fuels", Category: "Fuel combustion", Scope: 1, GasType: "CO2", CO2e: 100},
		{Step: "fuels", Category: "Fuel combustion", Scope: 1, GasType: "ch4", CO2e: 28},
		{Step: "electricity", Category: "Purchased electricity", Scope: 2, GasType: "CO2", CO2e: 50.5},
		{Step: "business_travel", Category: "Business travel", Scope: 3, GasType: "", CO2e: 12.25},
		{Step: "afolu", Category: "Agriculture", Scope: 0, GasType: "N2O", CO2e: 265},
	}
}

func TestUpdateProjectSummary(t *testing.T) {
	totals := UpdateProjectSummary(rows())
	assert.Equal(t, 128.0, totals.Scope1)
	assert.Equal(t, 50.5, totals.Scope2)
	assert.Equal(t, 12.25, totals.Scope3)
	assert.Equal(t, 265.0, totals.Unscoped)
	assert.Equal(t, 455.75, totals.Total)
	assert.Equal(t, 5, totals.Count)
	assert.Equal(t, map[string]float64{
		CategoryEnergy:      128,
		CategoryElectricity: 50.5,
		CategoryTransport:   12.25,
		CategoryOther:       265,
	}, totals.Categories)
	assert.Equal(t, map[string]float64{"CO2": 150.5, "CH4": 28, "CO2E": 12.25, "N2O": 265}, totals.Gases)
	assert.Equal(t, 128.0, totals.Steps["fuels"])
}

func TestTotalsEqualSumOfRows(t *testing.T) {
	totals := UpdateProjectSummary(rows())
	var sum float64
	for _, r := range rows() {
		sum += r.CO2e
	}
	var categories, gases, steps float64
	for _, v := range totals.Categories {
		categories += v
	}
	for _, v := range totals.Gases {
		gases += v
	}
	for _, v := range totals.Steps {
		steps += v
	}
	assert.Equal(t, sum, totals.Total)
	assert.InDelta(t, sum, categories, 1e-9)
	assert.InDelta(t, sum, gases, 1e-9)
	assert.InDelta(t, sum, steps, 1e-9)
}

func TestUpdateProjectSummaryEmpty(t *testing.T) {
	totals := UpdateProjectSummary(nil)
	assert.Equal(t, 0.0, totals.Total)
	assert.Equal(t, 0, totals.Count)
	assert.NotNil(t, totals.Categories)
}

func TestRecalculateSummary(t *testing.T) {
	components := map[string]string{
		"cultivation": "eec", "land_use": "el", "processing": "ep", "transport": "etd",
		"use": "eu", "soil_carbon": "esca", "ccs": "eccs", "ccr": "eccr",
	}
	isccRows := []calculation.Calculation{
		{Step: "cultivation", Scope: 3, CO2e: 20},
		{Step: "cultivation", Scope: 3, CO2e: 5},
		{Step: "processing", Scope: 1, CO2e: 10},
		{Step: "transport", Scope: 3, CO2e: 2.5},
		{Step: "soil_carbon", Scope: 0, CO2e: 4},
		{Step: "ccs", Scope: 0, CO2e: 1.5},
		{Step: "notes", Scope: 0, CO2e: 3},
	}
	totals, result := RecalculateSummary(isccRows, components)
	assert.Equal(t, 25.0, result.Components["eec"])
	assert.Equal(t, 0.0, result.Components["el"])
	assert.Equal(t, 32.0, result.E)
	assert.InDelta(t, (94.0-32.0)/94.0*100, result.Savings, 1e-9)
	assert.Equal(t, FossilComparator, result.Comparator)
	assert.Equal(t, 46.0, totals.Total)
	assert.Equal(t, 8.5, totals.Unscoped)
}

func TestGWPAndCO2e(t *testing.T) {
	assert.Equal(t, 1.0, GWP("co2"))
	assert.Equal(t, 28.0, GWP("CH4"))
	assert.Equal(t, 265.0, GWP(" n2o "))
	assert.Equal(t, 23500.0, GWP("SF6"))
	assert.Equal(t, 16100.0, GWP("NF3"))
	assert.Equal(t, 1.0, GWP("HFC-134a"))
	assert.Equal(t, 1.0, GWP("R-410A"))
	assert.Equal(t, 1.0, GWP("PFC-14"))
	assert.Equal(t, 1.0, GWP("unobtainium"))

	assert.Equal(t, 2510.0, CO2e(1000, 2.51, 1))
	assert.True(t, math.Abs(CO2e(10, 1, GWP("CH4"))-280) < 1e-9)
}

func TestTotalsSummary(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s, err := UpdateProjectSummary(rows()).Summary(12, map[string]interface{}{"savings_percent": 60}, at)
	assert.Nil(t, err)
	assert.Equal(t, int64(12), s.ProjectID)
	assert.Equal(t, 455.75, s.Total)
	assert.Equal(t, 5, s.CalculationCount)
	assert.Equal(t, at, s.CalculatedAt)

	var categories map[string]float64
	assert.Nil(t, json.Unmarshal(s.CategoryTotals, &categories))
	assert.Equal(t, 128.0, categories[CategoryEnergy])
	assert.JSONEq(t, `{"savings_percent":60}`, string(s.Extra))

	s, err = UpdateProjectSummary(nil).Summary(12, nil, at)
	assert.Nil(t, err)
	assert.JSONEq(t, `{}`, string(s.Extra))
}
