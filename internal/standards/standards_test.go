package standards

import (
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestEmbeddedStandards(t *testing.T) {
	all := All()
	ids := []string{}
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"carbon_calculation", "defra", "ghg_protocol", "ipcc", "iscc", "iso14064"}, ids)

	defra, ok := Get("defra")
	assert.True(t, ok)
	assert.Equal(t, SummaryScope, defra.Summary)
	assert.Equal(t, "fuels", defra.Steps[0].Name)

	step, ok := defra.Step("electricity")
	assert.True(t, ok)
	assert.Equal(t, 2, step.Scope)

	_, ok = defra.Step("spaceflight")
	assert.False(t, ok)
	_, ok = Get("gri")
	assert.False(t, ok)
}

func TestSharedFieldsExpand(t *testing.T) {
	ghg, _ := Get("ghg_protocol")
	step, _ := ghg.Step("waste")
	names := []string{}
	for _, f := range step.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"waste_type", "quantity", "notes"}, names)
	assert.Equal(t, TypeTextarea, step.Fields[2].Type)
}

func TestISCCComponents(t *testing.T) {
	iscc, ok := Get("iscc")
	assert.True(t, ok)
	assert.Equal(t, SummaryISCC, iscc.Summary)
	components := iscc.Components()
	assert.Equal(t, "eec", components["cultivation"])
	assert.Equal(t, "esca", components["soil_carbon"])
	assert.Len(t, components, 8)
}

func TestValidate(t *testing.T) {
	defra, _ := Get("defra")
	fuels, _ := defra.Step("fuels")

	data := map[string]interface{}{
		"fuel_type": "diesel",
		"quantity":  json.Number("1200.5"),
		"unit":      "litres",
		"untracked": "ignored",
	}
	assert.Nil(t, fuels.Validate(data))

	err := fuels.Validate(map[string]interface{}{
		"fuel_type": "plutonium",
		"quantity":  -3.0,
	})
	appErr := apperrors.As(err)
	assert.Equal(t, apperrors.BadRequestCode, appErr.Code)
	assert.Equal(t, []string{
		"fuel_type must be one of [natural_gas diesel petrol lpg gas_oil coal burning_oil]",
		"quantity must be >= 0",
		"unit is required",
	}, appErr.Details)
}

func TestValidateTypes(t *testing.T) {
	min := 1.0
	max := 3.0
	step := Step{Name: "s", Fields: []Field{
		{Name: "count", Type: TypeInteger, Min: &min, Max: &max},
		{Name: "code", Type: TypeText, Min: &min, Max: &max},
		{Name: "modes", Type: TypeMultiselect, Choices: []string{"car", "bus"}},
		{Name: "amount", Type: TypeFloat},
	}}
	assert.Nil(t, step.Validate(map[string]interface{}{
		"count":  2,
		"code":   "GB",
		"modes":  []interface{}{"car", "bus"},
		"amount": json.Number("1e3"),
	}))

	err := step.Validate(map[string]interface{}{
		"count":  2.5,
		"code":   "GBRX",
		"modes":  []string{"car", "rocket"},
		"amount": "lots",
	})
	assert.Equal(t, []string{
		"count must be a whole number",
		"code must be at most 3 characters",
		"modes values must be in [car bus]",
		"amount must be a number",
	}, apperrors.As(err).Details)

	err = step.Validate(map[string]interface{}{"count": 7, "code": 12, "modes": "car"})
	assert.Equal(t, []string{
		"count must be <= 3",
		"code must be a string",
		"modes must be a list",
	}, apperrors.As(err).Details)
}

func TestFormSchema(t *testing.T) {
	ghg, _ := Get("ghg_protocol")
	commuting, _ := ghg.Step("employee_commuting")
	spec := commuting.FormSchema()
	assert.Equal(t, "default", spec.SchemaType)
	assert.Equal(t, "Employee commuting", spec.Schema.Title)

	employees := spec.Schema.Fields[0]
	assert.Equal(t, "text-field", employees.Component)
	assert.Equal(t, "number", employees.Type)
	assert.Equal(t, "integer", employees.DataType)
	assert.True(t, employees.IsRequired)
	assert.Equal(t, []map[string]interface{}{
		{"type": "required-validator"},
		{"type": "min-number-value", "value": 1.0},
	}, employees.Validate)

	modes := spec.Schema.Fields[3]
	assert.Equal(t, "select-field", modes.Component)
	assert.True(t, modes.IsMulti)
	assert.Len(t, modes.Options, 5)
	assert.Equal(t, map[string]interface{}{"label": "car", "value": "car"}, modes.Options[0])

	days := spec.Schema.Fields[2]
	assert.Equal(t, 220, days.InitialValue)
}

func TestFormSchemaText(t *testing.T) {
	cc, _ := Get("carbon_calculation")
	electricity, _ := cc.Step("electricity")
	country := electricity.FormSchema().Schema.Fields[1]
	assert.Equal(t, "text-field", country.Component)
	assert.Equal(t, []map[string]interface{}{
		{"type": "required-validator"},
		{"type": "min-length-validator", "threshold": 2.0},
		{"type": "max-length-validator", "threshold": 2.0},
	}, country.Validate)

	forms := cc.Forms()
	assert.Len(t, forms, 4)
	assert.Equal(t, "fuel_use", forms[0].Step)
	assert.Equal(t, 1, forms[0].Scope)
}

func TestLoadFromFSErrors(t *testing.T) {
	_, err := LoadFromFS(fstest.MapFS{})
	assert.NotNil(t, err)

	bad := fstest.MapFS{"tables/bad.yaml": {Data: []byte("id: x\nsummary: scope\nsteps:\n  - name: a\n    fields:\n      - name: f\n        type: colour\n")}}
	_, err = LoadFromFS(bad)
	assert.Contains(t, err.Error(), "unknown type")

	noComponent := fstest.MapFS{"tables/iscc.yaml": {Data: []byte("id: y\nsummary: iscc\nsteps:\n  - name: a\n")}}
	_, err = LoadFromFS(noComponent)
	assert.Contains(t, err.Error(), "no formula component")

	dup := fstest.MapFS{
		"tables/a.yaml": {Data: []byte("id: z\nsummary: scope\nsteps:\n  - name: a\n")},
		"tables/b.yaml": {Data: []byte("id: z\nsummary: scope\nsteps:\n  - name: b\n")},
	}
	_, err = LoadFromFS(dup)
	assert.Contains(t, err.Error(), "duplicate standard")
}
