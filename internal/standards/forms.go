package standards

// DDFField is a data-driven-forms field definition
type DDFField struct {
	Name         string                   `json:"name"`
	Label        string                   `json:"label"`
	Component    string                   `json:"component"`
	HelperText   string                   `json:"helperText,omitempty"`
	InitialValue interface{}              `json:"initialValue,omitempty"`
	IsRequired   bool                     `json:"isRequired"`
	Validate     []map[string]interface{} `json:"validate,omitempty"`
	DataType     string                   `json:"dataType,omitempty"`
	Options      []map[string]interface{} `json:"options,omitempty"`
	Type         string                   `json:"type,omitempty"`
	IsMulti      bool                     `json:"isMulti,omitempty"`
}

type DDFSchema struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Fields      []DDFField `json:"fields"`
}

type DDFSpec struct {
	Schema     DDFSchema `json:"schema"`
	SchemaType string    `json:"schemaType"`
}

// StepForm is the rendered form of one step
type StepForm struct {
	Step  string  `json:"step"`
	Title string  `json:"title"`
	Scope int     `json:"scope"`
	Form  DDFSpec `json:"form"`
}

// Forms returns the form schemas of all steps in order
func (s *Standard) Forms() []StepForm {
	forms := make([]StepForm, 0, len(s.Steps))
	for i := range s.Steps {
		st := &s.Steps[i]
		forms = append(forms, StepForm{Step: st.Name, Title: st.Title, Scope: st.Scope, Form: st.FormSchema()})
	}
	return forms
}

// FormSchema converts the field table of the step into a data-driven-forms schema
func (st *Step) FormSchema() DDFSpec {
	ddfSchema := DDFSchema{Title: st.Title, Description: st.Category, Fields: []DDFField{}}
	for i := range st.Fields {
		ddfSchema.Fields = append(ddfSchema.Fields, getDDFField(&st.Fields[i]))
	}
	return DDFSpec{Schema: ddfSchema, SchemaType: "default"}
}

func getDDFField(field *Field) DDFField {
	ddff := DDFField{Label: field.Label,
		Name:         field.Name,
		InitialValue: field.Default,
		HelperText:   field.Description,
		IsRequired:   field.Required}
	ddff.Validate = getValidateArray(field)
	ddff.Options = getOptions(field)
	switch field.Type {
	case TypeSelect:
		ddff.Component = "select-field"
	case TypeMultiselect:
		ddff.Component = "select-field"
		ddff.IsMulti = true
	case TypeText:
		ddff.Component = "text-field"
	case TypeTextarea:
		ddff.Component = "textarea-field"
	case TypeInteger:
		ddff.Component = "text-field"
		ddff.Type = "number"
		ddff.DataType = "integer"
	case TypeFloat:
		ddff.Component = "text-field"
		ddff.Type = "number"
		ddff.DataType = "float"
	}
	return ddff
}

func getValidateArray(field *Field) []map[string]interface{} {
	var result []map[string]interface{}
	if field.Required {
		result = append(result, map[string]interface{}{"type": "required-validator"})
	}

	numeric := field.Type == TypeInteger || field.Type == TypeFloat
	textual := field.Type == TypeText || field.Type == TypeTextarea
	if field.Min != nil {
		if textual {
			result = append(result, map[string]interface{}{"type": "min-length-validator", "threshold": *field.Min})
		} else if numeric {
			result = append(result, map[string]interface{}{"type": "min-number-value", "value": *field.Min})
		}
	}
	if field.Max != nil {
		if textual {
			result = append(result, map[string]interface{}{"type": "max-length-validator", "threshold": *field.Max})
		} else if numeric {
			result = append(result, map[string]interface{}{"type": "max-number-value", "value": *field.Max})
		}
	}
	return result
}

func getOptions(field *Field) []map[string]interface{} {
	if len(field.Choices) == 0 {
		return nil
	}
	var result []map[string]interface{}
	for _, v := range field.Choices {
		result = append(result, map[string]interface{}{"label": v, "value": v})
	}
	return result
}
