package matching

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/mo"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed preferences.schema.json
var preferencesSchema string

var loadPreferencesSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(preferencesSchema))
})

// Preferences are the optional matching preferences of a user.
// Remote and SalaryMin are tagged options: absent is different from false or zero.
type Preferences struct {
	Location  string
	JobType   string
	Remote    mo.Option[bool]
	SalaryMin mo.Option[json.Number]
}

// IsEmpty reports whether no preference is set.
func (p Preferences) IsEmpty() bool {
	return p.Location == "" && p.JobType == "" && p.Remote.IsAbsent() && p.SalaryMin.IsAbsent()
}

type preferencesDocument struct {
	Location  *string      `json:"location"`
	JobType   *string      `json:"job_type"`
	Remote    *bool        `json:"remote"`
	SalaryMin *json.Number `json:"salary_min"`
}

// ParsePreferences decodes a stored preferences document.
// Nil, empty and null documents yield empty preferences. A document stored as a JSON
// string holding serialized JSON is unwrapped once. Any other failure wraps ErrPreferencesParse.
func ParsePreferences(raw []byte) (Preferences, error) {
	doc := bytes.TrimSpace(raw)
	if isNullDocument(doc) {
		return Preferences{}, nil
	}

	if doc[0] == '"' {
		var text string
		if err := json.Unmarshal(doc, &text); err != nil {
			return Preferences{}, fmt.Errorf("%w: %v", ErrPreferencesParse, err)
		}
		doc = bytes.TrimSpace([]byte(text))
		if isNullDocument(doc) {
			return Preferences{}, nil
		}
	}

	if err := validatePreferences(doc); err != nil {
		return Preferences{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var parsed preferencesDocument
	if err := dec.Decode(&parsed); err != nil {
		return Preferences{}, fmt.Errorf("%w: %v", ErrPreferencesParse, err)
	}

	prefs := Preferences{}
	if parsed.Location != nil {
		prefs.Location = *parsed.Location
	}
	if parsed.JobType != nil {
		prefs.JobType = *parsed.JobType
	}
	if parsed.Remote != nil {
		prefs.Remote = mo.Some(*parsed.Remote)
	}
	if parsed.SalaryMin != nil {
		prefs.SalaryMin = mo.Some(*parsed.SalaryMin)
	}

	return prefs, nil
}

func isNullDocument(doc []byte) bool {
	return len(doc) == 0 || bytes.Equal(doc, []byte("null"))
}

func validatePreferences(doc []byte) error {
	schema, err := loadPreferencesSchema()
	if err != nil {
		return fmt.Errorf("load preferences schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPreferencesParse, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		problems = append(problems, field+": "+desc.Description())
	}

	return fmt.Errorf("%w: %s", ErrPreferencesParse, strings.Join(problems, "; "))
}
