package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"

	"github.com/usestring/splunk-mcp/pkg/types"
)

var (
	schemaOnce     sync.Once
	optionsSchema  *invopop.Schema
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// OptionsSchema returns the JSON Schema of types.RawOptions.
func OptionsSchema() (*invopop.Schema, error) {
	schemaOnce.Do(buildSchema)
	return optionsSchema, schemaErr
}

// OptionsSchemaJSON returns OptionsSchema encoded as indented JSON.
func OptionsSchemaJSON() ([]byte, error) {
	s, err := OptionsSchema()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(s, "", "  ")
}

func buildSchema() {
	r := &invopop.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		ExpandedStruct:             true,
	}
	s := r.Reflect(&types.RawOptions{})
	s.ID = ""
	s.Title = "Splunk lookup options"

	setEnum(s, types.OptionAuthMode, types.AuthModes)
	setEnum(s, types.OptionSearchType, types.SearchModes)
	setMinimum(s, types.OptionMaxResults, 0)
	setMinimum(s, types.OptionMaxSummaryTags, 0)

	raw, err := json.Marshal(s)
	if err != nil {
		schemaErr = fmt.Errorf("marshaling options schema: %w", err)
		return
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		schemaErr = fmt.Errorf("unmarshaling options schema: %w", err)
		return
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("options.json", doc); err != nil {
		schemaErr = fmt.Errorf("adding schema resource: %w", err)
		return
	}
	compiled, err := compiler.Compile("options.json")
	if err != nil {
		schemaErr = fmt.Errorf("compiling schema: %w", err)
		return
	}

	optionsSchema = s
	compiledSchema = compiled
}

func setEnum[T ~string](s *invopop.Schema, prop string, values []T) {
	pair := s.Properties.GetPair(prop)
	if pair == nil {
		return
	}
	pair.Value.Enum = make([]any, len(values))
	for i, v := range values {
		pair.Value.Enum[i] = string(v)
	}
}

func setMinimum(s *invopop.Schema, prop string, minimum int) {
	if pair := s.Properties.GetPair(prop); pair != nil {
		pair.Value.Minimum = json.Number(fmt.Sprint(minimum))
	}
}

// CheckDocument validates a decoded options document (JSON or YAML) against
// the options schema. Each violation is reported on the option it concerns.
func CheckDocument(doc any) []types.ValidationError {
	if _, err := OptionsSchema(); err != nil {
		return []types.ValidationError{{Key: types.OptionURL, Message: err.Error()}}
	}

	err := compiledSchema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []types.ValidationError{{Key: types.OptionURL, Message: err.Error()}}
	}

	var out []types.ValidationError
	collectErrors(ve, &out)
	return out
}

// checkRaw validates RawOptions as they would be serialized.
func checkRaw(raw types.RawOptions) []types.ValidationError {
	b, err := json.Marshal(raw)
	if err != nil {
		return []types.ValidationError{{Key: types.OptionURL, Message: err.Error()}}
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return []types.ValidationError{{Key: types.OptionURL, Message: err.Error()}}
	}
	return CheckDocument(doc)
}

// collectErrors flattens leaf schema errors into option-keyed errors.
func collectErrors(err *jsonschema.ValidationError, out *[]types.ValidationError) {
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		if ap, ok := err.ErrorKind.(*kind.AdditionalProperties); ok && len(err.InstanceLocation) == 0 {
			for _, p := range ap.Properties {
				addError(out, p, printer.Sprintf("%s is not a known option", p))
			}
		} else {
			key := types.OptionURL
			if len(err.InstanceLocation) > 0 {
				key = err.InstanceLocation[0]
			}
			addError(out, key, err.ErrorKind.LocalizedString(printer))
		}
	}
	for _, cause := range err.Causes {
		collectErrors(cause, out)
	}
}

func addError(out *[]types.ValidationError, key, msg string) {
	e := types.ValidationError{Key: key, Message: msg}
	if !slices.Contains(*out, e) {
		*out = append(*out, e)
	}
}
