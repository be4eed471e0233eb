package evaluation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

const scorecardSchemaName = "scorecard.schema.json"

const scorecardSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["evaluations"],
  "properties": {
    "evaluations": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["parameter"],
        "properties": {
          "parameter": {"type": "string", "minLength": 1},
          "result": {"type": ["string", "number", "boolean"]},
          "score": {"type": ["string", "number"]},
          "evidence": {
            "anyOf": [
              {"type": "string"},
              {"type": "array", "items": {"type": "string"}}
            ]
          }
        }
      }
    },
    "Overall_score": {"type": ["string", "number"]},
    "Overall_grammar": {"type": "string"},
    "Overall_accent": {"type": "string"},
    "Overall_analysis": {"type": "string"}
  }
}`

var scorecardSchema = mustCompileSchema(scorecardSchemaJSON, scorecardSchemaName)

func mustCompileSchema(raw, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// schemaErrors flattens a validation failure into "/path: reason" lines.
func schemaErrors(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var out []string
	collect(ve, &out)
	return strings.Join(out, "; ")
}

func collect(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(printer)))
		return
	}
	for _, c := range ve.Causes {
		collect(c, out)
	}
}
