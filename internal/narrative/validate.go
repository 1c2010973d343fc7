package narrative

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const narrationSchema = `{
  "type": "object",
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "stance": {"type": "string", "enum": ["bullish", "bearish", "neutral"]}
  },
  "required": ["summary"],
  "additionalProperties": true
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("narration.json", strings.NewReader(narrationSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("narration.json")
	})
	return schema, schemaErr
}

// ValidateNarration 校验 LLM 返回的叙述对象。
func ValidateNarration(raw string) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
