package schema

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"go.keploy.io/comparator/pkg/models"
)

// JSONViolation is one JSON schema failure. Field is the schema keyword that
// failed (required, pattern, additionalProperties, ...).
type JSONViolation struct {
	Pointer string
	Field   string
	Message string
}

// ValidateJSON checks document against a JSON schema. A schema that does not
// parse is a SchemaError, a document that does not parse a ParseError.
func ValidateJSON(schema, document []byte) ([]JSONViolation, error) {
	var s openapi3.Schema
	if err := json.Unmarshal(schema, &s); err != nil {
		return nil, models.NewSchemaError("invalid json schema: %v", err)
	}
	var doc interface{}
	if err := json.Unmarshal(document, &doc); err != nil {
		return nil, models.NewParseError("invalid json: %v", err)
	}
	err := s.VisitJSON(doc, openapi3.MultiErrors())
	if err == nil {
		return nil, nil
	}
	var out []JSONViolation
	collect(err, &out)
	return out, nil
}

func collect(err error, out *[]JSONViolation) {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi {
			collect(e, out)
		}
		return
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		v := JSONViolation{
			Pointer: pointer(se.JSONPointer()),
			Field:   se.SchemaField,
			Message: se.Reason,
		}
		// unknown properties are reported against the object; point at the
		// property instead
		if se.SchemaField == "properties" && strings.HasSuffix(se.Reason, "is unsupported") {
			v.Field = "additionalProperties"
			if name, ok := quoted(se.Reason); ok {
				v.Pointer += pointer([]string{name})
			}
		}
		*out = append(*out, v)
		return
	}
	*out = append(*out, JSONViolation{Pointer: "", Field: "", Message: err.Error()})
}

func quoted(s string) (string, bool) {
	i, j := strings.Index(s, `"`), strings.LastIndex(s, `"`)
	if i < 0 || j <= i {
		return "", false
	}
	name, err := strconv.Unquote(s[i : j+1])
	return name, err == nil
}

func pointer(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	r := strings.NewReplacer("~", "~0", "/", "~1")
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteByte('/')
		sb.WriteString(r.Replace(t))
	}
	return sb.String()
}
