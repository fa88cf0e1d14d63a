package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.keploy.io/comparator/pkg/models"
)

func TestToDifferences(t *testing.T) {
	diffs := ToDifferences([]Violation{
		{Severity: SeverityWarning, Line: 2, Column: 5, Message: "w"},
		{Severity: SeverityError, Line: 3, Message: "e"},
		{Severity: SeverityFatal, Message: "f"},
	}, Actual)
	require.Len(t, diffs, 3)

	assert.Equal(t, models.OutcomeSimilar, diffs[0].Outcome)
	assert.Equal(t, "2:5-5", diffs[0].ActualCoord)
	assert.Empty(t, diffs[0].ExpectedCoord)
	assert.Equal(t, models.OutcomeModified, diffs[1].Outcome)
	assert.Equal(t, "3", diffs[1].ActualCoord)
	assert.Equal(t, models.OutcomeError, diffs[2].Outcome)
	assert.Equal(t, "1", diffs[2].ActualCoord)
	assert.Equal(t, 3, diffs[2].OrderID)
}

func TestValidateFuncAdapter(t *testing.T) {
	var v Validator = ValidateFunc(func(schema, doc string) ([]Violation, error) {
		return []Violation{{Severity: SeverityError, Line: 1, Message: schema + doc}}, nil
	})
	got, err := v.Validate("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "ab", got[0].Message)
}

const orderSchema = `
- path: /order
  required: true
  closed: true
- path: /order/@id
  required: true
  pattern: '\d+'
- path: /order/item
  minOccurs: 1
  maxOccurs: 2
- path: /order/note
  maxLength: 5
  severity: warning
`

func TestSimpleXML(t *testing.T) {
	doc := "<order id=\"A1\">\n  <item/>\n  <item/>\n  <item/>\n  <note>too long</note>\n  <extra/>\n</order>"
	vs, err := SimpleXML{}.Validate(orderSchema, doc)
	require.NoError(t, err)

	var msgs []string
	for _, v := range vs {
		msgs = append(msgs, v.Message)
	}
	require.Len(t, vs, 4, "%v", msgs)

	assert.Contains(t, vs[0].Message, "/order/@id")
	assert.Equal(t, 1, vs[0].Line)
	assert.Equal(t, 1, vs[0].Column)

	assert.Equal(t, SeverityWarning, vs[1].Severity)
	assert.Equal(t, 5, vs[1].Line)
	assert.Equal(t, 3, vs[1].Column)

	assert.Contains(t, vs[2].Message, "/order/extra is not allowed")
	assert.Equal(t, 6, vs[2].Line)

	assert.Contains(t, vs[3].Message, "at most 2")
}

func TestSimpleXMLValidDocument(t *testing.T) {
	vs, err := SimpleXML{}.Validate(orderSchema, `<order id="7"><item/></order>`)
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestSimpleXMLMalformedIsFatal(t *testing.T) {
	vs, err := SimpleXML{}.Validate(orderSchema, "<order id=\"1\">\n<item>\n</order>")
	require.NoError(t, err)
	require.NotEmpty(t, vs)
	last := vs[len(vs)-1]
	assert.Equal(t, SeverityFatal, last.Severity)
	assert.Equal(t, 3, last.Line)
}

func TestSimpleXMLBadSchema(t *testing.T) {
	_, err := SimpleXML{}.Validate("- path: /a\n  pattern: '('", "<a/>")
	assert.True(t, models.IsErrorType(err, models.ErrSchema))
	_, err = SimpleXML{}.Validate("- path: /a\n  severity: loud", "<a/>")
	assert.True(t, models.IsErrorType(err, models.ErrSchema))
}

func TestValidateJSON(t *testing.T) {
	schema := []byte(`{
		"type": "object",
		"required": ["id", "name"],
		"additionalProperties": false,
		"properties": {
			"id": {"type": "string", "pattern": "^[0-9]+$"},
			"name": {"type": "string"},
			"age": {"type": "integer", "minimum": 0}
		}
	}`)
	doc := []byte(`{"id":"x1","age":-1,"nick":"n"}`)

	vs, err := ValidateJSON(schema, doc)
	require.NoError(t, err)
	fields := map[string]string{}
	for _, v := range vs {
		fields[v.Field] = v.Pointer
	}
	assert.Equal(t, "/id", fields["pattern"])
	assert.Equal(t, "/age", fields["minimum"])
	assert.Equal(t, "/name", fields["required"])
	assert.Equal(t, "/nick", fields["additionalProperties"])

	_, err = ValidateJSON([]byte(`{"type": 5}`), doc)
	assert.True(t, models.IsErrorType(err, models.ErrSchema))
	_, err = ValidateJSON(schema, []byte(`{`))
	assert.True(t, models.IsErrorType(err, models.ErrParse))
}
