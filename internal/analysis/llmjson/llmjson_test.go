package llmjson

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"plain", `{"name":"a","count":2}`},
		{"padded", "\n  {\"name\":\"a\",\"count\":2}  \n"},
		{"json fence", "```json\n{\"name\":\"a\",\"count\":2}\n```"},
		{"bare fence", "```\n{\"name\":\"a\",\"count\":2}\n```"},
		{"prose around fence", "Here is the analysis:\n\n```json\n{\"name\":\"a\",\"count\":2}\n```\nLet me know."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got payload
			require.NoError(t, Decode(tc.raw, &got))
			assert.Equal(t, payload{Name: "a", Count: 2}, got)
		})
	}
}

func TestDecodeFailure(t *testing.T) {
	raw := "```json\nI could not evaluate this interview.\n```"

	var got payload
	err := Decode(raw, &got)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, raw, perr.Raw)
	assert.Equal(t, "I could not evaluate this interview.", perr.Cleaned)
	assert.Contains(t, perr.Error(), "JSON Parsing Error")
}

func TestDecodeDoesNotCutObjectOutOfProse(t *testing.T) {
	raw := "Sure! {\"name\":\"a\",\"count\":2} Hope that helps."

	var got payload
	err := Decode(raw, &got)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, raw, perr.Raw)
	assert.Equal(t, raw, perr.Cleaned)
	assert.Equal(t, payload{}, got)
}

func TestClean(t *testing.T) {
	assert.Equal(t, `{"a":1}`, Clean("```JSON\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, Clean("```{\"a\":1}```"))
	assert.Equal(t, "text", Clean("  text "))
}

func TestFencedBlock(t *testing.T) {
	body, ok := FencedBlock("intro\n\n```go\nfmt.Println()\n```\n\n```json\n{}\n```")
	require.True(t, ok)
	assert.Equal(t, "fmt.Println()", body)

	_, ok = FencedBlock("no fences here")
	assert.False(t, ok)
}
