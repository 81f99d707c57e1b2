package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odie-hq/odie/internal/schemas"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	schemaFiles := []string{
		"step_response.schema.json",
		"interview_output.schema.json",
	}

	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			schemaPath := filepath.Join(".", schemaFile)
			data, err := os.ReadFile(schemaPath)
			require.NoError(t, err, "should be able to read schema file")

			var v interface{}
			err = json.Unmarshal(data, &v)
			assert.NoError(t, err, "schema file should be valid JSON: %s", schemaFile)
		})
	}
}

func TestSchemaFiles_ValidJSONSchema(t *testing.T) {
	schemaFiles := []string{
		"step_response.schema.json",
		"interview_output.schema.json",
	}

	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(".", schemaFile))
			require.NoError(t, err)

			var schemaObj map[string]interface{}
			err = json.Unmarshal(data, &schemaObj)
			require.NoError(t, err)

			_, hasType := schemaObj["type"]
			_, hasSchema := schemaObj["$schema"]
			_, hasProps := schemaObj["properties"]

			assert.True(t, hasType && hasSchema && hasProps,
				"schema should declare type, $schema and properties")
		})
	}
}

func TestStepResponseSchema_Samples(t *testing.T) {
	schemaContent, err := os.ReadFile("step_response.schema.json")
	require.NoError(t, err)

	tests := []struct {
		name      string
		document  string
		wantError bool
	}{
		{
			name:     "reply only",
			document: `{"response": "What did you do at Initech?"}`,
		},
		{
			name: "full extraction",
			document: `{
				"response": "Great, tell me about a project there.",
				"extractedPosition": {"company": "Initech", "title": "Engineer", "startDate": "2020-01"},
				"extractedBullets": [{
					"text": "Led migration of the billing pipeline to Postgres, cutting costs 30%",
					"hardSkills": ["Postgres"],
					"metrics": {"value": "30%", "type": "percentage"}
				}],
				"shouldContinue": true
			}`,
		},
		{
			name:      "missing response",
			document:  `{"shouldContinue": false}`,
			wantError: true,
		},
		{
			name:      "empty response",
			document:  `{"response": ""}`,
			wantError: true,
		},
		{
			name:      "position without title",
			document:  `{"response": "ok", "extractedPosition": {"company": "Initech"}}`,
			wantError: true,
		},
		{
			name:      "bullet text too short",
			document:  `{"response": "ok", "extractedBullets": [{"text": "short"}]}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schemas.ValidateJSONString(string(schemaContent), tt.document)
			if tt.wantError {
				require.Error(t, err)
				validationErr, ok := err.(*schemas.ValidationError)
				require.True(t, ok, "error should be ValidationError, got %T: %v", err, err)
				assert.Greater(t, len(validationErr.Errors), 0)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInterviewOutputSchema_Samples(t *testing.T) {
	schemaContent, err := os.ReadFile("interview_output.schema.json")
	require.NoError(t, err)

	valid := `{
		"positions": [{
			"position": {"company": "Initech", "title": "Engineer"},
			"bullets": [{"text": "Automated the TPS report pipeline end to end"}]
		}],
		"isComplete": false,
		"nextQuestion": "What came before Initech?"
	}`
	assert.NoError(t, schemas.ValidateJSONString(string(schemaContent), valid))

	missingBullets := `{
		"positions": [{"position": {"company": "Initech", "title": "Engineer"}}],
		"isComplete": true
	}`
	err = schemas.ValidateJSONString(string(schemaContent), missingBullets)
	require.Error(t, err)
	validationErr, ok := err.(*schemas.ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}
