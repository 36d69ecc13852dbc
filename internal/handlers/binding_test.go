package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type companyPayload struct {
	Name    string `json:"name"`
	Contact string `json:"contact_email"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    companyPayload
		expectError bool
	}{
		{
			name:     "nested payload",
			key:      "company",
			body:     `{"company": {"name": "Acme Corp", "contact_email": "billing@acme.test"}}`,
			expected: companyPayload{Name: "Acme Corp", Contact: "billing@acme.test"},
		},
		{
			name:     "flat payload",
			key:      "company",
			body:     `{"name": "Globex", "contact_email": "ap@globex.test"}`,
			expected: companyPayload{Name: "Globex", Contact: "ap@globex.test"},
		},
		{
			name:     "missing key falls back to flat",
			key:      "company",
			body:     `{"other": "value", "name": "Initech"}`,
			expected: companyPayload{Name: "Initech"},
		},
		{
			name:        "nested key holds wrong type",
			key:         "company",
			body:        `{"company": "not an object"}`,
			expectError: true,
		},
		{
			name:        "invalid field type",
			key:         "company",
			body:        `{"name": 42}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result companyPayload
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
