package pathutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledgebase/internal/domain/entity"
)

func TestID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{name: "valid", value: "0b5c3c1e-8f5a-4c55-9d0c-2f1f3f0c9a11", want: "0b5c3c1e-8f5a-4c55-9d0c-2f1f3f0c9a11"},
		{name: "upper case is canonicalized", value: "0B5C3C1E-8F5A-4C55-9D0C-2F1F3F0C9A11", want: "0b5c3c1e-8f5a-4c55-9d0c-2f1f3f0c9a11"},
		{name: "integer", value: "123", wantErr: true},
		{name: "no dashes", value: "0b5c3c1e8f5a4c559d0c2f1f3f0c9a11", wantErr: true},
		{name: "urn form", value: "urn:uuid:0b5c3c1e-8f5a-4c55-9d0c-2f1f3f0c9a11", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/articles/x", nil)
			r.SetPathValue("id", tt.value)

			got, err := ID(r, "id")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, entity.KindValidation, entity.KindOf(err))
				assert.Equal(t, "id", entity.FieldErrors(err)[0].Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
