package models_test

import (
	"strings"
	"testing"

	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/models"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		description string
		want        string
		wantErr     bool
	}{
		{name: "too short", description: "short", wantErr: true},
		{name: "padding does not count", description: "   nine char   ", wantErr: true},
		{name: "exactly ten", description: "ten chars!", want: "ten chars!"},
		{name: "counts runes not bytes", description: "ññññññññññ", want: "ññññññññññ"},
		{name: "trimmed", description: "  EPS denied Losartan for 3 months \n", want: "EPS denied Losartan for 3 months"},
		{name: "too long", description: strings.Repeat("a", models.MaxDescriptionLength+1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := models.NormalizeDescription(tt.description)
			if tt.wantErr {
				require.ErrorIs(t, err, models.ErrValidation)
				var validationErr *models.ValidationError
				require.True(t, errors.As(err, &validationErr))
				require.Equal(t, "description", validationErr.Problems[0].Field)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCitizenIdentity_Normalize(t *testing.T) {
	t.Parallel()

	valid := models.CitizenIdentity{Name: " Juan Pérez ", NationalID: "1234567890", City: "Bogotá"}
	got, err := valid.Normalize()
	require.NoError(t, err)
	require.Equal(t, "Juan Pérez", got.Name)

	_, err = models.CitizenIdentity{Name: "  ", Email: "not-an-email"}.Normalize()
	require.ErrorIs(t, err, models.ErrValidation)
	var validationErr *models.ValidationError
	require.True(t, errors.As(err, &validationErr))
	fields := make([]string, 0, len(validationErr.Problems))
	for _, p := range validationErr.Problems {
		fields = append(fields, p.Field)
	}
	require.Equal(t, []string{"citizen_name", "national_id", "city", "email"}, fields)

	withEmail := valid
	withEmail.Email = "juan@example.com"
	got, err = withEmail.Normalize()
	require.NoError(t, err)
	require.Equal(t, "juan@example.com", got.Email)
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	c, err := models.ParseCategory("traffic-fine")
	require.NoError(t, err)
	require.Equal(t, models.CategoryTrafficFine, c)
	require.Equal(t, "Derecho de Petición", c.DocumentTitle())
	require.Equal(t, "Acción de Tutela", models.CategoryHealthAccess.DocumentTitle())

	_, err = models.ParseCategory("parking")
	require.ErrorIs(t, err, models.ErrValidation)
}
