package casecmd_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/justibot/justibot/cmd/cli/casecmd"
	"github.com/justibot/justibot/internal/ai"
	"github.com/justibot/justibot/internal/models"
	"github.com/justibot/justibot/internal/testhelpers"
	"github.com/justibot/justibot/internal/workflow"
	"github.com/stretchr/testify/require"
)

// scriptedCases fails the first createFailures generations.
type scriptedCases struct {
	createFailures int
	descriptions   []string
	identity       models.CitizenIdentity
}

func (s *scriptedCases) CreateCase(_ context.Context, category models.Category, description string) (*models.Case, error) {
	s.descriptions = append(s.descriptions, description)
	if s.createFailures > 0 {
		s.createFailures--
		return nil, ai.ErrGenerationFailed
	}
	return &models.Case{
		ID:            int64(len(s.descriptions)),
		Category:      category,
		Description:   description,
		GeneratedText: "Señor Juez ...",
		Status:        models.StatusDrafted,
	}, nil
}

func (s *scriptedCases) FinalizeCase(_ context.Context, id int64, identity models.CitizenIdentity) (*models.Case, error) {
	s.identity = identity
	return &models.Case{
		ID:                id,
		Category:          models.CategoryHealthAccess,
		Identity:          &identity,
		DocumentReference: "case_1.pdf",
		Status:            models.StatusFinalized,
	}, nil
}

func runFiling(t *testing.T, cases *scriptedCases, input ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	controller := workflow.NewController(cases, 0, testhelpers.NewLogger(io.Discard))
	filing := casecmd.NewFiling(strings.NewReader(strings.Join(input, "\n")+"\n"), &out, controller)
	err := filing.Run(context.Background())
	return out.String(), err
}

func TestFiling_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		cases            *scriptedCases
		input            []string
		wantErr          error
		wantDescriptions []string
		wantOutput       []string
	}{
		{
			name:  "happy path",
			cases: &scriptedCases{},
			input: []string{
				"1",
				"EPS denied Losartan for 3 months",
				"a",
				"Juan Pérez", "1234567890", "Bogotá", "",
			},
			wantErr:          nil,
			wantDescriptions: []string{"EPS denied Losartan for 3 months"},
			wantOutput:       []string{"Acción de Tutela", "Señor Juez ...", "case_1.pdf"},
		},
		{
			name:  "invalid answers are asked again",
			cases: &scriptedCases{},
			input: []string{
				"7",
				"health-access",
				"short",
				"EPS denied Losartan for 3 months",
				"maybe",
				"a",
				"Juan Pérez", "", "", "",
				"Juan Pérez", "1234567890", "Bogotá", "",
			},
			wantErr:          nil,
			wantDescriptions: []string{"EPS denied Losartan for 3 months"},
			wantOutput:       []string{"choose one of the listed numbers", "description must be at least 10 characters", "national_id is required"},
		},
		{
			name:  "failed generation keeps the description",
			cases: &scriptedCases{createFailures: 1},
			input: []string{
				"2",
				"Fotomulta injusta en la Calle 80",
				"",
				"r",
				"Fotomulta injusta en la Calle 80, no conducía",
				"a",
				"Juan Pérez", "1234567890", "Bogotá", "juan@example.com",
			},
			wantErr: nil,
			wantDescriptions: []string{
				"Fotomulta injusta en la Calle 80",
				"Fotomulta injusta en la Calle 80",
				"Fotomulta injusta en la Calle 80, no conducía",
			},
			wantOutput: []string{"could not be generated", "leave empty to keep"},
		},
		{
			name:             "quit at preview",
			cases:            &scriptedCases{},
			input:            []string{"1", "EPS denied Losartan for 3 months", "q"},
			wantErr:          casecmd.ErrAborted,
			wantDescriptions: []string{"EPS denied Losartan for 3 months"},
			wantOutput:       nil,
		},
		{
			name:             "input closed",
			cases:            &scriptedCases{},
			input:            []string{"1"},
			wantErr:          casecmd.ErrAborted,
			wantDescriptions: nil,
			wantOutput:       nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := runFiling(t, tt.cases, tt.input...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantDescriptions, tt.cases.descriptions)
			for _, want := range tt.wantOutput {
				require.Contains(t, out, want)
			}
		})
	}
}
