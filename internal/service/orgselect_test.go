package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecords/foiad/internal/model"
)

func TestSelectOrganization(t *testing.T) {
	acme := model.Organization{ID: 1, Name: "Acme Org"}
	beacon := model.Organization{ID: 2, Name: "Beacon Press"}
	acmeLabs := model.Organization{ID: 3, Name: "Acme Labs"}

	tests := []struct {
		name        string
		orgs        []model.Organization
		hint        string
		wantOutcome SelectionOutcome
		wantOrg     *model.Organization
		wantCands   []model.Organization
	}{
		{
			name:        "single org auto-selected without hint",
			orgs:        []model.Organization{acme},
			wantOutcome: SelectionSelected,
			wantOrg:     &acme,
		},
		{
			name:        "single org auto-selected even with non-matching hint",
			orgs:        []model.Organization{acme},
			hint:        "beacon",
			wantOutcome: SelectionSelected,
			wantOrg:     &acme,
		},
		{
			name:        "hint narrows two orgs to one",
			orgs:        []model.Organization{acme, beacon},
			hint:        "acme",
			wantOutcome: SelectionSelected,
			wantOrg:     &acme,
		},
		{
			name:        "hint matching multiple is ambiguous",
			orgs:        []model.Organization{acme, beacon, acmeLabs},
			hint:        "ACME",
			wantOutcome: SelectionAmbiguous,
			wantCands:   []model.Organization{acme, acmeLabs},
		},
		{
			name:        "multiple orgs without hint need a choice",
			orgs:        []model.Organization{acme, beacon},
			wantOutcome: SelectionNeedsChoice,
			wantCands:   []model.Organization{acme, beacon},
		},
		{
			name:        "hint matching nothing lists all orgs",
			orgs:        []model.Organization{acme, beacon},
			hint:        "zenith",
			wantOutcome: SelectionNeedsChoice,
			wantCands:   []model.Organization{acme, beacon},
		},
		{
			name:        "zero orgs file as individual",
			orgs:        nil,
			wantOutcome: SelectionIndividual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SelectOrganization(tt.orgs, tt.hint)
			assert.Equal(t, tt.wantOutcome, result.Outcome)

			if tt.wantOrg != nil {
				require.NotNil(t, result.Organization)
				assert.Equal(t, tt.wantOrg.ID, result.Organization.ID)
			} else {
				assert.Nil(t, result.Organization)
			}
			assert.Equal(t, tt.wantCands, result.Candidates)
		})
	}
}
