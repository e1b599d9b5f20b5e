package nba

import "testing"

func TestTeamSeedsHaveNoEmptyAliases(t *testing.T) {
	for _, team := range TeamSeeds() {
		t.Run(team.NormalizedName, func(t *testing.T) {
			if team.NormalizedName == "" {
				t.Fatal("normalized name must not be empty")
			}
			if len(team.Aliases) == 0 {
				t.Fatalf("team %q has no aliases", team.NormalizedName)
			}
			for _, alias := range team.Aliases {
				if alias == "" {
					t.Errorf("team %q has an empty alias", team.NormalizedName)
				}
			}
		})
	}
}

func TestTeamSeedsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, team := range TeamSeeds() {
		if seen[team.NormalizedName] {
			t.Errorf("duplicate team normalized name %q", team.NormalizedName)
		}
		seen[team.NormalizedName] = true
	}
}
