// Package nba supplies the NBA reference-data seed: the league name, its
// teams, and their known alias spellings. Adapted from the teacher's
// sports/basketball_nba package, which held a single static
// raw-name-to-canonical-name map for an in-process normalizer; here the same
// knowledge is reshaped into alias-table seed rows consumed once at startup
// by the persistence façade's idempotent reference-data seeding, instead of
// being consulted directly at request time.
package nba

// TeamSeed is one team and the raw spellings that should resolve to it.
type TeamSeed struct {
	NormalizedName string
	Aliases        []string
}

// LeagueName is the seeded league's canonical name.
const LeagueName = "NBA"

// TeamSeeds lists every NBA team seeded at startup along with the alias
// spellings a provider is likely to send. Grounded on the teacher's
// NormalizeTeamName static map (LA Lakers, Warriors, Sixers, etc.).
func TeamSeeds() []TeamSeed {
	return []TeamSeed{
		{NormalizedName: "los angeles lakers", Aliases: []string{"lakers", "la lakers", "los angeles lakers"}},
		{NormalizedName: "golden state warriors", Aliases: []string{"warriors", "golden state warriors", "gs warriors"}},
		{NormalizedName: "boston celtics", Aliases: []string{"celtics", "boston celtics"}},
		{NormalizedName: "miami heat", Aliases: []string{"heat", "miami heat"}},
		{NormalizedName: "philadelphia 76ers", Aliases: []string{"76ers", "sixers", "philadelphia 76ers"}},
		{NormalizedName: "new york knicks", Aliases: []string{"knicks", "ny knicks", "new york knicks"}},
		{NormalizedName: "brooklyn nets", Aliases: []string{"nets", "brooklyn nets"}},
		{NormalizedName: "milwaukee bucks", Aliases: []string{"bucks", "milwaukee bucks"}},
		{NormalizedName: "denver nuggets", Aliases: []string{"nuggets", "denver nuggets"}},
		{NormalizedName: "phoenix suns", Aliases: []string{"suns", "phoenix suns"}},
		{NormalizedName: "dallas mavericks", Aliases: []string{"mavericks", "mavs", "dallas mavericks"}},
		{NormalizedName: "los angeles clippers", Aliases: []string{"clippers", "la clippers", "los angeles clippers"}},
	}
}
