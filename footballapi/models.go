package footballapi

import "time"

// Team represents a football club
type Team struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	Country  string `json:"country,omitempty"`
	Founded  int    `json:"founded,omitempty"`
	National bool   `json:"national"`
	Logo     string `json:"logo"`
}

// Venue represents a stadium
type Venue struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city"`
	Capacity int    `json:"capacity,omitempty"`
}

// TeamEntry is one element of the /teams response
type TeamEntry struct {
	Team  Team  `json:"team"`
	Venue Venue `json:"venue"`
}

// League identifies a competition season
type League struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Logo    string `json:"logo"`
	Season  int    `json:"season"`
	Round   string `json:"round,omitempty"`
}

// Split is a home/away/total counter. Null values decode as zero.
type Split struct {
	Home  int `json:"home"`
	Away  int `json:"away"`
	Total int `json:"total"`
}

// AverageSplit holds per-match averages, which the API sends as strings
type AverageSplit struct {
	Home  string `json:"home"`
	Away  string `json:"away"`
	Total string `json:"total"`
}

// GoalBreakdown groups goal totals and averages
type GoalBreakdown struct {
	Total   Split        `json:"total"`
	Average AverageSplit `json:"average"`
}

// TeamStatistics is the /teams/statistics payload for one league season
type TeamStatistics struct {
	League   League `json:"league"`
	Team     Team   `json:"team"`
	Form     string `json:"form"`
	Fixtures struct {
		Played Split `json:"played"`
		Wins   Split `json:"wins"`
		Draws  Split `json:"draws"`
		Loses  Split `json:"loses"`
	} `json:"fixtures"`
	Goals struct {
		For     GoalBreakdown `json:"for"`
		Against GoalBreakdown `json:"against"`
	} `json:"goals"`
	CleanSheet    Split `json:"clean_sheet"`
	FailedToScore Split `json:"failed_to_score"`
}

// Injury is one unavailable player
type Injury struct {
	Player struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Photo  string `json:"photo"`
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"player"`
	Team    Team        `json:"team"`
	Fixture FixtureInfo `json:"fixture"`
	League  League      `json:"league"`
}

// FixtureStatus is the match state
type FixtureStatus struct {
	Long    string `json:"long"`
	Short   string `json:"short"`
	Elapsed int    `json:"elapsed"`
}

// FixtureInfo is the fixture block shared by fixtures and injuries
type FixtureInfo struct {
	ID        int           `json:"id"`
	Referee   string        `json:"referee,omitempty"`
	Timezone  string        `json:"timezone"`
	Date      time.Time     `json:"date"`
	Timestamp int64         `json:"timestamp"`
	Venue     Venue         `json:"venue"`
	Status    FixtureStatus `json:"status"`
}

// FixtureTeam is one side of a fixture
type FixtureTeam struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Logo   string `json:"logo"`
	Winner *bool  `json:"winner"`
}

// Fixture is one element of the /fixtures response
type Fixture struct {
	Fixture FixtureInfo `json:"fixture"`
	League  League      `json:"league"`
	Teams   struct {
		Home FixtureTeam `json:"home"`
		Away FixtureTeam `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}
