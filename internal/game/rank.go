package game

import "sort"

// Standing is one row of a ranked scoreboard.
type Standing struct {
	ClientID int    `json:"clientId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// rankStandings orders entries by score descending; ties break by clientId
// ascending so ranking is deterministic across runs. Ranks are assigned
// 1-based by position.
func rankStandings(entries []Standing) []Standing {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ClientID < entries[j].ClientID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// standingsFromScores builds ranked standings from a score map and a name
// lookup.
func standingsFromScores(scores map[int]int, names map[int]string) []Standing {
	entries := make([]Standing, 0, len(scores))
	for clientID, score := range scores {
		entries = append(entries, Standing{ClientID: clientID, Name: names[clientID], Score: score})
	}
	return rankStandings(entries)
}

// standingOf finds one participant's row.
func standingOf(standings []Standing, clientID int) (Standing, bool) {
	for _, s := range standings {
		if s.ClientID == clientID {
			return s, true
		}
	}
	return Standing{}, false
}

// leaderName returns the leader's display name, substituting "You" when the
// recipient is the leader.
func leaderName(standings []Standing, recipientID int) string {
	if len(standings) == 0 {
		return ""
	}
	if standings[0].ClientID == recipientID {
		return "You"
	}
	return standings[0].Name
}
