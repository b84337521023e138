package hierarchy

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold returns s case-folded for caseless comparison.
func fold(s string) string {
	return cases.Fold().String(s)
}

// normalizeQuery trims and folds a free-text query. The empty string means
// "no filter".
func normalizeQuery(query string) string {
	q := strings.TrimSpace(query)
	if q == "" {
		return ""
	}
	return fold(q)
}

// Matches reports whether the course name, any of its subtrack names or any of
// its track names contains query, ignoring case. An empty query matches.
func (c CourseWithHierarchy) Matches(query string) bool {
	q := normalizeQuery(query)
	if q == "" {
		return true
	}
	return c.matchesFolded(q)
}

func (c CourseWithHierarchy) matchesFolded(q string) bool {
	if strings.Contains(fold(c.Name), q) {
		return true
	}
	for _, m := range c.Subtracks {
		if strings.Contains(fold(m.SubTrackName), q) || strings.Contains(fold(m.TrackName), q) {
			return true
		}
	}
	return false
}

// FilterCourses keeps the courses matching query, in their original order.
// A blank query returns courses as given. The input is never modified.
func FilterCourses(courses []CourseWithHierarchy, query string) []CourseWithHierarchy {
	q := normalizeQuery(query)
	if q == "" {
		return courses
	}
	out := make([]CourseWithHierarchy, 0, len(courses))
	for _, c := range courses {
		if c.matchesFolded(q) {
			out = append(out, c)
		}
	}
	return out
}

// FilterSubtracks keeps the subtrack entries whose subtrack or track name
// contains query, ignoring case.
func FilterSubtracks(subtracks []Membership, query string) []Membership {
	q := normalizeQuery(query)
	if q == "" {
		return subtracks
	}
	out := make([]Membership, 0, len(subtracks))
	for _, st := range subtracks {
		if strings.Contains(fold(st.SubTrackName), q) || strings.Contains(fold(st.TrackName), q) {
			out = append(out, st)
		}
	}
	return out
}

// SubtrackGroup is the subtrack picker's per-track section.
type SubtrackGroup struct {
	TrackID   string       `json:"track_id"`
	TrackName string       `json:"track_name"`
	Subtracks []Membership `json:"subtracks"`
}

// GroupSubtracksByTrack groups subtrack entries by track id in first-seen order.
func GroupSubtracksByTrack(subtracks []Membership) []SubtrackGroup {
	var groups []SubtrackGroup
	idx := make(map[string]int)
	for _, st := range subtracks {
		i, ok := idx[st.TrackID]
		if !ok {
			i = len(groups)
			idx[st.TrackID] = i
			groups = append(groups, SubtrackGroup{TrackID: st.TrackID, TrackName: st.TrackName})
		}
		groups[i].Subtracks = append(groups[i].Subtracks, st)
	}
	return groups
}
