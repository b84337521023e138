package hierarchy

import "strings"

// Unassigned is the bucket name used when a track or subtrack name is missing.
const Unassigned = "Unassigned"

// Grouping is a strict two-level grouping of courses by track name and then
// subtrack name. Buckets keep first-seen order.
type Grouping struct {
	Tracks []TrackBucket `json:"tracks"`
}

// TrackBucket is one track bucket.
type TrackBucket struct {
	Name      string           `json:"track_name"`
	Subtracks []SubtrackBucket `json:"subtracks"`
}

// SubtrackBucket is one subtrack bucket inside a track bucket.
type SubtrackBucket struct {
	Name    string                `json:"subtrack_name"`
	Courses []CourseWithHierarchy `json:"courses"`
}

type bucketKey struct {
	track, subtrack string
}

type placementKey struct {
	bucket bucketKey
	course string
}

func bucketName(name string) string {
	if strings.TrimSpace(name) == "" {
		return Unassigned
	}
	return name
}

// GroupByTrackThenSubtrack files every course under each (track, subtrack)
// bucket named by its memberships. A course lands at most once per bucket,
// even when its membership list repeats a subtrack. Courses without any
// membership appear in no bucket. Subtracks that share a name under
// different tracks stay in separate buckets.
func GroupByTrackThenSubtrack(courses []CourseWithHierarchy) Grouping {
	var g Grouping
	trackIdx := make(map[string]int)
	subIdx := make(map[bucketKey]int)
	placed := make(map[placementKey]struct{})

	add := func(trackName, subtrackName string, c CourseWithHierarchy) {
		bk := bucketKey{track: bucketName(trackName), subtrack: bucketName(subtrackName)}
		pk := placementKey{bucket: bk, course: c.ID}
		if _, dup := placed[pk]; dup {
			return
		}
		placed[pk] = struct{}{}

		ti, ok := trackIdx[bk.track]
		if !ok {
			ti = len(g.Tracks)
			trackIdx[bk.track] = ti
			g.Tracks = append(g.Tracks, TrackBucket{Name: bk.track})
		}
		tg := &g.Tracks[ti]
		si, ok := subIdx[bk]
		if !ok {
			si = len(tg.Subtracks)
			subIdx[bk] = si
			tg.Subtracks = append(tg.Subtracks, SubtrackBucket{Name: bk.subtrack})
		}
		tg.Subtracks[si].Courses = append(tg.Subtracks[si].Courses, c)
	}

	for _, c := range courses {
		for _, m := range c.Subtracks {
			add(m.TrackName, m.SubTrackName, c)
		}
	}
	return g
}

// Courses returns the courses filed under the given track and subtrack bucket.
func (g Grouping) Courses(track, subtrack string) []CourseWithHierarchy {
	for _, t := range g.Tracks {
		if t.Name != track {
			continue
		}
		for _, st := range t.Subtracks {
			if st.Name == subtrack {
				return st.Courses
			}
		}
	}
	return nil
}

// Empty reports whether no course was grouped.
func (g Grouping) Empty() bool {
	return len(g.Tracks) == 0
}
