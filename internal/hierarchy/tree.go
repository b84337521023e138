package hierarchy

import "fmt"

// Tree is the assembled learning structure in source order.
type Tree []TrackNode

// TrackNode is a track and the subtracks it owns.
type TrackNode struct {
	ID        string         `json:"track_id"`
	Name      string         `json:"track_name"`
	Subtracks []SubTrackNode `json:"subtracks"`
}

// SubTrackNode is a subtrack and the courses that are members of it.
type SubTrackNode struct {
	ID      string   `json:"subtrack_id"`
	Name    string   `json:"subtrack_name"`
	Courses []Course `json:"courses"`
}

// Triple is one (track, subtrack, course) membership reachable in a Tree.
type Triple struct {
	TrackID    string
	SubTrackID string
	CourseID   string
}

// WarningKind classifies a non-fatal integrity problem found during assembly.
type WarningKind string

const (
	WarnOrphanSubTrack    WarningKind = "orphan_subtrack"
	WarnUnknownSubTrack   WarningKind = "unknown_subtrack"
	WarnDuplicateTrack    WarningKind = "duplicate_track"
	WarnDuplicateSubTrack WarningKind = "duplicate_subtrack"
)

// IntegrityWarning reports an input record that was left out of the tree.
type IntegrityWarning struct {
	Kind    WarningKind `json:"kind"`
	ID      string      `json:"id"`
	Ref     string      `json:"ref,omitempty"`
	Message string      `json:"message"`
}

type subtrackLoc struct {
	track, sub int
}

// BuildTree assembles tracks, subtracks and courses into a Tree.
//
// Subtracks attach to the track named by their TrackID and courses attach to
// every subtrack they are a member of. Source order is kept at every level.
// Records that cannot be attached are dropped and reported as warnings;
// a course without memberships is simply unreachable and is not reported.
func BuildTree(tracks []Track, subtracks []SubTrack, courses []CourseWithHierarchy) (Tree, []IntegrityWarning) {
	var warnings []IntegrityWarning

	tree := make(Tree, 0, len(tracks))
	trackIdx := make(map[string]int, len(tracks))
	for _, t := range tracks {
		if _, dup := trackIdx[t.ID]; dup {
			warnings = append(warnings, IntegrityWarning{
				Kind:    WarnDuplicateTrack,
				ID:      t.ID,
				Message: fmt.Sprintf("track %q appears more than once; keeping the first", t.ID),
			})
			continue
		}
		trackIdx[t.ID] = len(tree)
		tree = append(tree, TrackNode{ID: t.ID, Name: t.Name, Subtracks: []SubTrackNode{}})
	}

	subIdx := make(map[string]subtrackLoc, len(subtracks))
	for _, st := range subtracks {
		if _, dup := subIdx[st.ID]; dup {
			warnings = append(warnings, IntegrityWarning{
				Kind:    WarnDuplicateSubTrack,
				ID:      st.ID,
				Message: fmt.Sprintf("subtrack %q appears more than once; keeping the first", st.ID),
			})
			continue
		}
		ti, ok := trackIdx[st.TrackID]
		if !ok {
			warnings = append(warnings, IntegrityWarning{
				Kind:    WarnOrphanSubTrack,
				ID:      st.ID,
				Ref:     st.TrackID,
				Message: fmt.Sprintf("subtrack %q references unknown track %q", st.ID, st.TrackID),
			})
			continue
		}
		node := &tree[ti]
		subIdx[st.ID] = subtrackLoc{track: ti, sub: len(node.Subtracks)}
		node.Subtracks = append(node.Subtracks, SubTrackNode{ID: st.ID, Name: st.Name, Courses: []Course{}})
	}

	type pair struct{ subtrack, course string }
	placed := make(map[pair]struct{})
	for _, c := range courses {
		for _, m := range c.Subtracks {
			loc, ok := subIdx[m.SubTrackID]
			if !ok {
				warnings = append(warnings, IntegrityWarning{
					Kind:    WarnUnknownSubTrack,
					ID:      c.ID,
					Ref:     m.SubTrackID,
					Message: fmt.Sprintf("course %q is a member of unknown subtrack %q", c.ID, m.SubTrackID),
				})
				continue
			}
			key := pair{subtrack: m.SubTrackID, course: c.ID}
			if _, dup := placed[key]; dup {
				continue
			}
			placed[key] = struct{}{}
			sub := &tree[loc.track].Subtracks[loc.sub]
			sub.Courses = append(sub.Courses, c.Course())
		}
	}

	return tree, warnings
}

// FromNested normalizes an already nested complete-tree response: nil slices
// become empty and repeated courses inside one subtrack are collapsed.
func FromNested(nested []TrackNode) Tree {
	tree := make(Tree, 0, len(nested))
	for _, t := range nested {
		node := TrackNode{ID: t.ID, Name: t.Name, Subtracks: make([]SubTrackNode, 0, len(t.Subtracks))}
		for _, st := range t.Subtracks {
			sub := SubTrackNode{ID: st.ID, Name: st.Name, Courses: make([]Course, 0, len(st.Courses))}
			seen := make(map[string]struct{}, len(st.Courses))
			for _, c := range st.Courses {
				if _, dup := seen[c.ID]; dup {
					continue
				}
				seen[c.ID] = struct{}{}
				sub.Courses = append(sub.Courses, c)
			}
			node.Subtracks = append(node.Subtracks, sub)
		}
		tree = append(tree, node)
	}
	return tree
}

// SplitTracksTree turns a tracks-tree response into the flat lists BuildTree
// takes. Subtracks without a track_id inherit the enclosing track.
func SplitTracksTree(nested []TrackWithSubtracks) ([]Track, []SubTrack) {
	tracks := make([]Track, 0, len(nested))
	var subtracks []SubTrack
	for _, t := range nested {
		tracks = append(tracks, Track{ID: t.ID, Name: t.Name})
		for _, st := range t.Subtracks {
			if st.TrackID == "" {
				st.TrackID = t.ID
			}
			subtracks = append(subtracks, st)
		}
	}
	return tracks, subtracks
}

// Triples flattens the tree into membership triples in tree order.
func (t Tree) Triples() []Triple {
	var out []Triple
	for _, tr := range t {
		for _, st := range tr.Subtracks {
			for _, c := range st.Courses {
				out = append(out, Triple{TrackID: tr.ID, SubTrackID: st.ID, CourseID: c.ID})
			}
		}
	}
	return out
}

// Subtracks flattens the tree into the searchable subtrack list used by the
// subtrack picker.
func (t Tree) Subtracks() []Membership {
	var out []Membership
	for _, tr := range t {
		for _, st := range tr.Subtracks {
			out = append(out, Membership{
				SubTrackID:   st.ID,
				SubTrackName: st.Name,
				TrackID:      tr.ID,
				TrackName:    tr.Name,
			})
		}
	}
	return out
}

// CourseCount returns the number of (subtrack, course) placements.
func (t Tree) CourseCount() int {
	n := 0
	for _, tr := range t {
		for _, st := range tr.Subtracks {
			n += len(st.Courses)
		}
	}
	return n
}
