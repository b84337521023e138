// Package hierarchy models the Track → SubTrack → Course learning structure
// and assembles, searches and groups it on the client side.
package hierarchy

// Track is the top level of the learning structure (e.g. "Data Engineering").
type Track struct {
	ID   string `json:"track_id" yaml:"track_id" validate:"required,max=50"`
	Name string `json:"track_name" yaml:"track_name" validate:"required,max=255"`
}

// SubTrack is a named subdivision of exactly one Track.
type SubTrack struct {
	ID      string `json:"subtrack_id" yaml:"subtrack_id" validate:"required,max=50"`
	Name    string `json:"subtrack_name" yaml:"subtrack_name" validate:"required,max=255"`
	TrackID string `json:"track_id" yaml:"track_id" validate:"required,max=50"`
}

// Course is a unit of learning content.
type Course struct {
	ID   string `json:"course_id" yaml:"course_id"`
	Name string `json:"course_name" yaml:"course_name"`
}

// Membership places a course under one subtrack, denormalized with the
// owning track so that a course can be searched and grouped on its own.
// The same shape serves as the flattened, searchable subtrack entry.
type Membership struct {
	SubTrackID   string `json:"subtrack_id" yaml:"subtrack_id"`
	SubTrackName string `json:"subtrack_name" yaml:"subtrack_name"`
	TrackID      string `json:"track_id" yaml:"track_id"`
	TrackName    string `json:"track_name" yaml:"track_name"`
}

// CourseWithHierarchy is a course plus every subtrack it belongs to.
type CourseWithHierarchy struct {
	ID        string       `json:"course_id" yaml:"course_id"`
	Name      string       `json:"course_name" yaml:"course_name"`
	Subtracks []Membership `json:"subtracks" yaml:"subtracks"`
}

// Course drops the membership list.
func (c CourseWithHierarchy) Course() Course {
	return Course{ID: c.ID, Name: c.Name}
}

// TrackWithSubtracks is the tracks-tree response: a track with its subtracks.
type TrackWithSubtracks struct {
	ID        string     `json:"track_id"`
	Name      string     `json:"track_name"`
	Subtracks []SubTrack `json:"subtracks"`
}

// NewCourse is the request body for creating a course under a parent node.
type NewCourse struct {
	ID         string `json:"course_id" validate:"required,max=50"`
	Name       string `json:"course_name" validate:"required,max=255"`
	ParentType string `json:"parent_type" validate:"required,oneof=track subtrack course"`
	ParentID   string `json:"parent_id" validate:"required,max=50"`
}
