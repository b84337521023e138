// Package capstone holds capstone projects: the read-only catalog and the
// weekly guidelines document each capstone carries.
package capstone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/p-n-ai/pai-lms/internal/platform/apierror"
)

// ListItem is the summary shown in the capstone list.
type ListItem struct {
	ID            string   `json:"capstone_id"`
	Name          string   `json:"capstone_name"`
	Tags          []string `json:"tags"`
	DurationWeeks int      `json:"duration_weeks"`
}

// Detail is a capstone with its guidelines document. Guidelines is kept raw
// until validated; use ParseGuidelines to read it.
type Detail struct {
	ID            string          `json:"capstone_id"`
	Name          string          `json:"capstone_name"`
	Tags          []string        `json:"tags"`
	DurationWeeks int             `json:"duration_weeks"`
	DatasetLink   *string         `json:"dataset_link"`
	Guidelines    json.RawMessage `json:"guidelines"`
}

// Guidelines is the week-by-week plan of a capstone.
type Guidelines struct {
	Description      string           `json:"description"`
	Objectives       []string         `json:"objectives"`
	WeeklyPlan       []WeeklyPlanItem `json:"weekly_plan"`
	FinalDeliverable FinalDeliverable `json:"final_deliverable"`
	Resources        []Resource       `json:"resources"`
}

type WeeklyPlanItem struct {
	Week         int      `json:"week"`
	Title        string   `json:"title"`
	Topics       []string `json:"topics"`
	Tasks        []string `json:"tasks"`
	Deliverables []string `json:"deliverables"`
}

type FinalDeliverable struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
}

// Resource is a link such as a dataset, documentation page or tutorial.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// ParseGuidelines validates the guidelines document and decodes it.
func (d Detail) ParseGuidelines() (Guidelines, error) {
	if err := ValidateGuidelines(d.Guidelines); err != nil {
		return Guidelines{}, fmt.Errorf("capstone %s: %w", d.ID, err)
	}
	var g Guidelines
	if err := json.Unmarshal(d.Guidelines, &g); err != nil {
		return Guidelines{}, fmt.Errorf("decode guidelines: %w", err)
	}
	return g, nil
}

// Fetcher loads capstones from the backend.
type Fetcher interface {
	Capstones(ctx context.Context) ([]ListItem, error)
	Capstone(ctx context.Context, id string) (Detail, error)
}

// Catalog is the capstone list with tag filtering and lookup.
type Catalog struct {
	fetcher Fetcher
}

func NewCatalog(f Fetcher) *Catalog {
	return &Catalog{fetcher: f}
}

// List returns the capstones, keeping only those tagged tag when tag is set.
// Tags compare case-insensitively.
func (c *Catalog) List(ctx context.Context, tag string) ([]ListItem, error) {
	items, err := c.fetcher.Capstones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list capstones: %w", err)
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return items, nil
	}
	out := []ListItem{}
	for _, it := range items {
		if slices.ContainsFunc(it.Tags, func(t string) bool { return strings.EqualFold(t, tag) }) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Lookup returns the capstone with id. A missing capstone is reported with
// found=false and no error.
func (c *Catalog) Lookup(ctx context.Context, id string) (Detail, bool, error) {
	d, err := c.fetcher.Capstone(ctx, id)
	if errors.Is(err, apierror.ErrNotFound) {
		return Detail{}, false, nil
	}
	if err != nil {
		return Detail{}, false, fmt.Errorf("get capstone: %w", err)
	}
	return d, true, nil
}
