package capstone_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-lms/internal/capstone"
	"github.com/p-n-ai/pai-lms/internal/platform/apierror"
)

const validGuidelines = `{
  "description": "Build an end-to-end pipeline.",
  "objectives": ["Ingest", "Transform"],
  "weekly_plan": [
    {"week": 1, "title": "Ingestion", "topics": ["Kafka"], "tasks": ["Set up topic"], "deliverables": ["Producer"]}
  ],
  "final_deliverable": {"title": "Pipeline", "description": "Working pipeline", "requirements": ["Tests"]},
  "resources": [{"title": "NYC taxi", "url": "https://example.com/taxi.csv", "type": "dataset"}]
}`

type fakeFetcher struct {
	items  []capstone.ListItem
	detail map[string]capstone.Detail
	err    error
}

func (f fakeFetcher) Capstones(ctx context.Context) ([]capstone.ListItem, error) {
	return f.items, f.err
}

func (f fakeFetcher) Capstone(ctx context.Context, id string) (capstone.Detail, error) {
	if f.err != nil {
		return capstone.Detail{}, f.err
	}
	d, ok := f.detail[id]
	if !ok {
		return capstone.Detail{}, &apierror.Error{Status: 404, Detail: "Capstone not found"}
	}
	return d, nil
}

func TestValidateGuidelines(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"valid", validGuidelines, false},
		{"empty", "", true},
		{"missing description", `{"objectives":[],"weekly_plan":[],"final_deliverable":{"title":"t","description":"d"},"resources":[]}`, true},
		{"week zero", `{"description":"d","objectives":[],"weekly_plan":[{"week":0,"title":"x"}],"final_deliverable":{"title":"t","description":"d"},"resources":[]}`, true},
		{"not an object", `[1,2]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := capstone.ValidateGuidelines([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateGuidelines() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !capstone.IsSchemaError(err) {
				t.Errorf("error %v is not a schema error", err)
			}
		})
	}
}

func TestParseGuidelines(t *testing.T) {
	d := capstone.Detail{ID: "cap-1", Guidelines: json.RawMessage(validGuidelines)}
	g, err := d.ParseGuidelines()
	if err != nil {
		t.Fatal(err)
	}
	if len(g.WeeklyPlan) != 1 || g.WeeklyPlan[0].Title != "Ingestion" {
		t.Errorf("WeeklyPlan = %+v", g.WeeklyPlan)
	}
	if g.Resources[0].Type != "dataset" {
		t.Errorf("Resources = %+v", g.Resources)
	}
}

func TestCatalog_List(t *testing.T) {
	c := capstone.NewCatalog(fakeFetcher{items: []capstone.ListItem{
		{ID: "a", Tags: []string{"Data", "SQL"}},
		{ID: "b", Tags: []string{"cloud"}},
	}})
	all, err := c.List(context.Background(), "")
	if err != nil || len(all) != 2 {
		t.Fatalf("List() = %v, %v", all, err)
	}
	got, err := c.List(context.Background(), "data")
	if err != nil || len(got) != 1 || got[0].ID != "a" {
		t.Errorf("List(data) = %v, %v", got, err)
	}
}

func TestCatalog_LookupNotFound(t *testing.T) {
	c := capstone.NewCatalog(fakeFetcher{detail: map[string]capstone.Detail{"a": {ID: "a"}}})
	_, found, err := c.Lookup(context.Background(), "missing")
	if err != nil || found {
		t.Fatalf("Lookup(missing) found=%v err=%v", found, err)
	}
	d, found, err := c.Lookup(context.Background(), "a")
	if err != nil || !found || d.ID != "a" {
		t.Errorf("Lookup(a) = %+v, %v, %v", d, found, err)
	}
}

func TestCatalog_LookupError(t *testing.T) {
	c := capstone.NewCatalog(fakeFetcher{err: &apierror.Error{Status: 500, Detail: "db down"}})
	_, _, err := c.Lookup(context.Background(), "a")
	var ae *apierror.Error
	if !errors.As(err, &ae) || ae.Status != 500 {
		t.Errorf("Lookup() error = %v", err)
	}
}
