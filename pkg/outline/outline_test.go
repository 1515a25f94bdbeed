package outline

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"
)

func sampleOutline() Outline {
	return Outline{
		Scenario: "aki_detection",
		Version:  "1.2",
		Signals: []Signal{
			{Name: "Cr", Source: "loinc", Unit: "mg/dL"},
			{Name: "BUN", Source: "loinc", Unit: "mg/dL"},
		},
		Trends: []Trend{
			{Name: "cr_delta_48h", Expr: "delta(Cr, 48h)", DependsOn: []string{"Cr"}},
			{Name: "bun_delta_48h", Expr: "delta(BUN, 48h)", DependsOn: []string{"BUN"}},
		},
		Logic: []Logic{
			{
				Name:      "aki_stage1",
				Expr:      "cr_delta_48h >= 0.3",
				Severity:  "warning",
				DependsOn: []string{"cr_delta_48h"},
			},
			{
				Name:      "renal_alert",
				Expr:      "aki_stage1 AND bun_delta_48h > 10",
				Severity:  "critical",
				DependsOn: []string{"aki_stage1", "bun_delta_48h"},
				Operators: []string{"AND"},
			},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	o := sampleOutline()

	data, err := Marshal(o)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if !reflect.DeepEqual(got, o) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, o)
	}
}

func TestReadWriteFile(t *testing.T) {
	o := sampleOutline()
	path := filepath.Join(t.TempDir(), "outline.json")

	if err := WriteFile(o, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.Scenario != "aki_detection" {
		t.Errorf("Scenario = %q, want aki_detection", got.Scenario)
	}
	if len(got.Signals) != 2 || len(got.Trends) != 2 || len(got.Logic) != 2 {
		t.Errorf("counts = %d/%d/%d, want 2/2/2", len(got.Signals), len(got.Trends), len(got.Logic))
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("ReadFile should fail for a missing file")
	}
}

func TestComputeUsedBy(t *testing.T) {
	o := sampleOutline()
	ComputeUsedBy(&o)

	if got := o.Signals[0].UsedBy; !reflect.DeepEqual(got, []string{"cr_delta_48h"}) {
		t.Errorf("Cr.UsedBy = %v, want [cr_delta_48h]", got)
	}
	if got := o.Trends[0].UsedBy; !reflect.DeepEqual(got, []string{"aki_stage1"}) {
		t.Errorf("cr_delta_48h.UsedBy = %v, want [aki_stage1]", got)
	}
	if got := o.Trends[1].UsedBy; !reflect.DeepEqual(got, []string{"renal_alert"}) {
		t.Errorf("bun_delta_48h.UsedBy = %v, want [renal_alert]", got)
	}
}

func TestComputeUsedByReplacesStaleEntries(t *testing.T) {
	o := sampleOutline()
	o.Signals[0].UsedBy = []string{"stale"}

	ComputeUsedBy(&o)

	if got := o.Signals[0].UsedBy; !reflect.DeepEqual(got, []string{"cr_delta_48h"}) {
		t.Errorf("Cr.UsedBy = %v, stale entry should be replaced", got)
	}
}

func TestComputeUsedByIgnoresUnknownNames(t *testing.T) {
	o := Outline{
		Trends: []Trend{{Name: "t", Expr: "x", DependsOn: []string{"missing_signal"}}},
	}
	ComputeUsedBy(&o) // must not panic
}
