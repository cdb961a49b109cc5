package cohort

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassifyVital(t *testing.T) {

	// For overall survival the event is death: vital_status false.
	tbl := mustRead(t, "sample_id\tvital_status\nS1\tfalse\nS2\ttrue\nS3\tTrue\nS4\t\n")

	events, ok, err := ClassifyEvents(tbl, Vital)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]bool{true, false, false, false}, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{true, true, true, false}, ok); diff != "" {
		t.Errorf("ok mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyProgress(t *testing.T) {

	tbl := mustRead(t, "sample_id\tprogression_status\nS1\ttrue\nS2\tfalse\n")

	events, ok, err := ClassifyEvents(tbl, Progress)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]bool{true, false}, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if !ok[0] || !ok[1] {
		t.Fail()
	}
}

func TestClassifyMissingColumn(t *testing.T) {

	tbl := mustRead(t, "sample_id\nS1\n")

	if _, _, err := ClassifyEvents(tbl, Vital); err == nil {
		t.Error("expected configuration error for a missing status column")
	}
}
