package preprocessing_test

import (
	"testing"

	"github.com/tabprep/tabprep/preprocessing"
)

func TestGroupRareCategories_Basic(t *testing.T) {
	values := repeat([][2]interface{}{
		{"A", 40}, {"B", 35}, {"C", 20}, {"D", 3}, {"E", 2},
	})

	grouping := preprocessing.GroupRareCategories(values, 10)
	if len(grouping) != 2 {
		t.Fatalf("expected 2 grouped values, got %v", grouping)
	}
	for _, rare := range []string{"D", "E"} {
		if grouping[rare] != preprocessing.RareSentinel {
			t.Errorf("grouping[%s]: expected %s, got %q", rare, preprocessing.RareSentinel, grouping[rare])
		}
	}
	if _, ok := grouping["C"]; ok {
		t.Error("C has 20 occurrences and must not be grouped")
	}
}

func TestGroupRareCategories_SingleCandidate(t *testing.T) {
	values := repeat([][2]interface{}{{"A", 40}, {"B", 3}})

	// One rare value alone gains nothing from grouping.
	if grouping := preprocessing.GroupRareCategories(values, 10); grouping != nil {
		t.Errorf("expected nil grouping for a single candidate, got %v", grouping)
	}
}

func TestGroupRareCategories_NoneRare(t *testing.T) {
	values := repeat([][2]interface{}{{"A", 40}, {"B", 35}})

	if grouping := preprocessing.GroupRareCategories(values, 10); grouping != nil {
		t.Errorf("expected nil grouping when nothing is rare, got %v", grouping)
	}
}

func TestGroupRareCategories_SentinelNeverRegrouped(t *testing.T) {
	// A value already sitting in the rare bucket stays there no matter how
	// small its count is.
	values := repeat([][2]interface{}{
		{preprocessing.RareSentinel, 2}, {"A", 40}, {"B", 3}, {"C", 2},
	})

	grouping := preprocessing.GroupRareCategories(values, 10)
	if _, ok := grouping[preprocessing.RareSentinel]; ok {
		t.Error("sentinel must never appear as a grouping key")
	}
	if len(grouping) != 2 {
		t.Errorf("expected B and C grouped, got %v", grouping)
	}
}

func TestApplyGrouping_IdentityFallback(t *testing.T) {
	values := []string{"A", "D", "E", "A"}
	grouping := map[string]string{
		"D": preprocessing.RareSentinel,
		"E": preprocessing.RareSentinel,
	}

	got := preprocessing.ApplyGrouping(values, grouping)
	want := []string{"A", preprocessing.RareSentinel, preprocessing.RareSentinel, "A"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("grouped[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}

	// Applying the same grouping again changes nothing.
	again := preprocessing.ApplyGrouping(got, grouping)
	for i := range got {
		if again[i] != got[i] {
			t.Errorf("regrouped[%d]: expected %q, got %q", i, got[i], again[i])
		}
	}
}

func TestApplyGrouping_NilGrouping(t *testing.T) {
	values := []string{"A", "B"}
	got := preprocessing.ApplyGrouping(values, nil)
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("nil grouping must be the identity, got %v", got)
		}
	}
}
