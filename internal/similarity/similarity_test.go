package similarity

import (
	"testing"

	"github.com/vigilab/incident-triage/internal/model"
)

func TestFindRelatedPowerShellIncidents(t *testing.T) {
	current := "powershell.exe -enc payload executed on workstation, suspicious encoded command detected"
	history := []model.HistoricalIncident{
		{ID: "inc-1", Title: "Encoded PowerShell", LogText: "powershell.exe -enc payload executed on server, encoded command detected overnight"},
		{ID: "inc-2", Title: "Disk Alert", LogText: "disk space threshold exceeded on volume, cleanup scheduled for tonight by operations staff"},
	}

	related := FindRelated(current, history)

	if len(related) != 1 {
		t.Fatalf("related = %+v, want exactly inc-1", related)
	}
	if related[0].ID != "inc-1" {
		t.Errorf("ID = %s, want inc-1", related[0].ID)
	}
	if related[0].Similarity < Threshold {
		t.Errorf("similarity = %f, want >= %f", related[0].Similarity, Threshold)
	}

	found := false
	for _, cat := range related[0].SharedCategories {
		if cat == "PowerShell Execution" {
			found = true
		}
	}
	if !found {
		t.Errorf("shared categories = %v, want PowerShell Execution", related[0].SharedCategories)
	}
}

func TestFindRelatedSortedAndCapped(t *testing.T) {
	current := "mimikatz credential dumping from lsass process on domain controller host"
	var history []model.HistoricalIncident
	for i := 0; i < 8; i++ {
		history = append(history, model.HistoricalIncident{
			ID:      string(rune('a' + i)),
			LogText: "mimikatz credential dumping from lsass process on domain controller host",
		})
	}

	related := FindRelated(current, history)
	if len(related) != MaxResults {
		t.Fatalf("len = %d, want %d", len(related), MaxResults)
	}
	for i := 1; i < len(related); i++ {
		if related[i].Similarity > related[i-1].Similarity {
			t.Error("results not sorted descending")
		}
	}
}

func TestFindRelatedEmptyInputs(t *testing.T) {
	if got := FindRelated("", nil); got != nil {
		t.Errorf("empty text produced %+v", got)
	}
	if got := FindRelated("some incident text here", nil); len(got) != 0 {
		t.Errorf("no history produced %+v", got)
	}
}

func TestJaccard(t *testing.T) {
	a := map[string]bool{"alpha": true, "beta": true, "gamma": true}
	b := map[string]bool{"beta": true, "gamma": true, "delta": true}

	got := jaccard(a, b)
	want := 2.0 / 4.0
	if got != want {
		t.Errorf("jaccard = %f, want %f", got, want)
	}

	if jaccard(a, map[string]bool{}) != 0 {
		t.Error("empty set should score 0")
	}
}

func TestKeywordSetFiltersShortTokens(t *testing.T) {
	set := keywordSet("the cat ran to a big red apartment complex")
	if set["the"] || set["cat"] || set["ran"] || set["big"] || set["red"] {
		t.Errorf("short tokens leaked into keyword set: %v", set)
	}
	if !set["apartment"] || !set["complex"] {
		t.Errorf("expected long tokens missing: %v", set)
	}
}
