// Package similarity finds prior incidents related to the one under analysis.
package similarity

import (
	"sort"
	"strings"

	"github.com/vigilab/incident-triage/internal/model"
)

const (
	// Threshold below which incidents are not considered related.
	Threshold = 0.3
	// MaxResults caps how many related incidents are returned.
	MaxResults = 5

	minTokenLen = 4  // tokens of length > 3
	maxKeywords = 20 // top keywords per document
)

// categoryKeywords annotate a match with the shared behavior categories both
// incidents exhibit.
var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"Credential Access", []string{"mimikatz", "lsass", "credential", "sekurlsa", "hashdump"}},
	{"PowerShell Execution", []string{"powershell", "-enc", "encodedcommand", "iex"}},
	{"Registry Modification", []string{"registry", "reg add", "hklm", "hkcu"}},
	{"Scheduled Tasks", []string{"schtasks", "scheduled task", "crontab"}},
	{"Network Activity", []string{"connection", "outbound", "beacon", "port", "firewall"}},
	{"Process Activity", []string{"process", "spawned", "executed", "parent"}},
	{"File Operations", []string{"file created", "file deleted", "dropped", "written"}},
	{"Privilege Activity", []string{"privilege", "admin", "elevation", "runas", "sudo"}},
}

// FindRelated compares the current incident's text against prior incidents
// and returns those scoring above the threshold, sorted by similarity
// descending, capped to MaxResults.
func FindRelated(text string, history []model.HistoricalIncident) []model.RelatedIncident {
	current := keywordSet(text)
	if len(current) == 0 {
		return nil
	}

	var related []model.RelatedIncident
	for _, prior := range history {
		score := jaccard(current, keywordSet(prior.LogText))
		if score < Threshold {
			continue
		}
		related = append(related, model.RelatedIncident{
			ID:               prior.ID,
			Title:            prior.Title,
			Similarity:       score,
			SharedCategories: sharedCategories(text, prior.LogText),
		})
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Similarity > related[j].Similarity
	})
	if len(related) > MaxResults {
		related = related[:MaxResults]
	}
	return related
}

// keywordSet extracts the document's top keywords: lowercase tokens longer
// than three characters, ranked by frequency, capped to maxKeywords.
func keywordSet(text string) map[string]bool {
	counts := make(map[string]int)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,;:!?\"'()[]{}")
		if len(token) < minTokenLen {
			continue
		}
		counts[token]++
	}

	type kv struct {
		token string
		count int
	}
	ranked := make([]kv, 0, len(counts))
	for token, count := range counts {
		ranked = append(ranked, kv{token, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].token < ranked[j].token
	})

	set := make(map[string]bool, maxKeywords)
	for i, entry := range ranked {
		if i >= maxKeywords {
			break
		}
		set[entry.token] = true
	}
	return set
}

// jaccard computes intersection over union for two keyword sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if b[token] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// sharedCategories lists the behavior categories both texts exhibit.
func sharedCategories(a, b string) []string {
	lowerA, lowerB := strings.ToLower(a), strings.ToLower(b)
	var shared []string
	for _, cat := range categoryKeywords {
		if containsAny(lowerA, cat.keywords) && containsAny(lowerB, cat.keywords) {
			shared = append(shared, cat.name)
		}
	}
	return shared
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
