// Package extract pulls candidate Indicators of Compromise out of raw log text.
package extract

import (
	"net"
	"regexp"
	"strings"
)

// Per-type caps bound the downstream enrichment cost.
const (
	maxIPs       = 5
	maxDomains   = 5
	maxHashes    = 3
	maxCVEs      = 3
	maxProcesses = 5
)

var (
	ipPattern      = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)
	domainPattern  = regexp.MustCompile(`\b[a-zA-Z0-9](?:[a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*\.[a-zA-Z]{2,10}\b`)
	hashPattern    = regexp.MustCompile(`\b[a-fA-F0-9]{32}\b|\b[a-fA-F0-9]{40}\b|\b[a-fA-F0-9]{64}\b`)
	cvePattern     = regexp.MustCompile(`(?i)\bCVE-\d{4}-\d{4,7}\b`)
	processPattern = regexp.MustCompile(`(?i)\b[\w][\w.\-]{0,60}\.(?:exe|dll|bat|cmd|ps1|vbs|scr|sh|bin|py)\b`)
)

// fileExtensions are suffixes that disqualify a token from being a domain.
// "evil.exe" matches the domain grammar but is a file name.
var fileExtensions = []string{
	".exe", ".dll", ".bat", ".cmd", ".ps1", ".vbs", ".scr", ".sh",
	".bin", ".py", ".log", ".txt", ".tmp", ".dat", ".sys", ".ini",
	".zip", ".rar", ".json", ".xml", ".yml", ".yaml", ".conf",
}

// privateCIDRs are the non-routable ranges excluded when classifying an
// address as external (RFC 1918, loopback, link-local).
var privateCIDRs = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
}

var privateNets []*net.IPNet

func init() {
	for _, cidr := range privateCIDRs {
		_, n, err := net.ParseCIDR(cidr)
		if err == nil {
			privateNets = append(privateNets, n)
		}
	}
}

// IsPrivateIP reports whether the address falls in a private, loopback or
// link-local range. Unparseable values are treated as private so they are
// never enriched as external addresses.
func IsPrivateIP(value string) bool {
	ip := net.ParseIP(value)
	if ip == nil {
		return true
	}
	for _, n := range privateNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// HashType returns the hash algorithm name implied by the value's length.
func HashType(value string) string {
	switch len(value) {
	case 32:
		return "MD5"
	case 40:
		return "SHA1"
	case 64:
		return "SHA256"
	default:
		return "Unknown"
	}
}

// Extraction holds the deduplicated, capped indicator candidates from one text.
type Extraction struct {
	IPs       []string
	Domains   []string
	Hashes    []string
	CVEs      []string
	Processes []string
}

// Extract scans the text for indicator candidates. Empty input yields an
// empty extraction; the function has no failure mode.
func Extract(text string) Extraction {
	return Extraction{
		IPs:       extractIPs(text),
		Domains:   extractDomains(text),
		Hashes:    dedupeCap(hashPattern.FindAllString(text, -1), maxHashes, strings.ToLower),
		CVEs:      dedupeCap(cvePattern.FindAllString(text, -1), maxCVEs, strings.ToUpper),
		Processes: dedupeCap(processPattern.FindAllString(text, -1), maxProcesses, strings.ToLower),
	}
}

func extractIPs(text string) []string {
	candidates := ipPattern.FindAllString(text, -1)
	var valid []string
	for _, c := range candidates {
		if net.ParseIP(c) != nil {
			valid = append(valid, c)
		}
	}
	return dedupeCap(valid, maxIPs, nil)
}

func extractDomains(text string) []string {
	candidates := domainPattern.FindAllString(text, -1)
	var valid []string
	for _, c := range candidates {
		if looksLikeFile(c) {
			continue
		}
		// A bare IP also matches the domain grammar
		if net.ParseIP(c) != nil {
			continue
		}
		valid = append(valid, c)
	}
	return dedupeCap(valid, maxDomains, strings.ToLower)
}

func looksLikeFile(value string) bool {
	lower := strings.ToLower(value)
	for _, ext := range fileExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// dedupeCap deduplicates values (after optional normalization) preserving
// first-seen order, keeping at most limit entries.
func dedupeCap(values []string, limit int, normalize func(string) string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if normalize != nil {
			v = normalize(v)
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}
	return out
}
