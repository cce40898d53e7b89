// Package patterns tags log text against a fixed catalogue of named detection rules.
package patterns

import (
	"strings"

	"github.com/vigilab/incident-triage/internal/model"
)

// Rule is one entry in the pattern catalogue. The rule fires when every
// clause matches; a clause matches when any of its alternatives is a
// substring of the lowercased text.
type Rule struct {
	Name         string
	Significance model.Significance
	Clauses      [][]string
	Description  string
}

// Catalogue is the fixed, ordered rule set. Output order mirrors this order
// so test snapshots stay stable.
var Catalogue = []Rule{
	{
		Name:         "Credential Dumping",
		Significance: model.SignificanceHigh,
		Clauses:      [][]string{{"mimikatz", "sekurlsa", "lsass", "procdump", "secretsdump", "hashdump"}},
		Description:  "Tooling or process access associated with extracting credentials from memory",
	},
	{
		Name:         "Obfuscated Scripting",
		Significance: model.SignificanceHigh,
		Clauses:      [][]string{{"powershell", "pwsh", "cscript", "wscript"}, {"-enc", "-encodedcommand", "frombase64string", "hidden", "bypass", "iex("}},
		Description:  "Script interpreter invoked with encoding or policy-bypass arguments",
	},
	{
		Name:         "Shadow Copy Deletion",
		Significance: model.SignificanceHigh,
		Clauses:      [][]string{{"vssadmin delete", "shadowcopy delete", "wmic shadowcopy", "bcdedit"}},
		Description:  "Destruction of volume shadow copies or recovery settings, common before ransomware",
	},
	{
		Name:         "Persistence Mechanism",
		Significance: model.SignificanceHigh,
		Clauses:      [][]string{{"schtasks /create", "currentversion\\run", "new-service", "sc create", "crontab", "startup folder"}},
		Description:  "Creation of scheduled tasks, services or autorun entries",
	},
	{
		Name:         "Lateral Movement",
		Significance: model.SignificanceHigh,
		Clauses:      [][]string{{"psexec", "wmic /node", "winrm", "invoke-command", "pass-the-hash", "rdp brute"}},
		Description:  "Remote execution or credential reuse against other hosts",
	},
	{
		Name:         "Reconnaissance",
		Significance: model.SignificanceMedium,
		Clauses:      [][]string{{"whoami", "net group", "net user", "nltest", "dsquery", "arp -a", "route print", "net view"}},
		Description:  "Host or domain enumeration commands",
	},
	{
		Name:         "Suspicious Network Activity",
		Significance: model.SignificanceMedium,
		Clauses:      [][]string{{"reverse shell", "bind shell", "beacon", "c2 ", "exfiltrat", "dns tunnel"}},
		Description:  "Command-and-control or data exfiltration traffic references",
	},
	{
		Name:         "File Manipulation",
		Significance: model.SignificanceMedium,
		Clauses:      [][]string{{"cipher /w", "sdelete", "timestomp", "wevtutil cl", "clear-eventlog", "del /f /q"}},
		Description:  "Secure deletion, timestamp tampering or event log clearing",
	},
	{
		Name:         "Registry Modification",
		Significance: model.SignificanceMedium,
		Clauses:      [][]string{{"reg add", "reg delete", "set-itemproperty", "regedit /s"}},
		Description:  "Direct registry changes from the command line",
	},
	{
		Name:         "Privilege Activity",
		Significance: model.SignificanceMedium,
		Clauses:      [][]string{{"runas", "sudo ", "setuid", "token impersonation", "seimpersonate", "getsystem"}},
		Description:  "Privilege use or escalation attempts",
	},
	{
		Name:         "Account Manipulation",
		Significance: model.SignificanceMedium,
		Clauses:      [][]string{{"net user /add", "useradd", "net localgroup administrators", "password reset", "account created"}},
		Description:  "Creation or modification of accounts and group memberships",
	},
	{
		Name:         "Failed Authentication Burst",
		Significance: model.SignificanceLow,
		Clauses:      [][]string{{"failed login", "logon failure", "authentication failure", "4625"}},
		Description:  "Repeated failed authentication events",
	},
	{
		Name:         "Software Installation",
		Significance: model.SignificanceLow,
		Clauses:      [][]string{{"msiexec", "installer", "setup.exe", "apt-get install", "yum install"}},
		Description:  "Software installation activity",
	},
	{
		Name:         "Service State Change",
		Significance: model.SignificanceLow,
		Clauses:      [][]string{{"service started", "service stopped", "service entered", "systemctl"}},
		Description:  "Routine service lifecycle events",
	},
}

// fallbackMatch guarantees the matcher never returns an empty list.
var fallbackMatch = model.PatternMatch{
	Name:         "General System Activity",
	Significance: model.SignificanceLow,
	Description:  "No specific threat pattern identified in the log content",
}

// Match evaluates the catalogue against the text and returns one PatternMatch
// per fired rule, in catalogue order. Never returns an empty slice.
func Match(text string) []model.PatternMatch {
	lower := strings.ToLower(text)

	var matches []model.PatternMatch
	for _, rule := range Catalogue {
		if rule.matches(lower) {
			matches = append(matches, model.PatternMatch{
				Name:         rule.Name,
				Significance: rule.Significance,
				Description:  rule.Description,
			})
		}
	}

	if len(matches) == 0 {
		return []model.PatternMatch{fallbackMatch}
	}
	return matches
}

func (r Rule) matches(lower string) bool {
	for _, clause := range r.Clauses {
		if !anyContained(lower, clause) {
			return false
		}
	}
	return true
}

func anyContained(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// SignificanceWeight converts a significance tier to its numeric weight used
// by the severity adjuster.
func SignificanceWeight(s model.Significance) int {
	switch s {
	case model.SignificanceHigh:
		return 10
	case model.SignificanceMedium:
		return 5
	default:
		return 2
	}
}
