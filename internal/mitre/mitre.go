// Package mitre infers MITRE ATT&CK tactics and techniques from log keywords.
package mitre

import (
	"strings"

	"github.com/vigilab/incident-triage/internal/model"
)

// Conditional is a sub-technique added only when its parent tactic rule fired
// and one of its keywords is present.
type Conditional struct {
	Technique model.Technique
	Keywords  []string
}

// Rule maps keyword evidence to one tactic and its techniques.
type Rule struct {
	Tactic       model.Tactic
	Keywords     []string // any-of
	Techniques   []model.Technique
	Conditionals []Conditional
}

// Rules is the fixed mapping catalogue, ordered by kill-chain position.
var Rules = []Rule{
	{
		Tactic:   model.Tactic{ID: "TA0002", Name: "Execution"},
		Keywords: []string{"powershell", "pwsh", "cmd.exe", "cmd /c", "wscript", "cscript", "bash -c", "rundll32"},
		Techniques: []model.Technique{
			{ID: "T1059", Name: "Command and Scripting Interpreter", Tactic: "Execution"},
		},
		Conditionals: []Conditional{
			{Technique: model.Technique{ID: "T1059.001", Name: "PowerShell", Tactic: "Execution"}, Keywords: []string{"powershell", "pwsh"}},
		},
	},
	{
		Tactic:   model.Tactic{ID: "TA0003", Name: "Persistence"},
		Keywords: []string{"schtasks", "scheduled task", "currentversion\\run", "new-service", "sc create", "crontab", "startup folder"},
		Techniques: []model.Technique{
			{ID: "T1053", Name: "Scheduled Task/Job", Tactic: "Persistence"},
		},
		Conditionals: []Conditional{
			{Technique: model.Technique{ID: "T1053.005", Name: "Scheduled Task", Tactic: "Persistence"}, Keywords: []string{"schtasks"}},
			{Technique: model.Technique{ID: "T1547.001", Name: "Registry Run Keys / Startup Folder", Tactic: "Persistence"}, Keywords: []string{"currentversion\\run", "startup folder"}},
		},
	},
	{
		Tactic:   model.Tactic{ID: "TA0004", Name: "Privilege Escalation"},
		Keywords: []string{"privilege escalation", "getsystem", "token impersonation", "seimpersonate", "setuid", "sudo -"},
		Techniques: []model.Technique{
			{ID: "T1068", Name: "Exploitation for Privilege Escalation", Tactic: "Privilege Escalation"},
		},
		Conditionals: []Conditional{
			{Technique: model.Technique{ID: "T1134", Name: "Access Token Manipulation", Tactic: "Privilege Escalation"}, Keywords: []string{"token impersonation", "seimpersonate"}},
		},
	},
	{
		Tactic:   model.Tactic{ID: "TA0005", Name: "Defense Evasion"},
		Keywords: []string{"-enc", "-encodedcommand", "frombase64string", "obfuscat", "wevtutil cl", "clear-eventlog", "timestomp", "disable defender", "amsi"},
		Techniques: []model.Technique{
			{ID: "T1027", Name: "Obfuscated Files or Information", Tactic: "Defense Evasion"},
		},
		Conditionals: []Conditional{
			{Technique: model.Technique{ID: "T1070.001", Name: "Clear Windows Event Logs", Tactic: "Defense Evasion"}, Keywords: []string{"wevtutil cl", "clear-eventlog"}},
		},
	},
	{
		Tactic:   model.Tactic{ID: "TA0006", Name: "Credential Access"},
		Keywords: []string{"mimikatz", "lsass", "sekurlsa", "secretsdump", "hashdump", "credential dump", "kerberoast", "ntds.dit", "sam hive"},
		Techniques: []model.Technique{
			{ID: "T1003", Name: "OS Credential Dumping", Tactic: "Credential Access"},
		},
		Conditionals: []Conditional{
			{Technique: model.Technique{ID: "T1003.001", Name: "LSASS Memory", Tactic: "Credential Access"}, Keywords: []string{"mimikatz", "lsass", "sekurlsa"}},
			{Technique: model.Technique{ID: "T1558.003", Name: "Kerberoasting", Tactic: "Credential Access"}, Keywords: []string{"kerberoast"}},
		},
	},
	{
		Tactic:   model.Tactic{ID: "TA0007", Name: "Discovery"},
		Keywords: []string{"whoami", "net group", "net user", "nltest", "dsquery", "arp -a", "net view", "systeminfo", "nmap"},
		Techniques: []model.Technique{
			{ID: "T1087", Name: "Account Discovery", Tactic: "Discovery"},
		},
		Conditionals: []Conditional{
			{Technique: model.Technique{ID: "T1046", Name: "Network Service Discovery", Tactic: "Discovery"}, Keywords: []string{"nmap", "masscan", "port scan"}},
		},
	},
	{
		Tactic:   model.Tactic{ID: "TA0008", Name: "Lateral Movement"},
		Keywords: []string{"psexec", "winrm", "wmic /node", "invoke-command", "pass-the-hash", "rdp session"},
		Techniques: []model.Technique{
			{ID: "T1021", Name: "Remote Services", Tactic: "Lateral Movement"},
		},
		Conditionals: []Conditional{
			{Technique: model.Technique{ID: "T1021.002", Name: "SMB/Windows Admin Shares", Tactic: "Lateral Movement"}, Keywords: []string{"psexec", "admin$"}},
		},
	},
	{
		Tactic:   model.Tactic{ID: "TA0011", Name: "Command and Control"},
		Keywords: []string{"beacon", "c2 server", "reverse shell", "bind shell", "dns tunnel", "cobalt strike"},
		Techniques: []model.Technique{
			{ID: "T1071", Name: "Application Layer Protocol", Tactic: "Command and Control"},
		},
	},
	{
		Tactic:   model.Tactic{ID: "TA0010", Name: "Exfiltration"},
		Keywords: []string{"exfiltrat", "rclone", "mega.nz", "data staged", "upload to"},
		Techniques: []model.Technique{
			{ID: "T1041", Name: "Exfiltration Over C2 Channel", Tactic: "Exfiltration"},
		},
	},
	{
		Tactic:   model.Tactic{ID: "TA0040", Name: "Impact"},
		Keywords: []string{"vssadmin delete", "shadowcopy delete", "bcdedit", "ransom", "files encrypted", "wiper"},
		Techniques: []model.Technique{
			{ID: "T1490", Name: "Inhibit System Recovery", Tactic: "Impact"},
		},
		Conditionals: []Conditional{
			{Technique: model.Technique{ID: "T1486", Name: "Data Encrypted for Impact", Tactic: "Impact"}, Keywords: []string{"ransom", "files encrypted"}},
		},
	},
}

// defaultMapping is returned when no rule fires: generic initial access.
var defaultMapping = model.MitreMapping{
	Tactics:    []model.Tactic{{ID: "TA0001", Name: "Initial Access"}},
	Techniques: []model.Technique{{ID: "T1078", Name: "Valid Accounts", Tactic: "Initial Access"}},
}

// Map evaluates the rule catalogue against the text. Never returns an empty mapping.
func Map(text string) model.MitreMapping {
	lower := strings.ToLower(text)

	var mapping model.MitreMapping
	seenTactic := make(map[string]bool)
	seenTechnique := make(map[string]bool)

	for _, rule := range Rules {
		if !anyContained(lower, rule.Keywords) {
			continue
		}
		if !seenTactic[rule.Tactic.ID] {
			seenTactic[rule.Tactic.ID] = true
			mapping.Tactics = append(mapping.Tactics, rule.Tactic)
		}
		for _, tech := range rule.Techniques {
			if !seenTechnique[tech.ID] {
				seenTechnique[tech.ID] = true
				mapping.Techniques = append(mapping.Techniques, tech)
			}
		}
		// Sub-techniques only apply once the parent tactic has fired.
		for _, cond := range rule.Conditionals {
			if anyContained(lower, cond.Keywords) && !seenTechnique[cond.Technique.ID] {
				seenTechnique[cond.Technique.ID] = true
				mapping.Techniques = append(mapping.Techniques, cond.Technique)
			}
		}
	}

	if len(mapping.Tactics) == 0 {
		return defaultMapping
	}
	return mapping
}

func anyContained(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
