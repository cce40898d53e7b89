package mitre

import "testing"

func TestMapCredentialDumping(t *testing.T) {
	m := Map("lsass.exe --dump-memory observed, mimikatz signature")

	if !m.HasTechnique("T1003") {
		t.Error("missing T1003 OS Credential Dumping")
	}
	if !m.HasTechnique("T1003.001") {
		t.Error("missing T1003.001 LSASS Memory sub-technique")
	}

	found := false
	for _, tac := range m.Tactics {
		if tac.ID == "TA0006" {
			found = true
		}
	}
	if !found {
		t.Error("missing Credential Access tactic")
	}
}

func TestMapSubTechniqueRequiresParent(t *testing.T) {
	// "kerberoast" fires Credential Access, so its conditional applies.
	m := Map("kerberoast attack against service accounts")
	if !m.HasTechnique("T1558.003") {
		t.Error("missing T1558.003 Kerberoasting")
	}
	if !m.HasTechnique("T1003") {
		t.Error("parent technique T1003 should fire with the tactic")
	}
}

func TestMapObfuscatedPowerShell(t *testing.T) {
	m := Map("powershell.exe -enc JABjAGwA")

	if !m.HasTechnique("T1059.001") {
		t.Error("missing T1059.001 PowerShell")
	}
	if !m.HasTechnique("T1027") {
		t.Error("missing T1027 Obfuscated Files or Information")
	}

	var tactics []string
	for _, tac := range m.Tactics {
		tactics = append(tactics, tac.ID)
	}
	// Execution precedes Defense Evasion in kill-chain order.
	if len(tactics) < 2 || tactics[0] != "TA0002" || tactics[1] != "TA0005" {
		t.Errorf("tactics = %v, want [TA0002 TA0005 ...]", tactics)
	}
}

func TestMapDefaultNeverEmpty(t *testing.T) {
	for _, text := range []string{"", "routine heartbeat message", "disk usage at 40%"} {
		m := Map(text)
		if len(m.Tactics) != 1 || m.Tactics[0].ID != "TA0001" {
			t.Errorf("Map(%q) tactics = %+v, want default Initial Access", text, m.Tactics)
		}
		if len(m.Techniques) != 1 || m.Techniques[0].ID != "T1078" {
			t.Errorf("Map(%q) techniques = %+v, want default T1078", text, m.Techniques)
		}
	}
}

func TestMapDeduplicatesTechniques(t *testing.T) {
	m := Map("mimikatz then more mimikatz via lsass access")
	count := 0
	for _, tech := range m.Techniques {
		if tech.ID == "T1003.001" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("T1003.001 appears %d times, want 1", count)
	}
}
