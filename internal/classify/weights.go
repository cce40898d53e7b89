// Package classify aggregates every analysis signal into a single
// true-positive/false-positive verdict with a calibrated confidence value.
package classify

// PhraseRule is one weighted phrase in the classification catalogues.
type PhraseRule struct {
	Phrase      string
	Points      int
	Description string
}

// CriticalPhrases push strongly toward true-positive (25..35 points each).
var CriticalPhrases = []PhraseRule{
	{"mimikatz", 35, "Credential dumping tool signature (mimikatz)"},
	{"sekurlsa", 35, "LSASS credential extraction module (sekurlsa)"},
	{"secretsdump", 32, "Remote secrets dumping tool (secretsdump)"},
	{"lsass", 32, "LSASS process access"},
	{"meterpreter", 35, "Meterpreter payload reference"},
	{"cobalt strike", 35, "Cobalt Strike framework reference"},
	{"vssadmin delete", 35, "Volume shadow copy deletion command"},
	{"shadowcopy delete", 32, "Shadow copy deletion via WMI"},
	{"recoveryenabled no", 30, "Windows recovery disable command"},
	{"hashdump", 28, "Password hash dumping command"},
	{"ransom", 30, "Ransomware activity reference"},
	{"wevtutil cl", 26, "Event log clearing command"},
	{"clear-eventlog", 26, "Event log clearing cmdlet"},
	{"-encodedcommand", 25, "Encoded PowerShell command"},
	{"frombase64string", 25, "Inline base64 payload decoding"},
}

// SuspiciousPhrases push moderately toward true-positive (8..22 points each).
var SuspiciousPhrases = []PhraseRule{
	{"psexec", 22, "Remote execution tool (psexec)"},
	{"-enc ", 20, "Abbreviated encoded PowerShell flag"},
	{"certutil -urlcache", 20, "File download via certutil"},
	{"bitsadmin /transfer", 18, "File transfer via bitsadmin"},
	{"dump", 18, "Memory or credential dump reference"},
	{"winrm", 15, "Remote management session (WinRM)"},
	{"schtasks /create", 15, "Scheduled task creation"},
	{"rundll32", 14, "Proxy execution via rundll32"},
	{"invoke-webrequest", 14, "Scripted download (Invoke-WebRequest)"},
	{"net group \"domain admins\"", 14, "Domain admin group enumeration"},
	{"nltest", 12, "Domain trust enumeration"},
	{"dsquery", 12, "Directory service enumeration"},
	{"reg add", 12, "Registry modification from command line"},
	{"net user", 10, "Account enumeration or modification"},
	{"whoami", 10, "Identity discovery command"},
	{"net view", 10, "Network share enumeration"},
	{"arp -a", 8, "ARP cache enumeration"},
}

// LegitimatePhrases push toward false-positive (5..15 points each).
var LegitimatePhrases = []PhraseRule{
	{"windows update", 15, "Windows Update activity"},
	{"windows defender", 12, "Security software activity (Defender)"},
	{"antivirus scan", 12, "Scheduled antivirus scan"},
	{"definition update", 10, "Security definition update"},
	{"scheduled maintenance", 10, "Declared maintenance window"},
	{"backup completed", 10, "Backup job completion"},
	{"software update", 10, "Routine software update"},
	{"patch installed", 10, "Patch installation"},
	{"msiexec", 8, "Installer service activity"},
	{"chrome.exe", 6, "Browser process activity"},
	{"firefox.exe", 6, "Browser process activity"},
	{"outlook.exe", 5, "Office process activity"},
	{"teams.exe", 5, "Office process activity"},
	{"service started", 5, "Routine service start event"},
}

// benignContexts shift the balance toward false-positive when the declared
// system context names a non-production environment.
var benignContexts = []PhraseRule{
	{"sandbox", 20, "Sandbox environment context"},
	{"test", 15, "Test environment context"},
	{"dev", 15, "Development environment context"},
	{"staging", 15, "Staging environment context"},
	{"lab", 15, "Lab environment context"},
}

// criticalContexts shift the balance toward true-positive for high-value systems.
var criticalContexts = []PhraseRule{
	{"domain controller", 15, "Domain controller context"},
	{"production", 12, "Production environment context"},
	{"critical", 12, "Business-critical system context"},
	{"payment", 12, "Payment system context"},
	{"database server", 10, "Database server context"},
}

// Declared-severity contributions to the true-positive total.
const (
	declaredCriticalPoints = 10
	declaredHighPoints     = 8
)

// Threat-intel correlation weights.
const (
	maliciousIndicatorPoints = 8
	maliciousIndicatorCap    = 30
	threatLevelCriticalBonus = 20
	threatLevelHighBonus     = 12
)

// riskScoreBuckets translate the external feed's 0..100 risk score into points.
var riskScoreBuckets = []struct {
	min    int
	points int
}{
	{80, 35},
	{60, 25},
	{40, 15},
	{20, 8},
}

// classificationThreshold is the score differential at or above which an
// incident is a true positive. Together with the confidence bands below it is
// an empirically chosen calibration parameter; downstream severity and IOC
// logic assumes this exact value.
const classificationThreshold = 40

// statisticalGate: the statistical anomaly score only contributes when the
// combined score exceeds this value.
const statisticalGate = 15

// confidenceBands map the absolute score differential to a confidence range.
var confidenceBands = []struct {
	minDiff int // exclusive lower bound on |differential|
	base    int
	ceiling int
}{
	{80, 85, 95},
	{50, 75, 90},
	{30, 65, 85},
	{-1, 55, 75},
}

// reasonBonusPoints is added per distinct contributing reason, capped at the
// band ceiling.
const reasonBonusPoints = 2

// Hard confidence bounds for the classification path.
const (
	confidenceFloor   = 55
	confidenceCeiling = 95
)

// maxReasons is how many contributing reasons the result carries.
const maxReasons = 5
