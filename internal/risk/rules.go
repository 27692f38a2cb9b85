package risk

import (
	"regexp"

	"github.com/termgate/termgate/internal/clog"
)

// Rule pairs a regex pattern with the reason reported when it matches.
type Rule struct {
	Pattern string
	Reason  string
}

// compiledRule holds a compiled regex and its reason string.
type compiledRule struct {
	regex  *regexp.Regexp
	reason string
}

// RuleMatcher implements Classifier using ordered regex rule sets.
// Blocked rules are checked first, then high, then medium. The first
// matching rule wins; commands matching nothing are low risk.
type RuleMatcher struct {
	blocked []compiledRule
	high    []compiledRule
	medium  []compiledRule
}

// NewRuleMatcher creates a RuleMatcher from the given rule slices.
// Invalid patterns are logged and skipped, not fatal.
func NewRuleMatcher(blocked, high, medium []Rule) *RuleMatcher {
	return &RuleMatcher{
		blocked: compileRules(blocked, "blocked"),
		high:    compileRules(high, "high"),
		medium:  compileRules(medium, "medium"),
	}
}

// NewDefault creates a RuleMatcher with the built-in rule set.
func NewDefault() *RuleMatcher {
	return NewRuleMatcher(DefaultBlockedRules(), DefaultHighRules(), DefaultMediumRules())
}

// compileRules compiles a slice of rules, skipping invalid patterns.
func compileRules(rules []Rule, tier string) []compiledRule {
	result := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			clog.Warn("invalid %s risk pattern %q: %v (skipped)", tier, r.Pattern, err)
			continue
		}
		result = append(result, compiledRule{regex: re, reason: r.Reason})
	}
	return result
}

// Classify checks the command against blocked, high, and medium rules in
// that order. It is a total function: every command gets exactly one tier.
func (m *RuleMatcher) Classify(cmd string) Assessment {
	for _, r := range m.blocked {
		if r.regex.MatchString(cmd) {
			return Assessment{Tier: TierBlocked, Reason: r.reason}
		}
	}
	for _, r := range m.high {
		if r.regex.MatchString(cmd) {
			return Assessment{Tier: TierHigh, Reason: r.reason}
		}
	}
	for _, r := range m.medium {
		if r.regex.MatchString(cmd) {
			return Assessment{Tier: TierMedium, Reason: r.reason}
		}
	}
	return Assessment{Tier: TierLow}
}

// DefaultBlockedRules returns commands that are refused outright.
// These are operations with catastrophic, system-wide, or irreversible
// effect where human approval is not a sufficient safeguard.
func DefaultBlockedRules() []Rule {
	return []Rule{
		{Pattern: `(?i)\brm\s+(-[a-z]*[rf][a-z]*\s+)+(/|/\*)(\s|$)`, Reason: "recursive deletion of the filesystem root"},
		{Pattern: `(?i)\bmkfs(\.[a-z0-9]+)?\b`, Reason: "reformats a block device, destroying its contents"},
		{Pattern: `(?i)\bdd\b.*\bof=/dev/(sd|hd|nvme|vd)`, Reason: "raw write to a disk device"},
		{Pattern: `:\(\)\s*\{\s*:\|:&\s*\}\s*;\s*:`, Reason: "fork bomb"},
		{Pattern: `(?i)>\s*/dev/(sd|hd|nvme|vd)[a-z0-9]*`, Reason: "redirect output onto a disk device"},
		{Pattern: `(?i)\bchmod\s+(-[a-z]*R[a-z]*\s+)+[0-7]+\s+/(\s|$)`, Reason: "recursive permission change on the filesystem root"},
	}
}

// DefaultHighRules returns commands that require confirmation at high tier:
// privilege escalation, service and host lifecycle, firewall changes, and
// piping remote content into a shell.
func DefaultHighRules() []Rule {
	return []Rule{
		{Pattern: `(?i)\bsudo\b`, Reason: "privilege escalation via sudo"},
		{Pattern: `(?i)\bsystemctl\s+(start|stop|restart|disable|enable|mask)\b`, Reason: "changes the state of a system service"},
		{Pattern: `(?i)\b(shutdown|reboot|poweroff|halt)\b`, Reason: "host power state change"},
		{Pattern: `(?i)\b(iptables|nft|ufw|firewall-cmd)\b`, Reason: "modifies firewall rules"},
		{Pattern: `(?i)\b(useradd|userdel|usermod|passwd|groupadd)\b`, Reason: "modifies system accounts"},
		{Pattern: `(?i)\b(curl|wget)\b[^|;]*\|\s*(ba|z|da|k)?sh\b`, Reason: "pipes downloaded content into a shell"},
		{Pattern: `(?i)\bchown\s+(-[a-z]*R[a-z]*\s+)`, Reason: "recursive ownership change"},
		{Pattern: `(?i)\bkill\s+(-9\s+)?1\b`, Reason: "signals the init process"},
	}
}

// DefaultMediumRules returns commands that require confirmation at medium
// tier: destructive but scoped file operations, package management, and
// mutations of shared infrastructure.
func DefaultMediumRules() []Rule {
	return []Rule{
		{Pattern: `(?i)\brm\s+(-[a-z]*[rf][a-z]*\s*)+`, Reason: "recursive or forced file deletion"},
		{Pattern: `(?i)\b(apt|apt-get|yum|dnf|apk|brew)\s+(install|remove|purge|upgrade)\b`, Reason: "system package change"},
		{Pattern: `(?i)\bpip3?\s+(install|uninstall)\b`, Reason: "python package change"},
		{Pattern: `(?i)\bnpm\s+(install|uninstall|update)\s+(-g|--global)\b`, Reason: "global npm package change"},
		{Pattern: `(?i)\bgit\s+push\s+.*(--force|-f)\b`, Reason: "force push rewrites remote history"},
		{Pattern: `(?i)\bdocker\s+(rm|rmi|system\s+prune|volume\s+rm)\b`, Reason: "removes docker resources"},
		{Pattern: `(?i)\bchmod\s+(-[a-z]*R[a-z]*\s+)`, Reason: "recursive permission change"},
		{Pattern: `(?i)\b(mv|cp)\b.*\s/etc/`, Reason: "writes into /etc"},
		{Pattern: `(?i)\bcrontab\s+(-r|\S+\.cron)`, Reason: "modifies scheduled jobs"},
		{Pattern: `(?i)\btruncate\s+-s\s*0\b`, Reason: "truncates a file to zero length"},
	}
}
