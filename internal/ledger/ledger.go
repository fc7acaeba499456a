package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Log file layout within a project directory.
const (
	LogDir      = "agent_log"
	ExchangeLog = "exchange_log.md"
	ContextLog  = "context_log.md"
)

// Entry ID prefixes.
const (
	PrefixHandoff    = "HO"
	PrefixBlocker    = "BLK"
	PrefixDecision   = "DEC"
	PrefixInvocation = "INV"
)

const timestampLayout = "2006-01-02 15:04"

// ExchangeLogPath returns the exchange log path for a project directory.
func ExchangeLogPath(projectDir string) string {
	return filepath.Join(projectDir, LogDir, ExchangeLog)
}

// ContextLogPath returns the context log path for a project directory.
func ContextLogPath(projectDir string) string {
	return filepath.Join(projectDir, LogDir, ContextLog)
}

// ReadExchangeLog returns the exchange log text. The error wraps
// os.ErrNotExist when the log has never been written.
func ReadExchangeLog(projectDir string) (string, error) {
	return readLog(ExchangeLogPath(projectDir))
}

// ReadContextLog returns the context log text. The error wraps
// os.ErrNotExist when the log has never been written.
func ReadContextLog(projectDir string) (string, error) {
	return readLog(ContextLogPath(projectDir))
}

func readLog(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read log %s: %w", path, err)
	}
	return string(data), nil
}

// NextID returns the next sequential entry ID for a prefix, based on the
// highest numbered occurrence already in the log text. An empty log yields
// <prefix>-001.
func NextID(logText, prefix string) string {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(prefix) + `-?(\d+)`)
	highest := 0
	for _, m := range re.FindAllStringSubmatch(logText, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, highest+1)
}

// AppendStageTransition records a stage change in the context log. If the
// context log does not exist the entry is skipped: projects without logs
// are not promoted into logging projects by a stage change.
func AppendStageTransition(projectDir, previous, target string, at time.Time) error {
	path := ContextLogPath(projectDir)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat log %s: %w", path, err)
	}

	if previous == "" {
		previous = "NONE"
	}

	entry := fmt.Sprintf(`
---

### STAGE TRANSITION

- **timestamp:** %s
- **type:** stage-transition
- **from:** %s
- **to:** %s

`, at.Format(timestampLayout), previous, target)

	return appendEntry(path, entry, false)
}

// AppendHandoff records a work transfer in the exchange log and returns the
// entry ID. Parent directories are created as needed.
func AppendHandoff(projectDir, fromAgent, toAgent string, artifacts []string, notes string, at time.Time) (string, error) {
	path := ExchangeLogPath(projectDir)
	existing, _ := ReadExchangeLog(projectDir)
	id := NextID(existing, PrefixHandoff)

	artifactLines := "- (none)"
	if len(artifacts) > 0 {
		lines := make([]string, len(artifacts))
		for i, a := range artifacts {
			lines[i] = fmt.Sprintf("- `%s`", a)
		}
		artifactLines = strings.Join(lines, "\n")
	}
	if notes == "" {
		notes = "(none provided)"
	}

	entry := fmt.Sprintf(`
---

### %s — %s → %s

- **timestamp:** %s
- **type:** handoff
- from: %s
- to: %s

**Artifacts Included:**
%s

**Handoff Notes:**
%s

`, id, fromAgent, toAgent, at.Format(timestampLayout), fromAgent, toAgent, artifactLines, notes)

	if err := appendEntry(path, entry, true); err != nil {
		return "", err
	}
	return id, nil
}

// AppendBlocker records an impediment in the context log and returns the
// entry ID.
func AppendBlocker(projectDir, reporter, title, description string, blockedAgents []string, at time.Time) (string, error) {
	path := ContextLogPath(projectDir)
	existing, _ := ReadContextLog(projectDir)
	id := NextID(existing, PrefixBlocker)

	blocked := "(none)"
	if len(blockedAgents) > 0 {
		blocked = strings.Join(blockedAgents, ", ")
	}

	entry := fmt.Sprintf(`
---

### %s — %s

- **timestamp:** %s
- **type:** blocker
- **reporter:** %s
- blocked_agents: [%s]

**Description:**
%s

`, id, title, at.Format(timestampLayout), reporter, blocked, description)

	if err := appendEntry(path, entry, true); err != nil {
		return "", err
	}
	return id, nil
}

// AppendDecision records a decision and its rationale in the context log
// and returns the entry ID.
func AppendDecision(projectDir, agentID, title, rationale string, at time.Time) (string, error) {
	path := ContextLogPath(projectDir)
	existing, _ := ReadContextLog(projectDir)
	id := NextID(existing, PrefixDecision)

	entry := fmt.Sprintf(`
---

### %s — %s

- **timestamp:** %s
- **type:** decision
- **agent:** %s

**Rationale:**
%s

`, id, title, at.Format(timestampLayout), agentID, rationale)

	if err := appendEntry(path, entry, true); err != nil {
		return "", err
	}
	return id, nil
}

// AppendInvocation records an on-demand agent invocation in the exchange
// log.
func AppendInvocation(projectDir, agentID, reason string, at time.Time) error {
	if reason == "" {
		reason = "Manual invocation"
	}

	entry := fmt.Sprintf(`
---

### INVOKE: %s

- timestamp: %s
- type: on-demand-invocation
- agent: %s
- reason: %s

`, agentID, at.Format(timestampLayout), agentID, reason)

	return appendEntry(ExchangeLogPath(projectDir), entry, true)
}

func appendEntry(path, entry string, createDirs bool) error {
	if createDirs {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create log dir for %s: %w", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append to log %s: %w", path, err)
	}
	return nil
}
