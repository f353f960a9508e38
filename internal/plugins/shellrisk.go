package plugins

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ShellRisk classifies how dangerous a shell command is.
type ShellRisk int

const (
	// RiskSafe means the command only reads state.
	RiskSafe ShellRisk = iota
	// RiskMutating means the command changes files or system state.
	RiskMutating
	// RiskBlocked means the command is destructive enough to refuse outright.
	RiskBlocked
)

func (r ShellRisk) String() string {
	switch r {
	case RiskSafe:
		return "safe"
	case RiskMutating:
		return "mutating"
	case RiskBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// commands that only inspect state
var safeCommands = map[string]bool{
	"ls": true, "cat": true, "head": true, "tail": true, "grep": true,
	"find": true, "wc": true, "echo": true, "pwd": true, "which": true,
	"file": true, "stat": true, "du": true, "df": true, "env": true,
	"date": true, "whoami": true, "uname": true, "ps": true, "sort": true,
	"uniq": true, "cut": true, "tr": true, "diff": true, "basename": true,
	"dirname": true, "realpath": true, "readlink": true, "git": true,
}

// commands refused regardless of confirmation
var blockedCommands = map[string]bool{
	"mkfs": true, "fdisk": true, "parted": true, "shutdown": true,
	"reboot": true, "halt": true, "poweroff": true,
}

// ClassifyShellCommand parses command and returns the worst risk found
// across all simple commands in it. Unparseable input is treated as
// mutating so it still goes through confirmation.
func ClassifyShellCommand(command string) (ShellRisk, error) {
	parser := syntax.NewParser()
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return RiskMutating, fmt.Errorf("parse command: %w", err)
	}

	risk := RiskSafe
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		name := call.Args[0].Lit()
		r := classifyCall(name, call.Args[1:])
		if r > risk {
			risk = r
		}
		return true
	})

	return risk, nil
}

func classifyCall(name string, args []*syntax.Word) ShellRisk {
	switch {
	case name == "":
		// dynamic command name, e.g. $CMD
		return RiskMutating
	case blockedCommands[name]:
		return RiskBlocked
	case strings.HasPrefix(name, "mkfs."):
		return RiskBlocked
	case name == "rm":
		return classifyRemove(args)
	case name == "dd":
		return classifyDiskDump(args)
	case name == "sudo", name == "doas":
		if len(args) > 0 {
			inner := classifyCall(args[0].Lit(), args[1:])
			if inner > RiskMutating {
				return inner
			}
		}
		return RiskMutating
	case safeCommands[name]:
		return RiskSafe
	default:
		return RiskMutating
	}
}

// classifyRemove blocks recursive deletion of root-level paths.
func classifyRemove(args []*syntax.Word) ShellRisk {
	recursive := false
	var targets []string
	for _, arg := range args {
		lit := arg.Lit()
		if strings.HasPrefix(lit, "-") {
			if strings.ContainsAny(lit, "rR") {
				recursive = true
			}
			continue
		}
		targets = append(targets, lit)
	}
	if !recursive {
		return RiskMutating
	}
	for _, t := range targets {
		clean := strings.TrimSuffix(t, "/")
		if t == "/" || clean == "" || t == "/*" ||
			clean == "/home" || clean == "/etc" || clean == "/usr" ||
			clean == "/var" || clean == "/boot" || t == "~" ||
			t == "$HOME" || t == "${HOME}" {
			return RiskBlocked
		}
	}
	return RiskMutating
}

// classifyDiskDump blocks dd writing directly to block devices.
func classifyDiskDump(args []*syntax.Word) ShellRisk {
	for _, arg := range args {
		lit := arg.Lit()
		if strings.HasPrefix(lit, "of=/dev/") && !strings.HasPrefix(lit, "of=/dev/null") {
			return RiskBlocked
		}
	}
	return RiskMutating
}
