package plugins

import "testing"

func TestPermissionsGlobalAllowance(t *testing.T) {
	p := NewToolPermissions([]string{"run_command"})
	if !p.IsAllowed("s1", "run_command") {
		t.Error("globally allowed tool should pass for any session")
	}
	if p.IsAllowed("s1", "web_fetch") {
		t.Error("unlisted tool should not pass")
	}
}

func TestPermissionsSessionAllowance(t *testing.T) {
	p := NewToolPermissions(nil)
	p.AllowForSession("s1", "web_fetch")

	if !p.IsAllowed("s1", "web_fetch") {
		t.Error("session allowance should pass in its session")
	}
	if p.IsAllowed("s2", "web_fetch") {
		t.Error("session allowance should not leak across sessions")
	}
}

func TestPermissionsAcceptAll(t *testing.T) {
	p := NewToolPermissions(nil)
	p.AllowAllForSession("s1")

	if !p.IsAllowed("s1", "anything") {
		t.Error("accept-all session should pass every tool")
	}
	if !p.IsSessionAcceptAll("s1") {
		t.Error("IsSessionAcceptAll should report true")
	}
	if p.IsSessionAcceptAll("s2") {
		t.Error("other sessions are unaffected")
	}
}

func TestPermissionsCleanup(t *testing.T) {
	p := NewToolPermissions(nil)
	p.AllowForSession("s1", "web_fetch")
	p.CleanupSession("s1")

	if p.IsAllowed("s1", "web_fetch") {
		t.Error("cleanup should drop session allowances")
	}
}
