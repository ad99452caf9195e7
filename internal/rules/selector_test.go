package rules

import "testing"

func TestSelectorMatches_Empty(t *testing.T) {
	if !selectorMatches("anything at all", "") {
		t.Error("empty selector must match every node")
	}
}

func TestSelectorMatches_Boundary(t *testing.T) {
	tests := []struct {
		nodeID, selector string
		want             bool
	}{
		{"ipv6 address 2001::1/64", "ip", false},
		{"ip address 10.0.0.1 255.255.255.0", "ip", true},
		{"ip address 10.0.0.1 255.255.255.0", "ip address 10.0.0.1 255.255.255.0", true},
		{"interface GigabitEthernet0/1", "interface", true},
		{"interfacex", "interface", false},
	}
	for _, tt := range tests {
		if got := selectorMatches(tt.nodeID, tt.selector); got != tt.want {
			t.Errorf("selectorMatches(%q, %q) = %v, want %v", tt.nodeID, tt.selector, got, tt.want)
		}
	}
}

func TestSelectorMatches_CaseInsensitive(t *testing.T) {
	if !selectorMatches("INTERFACE GigabitEthernet0/1", "interface") {
		t.Error("expected case-insensitive match")
	}
	if !selectorMatches("interface GigabitEthernet0/1", "INTERFACE") {
		t.Error("expected case-insensitive match regardless of which side is uppercase")
	}
}

// Selector misuse: leading whitespace matches nothing, never errors.
func TestSelectorMatches_LeadingWhitespaceMisuse(t *testing.T) {
	if selectorMatches("interface Gi0/1", " interface") {
		t.Error("selector with leading whitespace must match nothing")
	}
}

func TestSelectorMatches_TabIsBoundary(t *testing.T) {
	if !selectorMatches("ip\taddress 1.1.1.1", "ip") {
		t.Error("expected tab to act as a right-boundary")
	}
}
