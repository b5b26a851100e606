package fuseside

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCapabilitiesAreFuseMinimal(t *testing.T) {
	p := NewSecurityPolicy(nil, PolicyEnforce, 10)
	require.True(t, p.HasCapability(CapSysAdmin))
	require.True(t, p.HasCapability(CapDacReadSearch))
	require.False(t, p.HasCapability(CapChown))
}

func TestCheckSyscallEnforceMode(t *testing.T) {
	p := NewSecurityPolicy([]string{"read", "write"}, PolicyEnforce, 10)
	require.True(t, p.CheckSyscall("read"))
	require.False(t, p.CheckSyscall("ptrace"))
	require.Len(t, p.Violations(), 1)
}

func TestCheckSyscallLogModeAllowsButRecords(t *testing.T) {
	p := NewSecurityPolicy([]string{"read"}, PolicyLog, 10)
	require.True(t, p.CheckSyscall("ptrace"))
	require.Len(t, p.Violations(), 1)
}

func TestCheckSyscallDisabledModeAlwaysAllows(t *testing.T) {
	p := NewSecurityPolicy(nil, PolicyDisabled, 10)
	require.True(t, p.CheckSyscall("anything"))
	require.Empty(t, p.Violations())
}

func TestIsOverLimit(t *testing.T) {
	p := NewSecurityPolicy(nil, PolicyEnforce, 2)
	require.False(t, p.IsOverLimit())
	p.RecordViolation("a", "")
	p.RecordViolation("b", "")
	require.False(t, p.IsOverLimit())
	p.RecordViolation("c", "")
	require.True(t, p.IsOverLimit())
}
