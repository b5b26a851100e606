package mgmt

import (
	"math"
	"testing"
	"time"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/stretchr/testify/require"
)

func TestAssignInodeSucceedsWithinQuota(t *testing.T) {
	m := NewTenantManager(nil)
	require.NoError(t, m.AddTenant(TenantConfig{ID: "t1", Active: true, MaxInodes: 2, MaxBytes: math.MaxUint64, CreatedAt: time.Now()}))
	require.NoError(t, m.AssignInode("t1", 100))
	require.NoError(t, m.AssignInode("t1", 101))
	err := m.AssignInode("t1", 102)
	require.Error(t, err)
	require.True(t, claudeerr.Is(err, claudeerr.DomainFuse, claudeerr.KindQuotaExceeded))
}

func TestAssignInodeFailsUnknownOrInactiveTenant(t *testing.T) {
	m := NewTenantManager(nil)
	err := m.AssignInode("nope", 1)
	require.True(t, claudeerr.Is(err, claudeerr.DomainMgmt, claudeerr.KindNotFound))

	m.AddTenant(TenantConfig{ID: "t2", Active: false, MaxInodes: math.MaxUint64, MaxBytes: math.MaxUint64})
	err = m.AssignInode("t2", 1)
	require.True(t, claudeerr.Is(err, claudeerr.DomainMgmt, claudeerr.KindTenantInactive))
}

func TestCheckTenantQuotaUnlimitedMax(t *testing.T) {
	m := NewTenantManager(nil)
	m.AddTenant(TenantConfig{ID: "t3", Active: true, MaxInodes: math.MaxUint64, MaxBytes: math.MaxUint64})
	require.True(t, m.CheckTenantQuota("t3", 1<<40, 1<<50))
}

func TestCheckTenantQuotaBoundedFails(t *testing.T) {
	m := NewTenantManager(nil)
	m.AddTenant(TenantConfig{ID: "t4", Active: true, MaxInodes: 10, MaxBytes: 100})
	require.True(t, m.CheckTenantQuota("t4", 5, 50))
	require.False(t, m.CheckTenantQuota("t4", 11, 0))
	require.False(t, m.CheckTenantQuota("t4", 0, 101))
}

func TestIsAuthorizedEmptyListsAllowAll(t *testing.T) {
	m := NewTenantManager(nil)
	m.AddTenant(TenantConfig{ID: "t5", Active: true})
	require.True(t, m.IsAuthorized("t5", 1000, 1000))
}

func TestIsAuthorizedRestrictedLists(t *testing.T) {
	m := NewTenantManager(nil)
	m.AddTenant(TenantConfig{ID: "t6", Active: true, AllowedUIDs: []uint32{42}})
	require.True(t, m.IsAuthorized("t6", 42, 999))
	require.False(t, m.IsAuthorized("t6", 1, 999))
}

func TestIsAuthorizedInactiveTenantDenied(t *testing.T) {
	m := NewTenantManager(nil)
	m.AddTenant(TenantConfig{ID: "t7", Active: false})
	require.False(t, m.IsAuthorized("t7", 1, 1))
}
