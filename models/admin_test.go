package models

import "testing"

func TestCanCreate(t *testing.T) {
	cases := []struct {
		actor  Role
		target Role
		want   bool
	}{
		{RoleSystemadmin, RoleAdmin, true},
		{RoleSystemadmin, RoleSuperadmin, true},
		{RoleSystemadmin, RoleSystemadmin, true},
		{RoleSuperadmin, RoleAdmin, true},
		{RoleSuperadmin, RoleSuperadmin, true},
		{RoleSuperadmin, RoleSystemadmin, false},
		{RoleAdmin, RoleAdmin, false},
		{RoleAdmin, RoleSuperadmin, false},
		{RoleAdmin, RoleSystemadmin, false},
	}
	for _, tc := range cases {
		if got := tc.actor.CanCreate(tc.target); got != tc.want {
			t.Errorf("%s.CanCreate(%s) = %v, want %v", tc.actor, tc.target, got, tc.want)
		}
	}

	if RoleSystemadmin.CanCreate(Role("bogus")) {
		t.Errorf("unknown target role must not be creatable")
	}
}

func TestCanManageCompanies(t *testing.T) {
	if !RoleSystemadmin.CanManageCompanies() {
		t.Fatalf("systemadmin must manage companies")
	}
	if RoleSuperadmin.CanManageCompanies() || RoleAdmin.CanManageCompanies() {
		t.Fatalf("only systemadmin manages companies")
	}
}

func TestAuditScope(t *testing.T) {
	system := &Admin{Role: RoleSystemadmin, CompanyID: "c1"}
	if got := system.AuditScope(); got != "system" {
		t.Fatalf("systemadmin scope = %q, want system", got)
	}

	regular := &Admin{Role: RoleAdmin, CompanyID: "c1"}
	if got := regular.AuditScope(); got != "c1" {
		t.Fatalf("admin scope = %q, want c1", got)
	}
}
