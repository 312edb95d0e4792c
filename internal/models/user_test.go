package models

import (
	"testing"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"fleet manager role", RoleFleetManager, true},
		{"operations role", RoleOperations, true},
		{"driver role", RoleDriver, true},
		{"finance role", RoleFinance, true},
		{"invalid role", "admin", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestRole_CanAccess(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		view     View
		expected bool
	}{
		{"fleet manager opens settings", RoleFleetManager, ViewSettings, true},
		{"fleet manager opens reports", RoleFleetManager, ViewReports, true},
		{"fleet manager manages users", RoleFleetManager, ViewUsers, true},

		{"operations opens vehicles", RoleOperations, ViewVehicles, true},
		{"operations opens alerts", RoleOperations, ViewAlerts, true},
		{"operations cannot open settings", RoleOperations, ViewSettings, false},
		{"operations cannot open reports", RoleOperations, ViewReports, false},

		{"driver opens trips", RoleDriver, ViewTrips, true},
		{"driver opens dashboard", RoleDriver, ViewDashboard, true},
		{"driver cannot open vehicles", RoleDriver, ViewVehicles, false},
		{"driver cannot open fuel", RoleDriver, ViewFuel, false},

		{"finance opens fuel", RoleFinance, ViewFuel, true},
		{"finance opens reports", RoleFinance, ViewReports, true},
		{"finance cannot open drivers", RoleFinance, ViewDrivers, false},

		{"unknown role sees nothing", Role("guest"), ViewDashboard, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.CanAccess(tt.view); got != tt.expected {
				t.Errorf("%s.CanAccess(%s) = %v, want %v", tt.role, tt.view, got, tt.expected)
			}
		})
	}
}

func TestAlertType_Priority(t *testing.T) {
	if !(AlertCritical.Priority() < AlertMaintenance.Priority() && AlertMaintenance.Priority() < AlertSchedule.Priority()) {
		t.Errorf("unexpected priority order: critical=%d maintenance=%d schedule=%d",
			AlertCritical.Priority(), AlertMaintenance.Priority(), AlertSchedule.Priority())
	}
}

func TestFuelLog_Cost(t *testing.T) {
	f := FuelLog{Liters: 40, PricePerLiter: 1.5, TotalCost: 999}
	if got := f.Cost(); got != 60 {
		t.Errorf("Cost() = %v, want 60", got)
	}
}
