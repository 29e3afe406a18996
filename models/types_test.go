// ABOUTME: Tests for CRM data models
// ABOUTME: Validates credential usability window and finance recompute rules
package models

import (
	"testing"
	"time"
)

func TestCredentialUsable(t *testing.T) {
	now := time.Now()

	fresh := &Credential{AccessToken: "a", ExpiryDate: now.Add(time.Hour).UnixMilli()}
	if !fresh.Usable(now) {
		t.Error("expected token valid for an hour to be usable")
	}

	expiring := &Credential{AccessToken: "a", ExpiryDate: now.Add(4 * time.Minute).UnixMilli()}
	if expiring.Usable(now) {
		t.Error("expected token inside the safety margin to be unusable")
	}

	var missing *Credential
	if missing.Usable(now) {
		t.Error("expected nil credential to be unusable")
	}
}

func TestInvoiceRecompute(t *testing.T) {
	inv := &Invoice{Amount: 1000, Tax: 100}
	inv.Recompute()
	if inv.Total != 1100 {
		t.Errorf("expected total 1100, got %v", inv.Total)
	}

	inv.Tax = 160
	inv.Recompute()
	if inv.Total != 1160 {
		t.Errorf("expected total 1160 after tax change, got %v", inv.Total)
	}
}

func TestInvoiceRecomputeFromItems(t *testing.T) {
	inv := &Invoice{
		Items: []InvoiceItem{
			{Description: "Landing page", Quantity: 1, UnitPrice: 750},
			{Description: "Hosting", Quantity: 2, UnitPrice: 125.5},
		},
		Tax: 100,
	}
	inv.Recompute()

	if inv.Amount != 1001 {
		t.Errorf("expected amount 1001, got %v", inv.Amount)
	}
	if inv.Total != 1101 {
		t.Errorf("expected total 1101, got %v", inv.Total)
	}
}

func TestBudgetRecompute(t *testing.T) {
	b := &Budget{
		Categories: []BudgetCategory{
			{Name: "ads", Allocated: 500, Spent: 200},
			{Name: "tools", Allocated: 300, Spent: 50},
		},
	}
	b.Recompute()

	if b.TotalBudget != 800 {
		t.Errorf("expected total budget 800, got %v", b.TotalBudget)
	}
	if b.Spent != 250 || b.Remaining != 550 {
		t.Errorf("expected spent 250 remaining 550, got %v/%v", b.Spent, b.Remaining)
	}
	if b.Status != BudgetActive {
		t.Errorf("expected active, got %s", b.Status)
	}

	b.Categories[0].Spent = 900
	b.Recompute()
	if b.Status != BudgetExceeded {
		t.Errorf("expected exceeded, got %s", b.Status)
	}
	if b.Remaining != -150 {
		t.Errorf("expected remaining -150, got %v", b.Remaining)
	}
}

func TestEnumValidation(t *testing.T) {
	if !ValidEstado(EstadoEnSeguimiento) {
		t.Error("expected 'En seguimiento' to be valid")
	}
	if ValidEstado("Archivado") {
		t.Error("expected unknown estado to be invalid")
	}
	if !ValidPlataforma(PlataformaInstagram) {
		t.Error("expected Instagram to be valid")
	}
	if !ValidRole(RoleViewer) || ValidRole("owner") {
		t.Error("role validation mismatch")
	}
}

func TestDefaultPermissions(t *testing.T) {
	admin := DefaultPermissions(RoleAdmin)
	viewer := DefaultPermissions(RoleViewer)

	if len(admin) <= len(viewer) {
		t.Errorf("expected admin to hold more permissions than viewer (%d vs %d)", len(admin), len(viewer))
	}
	for _, p := range viewer {
		if p == PermUsersManage {
			t.Error("viewer must not manage users")
		}
	}
}
