package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"gudangku/internal/audit"
	"gudangku/internal/docstore"
	"gudangku/internal/domain"
	"gudangku/internal/ledger"
	"gudangku/internal/users"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs, err := docstore.NewFileStore(t.TempDir(), log)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	l, err := ledger.New(ctx, docs, log)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	tr, err := audit.New(ctx, docs, log)
	if err != nil {
		t.Fatalf("audit.New: %v", err)
	}
	us, err := users.New(ctx, docs, log)
	if err != nil {
		t.Fatalf("users.New: %v", err)
	}
	return New(l, tr, us, log)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "boss", Role: domain.RoleAdmin})
}

func userCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "clerk", Role: domain.RoleUser})
}

func TestAddItemRecordsAudit(t *testing.T) {
	s := newTestService(t)
	ctx := userCtx()

	if _, err := s.AddItem(ctx, domain.ItemCreateRequest{Name: "Rice", Unit: 10, BuyingPrice: 100}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	entries := s.AuditEntries()
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Action != "item_add" || e.Username != "clerk" || e.ItemName != "Rice" {
		t.Fatalf("audit entry = %+v", e)
	}
}

func TestFailedOperationRecordsNothing(t *testing.T) {
	s := newTestService(t)
	ctx := userCtx()

	_, err := s.AddItem(ctx, domain.ItemCreateRequest{Name: "Gold", Unit: 1, BuyingPrice: ledger.InitialBudget + 1})
	if !errors.Is(err, domain.ErrInsufficientBudget) {
		t.Fatalf("err = %v, want ErrInsufficientBudget", err)
	}
	if n := len(s.AuditEntries()); n != 0 {
		t.Fatalf("failed add produced %d audit entries", n)
	}
}

func TestSellRecordsRevenueAndSeller(t *testing.T) {
	s := newTestService(t)
	ctx := userCtx()

	if _, err := s.AddItem(ctx, domain.ItemCreateRequest{Name: "Rice", Unit: 10, BuyingPrice: 100}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	sold, err := s.SellItem(ctx, 0, domain.SellRequest{Quantity: 2, SellingPrice: 150})
	if err != nil {
		t.Fatalf("SellItem: %v", err)
	}
	if sold.SoldBy != "clerk" {
		t.Fatalf("soldBy = %q, want clerk", sold.SoldBy)
	}

	entries := s.AuditEntries()
	last := entries[len(entries)-1]
	if last.Action != "item_sell" || last.QuantitySold != 2 || last.TotalRevenue != 300 {
		t.Fatalf("sell audit entry = %+v", last)
	}
}

func TestUserManagementRequiresAdmin(t *testing.T) {
	s := newTestService(t)

	if _, err := s.AddUser(userCtx(), domain.UserCreateRequest{Username: "x", Password: "p"}); err == nil {
		t.Fatal("non-admin added a user")
	}
	if _, err := s.ListUsers(userCtx()); err == nil {
		t.Fatal("non-admin listed users")
	}

	if _, err := s.AddUser(adminCtx(), domain.UserCreateRequest{Username: "x", Password: "p"}); err != nil {
		t.Fatalf("admin AddUser: %v", err)
	}
	list, err := s.ListUsers(adminCtx())
	if err != nil || len(list) != 1 {
		t.Fatalf("ListUsers = (%d, %v), want 1 user", len(list), err)
	}
}

func TestBudgetResetRequiresAdmin(t *testing.T) {
	s := newTestService(t)

	if err := s.ResetBudget(userCtx()); err == nil {
		t.Fatal("non-admin reset the budget")
	}
	if err := s.ResetBudget(adminCtx()); err != nil {
		t.Fatalf("admin ResetBudget: %v", err)
	}

	entries := s.AuditEntries()
	if len(entries) != 1 || entries[0].Action != "budget_reset" || entries[0].Username != "boss" {
		t.Fatalf("audit entries = %+v", entries)
	}
}

func TestReports(t *testing.T) {
	s := newTestService(t)
	ctx := userCtx()

	if _, err := s.AddItem(ctx, domain.ItemCreateRequest{Name: "Rice", Unit: 10, BuyingPrice: 100}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := s.SellItem(ctx, 0, domain.SellRequest{Quantity: 4, SellingPrice: 150}); err != nil {
		t.Fatalf("SellItem: %v", err)
	}

	sum := s.ReportSummary()
	if sum.TotalRevenue != 600 || sum.TotalUnitsSold != 4 {
		t.Fatalf("summary = %+v", sum)
	}
	top := s.TopSellers(3)
	if len(top) != 1 || top[0].Name != "Rice" {
		t.Fatalf("top sellers = %v", top)
	}
	if pts := s.SalesOverTime(); len(pts) != 1 {
		t.Fatalf("sales points = %v", pts)
	}
	if low := s.LowStock(6); len(low) != 1 {
		t.Fatalf("low stock = %v", low)
	}
}
