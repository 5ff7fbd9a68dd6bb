// Package service orchestrates the stores: it resolves the acting user,
// enforces role checks, runs the operation, and records the audit entry.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gudangku/internal/audit"
	"gudangku/internal/domain"
	"gudangku/internal/ledger"
	"gudangku/internal/report"
	"gudangku/internal/users"
)

type actorContextKey struct{}

// WithActor attaches the authenticated actor to the context.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the actor attached by WithActor.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const (
	actionItemAdd    = "item_add"
	actionItemEdit   = "item_edit"
	actionItemRemove = "item_remove"
	actionItemSell   = "item_sell"
	actionBudgetRst  = "budget_reset"
	actionUserAdd    = "user_add"
	actionUserEdit   = "user_edit"
	actionUserRemove = "user_remove"
)

type Service struct {
	ledger *ledger.Ledger
	trail  *audit.Trail
	users  *users.Store
	log    *slog.Logger
}

func New(l *ledger.Ledger, trail *audit.Trail, us *users.Store, log *slog.Logger) *Service {
	return &Service{ledger: l, trail: trail, users: us, log: log}
}

func (s *Service) AddItem(ctx context.Context, req domain.ItemCreateRequest) (domain.Item, error) {
	item, err := s.ledger.AddItem(ctx, domain.Item{
		Name:        req.Name,
		Unit:        req.Unit,
		BuyingPrice: req.BuyingPrice,
		Barcode:     req.Barcode,
	})
	if err != nil {
		return domain.Item{}, err
	}
	s.logAudit(ctx, domain.AuditEntry{
		Action:      actionItemAdd,
		ItemName:    item.Name,
		BuyingPrice: item.BuyingPrice,
		DateAdded:   item.DateAdded,
	})
	return item, nil
}

func (s *Service) EditItem(ctx context.Context, index int, req domain.ItemUpdateRequest) (domain.Item, error) {
	item, err := s.ledger.EditItem(ctx, index, domain.Item{
		Name:        req.Name,
		Unit:        req.Unit,
		BuyingPrice: req.BuyingPrice,
		Barcode:     req.Barcode,
	})
	if err != nil {
		return domain.Item{}, err
	}
	s.logAudit(ctx, domain.AuditEntry{
		Action:      actionItemEdit,
		ItemName:    item.Name,
		BuyingPrice: item.BuyingPrice,
		DateAdded:   item.DateAdded,
	})
	return item, nil
}

func (s *Service) RemoveItem(ctx context.Context, index int) (domain.Item, error) {
	item, err := s.ledger.RemoveItem(ctx, index)
	if err != nil {
		return domain.Item{}, err
	}
	s.logAudit(ctx, domain.AuditEntry{
		Action:      actionItemRemove,
		ItemName:    item.Name,
		BuyingPrice: item.BuyingPrice,
		DateAdded:   item.DateAdded,
	})
	return item, nil
}

func (s *Service) SellItem(ctx context.Context, index int, req domain.SellRequest) (domain.Item, error) {
	actor, _ := ActorFromContext(ctx)
	item, err := s.ledger.SellItem(ctx, index, req.Quantity, req.SellingPrice, actor.Username)
	if err != nil {
		return domain.Item{}, err
	}
	s.logAudit(ctx, domain.AuditEntry{
		Action:       actionItemSell,
		ItemName:     item.Name,
		BuyingPrice:  item.BuyingPrice,
		SellingPrice: req.SellingPrice,
		QuantitySold: req.Quantity,
		TotalRevenue: req.SellingPrice * float64(req.Quantity),
		DateAdded:    item.DateAdded,
		DateSold:     item.DateSold,
	})
	return item, nil
}

func (s *Service) ResetBudget(ctx context.Context) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.ledger.ResetBudget(ctx); err != nil {
		return err
	}
	s.logAudit(ctx, domain.AuditEntry{Action: actionBudgetRst})
	return nil
}

func (s *Service) Items() []domain.Item { return s.ledger.Items() }

func (s *Service) SearchItems(q string) []domain.Item { return s.ledger.Search(q) }

func (s *Service) Budget() float64 { return s.ledger.Budget() }

func (s *Service) ItemByName(name string) (domain.Item, error) {
	return s.ledger.ItemByName(name)
}

func (s *Service) FindItemIndex(name string) int {
	return s.ledger.FindIndexByName(name)
}

func (s *Service) AddUser(ctx context.Context, req domain.UserCreateRequest) (domain.User, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.User{}, err
	}
	user, err := s.users.Add(ctx, req.Username, req.Password, req.Name, req.Email, req.Role)
	if err != nil {
		return domain.User{}, err
	}
	s.logAudit(ctx, domain.AuditEntry{Action: actionUserAdd, ItemName: user.Username})
	return user, nil
}

func (s *Service) EditUser(ctx context.Context, username string, req domain.UserUpdateRequest) (domain.User, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return domain.User{}, err
	}
	user, err := s.users.Edit(ctx, username, req)
	if err != nil {
		return domain.User{}, err
	}
	s.logAudit(ctx, domain.AuditEntry{Action: actionUserEdit, ItemName: user.Username})
	return user, nil
}

func (s *Service) RemoveUser(ctx context.Context, username string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.users.Remove(ctx, username); err != nil {
		return err
	}
	s.logAudit(ctx, domain.AuditEntry{Action: actionUserRemove, ItemName: username})
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.users.List(), nil
}

func (s *Service) AuditEntries() []domain.AuditEntry { return s.trail.Entries() }

func (s *Service) WriteAuditCSV(w io.Writer) error { return s.trail.WriteCSV(w) }

func (s *Service) ReportSummary() report.Summary {
	return report.BuildSummary(s.ledger.Items())
}

func (s *Service) TopSellers(n int) []report.SellerStat {
	return report.TopSellers(s.ledger.Items(), n)
}

func (s *Service) SalesOverTime() []report.SalesPoint {
	return report.SalesOverTime(s.ledger.Items())
}

func (s *Service) LowStock(threshold int) []report.StockLevel {
	return report.LowStockItems(s.ledger.Items(), threshold)
}

func (s *Service) requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}
	return nil
}

// logAudit records the completed action under the acting user. The trail
// itself handles ordering and persistence.
func (s *Service) logAudit(ctx context.Context, entry domain.AuditEntry) {
	actor, _ := ActorFromContext(ctx)
	entry.Username = actor.Username
	s.trail.Append(ctx, entry)
}
