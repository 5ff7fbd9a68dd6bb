// Package ledger owns the item inventory and the shared cash budget.
// Every mutation validates, applies, and persists inside one critical
// section, so the budget equation holds at every observable point.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gudangku/internal/docstore"
	"gudangku/internal/domain"
)

const (
	// InitialBudget is the cash balance of a brand-new ledger.
	InitialBudget = 50000.0

	// LowStockThreshold is the remaining-unit level at or below which a
	// sale triggers the low-stock notification.
	LowStockThreshold = 5

	itemsDoc  = "items"
	budgetDoc = "budget"
)

type budgetDocument struct {
	Budget float64 `json:"budget"`
}

// Ledger is the mutex-guarded owner of the item list and the budget.
// Callbacks registered before use are invoked after a mutation commits,
// outside the lock.
type Ledger struct {
	mu     sync.Mutex
	items  []domain.Item
	budget float64

	docs docstore.Store
	log  *slog.Logger
	now  func() time.Time

	onChanged  []func()
	onLowStock []func(name string, remaining int)
}

func New(ctx context.Context, docs docstore.Store, log *slog.Logger) (*Ledger, error) {
	l := &Ledger{
		docs:   docs,
		log:    log,
		now:    time.Now,
		budget: InitialBudget,
	}
	if _, err := docs.Load(ctx, itemsDoc, &l.items); err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	var b budgetDocument
	found, err := docs.Load(ctx, budgetDoc, &b)
	if err != nil {
		return nil, fmt.Errorf("load budget: %w", err)
	}
	if found {
		l.budget = b.Budget
	}
	return l, nil
}

// OnInventoryChanged registers a callback fired after any committed
// mutation. Not safe to call concurrently with mutations.
func (l *Ledger) OnInventoryChanged(fn func()) {
	l.onChanged = append(l.onChanged, fn)
}

// OnLowStock registers a callback fired when a sale leaves an item at or
// below the low-stock threshold.
func (l *Ledger) OnLowStock(fn func(name string, remaining int)) {
	l.onLowStock = append(l.onLowStock, fn)
}

// AddItem appends a new item and debits its acquisition cost from the
// budget. The sufficiency check and the debit happen atomically; an
// insufficient budget leaves both the list and the balance untouched.
func (l *Ledger) AddItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	if err := validateItem(item.Name, item.Unit, item.BuyingPrice); err != nil {
		return domain.Item{}, err
	}

	added, err := l.add(ctx, item)
	if err != nil {
		return domain.Item{}, err
	}
	l.notifyChanged()
	return added, nil
}

func (l *Ledger) add(ctx context.Context, item domain.Item) (domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.items {
		if strings.EqualFold(existing.Name, item.Name) {
			return domain.Item{}, fmt.Errorf("%w: item %q", domain.ErrAlreadyExists, item.Name)
		}
	}

	cost := item.BuyingPrice * float64(item.Unit)
	if l.budget < cost {
		return domain.Item{}, fmt.Errorf("%w: need %.2f, have %.2f",
			domain.ErrInsufficientBudget, cost, l.budget)
	}

	item.ID = uuid.NewString()
	if item.DateAdded.IsZero() {
		item.DateAdded = l.now().UTC()
	}
	item.SellingPrice = 0
	item.UnitsSold = 0
	item.DateSold = time.Time{}
	item.SoldBy = ""

	l.items = append(l.items, item)
	l.budget -= cost
	l.persistLocked(ctx)
	return item, nil
}

// EditItem replaces the purchase fields of the item at index and applies
// the cost difference to the budget. The delta is unconstrained: an edit
// may drive the budget negative or push it above its initial value.
// Sale-tracking fields and the generated ID are preserved.
func (l *Ledger) EditItem(ctx context.Context, index int, updated domain.Item) (domain.Item, error) {
	if err := validateItem(updated.Name, updated.Unit, updated.BuyingPrice); err != nil {
		return domain.Item{}, err
	}

	edited, err := l.edit(ctx, index, updated)
	if err != nil {
		return domain.Item{}, err
	}
	l.notifyChanged()
	return edited, nil
}

func (l *Ledger) edit(ctx context.Context, index int, updated domain.Item) (domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.items) {
		return domain.Item{}, fmt.Errorf("%w: %d", domain.ErrInvalidIndex, index)
	}
	for i, existing := range l.items {
		if i != index && strings.EqualFold(existing.Name, updated.Name) {
			return domain.Item{}, fmt.Errorf("%w: item %q", domain.ErrAlreadyExists, updated.Name)
		}
	}

	current := l.items[index]
	oldCost := current.BuyingPrice * float64(current.Unit)
	newCost := updated.BuyingPrice * float64(updated.Unit)

	current.Name = updated.Name
	current.Unit = updated.Unit
	current.BuyingPrice = updated.BuyingPrice
	current.Barcode = updated.Barcode
	if !updated.DateAdded.IsZero() {
		current.DateAdded = updated.DateAdded
	}

	l.items[index] = current
	l.budget -= newCost - oldCost
	l.persistLocked(ctx)
	return current, nil
}

// RemoveItem deletes the item at index. The budget is not refunded.
func (l *Ledger) RemoveItem(ctx context.Context, index int) (domain.Item, error) {
	removed, err := l.removeAt(ctx, index)
	if err != nil {
		return domain.Item{}, err
	}
	l.notifyChanged()
	return removed, nil
}

func (l *Ledger) removeAt(ctx context.Context, index int) (domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.items) {
		return domain.Item{}, fmt.Errorf("%w: %d", domain.ErrInvalidIndex, index)
	}
	removed := l.items[index]
	l.items = append(l.items[:index], l.items[index+1:]...)
	l.persistLocked(ctx)
	return removed, nil
}

// SellItem sells quantity units of the item at index at the given unit
// price, crediting the proceeds to the budget. A quantity exceeding the
// stock fails without mutating anything.
func (l *Ledger) SellItem(ctx context.Context, index, quantity int, price float64, seller string) (domain.Item, error) {
	if quantity <= 0 {
		return domain.Item{}, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	if price < 0 {
		return domain.Item{}, fmt.Errorf("%w: selling price must not be negative", domain.ErrValidation)
	}

	sold, err := l.sell(ctx, index, quantity, price, seller)
	if err != nil {
		return domain.Item{}, err
	}
	l.notifyChanged()
	if sold.Unit <= LowStockThreshold {
		for _, fn := range l.onLowStock {
			fn(sold.Name, sold.Unit)
		}
	}
	return sold, nil
}

func (l *Ledger) sell(ctx context.Context, index, quantity int, price float64, seller string) (domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.items) {
		return domain.Item{}, fmt.Errorf("%w: %d", domain.ErrInvalidIndex, index)
	}
	item := l.items[index]
	if quantity > item.Unit {
		return domain.Item{}, fmt.Errorf("%w: want %d, have %d",
			domain.ErrInsufficientStock, quantity, item.Unit)
	}

	item.Unit -= quantity
	item.UnitsSold += quantity
	item.SellingPrice = price
	item.DateSold = l.now().UTC()
	item.SoldBy = seller

	l.items[index] = item
	l.budget += price * float64(quantity)
	l.persistLocked(ctx)
	return item, nil
}

// ResetBudget restores the initial balance. It refuses while any item
// remains in the inventory.
func (l *Ledger) ResetBudget(ctx context.Context) error {
	if err := l.reset(ctx); err != nil {
		return err
	}
	l.notifyChanged()
	return nil
}

func (l *Ledger) reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) != 0 {
		return fmt.Errorf("%w: %d items remain", domain.ErrInventoryNotEmpty, len(l.items))
	}
	l.budget = InitialBudget
	l.persistLocked(ctx)
	return nil
}

// Items returns a snapshot copy of the inventory.
func (l *Ledger) Items() []domain.Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Item, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) Budget() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.budget
}

func (l *Ledger) ItemByName(name string) (domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, item := range l.items {
		if strings.EqualFold(item.Name, name) {
			return item, nil
		}
	}
	return domain.Item{}, fmt.Errorf("%w: item %q", domain.ErrNotFound, name)
}

// FindIndexByName resolves a name to its current position, for callers
// that address items positionally. Returns -1 when absent.
func (l *Ledger) FindIndexByName(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, item := range l.items {
		if strings.EqualFold(item.Name, name) {
			return i
		}
	}
	return -1
}

// Search returns items whose name contains the query, case-insensitively.
// An empty query matches everything.
func (l *Ledger) Search(query string) []domain.Item {
	q := strings.ToLower(query)
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Item
	for _, item := range l.items {
		if strings.Contains(strings.ToLower(item.Name), q) {
			out = append(out, item)
		}
	}
	return out
}

// Close waits for any in-flight save. Saves run synchronously under the
// lock, so acquiring it is the wait.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return nil
}

// persistLocked writes both documents while the caller holds the lock.
// Failures are logged; the in-memory state stays authoritative.
func (l *Ledger) persistLocked(ctx context.Context) {
	if err := l.docs.Save(ctx, itemsDoc, l.items); err != nil {
		l.log.Warn("persist items failed", "error", err)
	}
	if err := l.docs.Save(ctx, budgetDoc, budgetDocument{Budget: l.budget}); err != nil {
		l.log.Warn("persist budget failed", "error", err)
	}
}

func (l *Ledger) notifyChanged() {
	for _, fn := range l.onChanged {
		fn()
	}
}

func validateItem(name string, unit int, buyingPrice float64) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: item name is required", domain.ErrValidation)
	}
	if unit < 0 {
		return fmt.Errorf("%w: unit count must not be negative", domain.ErrValidation)
	}
	if buyingPrice < 0 {
		return fmt.Errorf("%w: buying price must not be negative", domain.ErrValidation)
	}
	return nil
}
