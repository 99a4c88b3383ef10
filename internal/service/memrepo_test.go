package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/gym-pos/internal/model"
	"github.com/mmeshcher/gym-pos/internal/repository"
)

type memState struct {
	members      map[string]string
	products     map[string]model.Product
	discounts    map[string]model.Discount
	transactions []model.PosTransaction
	items        []model.PosTransactionItem
	wallets      map[string]model.Wallet
	ledger       []model.WalletTransaction
	invoices     []model.GymInvoice
}

func (s memState) clone() memState {
	c := s
	c.members = cloneMap(s.members)
	c.products = cloneMap(s.products)
	c.discounts = cloneMap(s.discounts)
	c.wallets = cloneMap(s.wallets)
	c.transactions = slices.Clone(s.transactions)
	c.items = slices.Clone(s.items)
	c.ledger = slices.Clone(s.ledger)
	c.invoices = slices.Clone(s.invoices)
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// memRepo хранит данные в памяти. WithinTx откатывает состояние при ошибке.
type memRepo struct {
	mu    sync.Mutex
	state memState
	seq   int

	// beforeApply вызывается перед применением приращений к кошельку.
	beforeApply func(w *model.Wallet)
	// failInvoices возвращается из AppendGymInvoices, если не nil.
	failInvoices error
	resetCalls   int
}

func newMemRepo() *memRepo {
	return &memRepo{
		state: memState{
			members:   map[string]string{},
			products:  map[string]model.Product{},
			discounts: map[string]model.Discount{},
			wallets:   map[string]model.Wallet{},
		},
	}
}

func (r *memRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *memRepo) addMember(gymID, id string) {
	r.state.members[id] = gymID
}

func (r *memRepo) addProduct(p model.Product) {
	r.state.products[p.ID] = p
}

func (r *memRepo) addDiscount(d model.Discount) {
	r.state.discounts[d.ID] = d
}

func (r *memRepo) addWallet(gymID string, t model.WalletType, initial decimal.Decimal, active bool) model.Wallet {
	w := model.Wallet{
		ID:               r.nextID("wallet"),
		GymID:            gymID,
		Type:             t,
		InitialBalance:   initial,
		CurrentBalance:   initial,
		TotalIncome:      decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		TotalFees:        decimal.Zero,
		TodayIncome:      decimal.Zero,
		IsActive:         active,
	}
	r.state.wallets[w.ID] = w
	return w
}

func (r *memRepo) findWallet(gymID string, t model.WalletType) (*model.Wallet, error) {
	for _, w := range r.state.wallets {
		if w.GymID == gymID && w.Type == t {
			return &w, nil
		}
	}
	return nil, repository.ErrWalletNotFound
}

func (r *memRepo) wallet(gymID string, t model.WalletType) model.Wallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, err := r.findWallet(gymID, t)
	if err != nil {
		panic(err)
	}
	return *w
}

func (r *memRepo) snapshot() memState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.clone()
}

func (r *memRepo) Close() error { return nil }

func (r *memRepo) Ping(ctx context.Context) error { return nil }

func (r *memRepo) WithinTx(ctx context.Context, fn func(repository.TxStore) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := r.state.clone()
	if err := fn(&memTx{r: r}); err != nil {
		r.state = saved
		return err
	}
	return nil
}

func (r *memRepo) GetPosTransaction(ctx context.Context, gymID, id string) (*model.PosTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.state.transactions {
		if t.ID == id && t.GymID == gymID {
			return &t, nil
		}
	}
	return nil, repository.ErrTransactionNotFound
}

func (r *memRepo) ListPosTransactions(ctx context.Context, gymID string, f model.PosTransactionFilter) ([]model.PosTransaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.PosTransaction
	for _, t := range r.state.transactions {
		if t.GymID == gymID && (f.Status == "" || t.Status == f.Status) {
			res = append(res, t)
		}
	}
	return res, int64(len(res)), nil
}

func (r *memRepo) UpdatePosTransaction(ctx context.Context, gymID, id string, status *model.PosStatus, notes *string) (*model.PosTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.state.transactions {
		t := &r.state.transactions[i]
		if t.ID != id || t.GymID != gymID {
			continue
		}
		if status != nil {
			t.Status = *status
		}
		if notes != nil {
			t.Notes = *notes
		}
		res := *t
		return &res, nil
	}
	return nil, repository.ErrTransactionNotFound
}

func (r *memRepo) GetPosStats(ctx context.Context, gymID string) (*model.PosStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &model.PosStats{TotalRevenue: decimal.Zero}
	for _, t := range r.state.transactions {
		if t.GymID == gymID {
			stats.TotalTransactions++
			stats.TotalRevenue = stats.TotalRevenue.Add(t.Total)
		}
	}
	for _, d := range r.state.discounts {
		if d.GymID == gymID {
			stats.TotalDiscounts++
			stats.TotalDiscountUsage += int64(d.UsedCount)
		}
	}
	return stats, nil
}

func (r *memRepo) ListGymInvoices(ctx context.Context, gymID string, month, year int) ([]model.GymInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.GymInvoice
	for _, inv := range r.state.invoices {
		if inv.GymID == gymID && inv.Month == month && inv.Year == year {
			res = append(res, inv)
		}
	}
	return res, nil
}

func (r *memRepo) CreateDiscount(ctx context.Context, d *model.Discount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.state.discounts {
		if existing.GymID == d.GymID && existing.Code == d.Code {
			return repository.ErrDiscountCodeExists
		}
	}
	d.ID = r.nextID("discount")
	r.state.discounts[d.ID] = *d
	return nil
}

func (r *memRepo) GetDiscount(ctx context.Context, gymID, id string) (*model.Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.state.discounts[id]
	if !ok || d.GymID != gymID {
		return nil, repository.ErrDiscountNotFound
	}
	return &d, nil
}

func (r *memRepo) ListDiscounts(ctx context.Context, gymID string, f model.DiscountFilter) ([]model.Discount, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.Discount
	for _, d := range r.state.discounts {
		if d.GymID == gymID {
			res = append(res, d)
		}
	}
	return res, int64(len(res)), nil
}

func (r *memRepo) UpdateDiscount(ctx context.Context, d *model.Discount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.discounts[d.ID]; !ok {
		return repository.ErrDiscountNotFound
	}
	r.state.discounts[d.ID] = *d
	return nil
}

func (r *memRepo) DisableDiscount(ctx context.Context, gymID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.state.discounts[id]
	if !ok || d.GymID != gymID {
		return repository.ErrDiscountNotFound
	}
	d.IsActive = false
	r.state.discounts[id] = d
	return nil
}

func (r *memRepo) ListWallets(ctx context.Context, gymID string) ([]model.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.Wallet
	for _, w := range r.state.wallets {
		if w.GymID == gymID {
			res = append(res, w)
		}
	}
	return res, nil
}

func (r *memRepo) GetWallet(ctx context.Context, gymID string, walletType model.WalletType) (*model.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findWallet(gymID, walletType)
}

func (r *memRepo) OpenWallet(ctx context.Context, gymID string, walletType model.WalletType, initialBalance decimal.Decimal) (*model.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, err := r.findWallet(gymID, walletType); err == nil {
		return w, nil
	}
	w := r.addWallet(gymID, walletType, initialBalance, true)
	return &w, nil
}

func (r *memRepo) ListWalletTransactions(ctx context.Context, walletID string, f model.WalletTransactionFilter) ([]model.WalletTransaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.WalletTransaction
	for _, e := range r.state.ledger {
		if e.WalletID == walletID && (f.Type == "" || e.Type == f.Type) {
			res = append(res, e)
		}
	}
	return res, int64(len(res)), nil
}

func (r *memRepo) LedgerSum(ctx context.Context, walletID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, e := range r.state.ledger {
		if e.WalletID == walletID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (r *memRepo) ResetTodayIncome(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetCalls++
	var n int64
	for id, w := range r.state.wallets {
		if !w.TodayIncome.IsZero() {
			w.TodayIncome = decimal.Zero
			r.state.wallets[id] = w
			n++
		}
	}
	return n, nil
}

// memTx работает с состоянием memRepo под уже захваченной блокировкой.
type memTx struct {
	r *memRepo
}

func (t *memTx) CheckMember(ctx context.Context, gymID, memberID string) error {
	if g, ok := t.r.state.members[memberID]; !ok || g != gymID {
		return repository.ErrMemberNotFound
	}
	return nil
}

func (t *memTx) FindProductsByIDs(ctx context.Context, gymID string, ids []string) ([]model.Product, error) {
	var res []model.Product
	for _, id := range ids {
		if p, ok := t.r.state.products[id]; ok && p.GymID == gymID {
			res = append(res, p)
		}
	}
	return res, nil
}

func (t *memTx) FindDiscount(ctx context.Context, gymID, discountID string) (*model.Discount, error) {
	d, ok := t.r.state.discounts[discountID]
	if !ok || d.GymID != gymID {
		return nil, repository.ErrDiscountNotFound
	}
	return &d, nil
}

func (t *memTx) IncrementDiscountUsage(ctx context.Context, discountID string) error {
	d := t.r.state.discounts[discountID]
	if d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit {
		return repository.ErrDiscountUsageExhausted
	}
	d.UsedCount++
	t.r.state.discounts[discountID] = d
	return nil
}

func (t *memTx) InsertPosTransaction(ctx context.Context, trx *model.PosTransaction) error {
	trx.ID = t.r.nextID("trx")
	t.r.state.transactions = append(t.r.state.transactions, *trx)
	return nil
}

func (t *memTx) InsertPosTransactionItems(ctx context.Context, items []model.PosTransactionItem) error {
	for i := range items {
		items[i].ID = t.r.nextID("item")
		t.r.state.items = append(t.r.state.items, items[i])
	}
	return nil
}

func (t *memTx) FindWalletForUpdate(ctx context.Context, gymID string, walletType model.WalletType) (*model.Wallet, error) {
	return t.r.findWallet(gymID, walletType)
}

func (t *memTx) ApplyWalletDelta(ctx context.Context, walletID string, expectedBalance decimal.Decimal, delta model.WalletDelta) error {
	w := t.r.state.wallets[walletID]
	if t.r.beforeApply != nil {
		t.r.beforeApply(&w)
	}
	if !w.CurrentBalance.Equal(expectedBalance) {
		return repository.ErrConcurrentBalanceConflict
	}
	w.CurrentBalance = w.CurrentBalance.Add(delta.Balance)
	w.TotalIncome = w.TotalIncome.Add(delta.Income)
	w.TotalWithdrawals = w.TotalWithdrawals.Add(delta.Withdrawals)
	w.TotalFees = w.TotalFees.Add(delta.Fees)
	w.TodayIncome = w.TodayIncome.Add(delta.TodayIncome)
	t.r.state.wallets[walletID] = w
	return nil
}

func (t *memTx) AppendWalletTransaction(ctx context.Context, entry *model.WalletTransaction) error {
	entry.ID = t.r.nextID("ledger")
	t.r.state.ledger = append(t.r.state.ledger, *entry)
	return nil
}

func (t *memTx) AppendGymInvoices(ctx context.Context, invoices []model.GymInvoice) error {
	if t.r.failInvoices != nil {
		return t.r.failInvoices
	}
	for i := range invoices {
		invoices[i].ID = t.r.nextID("invoice")
		t.r.state.invoices = append(t.r.state.invoices, invoices[i])
	}
	return nil
}
