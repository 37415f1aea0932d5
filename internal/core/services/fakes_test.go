package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"coinvest-api/internal/adapters/persistence/models"
	"coinvest-api/internal/adapters/persistence/repositories"
	"coinvest-api/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory record store. Decide holds the lock for the
// whole unit of work, which gives it the same all-or-nothing behavior as
// the SQL transaction.
type fakeStore struct {
	mu           sync.Mutex
	profiles     map[string]*models.Profile
	deposits     map[string]*models.DepositRequest
	withdrawals  map[string]*models.WithdrawalRequest
	transactions []*models.Transaction
	referrals    []*models.Referral
	plans        []*models.InvestmentPlan
	investments  []*models.UserInvestment

	profileReads int
	failReads    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:    map[string]*models.Profile{},
		deposits:    map[string]*models.DepositRequest{},
		withdrawals: map[string]*models.WithdrawalRequest{},
	}
}

func (s *fakeStore) addProfile(id string, role domain.Role, balance int64) *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Profile{
		ID:             id,
		Email:          id + "@example.com",
		Role:           string(role),
		AccountStatus:  string(domain.AccountActive),
		AccountBalance: decimal.NewFromInt(balance),
		ReferralCode:   "CODE" + strings.ToUpper(id),
		CreatedAt:      time.Now(),
	}
	s.profiles[id] = p
	return p
}

func (s *fakeStore) addWithdrawal(id, userID string, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawals[id] = &models.WithdrawalRequest{
		ID: id, UserID: userID, Amount: decimal.NewFromInt(amount),
		Currency: "USDT", WalletAddress: "0xabc", Status: string(domain.StatusPending),
	}
}

func (s *fakeStore) addDeposit(id, userID string, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposits[id] = &models.DepositRequest{
		ID: id, UserID: userID, Amount: decimal.NewFromInt(amount),
		Currency: "USDT", Status: string(domain.StatusPending),
	}
}

func (s *fakeStore) profile(id string) models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.profiles[id]
}

func (s *fakeStore) ledgerFor(requestID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, tx := range s.transactions {
		if tx.ReferenceID == requestID {
			n++
		}
	}
	return n
}

// ---- ProfileRepository ----

type fakeProfiles struct{ *fakeStore }

func (f fakeProfiles) Create(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.ID]; ok {
		return domain.ErrConflict
	}
	cp := *p
	f.profiles[p.ID] = &cp
	return nil
}

func (f fakeProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileReads++
	if f.failReads != nil {
		return nil, f.failReads
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakeProfiles) find(match func(*models.Profile) bool) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f fakeProfiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	return f.find(func(p *models.Profile) bool { return p.Email == email })
}

func (f fakeProfiles) GetByReferralCode(_ context.Context, code string) (*models.Profile, error) {
	return f.find(func(p *models.Profile) bool { return p.ReferralCode == code })
}

func (f fakeProfiles) sorted() []*models.Profile {
	out := make([]*models.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeProfiles) List(_ context.Context, offset, limit int) ([]*models.Profile, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted()
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f fakeProfiles) ListByRole(_ context.Context, role domain.Role) ([]*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Profile
	for _, p := range f.sorted() {
		if p.Role == string(role) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakeProfiles) UpdateRole(_ context.Context, id string, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Role = string(role)
	return nil
}

func (f fakeProfiles) UpdateStatus(_ context.Context, id string, status domain.AccountStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.AccountStatus = string(status)
	return nil
}

func (f fakeProfiles) EachBatch(_ context.Context, batchSize int, fn func([]*models.Profile) error) error {
	f.mu.Lock()
	all := f.sorted()
	f.mu.Unlock()
	for start := 0; start < len(all); start += batchSize {
		end := start + batchSize
		if end > len(all) {
			end = len(all)
		}
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// ---- MonetaryRepository ----

type fakeMonetary struct{ *fakeStore }

func (f fakeMonetary) CreateDeposit(_ context.Context, req *models.DepositRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deposits[req.ID] = req
	return nil
}

func (f fakeMonetary) CreateWithdrawal(_ context.Context, req *models.WithdrawalRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withdrawals[req.ID] = req
	return nil
}

func (f fakeMonetary) ListDeposits(_ context.Context, status string, offset, limit int) ([]*models.DepositRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DepositRequest
	for _, d := range f.deposits {
		if status == "" || d.Status == status {
			out = append(out, d)
		}
	}
	return out, int64(len(out)), nil
}

func (f fakeMonetary) ListWithdrawals(_ context.Context, status string, offset, limit int) ([]*models.WithdrawalRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.WithdrawalRequest
	for _, w := range f.withdrawals {
		if status == "" || w.Status == status {
			out = append(out, w)
		}
	}
	return out, int64(len(out)), nil
}

func (f fakeMonetary) Decide(_ context.Context, cmd repositories.DecisionCommand) (*domain.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var userID string
	var amount decimal.Decimal
	var status *string
	var processedBy **string
	var processedAt **time.Time
	switch cmd.Kind {
	case domain.KindDeposit:
		d, ok := f.deposits[cmd.RequestID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		userID, amount, status, processedBy, processedAt = d.UserID, d.Amount, &d.Status, &d.ProcessedBy, &d.ProcessedAt
	default:
		w, ok := f.withdrawals[cmd.RequestID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		userID, amount, status, processedBy, processedAt = w.UserID, w.Amount, &w.Status, &w.ProcessedBy, &w.ProcessedAt
	}

	if *status != string(domain.StatusPending) {
		return nil, domain.ErrInvalidState
	}
	admin, ok := f.profiles[cmd.AdminID]
	if !ok || admin.Role != string(domain.RoleAdmin) || admin.AccountStatus != string(domain.AccountActive) {
		return nil, domain.ErrAdminRequired
	}

	target := domain.StatusRejected
	if cmd.Approve {
		target = cmd.Kind.ApprovedStatus()
	}
	decision := &domain.Decision{
		Kind: cmd.Kind, RequestID: cmd.RequestID, UserID: userID, Amount: amount,
		Status: target, ProcessedBy: cmd.AdminID, ProcessedAt: cmd.At,
	}

	if cmd.Approve {
		owner, ok := f.profiles[userID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		if cmd.Kind == domain.KindWithdrawal {
			if owner.AccountBalance.LessThan(amount) {
				return nil, domain.ErrInsufficientFunds
			}
			owner.AccountBalance = owner.AccountBalance.Sub(amount)
			owner.TotalWithdrawn = owner.TotalWithdrawn.Add(amount)
		} else {
			owner.AccountBalance = owner.AccountBalance.Add(amount)
			owner.TotalDeposited = owner.TotalDeposited.Add(amount)
		}
		balance := owner.AccountBalance
		decision.BalanceAfter = &balance
		f.transactions = append(f.transactions, &models.Transaction{
			ID: uuid.NewString(), UserID: userID, Type: string(cmd.Kind),
			Amount: amount, ReferenceID: cmd.RequestID, CreatedAt: cmd.At,
		})
	}

	*status = string(target)
	by := cmd.AdminID
	at := cmd.At
	*processedBy = &by
	*processedAt = &at
	return decision, nil
}

// ---- other repositories ----

type fakeReferrals struct{ *fakeStore }

func (f fakeReferrals) Create(_ context.Context, r *models.Referral) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.referrals = append(f.referrals, r)
	return nil
}

func (f fakeReferrals) ListByReferrer(_ context.Context, referrerID string) ([]*models.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Referral
	for _, r := range f.referrals {
		if r.ReferrerID == referrerID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePlans struct{ *fakeStore }

func (f fakePlans) ListActive(_ context.Context) ([]*models.InvestmentPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.InvestmentPlan
	for _, p := range f.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinAmount.LessThan(out[j].MinAmount) })
	return out, nil
}

type fakeInvestments struct{ *fakeStore }

func (f fakeInvestments) ListByUser(_ context.Context, userID string) ([]*models.UserInvestment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.UserInvestment
	for _, inv := range f.investments {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f fakeInvestments) CountActiveByUser(ctx context.Context, userID string) (int64, error) {
	items, _ := f.ListByUser(ctx, userID)
	var n int64
	for _, inv := range items {
		if inv.Status == models.InvestmentActive {
			n++
		}
	}
	return n, nil
}

type fakeTransactions struct{ *fakeStore }

func (f fakeTransactions) ListByUser(_ context.Context, userID string, offset, limit int) ([]*models.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transaction
	for i := len(f.transactions) - 1; i >= 0; i-- {
		if f.transactions[i].UserID == userID {
			out = append(out, f.transactions[i])
		}
	}
	return out, int64(len(out)), nil
}

func (f fakeTransactions) RecentByUser(ctx context.Context, userID string, n int) ([]*models.Transaction, error) {
	items, _, err := f.ListByUser(ctx, userID, 0, n)
	if len(items) > n {
		items = items[:n]
	}
	return items, err
}

// ---- ports ----

type fakeCache struct {
	mu    sync.Mutex
	items map[string]domain.Principal
	err   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: map[string]domain.Principal{}}
}

func (c *fakeCache) Get(_ context.Context, userID string) (*domain.Principal, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	p, ok := c.items[userID]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (c *fakeCache) Set(_ context.Context, p *domain.Principal, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[p.ID] = *p
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, userID)
	return nil
}

type fakeIdP struct {
	mu    sync.Mutex
	roles map[string]domain.Role
	fail  bool
}

func newFakeIdP() *fakeIdP {
	return &fakeIdP{roles: map[string]domain.Role{}}
}

func (f *fakeIdP) Name() string { return "fake" }

func (f *fakeIdP) SetRole(_ context.Context, userID string, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("identity provider down")
	}
	f.roles[userID] = role
	return nil
}

func (f *fakeIdP) role(userID string) (domain.Role, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[userID]
	return r, ok
}

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, userID)
}

func principalFor(p *models.Profile) *domain.Principal {
	return &domain.Principal{
		ID:            p.ID,
		Email:         p.Email,
		Role:          domain.ParseRole(p.Role),
		AccountStatus: domain.AccountStatus(p.AccountStatus),
	}
}
