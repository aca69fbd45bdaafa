package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/Dosada05/tournament-hub/repositories"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the database. The fake TxRunner
// serializes transactions and restores a snapshot on error, so rollback
// semantics match the real storage layer closely enough for service tests.
type memStore struct {
	mu sync.Mutex

	users        map[int]models.User
	wallets      map[int]models.Wallet // keyed by user id
	tournaments  map[int]models.Tournament
	participants map[int]models.Participant
	transactions map[int]models.Transaction

	nextID int
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[int]models.User),
		wallets:      make(map[int]models.Wallet),
		tournaments:  make(map[int]models.Tournament),
		participants: make(map[int]models.Participant),
		transactions: make(map[int]models.Transaction),
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

type snapshot struct {
	users        map[int]models.User
	wallets      map[int]models.Wallet
	tournaments  map[int]models.Tournament
	participants map[int]models.Participant
	transactions map[int]models.Transaction
	nextID       int
}

func copyMap[V any](src map[int]V) map[int]V {
	dst := make(map[int]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (s *memStore) snapshot() snapshot {
	return snapshot{
		users:        copyMap(s.users),
		wallets:      copyMap(s.wallets),
		tournaments:  copyMap(s.tournaments),
		participants: copyMap(s.participants),
		transactions: copyMap(s.transactions),
		nextID:       s.nextID,
	}
}

func (s *memStore) restore(snap snapshot) {
	s.users = snap.users
	s.wallets = snap.wallets
	s.tournaments = snap.tournaments
	s.participants = snap.participants
	s.transactions = snap.transactions
	s.nextID = snap.nextID
}

// fakeTxRunner holds the store lock for the duration of the callback and
// rolls back on error.
type fakeTxRunner struct {
	store *memStore
}

func (r *fakeTxRunner) RunInTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

type fakeUserRepo struct{ store *memStore }

func (r *fakeUserRepo) Create(_ context.Context, _ repositories.SQLExecutor, user *models.User) error {
	for _, u := range r.store.users {
		if u.Username == user.Username {
			return repositories.ErrUserUsernameConflict
		}
		if u.Phone == user.Phone {
			return repositories.ErrUserPhoneConflict
		}
	}
	user.ID = r.store.id()
	user.CreatedAt = time.Now()
	stored := *user
	stored.Wallet = nil
	r.store.users[user.ID] = stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	u, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.store.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeWalletRepo struct{ store *memStore }

func (r *fakeWalletRepo) Create(_ context.Context, _ repositories.SQLExecutor, userID int) (*models.Wallet, error) {
	w := models.Wallet{ID: r.store.id(), UserID: userID, Balance: decimal.Zero}
	r.store.wallets[userID] = w
	return &w, nil
}

func (r *fakeWalletRepo) GetByUserID(_ context.Context, _ repositories.SQLExecutor, userID int) (*models.Wallet, error) {
	w, ok := r.store.wallets[userID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return &w, nil
}

func (r *fakeWalletRepo) ApplyDelta(_ context.Context, _ repositories.SQLExecutor, userID int, delta decimal.Decimal) (*models.Wallet, error) {
	w, ok := r.store.wallets[userID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	w.Balance = w.Balance.Add(delta)
	r.store.wallets[userID] = w
	return &w, nil
}

func (r *fakeWalletRepo) DebitGuarded(_ context.Context, _ repositories.SQLExecutor, userID int, amount decimal.Decimal) (*models.Wallet, error) {
	w, ok := r.store.wallets[userID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	if w.Balance.LessThan(amount) {
		return nil, repositories.ErrWalletInsufficientFunds
	}
	w.Balance = w.Balance.Sub(amount)
	r.store.wallets[userID] = w
	return &w, nil
}

type fakeTournamentRepo struct{ store *memStore }

func (r *fakeTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, tournament *models.Tournament) error {
	tournament.ID = r.store.id()
	tournament.CreatedAt = time.Now()
	r.store.tournaments[tournament.ID] = *tournament
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, ok := r.store.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range r.store.tournaments {
		if filter.Mode != nil && t.Mode != *filter.Mode {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.MinFee != nil && t.EntryFee.LessThan(*filter.MinFee) {
			continue
		}
		if filter.MaxFee != nil && t.EntryFee.GreaterThan(*filter.MaxFee) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) GetUpcoming(_ context.Context, now time.Time) (*models.Tournament, error) {
	var best *models.Tournament
	for _, t := range r.store.tournaments {
		if t.Status != models.TournamentUpcoming || !t.StartTime.After(now) {
			continue
		}
		if best == nil || t.StartTime.Before(best.StartTime) {
			t := t
			best = &t
		}
	}
	if best == nil {
		return nil, repositories.ErrTournamentNotFound
	}
	return best, nil
}

func (r *fakeTournamentRepo) FillSlot(_ context.Context, _ repositories.SQLExecutor, id int) (int, int, error) {
	t, ok := r.store.tournaments[id]
	if !ok {
		return 0, 0, repositories.ErrTournamentNotFound
	}
	if t.FilledSlots >= t.MaxSlots {
		return 0, 0, repositories.ErrTournamentSlotsFull
	}
	t.FilledSlots++
	r.store.tournaments[id] = t
	return t.FilledSlots, t.MaxSlots, nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	r.store.tournaments[id] = t
	return nil
}

func (r *fakeTournamentRepo) UpdateBannerKey(_ context.Context, id int, bannerKey *string) error {
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BannerKey = bannerKey
	r.store.tournaments[id] = t
	return nil
}

type fakeParticipantRepo struct{ store *memStore }

func (r *fakeParticipantRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	for _, existing := range r.store.participants {
		if existing.UserID == p.UserID && existing.TournamentID == p.TournamentID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = r.store.id()
	p.RegisteredAt = time.Now()
	r.store.participants[p.ID] = *p
	return nil
}

func (r *fakeParticipantRepo) Exists(_ context.Context, _ repositories.SQLExecutor, userID, tournamentID int) (bool, error) {
	for _, p := range r.store.participants {
		if p.UserID == userID && p.TournamentID == tournamentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeParticipantRepo) ListByTournament(_ context.Context, tournamentID int) ([]models.Participant, error) {
	var out []models.Participant
	for _, p := range r.store.participants {
		if p.TournamentID == tournamentID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeParticipantRepo) SetPosition(_ context.Context, _ repositories.SQLExecutor, userID, tournamentID, position int) error {
	for id, p := range r.store.participants {
		if p.UserID == userID && p.TournamentID == tournamentID {
			p.Position = &position
			r.store.participants[id] = p
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

type fakeTransactionRepo struct{ store *memStore }

func (r *fakeTransactionRepo) Create(_ context.Context, _ repositories.SQLExecutor, txn *models.Transaction) error {
	txn.ID = r.store.id()
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt
	r.store.transactions[txn.ID] = *txn
	return nil
}

func (r *fakeTransactionRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Transaction, error) {
	t, ok := r.store.transactions[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	return &t, nil
}

func (r *fakeTransactionRepo) ListByUser(_ context.Context, userID, limit, offset int) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range r.store.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), nil
}

func (r *fakeTransactionRepo) ListByStatus(_ context.Context, status models.TransactionStatus, limit, offset int) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range r.store.transactions {
		if t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

func (r *fakeTransactionRepo) ListDueForSettlement(_ context.Context, types []models.TransactionType, createdBefore time.Time, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range r.store.transactions {
		if t.Status != models.StatusPending || !t.CreatedAt.Before(createdBefore) {
			continue
		}
		for _, typ := range types {
			if t.Type == typ {
				out = append(out, t)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, 0), nil
}

func (r *fakeTransactionRepo) TransitionStatus(_ context.Context, _ repositories.SQLExecutor, id int, from, to models.TransactionStatus) error {
	t, ok := r.store.transactions[id]
	if !ok {
		return repositories.ErrTransactionNotFound
	}
	if t.Status != from {
		return repositories.ErrTransactionStateConflict
	}
	t.Status = to
	t.UpdatedAt = time.Now()
	r.store.transactions[id] = t
	return nil
}

func page(items []models.Transaction, limit, offset int) []models.Transaction {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type slotEvent struct {
	tournamentID int
	filledSlots  int
	maxSlots     int
}

type txnEvent struct {
	userID        int
	transactionID int
	status        models.TransactionStatus
	newBalance    *decimal.Decimal
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu         sync.Mutex
	slotEvents []slotEvent
	txnEvents  []txnEvent
}

func (n *recordingNotifier) TournamentSlots(tournamentID, filledSlots, maxSlots int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.slotEvents = append(n.slotEvents, slotEvent{tournamentID, filledSlots, maxSlots})
}

func (n *recordingNotifier) TransactionUpdate(userID, transactionID int, status models.TransactionStatus, newBalance *decimal.Decimal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.txnEvents = append(n.txnEvents, txnEvent{userID, transactionID, status, newBalance})
}

// testEnv bundles a store with repos and services wired the same way main is.
type testEnv struct {
	store    *memStore
	notifier *recordingNotifier

	userRepo        *fakeUserRepo
	walletRepo      *fakeWalletRepo
	tournamentRepo  *fakeTournamentRepo
	participantRepo *fakeParticipantRepo
	transactionRepo *fakeTransactionRepo

	auth       AuthService
	wallet     WalletService
	tournament *TournamentService
	settlement *SettlementService
	admin      *AdminService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	txRunner := &fakeTxRunner{store: store}
	notifier := &recordingNotifier{}

	env := &testEnv{
		store:           store,
		notifier:        notifier,
		userRepo:        &fakeUserRepo{store: store},
		walletRepo:      &fakeWalletRepo{store: store},
		tournamentRepo:  &fakeTournamentRepo{store: store},
		participantRepo: &fakeParticipantRepo{store: store},
		transactionRepo: &fakeTransactionRepo{store: store},
	}
	env.auth = NewAuthService(txRunner, env.userRepo, env.walletRepo)
	env.wallet = NewWalletService(txRunner, env.walletRepo, env.transactionRepo)
	env.tournament = NewTournamentService(txRunner, env.tournamentRepo, env.participantRepo, env.walletRepo, env.transactionRepo, nil, notifier)
	env.settlement = NewSettlementService(txRunner, env.walletRepo, env.transactionRepo, notifier)
	env.admin = NewAdminService(txRunner, env.transactionRepo, env.participantRepo, env.walletRepo, env.settlement, notifier)
	return env
}

// seedUser creates a user with a wallet holding the given balance.
func (e *testEnv) seedUser(balance decimal.Decimal) int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	id := e.store.id()
	e.store.users[id] = models.User{
		ID:       id,
		Username: fmt.Sprintf("player%d", id),
		Phone:    fmt.Sprintf("0170000%04d", id),
	}
	e.store.wallets[id] = models.Wallet{ID: e.store.id(), UserID: id, Balance: balance}
	return id
}

// seedTournament creates an upcoming tournament with the given fee and slots.
func (e *testEnv) seedTournament(entryFee decimal.Decimal, maxSlots int) int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	id := e.store.id()
	e.store.tournaments[id] = models.Tournament{
		ID:        id,
		Title:     fmt.Sprintf("Weekly Cup %d", id),
		EntryFee:  entryFee,
		PrizePool: entryFee.Mul(decimal.NewFromInt(int64(maxSlots))),
		MaxSlots:  maxSlots,
		StartTime: time.Now().Add(24 * time.Hour),
		Mode:      models.ModeSolo,
		Status:    models.TournamentUpcoming,
	}
	return id
}

func futureTime() time.Time {
	return time.Now().Add(24 * time.Hour)
}

func (e *testEnv) balance(userID int) decimal.Decimal {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.store.wallets[userID].Balance
}

func (e *testEnv) transactionCount(userID int) int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	count := 0
	for _, t := range e.store.transactions {
		if t.UserID == userID {
			count++
		}
	}
	return count
}

// completedSum returns the sum of the user's completed transaction amounts,
// which must always equal the wallet balance.
func (e *testEnv) completedSum(userID int) decimal.Decimal {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	sum := decimal.Zero
	for _, t := range e.store.transactions {
		if t.UserID == userID && t.Status == models.StatusCompleted {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}
