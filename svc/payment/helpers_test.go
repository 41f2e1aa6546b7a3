package payment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/gateway"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/svc/membership"
	"github.com/dmitrymomot/membership/svc/payment"
)

var testNow = time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// memberStore is a map-backed membership.Store counting writes.
type memberStore struct {
	mu    sync.Mutex
	recs  map[string]*membership.Record
	saves int
}

func newMemberStore() *memberStore {
	return &memberStore{recs: make(map[string]*membership.Record)}
}

func (s *memberStore) Get(_ context.Context, userID string) (*membership.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[userID]
	if !ok {
		return nil, membership.ErrRecordNotFound
	}
	return r.Clone(), nil
}

func (s *memberStore) Save(_ context.Context, rec *membership.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.recs[rec.UserID] = rec.Clone()
	return nil
}

func (s *memberStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// txStore is a map-backed TransactionStore counting writes.
type txStore struct {
	mu     sync.Mutex
	txs    map[string]*payment.Transaction
	writes int
}

func newTxStore() *txStore {
	return &txStore{txs: make(map[string]*payment.Transaction)}
}

func (s *txStore) Create(_ context.Context, tx *payment.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[tx.SessionID]; ok {
		return payment.ErrDuplicateTransaction
	}
	s.writes++
	s.txs[tx.SessionID] = tx.Clone()
	return nil
}

func (s *txStore) Get(_ context.Context, sessionID string) (*payment.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[sessionID]
	if !ok {
		return nil, payment.ErrTransactionNotFound
	}
	return tx.Clone(), nil
}

func (s *txStore) Transition(_ context.Context, sessionID string, from, to payment.Status, gatewayTxID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[sessionID]
	if !ok {
		return false, payment.ErrTransactionNotFound
	}
	if tx.Status != from {
		return false, nil
	}
	s.writes++
	tx.Status = to
	tx.GatewayTransactionID = gatewayTxID
	tx.UpdatedAt = at
	if to == payment.StatusCompleted {
		tx.CompletedAt = &at
	}
	return true, nil
}

func (s *txStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *txStore) put(tx *payment.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[tx.SessionID] = tx.Clone()
}

// fakeGateway returns a fixed session and a settable status.
type fakeGateway struct {
	mu        sync.Mutex
	sessionID string
	status    gateway.StatusResult
	statusErr error
	createErr error
	lastReq   gateway.SessionRequest
	getCalls  int
	// beforeReturn runs after the session opens, before CreateSession returns.
	beforeReturn func(sessionID string)
}

func (g *fakeGateway) CreateSession(_ context.Context, req gateway.SessionRequest) (*gateway.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.lastReq = req
	if g.beforeReturn != nil {
		g.beforeReturn(g.sessionID)
	}
	return &gateway.Session{SessionID: g.sessionID, PaymentURL: "https://pay.example/" + g.sessionID}, nil
}

func (g *fakeGateway) GetStatus(context.Context, string) (*gateway.StatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.getCalls++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	res := g.status
	return &res, nil
}

func (g *fakeGateway) setStatus(s gateway.Status, amount int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = gateway.StatusResult{Status: s, Amount: amount, TransactionID: "gw-tx-1"}
	g.statusErr = nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getCalls
}

func (g *fakeGateway) nonce() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastReq.Nonce
}

type fakeNotifier struct {
	mu       sync.Mutex
	receipts []payment.Receipt
}

func (n *fakeNotifier) PaymentCompleted(_ context.Context, r payment.Receipt) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, r)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.receipts)
}

type fixture struct {
	svc      payment.Service
	members  membership.Service
	remote   *memberStore
	txs      *txStore
	gw       *fakeGateway
	notifier *fakeNotifier
}

func newFixture(t *testing.T, mutate ...func(*payment.Config)) *fixture {
	t.Helper()

	clock := func() time.Time { return testNow }
	remote := newMemberStore()
	syncer := membership.NewSyncer(remote, newMemberStore(), membership.WithSyncLogger(logger.Nop()))
	members := membership.NewService(membership.MustDefaultCatalog(), syncer,
		membership.WithClock(clock), membership.WithLogger(logger.Nop()))

	cfg := payment.DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	f := &fixture{
		members:  members,
		remote:   remote,
		txs:      newTxStore(),
		gw:       &fakeGateway{sessionID: "sess-1"},
		notifier: &fakeNotifier{},
	}
	svc, err := payment.NewService(cfg, members, f.gw, f.txs, testKey,
		payment.WithClock(clock),
		payment.WithLogger(logger.Nop()),
		payment.WithNotifier(f.notifier),
		payment.WithIDGenerator(func() string { return "ref-1" }),
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) checkout(t *testing.T, tier membership.Tier) *payment.Checkout {
	t.Helper()
	co, err := f.svc.CreateCheckout(context.Background(), payment.CheckoutRequest{
		UserID: "user-1",
		Tier:   tier,
		Phone:  "0911223344",
		Email:  "user@example.com",
	})
	require.NoError(t, err)
	return co
}

func (f *fixture) tier(t *testing.T, userID string) membership.Tier {
	t.Helper()
	res, err := f.members.Get(context.Background(), userID)
	require.NoError(t, err)
	return res.Membership.Tier
}
