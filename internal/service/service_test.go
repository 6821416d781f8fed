package service_test

import (
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/budget-tracker/internal/config"
	"github.com/Dan9191/budget-tracker/internal/models"
	"github.com/Dan9191/budget-tracker/internal/repository"
	"github.com/Dan9191/budget-tracker/internal/service"
	"github.com/sirupsen/logrus"
)

// memStore is an in-memory service.Store used to exercise business logic
// without a database. It mirrors the repository's contract, including the
// owner filtering on every transaction operation.
type memStore struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	txs    map[int64]*models.Transaction
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[int64]*models.User),
		txs:   make(map[int64]*models.Transaction),
	}
}

func (m *memStore) CreateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memStore) FindUserByEmail(email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) CreateTransaction(tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	tx.ID = m.nextID
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	clone := *tx
	m.txs[tx.ID] = &clone
	return nil
}

func (m *memStore) ListTransactions(userID int64) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Transaction{}
	for _, tx := range m.txs {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memStore) ListTransactionsByYear(userID int64, year int) ([]models.Transaction, error) {
	all, err := m.ListTransactions(userID)
	if err != nil {
		return nil, err
	}
	out := []models.Transaction{}
	for _, tx := range all {
		if tx.Date.Year() == year {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memStore) UpdateTransaction(userID, id int64, update models.TransactionUpdate) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok || tx.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if update.Amount != nil {
		tx.Amount = *update.Amount
	}
	if update.Category != nil {
		tx.Category = *update.Category
	}
	if update.Type != nil {
		tx.Type = *update.Type
	}
	if update.Date != nil {
		tx.Date = *update.Date
	}
	if update.Description != nil {
		tx.Description = *update.Description
	}
	tx.UpdatedAt = time.Now()
	clone := *tx
	return &clone, nil
}

func (m *memStore) DeleteTransaction(userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok || tx.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.txs, id)
	return nil
}

func newTestService() (*service.Service, *memStore) {
	store := newMemStore()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{JWTSecret: "test-secret"}
	return service.NewService(store, logger, cfg, nil), store
}

func ptrF(v float64) *float64 { return &v }
func ptrS(v string) *string   { return &v }

func validInput() service.TransactionInput {
	return service.TransactionInput{
		Amount:   ptrF(50),
		Category: ptrS("Food"),
		Type:     ptrS(models.TypeExpense),
		Date:     ptrS("2024-01-15"),
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()

	cases := []struct {
		name                      string
		username, email, password string
	}{
		{"missing username", "", "a@b.c", "pw"},
		{"missing email", "alice", "", "pw"},
		{"missing password", "alice", "a@b.c", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(tc.username, tc.email, tc.password)
			var vErr *service.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Message != "Please enter all fields" {
				t.Errorf("unexpected message: %q", vErr.Message)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	if _, _, err := svc.Register("alice", "alice@example.com", "secret"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, _, err := svc.Register("alice2", "alice@example.com", "other")
	if !errors.Is(err, service.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, store := newTestService()

	user, token, err := svc.Register("alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if user.ID == 0 {
		t.Error("expected an assigned id")
	}
	stored, err := store.FindUserByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if stored.PasswordHash == "secret" || stored.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestService()
	if _, _, err := svc.Register("alice", "alice@example.com", "secret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Unknown email and wrong password must fail identically
	_, _, errUnknown := svc.Login("nobody@example.com", "secret")
	_, _, errWrongPw := svc.Login("alice@example.com", "wrong")
	if !errors.Is(errUnknown, service.ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", errUnknown)
	}
	if !errors.Is(errWrongPw, service.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", errWrongPw)
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Errorf("messages differ: %q vs %q", errUnknown, errWrongPw)
	}
}

func TestLoginSuccess(t *testing.T) {
	svc, _ := newTestService()
	if _, _, err := svc.Register("alice", "alice@example.com", "secret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, token, err := svc.Login("alice@example.com", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Username != "alice" || token == "" {
		t.Errorf("unexpected login result: user=%+v token=%q", user, token)
	}
}

func TestAddTransactionValidation(t *testing.T) {
	svc, _ := newTestService()

	cases := []struct {
		name    string
		mutate  func(*service.TransactionInput)
		message string
	}{
		{"missing amount", func(in *service.TransactionInput) { in.Amount = nil }, "Please fill all required fields"},
		{"zero amount", func(in *service.TransactionInput) { in.Amount = ptrF(0) }, "Please fill all required fields"},
		{"missing category", func(in *service.TransactionInput) { in.Category = nil }, "Please fill all required fields"},
		{"missing type", func(in *service.TransactionInput) { in.Type = nil }, "Please fill all required fields"},
		{"missing date", func(in *service.TransactionInput) { in.Date = nil }, "Please fill all required fields"},
		{"bad type", func(in *service.TransactionInput) { in.Type = ptrS("Transfer") }, "Invalid transaction type"},
		{"bad date", func(in *service.TransactionInput) { in.Date = ptrS("15/01/2024") }, "Invalid date format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.AddTransaction(1, in)
			var vErr *service.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Message != tc.message {
				t.Errorf("message = %q, want %q", vErr.Message, tc.message)
			}
		})
	}
}

func TestAddListRoundTrip(t *testing.T) {
	svc, _ := newTestService()

	in := validInput()
	in.Description = ptrS("groceries")
	created, err := svc.AddTransaction(7, in)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Error("expected assigned id and timestamps")
	}

	list, err := svc.ListTransactions(7)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(list))
	}
	got := list[0]
	if got.Amount != 50 || got.Category != "Food" || got.Type != models.TypeExpense ||
		got.Description != "groceries" || got.Date.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestListTransactionsOrder(t *testing.T) {
	svc, _ := newTestService()

	dates := []string{"2024-03-01", "2024-01-01", "2024-02-01"}
	for _, d := range dates {
		in := validInput()
		in.Date = ptrS(d)
		if _, err := svc.AddTransaction(1, in); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	list, err := svc.ListTransactions(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := []string{"2024-03-01", "2024-02-01", "2024-01-01"}
	for i, w := range want {
		if got := list[i].Date.Format("2006-01-02"); got != w {
			t.Errorf("list[%d].Date = %s, want %s", i, got, w)
		}
	}
}

func TestOwnerIsolation(t *testing.T) {
	svc, _ := newTestService()

	mine, err := svc.AddTransaction(1, validInput())
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.AddTransaction(2, validInput()); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	list, err := svc.ListTransactions(2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, tx := range list {
		if tx.UserID != 2 {
			t.Errorf("user 2 sees foreign transaction %d owned by %d", tx.ID, tx.UserID)
		}
	}

	// Mutations against a foreign id behave as if the record is absent
	if _, err := svc.UpdateTransaction(2, mine.ID, service.TransactionInput{Amount: ptrF(99)}); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("foreign update: expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteTransaction(2, mine.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("foreign delete: expected ErrNotFound, got %v", err)
	}

	// The owner still can
	if _, err := svc.UpdateTransaction(1, mine.ID, service.TransactionInput{Amount: ptrF(99)}); err != nil {
		t.Errorf("owner update failed: %v", err)
	}
}

func TestUpdatePartial(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.AddTransaction(1, validInput())
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	updated, err := svc.UpdateTransaction(1, created.ID, service.TransactionInput{Amount: ptrF(75)})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Amount != 75 {
		t.Errorf("amount = %v, want 75", updated.Amount)
	}
	if updated.Category != "Food" || updated.Type != models.TypeExpense {
		t.Errorf("unchanged fields altered: %+v", updated)
	}

	// Changed fields are re-validated
	if _, err := svc.UpdateTransaction(1, created.ID, service.TransactionInput{Type: ptrS("Transfer")}); err == nil {
		t.Error("expected validation error for bad type")
	}
	if _, err := svc.UpdateTransaction(1, created.ID, service.TransactionInput{Date: ptrS("not-a-date")}); err == nil {
		t.Error("expected validation error for bad date")
	}
}

func TestDeleteIdempotence(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.AddTransaction(1, validInput())
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.DeleteTransaction(1, created.ID); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := svc.DeleteTransaction(1, created.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}
