package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/budget-tracker/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a requested record does not exist or is
	// owned by a different user.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the email is already registered
	ErrDuplicateEmail = errors.New("email already registered")
)

// uniqueViolation is the postgres error code for unique constraint violations
const uniqueViolation = "23505"

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateTransaction creates a new transaction owned by tx.UserID
func (r *Repository) CreateTransaction(tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, amount, category, type, date, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, tx.UserID, tx.Amount, tx.Category, tx.Type, tx.Date, tx.Description).
		Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListTransactions returns all transactions owned by userID, most recent first
func (r *Repository) ListTransactions(userID int64) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, amount, category, type, date, description, created_at, updated_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, id DESC`
	return r.queryTransactions(query, userID)
}

// ListTransactionsByYear returns transactions owned by userID whose date
// falls within the given calendar year
func (r *Repository) ListTransactionsByYear(userID int64, year int) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, amount, category, type, date, description, created_at, updated_at
		FROM transactions
		WHERE user_id = $1 AND date >= make_date($2, 1, 1) AND date <= make_date($2, 12, 31)
		ORDER BY date ASC, id ASC`
	return r.queryTransactions(query, userID, year)
}

func (r *Repository) queryTransactions(query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Category, &tx.Type,
			&tx.Date, &tx.Description, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return transactions, nil
}

// UpdateTransaction applies a partial field set to a transaction. The update
// is filtered by owner so a foreign id behaves like a missing one.
func (r *Repository) UpdateTransaction(userID, id int64, update models.TransactionUpdate) (*models.Transaction, error) {
	tx := &models.Transaction{}
	query := `
		UPDATE transactions
		SET amount      = COALESCE($3, amount),
		    category    = COALESCE($4, category),
		    type        = COALESCE($5, type),
		    date        = COALESCE($6, date),
		    description = COALESCE($7, description),
		    updated_at  = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, amount, category, type, date, description, created_at, updated_at`
	err := r.db.QueryRow(query, id, userID,
		update.Amount, update.Category, update.Type, update.Date, update.Description).
		Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Category, &tx.Type,
			&tx.Date, &tx.Description, &tx.CreatedAt, &tx.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	return tx, nil
}

// DeleteTransaction removes a transaction. The delete is filtered by owner
// so a foreign id behaves like a missing one.
func (r *Repository) DeleteTransaction(userID, id int64) error {
	result, err := r.db.Exec(`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
