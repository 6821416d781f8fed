package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/budget-tracker/internal/config"
	"github.com/Dan9191/budget-tracker/internal/models"
	"github.com/Dan9191/budget-tracker/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL is how long issued bearer tokens stay valid
const tokenTTL = 7 * 24 * time.Hour

// dateLayout is the calendar-date format accepted on the wire
const dateLayout = "2006-01-02"

// Store is the persistence surface the service depends on
type Store interface {
	CreateUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)
	CreateTransaction(tx *models.Transaction) error
	ListTransactions(userID int64) ([]models.Transaction, error)
	ListTransactionsByYear(userID int64, year int) ([]models.Transaction, error)
	UpdateTransaction(userID, id int64, update models.TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, id int64) error
}

// Mailer sends account emails. A nil mailer disables outgoing mail.
type Mailer interface {
	SendWelcome(to, username string) error
}

// Service handles business logic
type Service struct {
	store  Store
	log    *logrus.Logger
	config *config.Config
	mailer Mailer
}

// NewService initializes a new service
func NewService(store Store, log *logrus.Logger, cfg *config.Config, mailer Mailer) *Service {
	return &Service{store: store, log: log, config: cfg, mailer: mailer}
}

// Register creates a new user with hashed password and returns it together
// with a signed bearer token
func (s *Service) Register(username, email, password string) (*models.User, string, error) {
	if username == "" || email == "" || password == "" {
		return nil, "", newValidationError("Please enter all fields")
	}

	if _, err := s.store.FindUserByEmail(email); err == nil {
		return nil, "", ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.store.CreateUser(user); err != nil {
		// Unique index backstops the pre-check under concurrent registration
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.log.Infof("User registered: %s", user.Email)

	// Welcome mail is best-effort and must not delay the response
	if s.mailer != nil {
		go func(addr, name string) {
			if err := s.mailer.SendWelcome(addr, name); err != nil {
				s.log.Warnf("Welcome email to %s not sent: %v", addr, err)
			}
		}(user.Email, user.Username)
	}

	return user, token, nil
}

// Login authenticates a user and returns it together with a signed bearer
// token. Unknown email and wrong password fail identically.
func (s *Service) Login(email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", newValidationError("Please enter all fields")
	}

	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.log.Infof("User logged in: %s", user.Email)
	return user, token, nil
}

// GenerateToken signs a bearer token carrying the user id
func (s *Service) GenerateToken(userID int64) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// TransactionInput carries transaction fields from the wire. Nil means the
// field was absent from the request body.
type TransactionInput struct {
	Amount      *float64
	Category    *string
	Type        *string
	Date        *string
	Description *string
}

// AddTransaction validates the input and persists a new transaction owned
// by userID
func (s *Service) AddTransaction(userID int64, in TransactionInput) (*models.Transaction, error) {
	if in.Amount == nil || *in.Amount == 0 ||
		in.Category == nil || *in.Category == "" ||
		in.Type == nil || *in.Type == "" ||
		in.Date == nil || *in.Date == "" {
		return nil, newValidationError("Please fill all required fields")
	}
	if !models.ValidType(*in.Type) {
		return nil, newValidationError("Invalid transaction type")
	}
	date, err := parseDate(*in.Date)
	if err != nil {
		return nil, newValidationError("Invalid date format")
	}

	tx := &models.Transaction{
		UserID:   userID,
		Amount:   *in.Amount,
		Category: *in.Category,
		Type:     *in.Type,
		Date:     date,
	}
	if in.Description != nil {
		tx.Description = *in.Description
	}

	if err := s.store.CreateTransaction(tx); err != nil {
		return nil, err
	}

	s.log.Infof("Transaction %d added for user %d: %s %.2f", tx.ID, userID, tx.Type, tx.Amount)
	return tx, nil
}

// ListTransactions returns all transactions owned by userID, most recent
// first
func (s *Service) ListTransactions(userID int64) ([]models.Transaction, error) {
	return s.store.ListTransactions(userID)
}

// UpdateTransaction applies a partial field set to a transaction owned by
// userID, re-validating every changed field
func (s *Service) UpdateTransaction(userID, id int64, in TransactionInput) (*models.Transaction, error) {
	update := models.TransactionUpdate{
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
	}
	if in.Amount != nil && *in.Amount == 0 {
		return nil, newValidationError("Please fill all required fields")
	}
	if in.Category != nil && *in.Category == "" {
		return nil, newValidationError("Please fill all required fields")
	}
	if in.Type != nil {
		if !models.ValidType(*in.Type) {
			return nil, newValidationError("Invalid transaction type")
		}
		update.Type = in.Type
	}
	if in.Date != nil {
		date, err := parseDate(*in.Date)
		if err != nil {
			return nil, newValidationError("Invalid date format")
		}
		update.Date = &date
	}

	tx, err := s.store.UpdateTransaction(userID, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.log.Infof("Transaction %d updated for user %d", id, userID)
	return tx, nil
}

// DeleteTransaction removes a transaction owned by userID
func (s *Service) DeleteTransaction(userID, id int64) error {
	if err := s.store.DeleteTransaction(userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.log.Infof("Transaction %d deleted for user %d", id, userID)
	return nil
}

// parseDate accepts a calendar date, falling back to RFC 3339 timestamps as
// sent by browser clients
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
