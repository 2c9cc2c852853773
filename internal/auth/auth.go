package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"todoboard-backend/internal/storage"
)

var (
	ErrUserExists         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("email & password required")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public is the user as sent to the frontend.
type Public struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

func (u User) Public() Public {
	return Public{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Users keeps accounts in a storage.KV under "user:<email>".
type Users struct {
	kv   storage.KV
	cost int
}

func NewUsers(kv storage.KV) *Users {
	return &Users{kv: kv, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost; tests use bcrypt.MinCost.
func (u *Users) WithCost(cost int) *Users {
	u.cost = cost
	return u
}

func userKey(email string) string {
	return "user:" + normalizeEmail(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *Users) Get(email string) (User, error) {
	raw, ok, err := u.kv.GetItem(userKey(email))
	if err != nil {
		return User{}, fmt.Errorf("read user: %w", err)
	}
	if !ok {
		return User{}, ErrUserNotFound
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	return user, nil
}

func (u *Users) Register(name, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, ErrMissingFields
	}

	if _, err := u.Get(email); err == nil {
		return User{}, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("marshal user: %w", err)
	}
	if err := u.kv.SetItem(userKey(email), string(data)); err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}

	return user, nil
}

// Authenticate returns the user when password matches.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (u *Users) Authenticate(email, password string) (User, error) {
	user, err := u.Get(email)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (u *Users) Delete(email string) error {
	if err := u.kv.RemoveItem(userKey(email)); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
