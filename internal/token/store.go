package token

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.etcd.io/bbolt"

	"pogawedka/internal/models"
)

var (
	ErrNoRefreshToken         = errors.New("no refresh token")
	ErrInvalidRefreshResponse = errors.New("invalid refresh response")
)

var (
	bucketSession   = []byte("session")
	keyToken        = []byte("token")
	keyRefreshToken = []byte("refreshToken")
)

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	RefreshToken(ctx context.Context, refresh string) (models.TokenPair, error)
}

// Store persists the session token pair in a small bbolt file, the
// desktop stand-in for browser local storage. It is also the single
// place that derives the current user's identity from the access token.
type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create token store dir: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTokens replaces the stored pair wholesale.
func (s *Store) SaveTokens(access, refresh string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if err := b.Put(keyToken, []byte(access)); err != nil {
			return err
		}
		return b.Put(keyRefreshToken, []byte(refresh))
	})
}

// Clear deletes both tokens. Called on logout.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if err := b.Delete(keyToken); err != nil {
			return err
		}
		return b.Delete(keyRefreshToken)
	})
}

func (s *Store) AccessToken() string {
	return s.read(keyToken)
}

func (s *Store) RefreshToken() string {
	return s.read(keyRefreshToken)
}

func (s *Store) read(key []byte) string {
	var value string
	_ = s.db.View(func(tx *bbolt.Tx) error {
		value = string(tx.Bucket(bucketSession).Get(key))
		return nil
	})
	return value
}

// CurrentUserID returns the user identifier carried in the access token
// payload, or "" when no token is stored or it does not decode. The
// payload is read without signature verification; the backend is the
// one that validates tokens, the client only needs the identity.
func (s *Store) CurrentUserID() string {
	return UserID(s.AccessToken())
}

// UserID extracts the first present of the "id", "userId" and "sub"
// claims, stringified. Malformed input yields "".
func UserID(tokenString string) string {
	if tokenString == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return ""
	}

	for _, key := range []string{"id", "userId", "sub"} {
		v, ok := claims[key]
		if !ok || v == nil {
			continue
		}
		switch id := v.(type) {
		case string:
			return id
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		default:
			return fmt.Sprint(id)
		}
	}
	return ""
}

// Refresh exchanges the stored refresh token for a new access token and
// persists the result. The new refresh token replaces the old one only
// when the backend sends one.
func (s *Store) Refresh(ctx context.Context, r Refresher) (string, error) {
	refresh := s.RefreshToken()
	if refresh == "" {
		return "", ErrNoRefreshToken
	}

	pair, err := r.RefreshToken(ctx, refresh)
	if err != nil {
		return "", err
	}
	if pair.AccessToken == "" {
		return "", ErrInvalidRefreshResponse
	}

	if pair.RefreshToken == "" {
		pair.RefreshToken = refresh
	}
	if err := s.SaveTokens(pair.AccessToken, pair.RefreshToken); err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}
