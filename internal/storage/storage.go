package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidHandle = errors.New("invalid file handle")
	ErrInvalidToken  = errors.New("invalid or expired file token")
)

var handlePattern = regexp.MustCompile(`^[0-9a-f-]{36}(\.[a-z0-9]{1,8})?$`)

// Local keeps uploaded blobs on the local filesystem under one directory.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

// Save stores the blob and returns its handle.
func (l *Local) Save(r io.Reader, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	handle := uuid.NewString()
	if ext != "" {
		handle += "." + ext
	}
	if !handlePattern.MatchString(handle) {
		return "", ErrInvalidHandle
	}
	f, err := os.Create(filepath.Join(l.dir, handle))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return handle, nil
}

func (l *Local) Path(handle string) (string, error) {
	if !handlePattern.MatchString(handle) {
		return "", ErrInvalidHandle
	}
	return filepath.Join(l.dir, handle), nil
}

func (l *Local) Remove(handle string) error {
	path, err := l.Path(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URLSigner turns handles into short-lived signed URLs.
type URLSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewURLSigner(key string, ttl time.Duration) *URLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &URLSigner{key: []byte(key), ttl: ttl, now: time.Now}
}

func (s *URLSigner) URL(handle string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   handle,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign file url: %w", err)
	}
	return "/files/" + handle + "?token=" + token, nil
}

// Verify checks that token was issued for handle and has not expired.
func (s *URLSigner) Verify(handle, token string) error {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	if claims.Subject != handle {
		return ErrInvalidToken
	}
	return nil
}
