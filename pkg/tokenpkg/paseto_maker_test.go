package tokenpkg

import (
	"testing"
	"time"

	"github.com/go-petr/fx-ledger/pkg/randompkg"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestPasetoMaker(t *testing.T) {
	t.Parallel()

	secretKey := randompkg.String(32)

	maker, err := NewPasetoMaker(secretKey)
	if err != nil {
		t.Fatalf("NewPasetoMaker(%v) returned error: %v", secretKey, err)
	}

	userID := randompkg.UserID()
	duration := time.Minute

	token, payload, err := maker.CreateToken(userID, duration)
	if err != nil {
		t.Errorf("maker.CreateToken(%v, %v) returned error: %v", userID, duration, err)
	}

	got, err := maker.VerifyToken(token)
	if err != nil {
		t.Errorf("maker.VerifyToken(%v) returned error: %v", token, err)
	}

	want := &Payload{
		UserID:    userID,
		IssuedAt:  time.Now(),
		ExpiredAt: time.Now().Add(duration),
	}

	ignore := cmpopts.IgnoreFields(Payload{}, "ID")
	delta := cmpopts.EquateApproxTime(time.Minute)

	if diff := cmp.Diff(want, payload, ignore, delta); diff != "" {
		t.Errorf("maker.CreateToken(%v, %v) returned unexpected diff: %v", userID, duration, diff)
	}

	if diff := cmp.Diff(want, got, ignore, delta); diff != "" {
		t.Errorf("maker.VerifyToken(%v) returned unexpected diff: %v", token, diff)
	}
}

func TestExpiredPasetoToken(t *testing.T) {
	t.Parallel()

	secretKey := randompkg.String(32)

	maker, err := NewPasetoMaker(secretKey)
	if err != nil {
		t.Fatalf("NewPasetoMaker(%v) returned error: %v", secretKey, err)
	}

	userID := randompkg.UserID()
	duration := -time.Minute

	token, _, err := maker.CreateToken(userID, duration)
	if err != nil {
		t.Errorf("maker.CreateToken(%v, %v) returned error: %v", userID, duration, err)
	}

	_, err = maker.VerifyToken(token)
	if err != ErrExpiredToken {
		t.Errorf("maker.VerifyToken(%v) returned unexpected error: %v", token, err)
	}
}

func TestPasetoTokenWrongKey(t *testing.T) {
	t.Parallel()

	maker1, err := NewPasetoMaker(randompkg.String(32))
	if err != nil {
		t.Fatalf("NewPasetoMaker() returned error: %v", err)
	}

	maker2, err := NewPasetoMaker(randompkg.String(32))
	if err != nil {
		t.Fatalf("NewPasetoMaker() returned error: %v", err)
	}

	token, _, err := maker1.CreateToken(randompkg.UserID(), time.Minute)
	if err != nil {
		t.Fatalf("maker1.CreateToken() returned error: %v", err)
	}

	if _, err := maker2.VerifyToken(token); err != ErrInvalidToken {
		t.Errorf("maker2.VerifyToken(%v) returned error %v, want %v", token, err, ErrInvalidToken)
	}
}

func TestNewByType(t *testing.T) {
	t.Parallel()

	key := randompkg.String(32)

	if m, err := New(TypePaseto, key); err != nil {
		t.Errorf("New(%v) returned error: %v", TypePaseto, err)
	} else if _, ok := m.(*PasetoMaker); !ok {
		t.Errorf("New(%v) = %T, want *PasetoMaker", TypePaseto, m)
	}

	if m, err := New(TypeJWT, key); err != nil {
		t.Errorf("New(%v) returned error: %v", TypeJWT, err)
	} else if _, ok := m.(*JWTMaker); !ok {
		t.Errorf("New(%v) = %T, want *JWTMaker", TypeJWT, m)
	}

	if _, err := New("basic", key); err == nil {
		t.Error("New(basic) returned nil error, want non-nil")
	}
}
