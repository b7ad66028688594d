package utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestPage(t *testing.T) {
	tests := []struct {
		name         string
		number, size int
		want         Page
		offset       int
	}{
		{"first page", 1, 10, Page{1, 10}, 0},
		{"third page", 3, 10, Page{3, 10}, 20},
		{"page below one", 0, 10, Page{1, 10}, 0},
		{"size defaults", 2, 0, Page{2, DefaultPageSize}, DefaultPageSize},
		{"size capped", 2, 500, Page{2, MaxPageSize}, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.number, tt.size)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.offset, p.Offset())
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 3, TotalPages(21, 10))
	assert.Equal(t, 2, TotalPages(20, 10))
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 7, ParseInt("7", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 1, ParseInt("abc", 1))
	assert.Equal(t, 1, ParseInt("-3", 1))
}

func TestPrincipal(t *testing.T) {
	id := uuid.New()
	ctx := WithPrincipal(context.Background(), Principal{UserID: id, Role: "instructor", Token: "tok"})

	caller, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, id, caller.UserID)
	assert.Equal(t, "tok", caller.Token)
	assert.True(t, caller.HasRole("admin", "instructor"))
	assert.False(t, caller.HasRole("student"))

	_, ok = PrincipalFrom(context.Background())
	assert.False(t, ok)

	_, ok = PrincipalFrom(WithPrincipal(context.Background(), Principal{Role: "admin"}))
	assert.False(t, ok)
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Email  string `json:"email" validate:"required,email"`
		Amount string `json:"amount" validate:"required,numeric"`
	}

	errs := ValidateStruct(payload{Email: "nope", Amount: "x"})
	assert.Contains(t, errs, "Email")
	assert.Contains(t, errs, "Amount")

	assert.Empty(t, ValidateStruct(payload{Email: "a@b.co", Amount: "12.50"}))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "PAYMENT_GATEWAY", "FEE_RATE", "FEE_FIXED", "SESSION_EXPIRY_HOURS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "simulated", cfg.Payment.Gateway)
	assert.Equal(t, "0.015", cfg.Fee.Rate)
	assert.Equal(t, "0.25", cfg.Fee.Fixed)
	assert.Equal(t, 24, cfg.Session.ExpiryHours)
}
