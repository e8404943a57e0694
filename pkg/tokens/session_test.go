package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_IssueAndParse(t *testing.T) {
	t.Parallel()

	iss := &Issuer{Secret: []byte("test-jwt-secret"), TTL: time.Hour}
	userID := uuid.New()

	issued, err := iss.Issue(userID, true)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.NotEmpty(t, issued.JTI)

	claims, err := iss.Parse(issued.Token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, issued.JTI, claims.ID)
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt.Time, time.Second)

	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestSessionClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")

	expired := &Issuer{Secret: secret, TTL: time.Minute, Now: func() time.Time {
		return time.Now().Add(-time.Hour)
	}}
	old, err := expired.Issue(uuid.New(), false)
	require.NoError(t, err)

	other := &Issuer{Secret: []byte("other-secret"), TTL: time.Hour}
	foreign, err := other.Issue(uuid.New(), false)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "expired", token: old.Token},
		{name: "wrong secret", token: foreign.Token},
		{name: "alg none", token: none},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := SessionClaimsFromToken(tt.token, secret)
			require.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
