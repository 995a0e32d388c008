package jwtx_test

import (
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/turnstile/pkg/cryptox"
	"github.com/aussiebroadwan/turnstile/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-with-enough-entropy!")

func hsPolicy() jwtx.Policy {
	return jwtx.Policy{
		Lifetime:  jwtx.DefaultLifetime,
		Leeway:    jwtx.DefaultLeeway,
		Algorithm: jwtx.HS256,
		Secret:    testSecret,
	}
}

func newAuthority(t *testing.T, p jwtx.Policy, opts ...jwtx.Option) *jwtx.Authority {
	t.Helper()
	a, err := jwtx.NewAuthority(p, opts...)
	require.NoError(t, err)
	return a
}

func TestNewAuthority_RejectsBadPolicy(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *jwtx.Policy)
		want   error
	}{
		{"unknown algorithm", func(p *jwtx.Policy) { p.Algorithm = "none" }, jwtx.ErrUnknownAlgorithm},
		{"zero lifetime", func(p *jwtx.Policy) { p.Lifetime = 0 }, jwtx.ErrInvalidPolicy},
		{"negative leeway", func(p *jwtx.Policy) { p.Leeway = -time.Second }, jwtx.ErrInvalidPolicy},
		{"empty secret", func(p *jwtx.Policy) { p.Secret = nil }, jwtx.ErrInvalidKey},
		{"rsa without pem", func(p *jwtx.Policy) { p.Algorithm = jwtx.RS256 }, jwtx.ErrInvalidKey},
		{"eddsa without pem", func(p *jwtx.Policy) { p.Algorithm = jwtx.EdDSA }, jwtx.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := hsPolicy()
			tt.mutate(&p)
			_, err := jwtx.NewAuthority(p)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewAuthority_ES256RequiresP256(t *testing.T) {
	pemKey, err := cryptox.GenerateSigningKey(cryptox.KeyEd25519, 0)
	require.NoError(t, err)

	_, err = jwtx.NewAuthority(jwtx.Policy{
		Lifetime:  time.Minute,
		Algorithm: jwtx.ES256,
		Secret:    pemKey,
	})
	require.ErrorIs(t, err, jwtx.ErrInvalidKey)
}

func TestParseAlgorithm(t *testing.T) {
	for in, want := range map[string]jwtx.Algorithm{
		"HS256": jwtx.HS256,
		"hs384": jwtx.HS384,
		"HS512": jwtx.HS512,
		"rs256": jwtx.RS256,
		"ES256": jwtx.ES256,
		"eddsa": jwtx.EdDSA,
	} {
		got, err := jwtx.ParseAlgorithm(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}

	_, err := jwtx.ParseAlgorithm("none")
	require.ErrorIs(t, err, jwtx.ErrUnknownAlgorithm)

	require.True(t, jwtx.HS512.Symmetric())
	require.False(t, jwtx.EdDSA.Symmetric())
}

func TestAuthority_RoundTripPerAlgorithm(t *testing.T) {
	keyFor := func(t *testing.T, kt cryptox.KeyType, bits int) []byte {
		t.Helper()
		k, err := cryptox.GenerateSigningKey(kt, bits)
		require.NoError(t, err)
		return k
	}

	tests := []struct {
		alg    jwtx.Algorithm
		secret func(t *testing.T) []byte
	}{
		{jwtx.HS256, func(*testing.T) []byte { return testSecret }},
		{jwtx.HS384, func(*testing.T) []byte { return testSecret }},
		{jwtx.HS512, func(*testing.T) []byte { return testSecret }},
		{jwtx.RS256, func(t *testing.T) []byte { return keyFor(t, cryptox.KeyRSA, 2048) }},
		{jwtx.ES256, func(t *testing.T) []byte { return keyFor(t, cryptox.KeyP256, 0) }},
		{jwtx.EdDSA, func(t *testing.T) []byte { return keyFor(t, cryptox.KeyEd25519, 0) }},
	}

	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			t.Parallel()

			a := newAuthority(t, jwtx.Policy{
				Lifetime:  time.Minute,
				Algorithm: tt.alg,
				Secret:    tt.secret(t),
			})
			require.Equal(t, tt.alg, a.Algorithm())

			token, err := a.Issue("alice@example.com")
			require.NoError(t, err)
			require.Len(t, strings.Split(token, "."), 3)

			claims, err := a.Validate(token)
			require.NoError(t, err)
			require.Equal(t, "alice@example.com", claims.Subject)
			require.NotEmpty(t, claims.ID)
		})
	}
}

func TestAuthority_LifetimeAndLeewayBoundaries(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	now := issued
	a := newAuthority(t, hsPolicy(), jwtx.WithClock(func() time.Time { return now }))

	token, err := a.Issue("alice@example.com")
	require.NoError(t, err)

	claims, err := a.Validate(token)
	require.NoError(t, err)
	require.Equal(t, issued.Add(jwtx.DefaultLifetime).Unix(), claims.ExpiresAt.Unix())
	require.Equal(t, issued.Unix(), claims.IssuedAt.Unix())

	lifetime, leeway := jwtx.DefaultLifetime, jwtx.DefaultLeeway

	tests := []struct {
		name   string
		at     time.Time
		expire bool
	}{
		{"just before expiry", issued.Add(lifetime - time.Second), false},
		{"inside leeway", issued.Add(lifetime + leeway - time.Second), false},
		{"at leeway edge", issued.Add(lifetime + leeway), false},
		{"past leeway", issued.Add(lifetime + leeway + time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = tt.at
			_, err := a.Validate(token)
			if tt.expire {
				require.ErrorIs(t, err, jwtx.ErrExpired)
				require.True(t, jwtx.IsInvalid(err))
				return
			}
			require.NoError(t, err)
		})
	}

	t.Run("before issuance", func(t *testing.T) {
		now = issued.Add(-time.Second)
		_, err := a.Validate(token)
		require.ErrorIs(t, err, jwtx.ErrNotYetValid)
	})
}

func TestAuthority_RejectsEveryMutation(t *testing.T) {
	edKey, err := cryptox.GenerateSigningKey(cryptox.KeyEd25519, 0)
	require.NoError(t, err)

	policies := map[string]jwtx.Policy{
		"HS256": hsPolicy(),
		"EdDSA": {Lifetime: time.Minute, Algorithm: jwtx.EdDSA, Secret: edKey},
	}

	for name, p := range policies {
		t.Run(name, func(t *testing.T) {
			a := newAuthority(t, p)

			token, err := a.Issue("alice@example.com")
			require.NoError(t, err)
			payloadStart := strings.Index(token, ".") + 1

			for i := range len(token) {
				if token[i] == '.' {
					continue
				}
				replacement := byte('A')
				if token[i] == 'A' {
					replacement = 'B'
				}
				mutated := token[:i] + string(replacement) + token[i+1:]

				_, err := a.Validate(mutated)
				require.Error(t, err, "mutation at %d accepted", i)
				require.True(t, jwtx.IsInvalid(err), "mutation at %d: %v", i, err)

				// Past the header, every change is a signature failure even
				// when the payload no longer decodes.
				if i >= payloadStart {
					require.ErrorIs(t, err, jwtx.ErrInvalidSig, "mutation at %d", i)
				}
			}
		})
	}
}

func TestAuthority_ValidSignatureBadPayloadIsMalformed(t *testing.T) {
	a := newAuthority(t, hsPolicy())

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":`))
	signed, err := jwt.SigningMethodHS256.Sign(header+"."+payload, testSecret)
	require.NoError(t, err)

	_, err = a.Validate(header + "." + payload + "." + base64.RawURLEncoding.EncodeToString(signed))
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestAuthority_SignatureMutationIsInvalidSig(t *testing.T) {
	a := newAuthority(t, hsPolicy())

	token, err := a.Issue("alice@example.com")
	require.NoError(t, err)

	sigStart := strings.LastIndex(token, ".") + 1
	mid := sigStart + (len(token)-sigStart)/2
	replacement := byte('A')
	if token[mid] == 'A' {
		replacement = 'B'
	}
	mutated := token[:mid] + string(replacement) + token[mid+1:]

	_, err = a.Validate(mutated)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestAuthority_Malformed(t *testing.T) {
	a := newAuthority(t, hsPolicy())

	for _, raw := range []string{"", "abc", "a.b", "a.b.c", "!!.??.##"} {
		_, err := a.Validate(raw)
		require.ErrorIs(t, err, jwtx.ErrMalformed, "input %q", raw)
	}
}

func TestAuthority_WrongSecret(t *testing.T) {
	a := newAuthority(t, hsPolicy())

	p := hsPolicy()
	p.Secret = []byte("some-other-secret")
	other := newAuthority(t, p)

	token, err := other.Issue("alice@example.com")
	require.NoError(t, err)

	_, err = a.Validate(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestAuthority_AlgorithmMismatch(t *testing.T) {
	a := newAuthority(t, hsPolicy())

	p := hsPolicy()
	p.Algorithm = jwtx.HS512
	other := newAuthority(t, p)

	token, err := other.Issue("alice@example.com")
	require.NoError(t, err)

	_, err = a.Validate(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)

	t.Run("alg none", func(t *testing.T) {
		claims := jwtx.NewClaims("alice@example.com", "", time.Minute, time.Now())
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = a.Validate(unsigned)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})
}

func TestAuthority_RequiredClaims(t *testing.T) {
	a := newAuthority(t, hsPolicy())
	now := time.Now()

	sign := func(t *testing.T, c jwt.RegisteredClaims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(testSecret)
		require.NoError(t, err)
		return s
	}

	t.Run("missing subject", func(t *testing.T) {
		token := sign(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))})
		_, err := a.Validate(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})

	t.Run("missing expiry", func(t *testing.T) {
		token := sign(t, jwt.RegisteredClaims{Subject: "alice@example.com"})
		_, err := a.Validate(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})

	t.Run("empty subject on issue", func(t *testing.T) {
		_, err := a.Issue("")
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})
}

func TestAuthority_Issuer(t *testing.T) {
	p := hsPolicy()
	p.Issuer = "turnstile"
	a := newAuthority(t, p)

	token, err := a.Issue("alice@example.com")
	require.NoError(t, err)

	claims, err := a.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "turnstile", claims.Issuer)

	p.Issuer = "someone-else"
	other := newAuthority(t, p)
	_, err = other.Validate(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)

	// No configured issuer means nothing to enforce.
	lax := newAuthority(t, hsPolicy())
	_, err = lax.Validate(token)
	require.NoError(t, err)
}

func TestAuthority_Setters(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	now := issued
	a := newAuthority(t, hsPolicy(), jwtx.WithClock(func() time.Time { return now }))

	before, err := a.Issue("alice@example.com")
	require.NoError(t, err)

	require.NoError(t, a.SetLifetime(5*time.Minute))
	require.Equal(t, 5*time.Minute, a.Lifetime())

	after, err := a.Issue("alice@example.com")
	require.NoError(t, err)

	c, err := a.Validate(after)
	require.NoError(t, err)
	require.Equal(t, issued.Add(5*time.Minute).Unix(), c.ExpiresAt.Unix())

	// Tokens issued earlier keep their original expiry.
	c, err = a.Validate(before)
	require.NoError(t, err)
	require.Equal(t, issued.Add(jwtx.DefaultLifetime).Unix(), c.ExpiresAt.Unix())

	require.NoError(t, a.SetLeeway(0))
	require.Equal(t, time.Duration(0), a.Leeway())
	now = issued.Add(5*time.Minute + time.Second)
	_, err = a.Validate(after)
	require.ErrorIs(t, err, jwtx.ErrExpired)

	require.ErrorIs(t, a.SetLifetime(0), jwtx.ErrInvalidPolicy)
	require.ErrorIs(t, a.SetLeeway(-time.Second), jwtx.ErrInvalidPolicy)
}

func TestAuthority_ConcurrentUse(t *testing.T) {
	a := newAuthority(t, hsPolicy())

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 20 {
				if j%5 == 0 {
					_ = a.SetLifetime(time.Duration(i+1) * time.Minute)
					_ = a.SetLeeway(time.Duration(j) * time.Second)
				}
				token, err := a.Issue("alice@example.com")
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := a.Validate(token); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
