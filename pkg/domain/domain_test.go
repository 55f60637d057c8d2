package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubscriberName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SubscriberName
		wantErr error
	}{
		{"plain", "Ursula Le Guin", "Ursula Le Guin", nil},
		{"trimmed", "  Ada  ", "Ada", nil},
		{"max length", strings.Repeat("ё", MaxNameLength), SubscriberName(strings.Repeat("ё", MaxNameLength)), nil},
		{"empty", "", "", ErrEmptyName},
		{"whitespace only", " \t\n", "", ErrEmptyName},
		{"too long", strings.Repeat("a", MaxNameLength+1), "", ErrNameTooLong},
		{"combining marks count once", strings.Repeat("e\u0301", MaxNameLength), SubscriberName(strings.Repeat("e\u0301", MaxNameLength)), nil},
		{"combining marks too long", strings.Repeat("e\u0301", MaxNameLength+1), "", ErrNameTooLong},
		{"emoji sequence counts once", strings.Repeat("👩‍👩‍👧", MaxNameLength), SubscriberName(strings.Repeat("👩‍👩‍👧", MaxNameLength)), nil},
	}
	for _, c := range `/()"<>\{}` {
		tests = append(tests, struct {
			name    string
			input   string
			want    SubscriberName
			wantErr error
		}{"forbidden " + string(c), "bad" + string(c) + "name", "", ErrForbiddenCharacters})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSubscriberName(tt.input)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSubscriberEmail(t *testing.T) {
	valid := []string{"ursula@example.com", "first.last+tag@sub.example.org", " padded@example.com "}
	for _, s := range valid {
		got, err := ParseSubscriberEmail(s)
		require.NoError(t, err, s)
		assert.Equal(t, strings.TrimSpace(s), got.String())
	}

	invalid := []string{"", "ursuladomain.com", "@domain.com", "ursula@", "two@@example.com"}
	for _, s := range invalid {
		_, err := ParseSubscriberEmail(s)
		assert.ErrorIs(t, err, ErrInvalidEmail, s)
	}
}

func TestParseNewSubscriber(t *testing.T) {
	sub, err := ParseNewSubscriber("le guin", "ursula_le_guin@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, SubscriberName("le guin"), sub.Name)
	assert.Equal(t, SubscriberEmail("ursula_le_guin@gmail.com"), sub.Email)

	_, err = ParseNewSubscriber("", "")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = ParseNewSubscriber("le guin", "definitely-not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestSubscriptionToken(t *testing.T) {
	seen := make(map[SubscriptionToken]struct{})
	for i := 0; i < 100; i++ {
		tok, err := NewSubscriptionToken()
		require.NoError(t, err)
		assert.Len(t, tok.String(), SubscriptionTokenLength)

		parsed, err := ParseSubscriptionToken(tok.String())
		require.NoError(t, err)
		assert.Equal(t, tok, parsed)

		seen[tok] = struct{}{}
	}
	assert.Len(t, seen, 100)
}

func TestParseSubscriptionToken_Invalid(t *testing.T) {
	for _, s := range []string{"", "short", strings.Repeat("a", SubscriptionTokenLength+1), strings.Repeat("-", SubscriptionTokenLength)} {
		_, err := ParseSubscriptionToken(s)
		assert.ErrorIs(t, err, ErrInvalidToken, s)
	}
}
