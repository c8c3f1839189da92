package notification_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaharia-lab/mailnotify/internal/notification"
)

func TestSettings_Protocol(t *testing.T) {
	assert.Equal(t, "smtp", notification.Settings{}.Protocol())
	assert.Equal(t, "smtps", notification.Settings{TLS: true}.Protocol())
}

func TestSettings_Validate(t *testing.T) {
	valid := notification.Settings{Host: "smtp.example.com", Port: 587, FromAddr: "ci@example.com"}
	assert.NoError(t, valid.Validate())

	err := notification.Settings{Port: 0}.Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "host is required")
		assert.Contains(t, err.Error(), "port 0 is out of range")
		assert.Contains(t, err.Error(), "from address is required")
	}
}

func TestSettings_StringMasksPassword(t *testing.T) {
	s := notification.Settings{Host: "h", Port: 25, Username: "bot", Password: "secret", FromAddr: "f@example.com"}
	assert.NotContains(t, s.String(), "secret")
	assert.Contains(t, s.String(), "***")
}

func TestSettings_HashFollowsEquality(t *testing.T) {
	a := notification.Settings{Host: "smtp.example.com", Port: 587, Username: "bot", Password: "secret", FromAddr: "ci@example.com", TLS: true}
	b := a
	assert.Equal(t, a, b)
	assert.Equal(t, a.Hash(), b.Hash())

	variants := []notification.Settings{a, a, a, a, a, a}
	variants[0].Host = "other.example.com"
	variants[1].Port = 465
	variants[2].Username = "other"
	variants[3].Password = "other"
	variants[4].FromAddr = "other@example.com"
	variants[5].TLS = false
	for _, v := range variants {
		assert.NotEqual(t, a, v)
		assert.NotEqual(t, a.Hash(), v.Hash())
	}
}

func TestSettings_HashFieldBoundaries(t *testing.T) {
	a := notification.Settings{Host: "ab", Username: "c"}
	b := notification.Settings{Host: "a", Username: "bc"}
	assert.NotEqual(t, a.Hash(), b.Hash())
}
