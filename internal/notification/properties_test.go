package notification_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shaharia-lab/mailnotify/internal/notification"
)

func TestBuildProperties_TLS(t *testing.T) {
	props := notification.BuildProperties(notification.Settings{
		Host: "smtp.example.com", Port: 465, FromAddr: "ci@example.com", TLS: true,
	}, nil)

	assert.Equal(t, "smtps", props[notification.PropTransportProtocol])
	assert.Equal(t, "true", props[notification.PropStartTLSEnable])
	assert.Equal(t, "true", props[notification.PropSSLEnable])
	assert.Equal(t, "ci@example.com", props[notification.PropFrom])
}

func TestBuildProperties_Plain(t *testing.T) {
	props := notification.BuildProperties(notification.Settings{
		Host: "smtp.example.com", Port: 25, FromAddr: "ci@example.com",
	}, nil)

	assert.Equal(t, "smtp", props[notification.PropTransportProtocol])
	assert.NotContains(t, props, notification.PropStartTLSEnable)
	assert.NotContains(t, props, notification.PropSSLEnable)
}

func TestBuildProperties_Credentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantAuth bool
	}{
		{"both set", "bot", "secret", true},
		{"blank username", "", "secret", false},
		{"whitespace username", "   ", "secret", false},
		{"blank password", "bot", "", false},
		{"whitespace password", "bot", "\t", false},
		{"both blank", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := notification.BuildProperties(notification.Settings{
				Host: "h", Port: 25, FromAddr: "f@example.com", Username: tt.username, Password: tt.password,
			}, nil)
			assert.Equal(t, tt.wantAuth, props.AuthEnabled("smtp"))
			assert.Equal(t, tt.wantAuth, props.AuthEnabled("smtps"))
		})
	}
}

func TestBuildProperties_DefaultTimeouts(t *testing.T) {
	props := notification.BuildProperties(notification.Settings{FromAddr: "f@example.com"}, nil)

	assert.Equal(t, "60000", props[notification.PropConnectionTimeout])
	assert.Equal(t, "60000", props[notification.PropTimeout])
	assert.Equal(t, notification.DefaultTimeout, props.Duration(notification.PropTimeout, 0))
}

func TestBuildProperties_OverrideWins(t *testing.T) {
	overrides := notification.Properties{
		notification.PropConnectionTimeout: "1500",
		notification.PropTimeout:           "2500",
		// Only timeout keys may be overridden.
		notification.PropTransportProtocol: "smtps",
		notification.PropFrom:              "evil@example.com",
	}
	props := notification.BuildProperties(notification.Settings{FromAddr: "ci@example.com"}, overrides)

	assert.Equal(t, "1500", props[notification.PropConnectionTimeout])
	assert.Equal(t, "2500", props[notification.PropTimeout])
	assert.Equal(t, "smtp", props[notification.PropTransportProtocol])
	assert.Equal(t, "ci@example.com", props[notification.PropFrom])
	assert.Equal(t, 1500*time.Millisecond, props.Duration(notification.PropConnectionTimeout, 0))
}

func TestMergeDefaults(t *testing.T) {
	overrides := notification.Properties{"a": "override"}
	defaults := notification.Properties{"a": "default", "b": "default"}

	merged := notification.MergeDefaults(overrides, defaults)

	assert.Equal(t, notification.Properties{"a": "override", "b": "default"}, merged)
	// Inputs are untouched.
	assert.Equal(t, notification.Properties{"a": "override"}, overrides)
	assert.Len(t, defaults, 2)
}

func TestProperties_Duration(t *testing.T) {
	p := notification.Properties{"ok": "250", "zero": "0", "bad": "soon", "neg": "-5"}
	assert.Equal(t, 250*time.Millisecond, p.Duration("ok", time.Second))
	assert.Equal(t, time.Duration(0), p.Duration("zero", time.Second))
	assert.Equal(t, time.Second, p.Duration("bad", time.Second))
	assert.Equal(t, time.Second, p.Duration("neg", time.Second))
	assert.Equal(t, time.Second, p.Duration("missing", time.Second))
}
