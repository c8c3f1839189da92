package notification

import (
	"fmt"
	"strconv"
	"time"
)

// Property keys used to configure a mail session.
const (
	PropFrom              = "mail.from"
	PropConnectionTimeout = "mail.smtp.connectiontimeout"
	PropTimeout           = "mail.smtp.timeout"
	PropStartTLSEnable    = "mail.smtp.starttls.enable"
	PropSSLEnable         = "mail.smtp.ssl.enable"
	PropTransportProtocol = "mail.transport.protocol"
	PropSMTPAuth          = "mail.smtp.auth"
	PropSMTPSAuth         = "mail.smtps.auth"
)

// DefaultTimeout applies to both connect and I/O unless an override exists.
const DefaultTimeout = 60 * time.Second

// overridableKeys are the only keys an operator-level override may set.
var overridableKeys = []string{PropConnectionTimeout, PropTimeout}

// Properties is the flat key/value configuration handed to a SessionFactory.
type Properties map[string]string

// Clone returns an independent copy of p.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Bool reports whether key is set to "true".
func (p Properties) Bool(key string) bool {
	v, _ := strconv.ParseBool(p[key])
	return v
}

// Duration parses key as a millisecond count. Zero is kept and means no
// timeout. Missing, malformed, or negative values yield fallback.
func (p Properties) Duration(key string, fallback time.Duration) time.Duration {
	v, ok := p[key]
	if !ok {
		return fallback
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms < 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// MergeDefaults returns overrides with every key from defaults that overrides
// does not already define. Override values always win.
func MergeDefaults(overrides, defaults Properties) Properties {
	out := make(Properties, len(overrides)+len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// BuildProperties derives the session configuration for s. Only timeout keys
// are taken from overrides; everything else is owned by the settings.
func BuildProperties(s Settings, overrides Properties) Properties {
	defaults := Properties{
		PropConnectionTimeout: millis(DefaultTimeout),
		PropTimeout:           millis(DefaultTimeout),
	}
	allowed := Properties{}
	for _, k := range overridableKeys {
		if v, ok := overrides[k]; ok {
			allowed[k] = v
		}
	}

	props := MergeDefaults(allowed, defaults)
	props[PropFrom] = s.FromAddr
	if s.TLS {
		props[PropStartTLSEnable] = "true"
		props[PropSSLEnable] = "true"
	}
	props[PropTransportProtocol] = s.Protocol()
	if s.HasCredentials() {
		props[PropSMTPAuth] = "true"
		props[PropSMTPSAuth] = "true"
	}
	return props
}

// AuthEnabled reports whether authentication is enabled for protocol.
func (p Properties) AuthEnabled(protocol string) bool {
	return p.Bool(fmt.Sprintf("mail.%s.auth", protocol))
}

func millis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}
