package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/mailnotify/internal/notification"
)

// SettingsFile is the YAML layout accepted by `mailnotify send --config`.
//
//	smtp:
//	  host: smtp.example.com
//	  port: 587
//	  username: bot
//	  password: secret
//	  from_address: ci@example.com
//	  tls: true
//	overrides:
//	  mail.smtp.timeout: "30000"
type SettingsFile struct {
	SMTP      notification.Settings   `yaml:"smtp"`
	Overrides notification.Properties `yaml:"overrides"`
}

// LoadSettingsFile parses and validates a YAML settings file. Unknown keys are rejected.
func LoadSettingsFile(path string) (*SettingsFile, error) {
	//nolint:gosec // path is supplied by the operator on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file %q: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f SettingsFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing settings file %q: %w", path, err)
	}
	if err := f.SMTP.Validate(); err != nil {
		return nil, fmt.Errorf("invalid smtp settings in %q: %w", path, err)
	}
	return &f, nil
}
