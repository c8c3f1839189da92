package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Stage states reported by the CI server.
const (
	StateBuilding  = "Building"
	StatePassed    = "Passed"
	StateFailed    = "Failed"
	StateCancelled = "Cancelled"
	StateUnknown   = "Unknown"
)

// StageEvent describes a build-stage status change.
type StageEvent struct {
	Pipeline        string `json:"pipeline"`
	PipelineCounter int    `json:"pipeline_counter"`
	Stage           string `json:"stage"`
	StageCounter    int    `json:"stage_counter"`
	State           string `json:"state"`
	Result          string `json:"result"`
	TriggeredBy     string `json:"triggered_by,omitempty"`
	ServerURL       string `json:"server_url,omitempty"`
}

// Locator identifies the stage run as pipeline/counter/stage/counter.
func (e StageEvent) Locator() string {
	return fmt.Sprintf("%s/%d/%s/%d", e.Pipeline, e.PipelineCounter, e.Stage, e.StageCounter)
}

// DetailsURL links to the stage run on the CI server, or "" without a server URL.
func (e StageEvent) DetailsURL() string {
	if e.ServerURL == "" {
		return ""
	}
	return strings.TrimRight(e.ServerURL, "/") + "/go/pipelines/" + e.Locator()
}

// NormalizedState maps State onto one of the known state names.
func (e StageEvent) NormalizedState() string {
	for _, s := range []string{StateBuilding, StatePassed, StateFailed, StateCancelled} {
		if strings.EqualFold(strings.TrimSpace(e.State), s) {
			return s
		}
	}
	return StateUnknown
}

// Validate checks the fields needed to address a notification.
func (e StageEvent) Validate() error {
	if strings.TrimSpace(e.Pipeline) == "" {
		return fmt.Errorf("pipeline is required")
	}
	if strings.TrimSpace(e.Stage) == "" {
		return fmt.Errorf("stage is required")
	}
	return nil
}

// NotifyPolicy selects which stage states produce mail.
type NotifyPolicy struct {
	States []string
}

// DefaultNotifyPolicy notifies on every completed stage.
func DefaultNotifyPolicy() NotifyPolicy {
	return NotifyPolicy{States: []string{StatePassed, StateFailed, StateCancelled}}
}

// Allows reports whether ev should be mailed.
func (p NotifyPolicy) Allows(ev StageEvent) bool {
	state := ev.NormalizedState()
	for _, s := range p.States {
		if strings.EqualFold(strings.TrimSpace(s), state) {
			return true
		}
	}
	return false
}

func stateVerb(state string) string {
	switch state {
	case StateBuilding:
		return "is building"
	case StatePassed:
		return "passed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "was cancelled"
	}
	return "changed state"
}

var bodyTmpl = template.Must(template.New("body").Parse(`Stage {{.Locator}} {{.Verb}}.

Pipeline: {{.Event.Pipeline}} (run {{.Event.PipelineCounter}})
Stage:    {{.Event.Stage}} (run {{.Event.StageCounter}})
State:    {{.State}}
{{- if .Event.Result}}
Result:   {{.Event.Result}}
{{- end}}
{{- if .Event.TriggeredBy}}
Triggered by: {{.Event.TriggeredBy}}
{{- end}}
{{- if .URL}}

See details: {{.URL}}
{{- end}}
`))

// Subject returns the mail subject for ev.
func Subject(ev StageEvent) string {
	return fmt.Sprintf("Stage [%s] %s", ev.Locator(), stateVerb(ev.NormalizedState()))
}

// Body renders the plain-text mail body for ev.
func Body(ev StageEvent) (string, error) {
	state := ev.NormalizedState()
	var buf bytes.Buffer
	err := bodyTmpl.Execute(&buf, struct {
		Event   StageEvent
		Locator string
		Verb    string
		State   string
		URL     string
	}{ev, ev.Locator(), stateVerb(state), state, ev.DetailsURL()})
	if err != nil {
		return "", fmt.Errorf("rendering body: %w", err)
	}
	return buf.String(), nil
}
