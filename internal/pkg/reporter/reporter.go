// Package reporter forwards server errors to Rollbar when a token is set.
package reporter

import (
	"log"
	"net/http"

	"github.com/rollbar/rollbar-go"
)

// Reporter sends errors to Rollbar and mirrors them to the standard logger
type Reporter struct {
	enabled bool
}

// New configures the global rollbar client. An empty token disables reporting.
func New(token, environment, host string) *Reporter {
	enabled := token != ""
	if enabled {
		rollbar.SetToken(token)
		rollbar.SetEnvironment(environment)
		rollbar.SetServerHost(host)
	}
	rollbar.SetEnabled(enabled)
	return &Reporter{enabled: enabled}
}

// Enabled reports whether errors leave the process
func (r *Reporter) Enabled() bool {
	return r != nil && r.enabled
}

// Error reports err with optional request context
func (r *Reporter) Error(err error, req *http.Request, extras map[string]interface{}) {
	log.Printf("❌ %v", err)
	if !r.Enabled() {
		return
	}
	if req != nil {
		rollbar.RequestErrorWithExtras(rollbar.ERR, req, err, extras)
		return
	}
	rollbar.ErrorWithExtras(rollbar.ERR, err, extras)
}

// Critical reports a recovered panic or startup failure
func (r *Reporter) Critical(err error, extras map[string]interface{}) {
	log.Printf("🛑 %v", err)
	if !r.Enabled() {
		return
	}
	rollbar.ErrorWithExtras(rollbar.CRIT, err, extras)
}

// Close flushes queued items
func (r *Reporter) Close() {
	if r.Enabled() {
		rollbar.Close()
	}
}
