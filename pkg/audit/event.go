// Package audit records provisioning actions to a JSON-lines journal.
package audit

import (
	"fmt"
	"time"
)

// Event represents one recorded provisioning action
type Event struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	User        string        `json:"user"`
	Instance    string        `json:"instance"`
	Operation   string        `json:"operation"`
	Compartment string        `json:"compartment,omitempty"`
	Interface   string        `json:"interface,omitempty"`
	Vnic        string        `json:"vnic,omitempty"`
	PublicIP    string        `json:"public_ip,omitempty"`
	Attempts    int           `json:"attempts,omitempty"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	ExecuteMode bool          `json:"execute_mode"` // true if -x was used
	DryRun      bool          `json:"dry_run"`
	Duration    time.Duration `json:"duration"`
}

// Operation names recorded in the journal. These appear verbatim in the
// journal file and in --operation filters, so they are stable strings.
const (
	OpPublicIPCreate = "publicip.create"
	OpPublicIPAssign = "publicip.assign"
	OpPublicIPDelete = "publicip.delete"
	OpVnicAttach     = "vnic.attach"
	OpVnicDetach     = "vnic.detach"
	OpConverge       = "converge"
)

// Filter defines criteria for querying journal events
type Filter struct {
	Instance    string
	User        string
	Operation   string
	Interface   string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new journal event
func NewEvent(user, instance, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Instance:  instance,
		Operation: operation,
	}
}

// WithCompartment sets the compartment OCID
func (e *Event) WithCompartment(compartment string) *Event {
	e.Compartment = compartment
	return e
}

// WithInterface sets the OS interface name
func (e *Event) WithInterface(iface string) *Event {
	e.Interface = iface
	return e
}

// WithVnic sets the VNIC OCID
func (e *Event) WithVnic(vnic string) *Event {
	e.Vnic = vnic
	return e
}

// WithPublicIP sets the public IP address
func (e *Event) WithPublicIP(addr string) *Event {
	e.PublicIP = addr
	return e
}

// WithAttempts sets how many polling attempts were used
func (e *Event) WithAttempts(n int) *Event {
	e.Attempts = n
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// WithExecuteMode marks if execute mode was used
func (e *Event) WithExecuteMode(execute bool) *Event {
	e.ExecuteMode = execute
	e.DryRun = !execute
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
