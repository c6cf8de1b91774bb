// Package provision orchestrates the secondary VNIC workflow: reserve a
// public IP, attach a VNIC, point the IP at the VNIC's primary private
// address, then wait for the OS to converge. Each control-plane call is
// single-shot and fail-fast; the only retry loop in this program is the
// convergence wait. Every step lands in the journal.
package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vnicctl/vnicctl/pkg/audit"
	"github.com/vnicctl/vnicctl/pkg/cloud"
	"github.com/vnicctl/vnicctl/pkg/converge"
	"github.com/vnicctl/vnicctl/pkg/metadata"
	"github.com/vnicctl/vnicctl/pkg/util"
)

// Metadata is the slice of the instance metadata service the
// provisioner needs.
type Metadata interface {
	Instance(ctx context.Context) (*metadata.Instance, error)
	Vnics(ctx context.Context) ([]metadata.Vnic, error)
}

// WaitFunc runs the convergence loop after addressing completes. The
// CLI wires converge.Loop.Run here; nil skips the wait (and drops the
// converge step from plans).
type WaitFunc func(ctx context.Context) (*converge.Snapshot, error)

// Provisioner drives the workflow against its collaborators.
type Provisioner struct {
	Meta  Metadata
	Cloud cloud.Client
	// Journal receives one event per step; nil falls back to the
	// package-default journal.
	Journal audit.Logger
	// User is recorded on journal events.
	User string
	// LockPath is the flock file serializing runs; empty disables
	// locking.
	LockPath string
	Wait     WaitFunc
}

// Request is the operator's provisioning input.
type Request struct {
	// SubnetID places the new VNIC; empty means the primary VNIC's
	// subnet.
	SubnetID string
	// DisplayName names the created resources; empty generates a
	// timestamped one.
	DisplayName string
}

// Step is one intended control-plane call.
type Step struct {
	Operation string // journal operation name
	Detail    string
}

// Plan is the computed provisioning intent: instance identity resolved,
// subnet chosen, and the calls Apply will make, in order. Nothing in
// the cloud changes until Apply.
type Plan struct {
	Instance    *metadata.Instance
	SubnetID    string
	DisplayName string
	Steps       []Step
}

// String renders the plan for the dry-run preview.
func (pl *Plan) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Instance:  %s (%s)\n", pl.Instance.DisplayName, pl.Instance.Region)
	fmt.Fprintf(&sb, "Subnet:    %s\n", pl.SubnetID)
	fmt.Fprintf(&sb, "VNIC name: %s\n", pl.DisplayName)
	sb.WriteString("Steps:\n")
	for i, s := range pl.Steps {
		fmt.Fprintf(&sb, "  [%d] %-16s %s\n", i+1, s.Operation, s.Detail)
	}
	return sb.String()
}

// Result carries what Apply created. On error the fields filled so far
// stay set, so the operator can see and tear down partial work.
type Result struct {
	PublicIP   *cloud.PublicIP
	Attachment *cloud.VnicAttachment
	Vnic       *cloud.Vnic
	PrivateIP  *cloud.PrivateIP
	// Snapshot is the convergence outcome; nil when the wait was
	// skipped.
	Snapshot  *converge.Snapshot
	Converged bool
}

// Plan resolves instance identity and the target subnet and returns the
// provisioning intent. Only reads happen here: metadata, plus one VNIC
// read when the subnet is inherited from the primary VNIC.
func (p *Provisioner) Plan(ctx context.Context, req Request) (*Plan, error) {
	inst, err := p.Meta.Instance(ctx)
	if err != nil {
		return nil, err
	}

	subnet := req.SubnetID
	if subnet == "" {
		subnet, err = p.primarySubnet(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving subnet from primary VNIC: %w", err)
		}
	}

	name := req.DisplayName
	if name == "" {
		name = "vnicctl-" + time.Now().Format("20060102-150405")
	}

	plan := &Plan{Instance: inst, SubnetID: subnet, DisplayName: name}
	plan.Steps = []Step{
		{Operation: audit.OpPublicIPCreate, Detail: "reserve a public IP in " + inst.CompartmentID},
		{Operation: audit.OpVnicAttach, Detail: "attach secondary VNIC " + name + " on " + subnet},
		{Operation: audit.OpPublicIPAssign, Detail: "assign the reserved IP to the VNIC's primary private IP"},
	}
	if p.Wait != nil {
		plan.Steps = append(plan.Steps, Step{
			Operation: audit.OpConverge,
			Detail:    "poll OS network configuration until the address is bound",
		})
	}
	return plan, nil
}

// primarySubnet reads the subnet OCID of the instance's primary VNIC.
// The metadata service lists VNICs in attachment order; the first entry
// is the primary.
func (p *Provisioner) primarySubnet(ctx context.Context) (string, error) {
	vnics, err := p.Meta.Vnics(ctx)
	if err != nil {
		return "", err
	}
	if len(vnics) == 0 {
		return "", fmt.Errorf("instance reports no VNICs: %w", util.ErrNotFound)
	}
	v, err := p.Cloud.GetVnic(ctx, vnics[0].ID)
	if err != nil {
		return "", err
	}
	return v.SubnetID, nil
}

// Apply executes the plan. Steps run in order and fail fast: a step
// failure is journaled and returned, with everything created so far in
// the Result. There is no rollback; deprovision handles cleanup.
func (p *Provisioner) Apply(ctx context.Context, plan *Plan) (*Result, error) {
	lock, err := acquireLock(p.LockPath)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	res := &Result{}
	inst := plan.Instance

	start := time.Now()
	pub, err := p.Cloud.CreateReservedPublicIP(ctx, inst.CompartmentID, plan.DisplayName)
	ev := audit.NewEvent(p.User, inst.ID, audit.OpPublicIPCreate).WithCompartment(inst.CompartmentID)
	if pub != nil {
		ev.WithPublicIP(pub.Address)
	}
	p.record(ev, start, err)
	if err != nil {
		return res, fmt.Errorf("reserving public IP: %w", err)
	}
	res.PublicIP = pub

	start = time.Now()
	att, err := p.Cloud.AttachVnic(ctx, inst.ID, plan.SubnetID, plan.DisplayName)
	ev = audit.NewEvent(p.User, inst.ID, audit.OpVnicAttach).WithCompartment(inst.CompartmentID)
	if att != nil {
		ev.WithVnic(att.VnicID)
	}
	p.record(ev, start, err)
	if err != nil {
		return res, fmt.Errorf("attaching VNIC: %w", err)
	}
	res.Attachment = att

	vnic, err := p.Cloud.GetVnic(ctx, att.VnicID)
	if err != nil {
		return res, fmt.Errorf("reading attached VNIC: %w", err)
	}
	res.Vnic = vnic

	priv, err := p.Cloud.PrimaryPrivateIP(ctx, att.VnicID)
	if err != nil {
		return res, fmt.Errorf("finding primary private IP: %w", err)
	}
	res.PrivateIP = priv

	start = time.Now()
	err = p.Cloud.AssignPublicIP(ctx, pub.ID, priv.ID)
	p.record(audit.NewEvent(p.User, inst.ID, audit.OpPublicIPAssign).
		WithVnic(att.VnicID).
		WithPublicIP(pub.Address), start, err)
	if err != nil {
		return res, fmt.Errorf("assigning public IP: %w", err)
	}

	if p.Wait == nil {
		return res, nil
	}

	start = time.Now()
	snap, werr := p.Wait(ctx)
	res.Snapshot = snap
	res.Converged = werr == nil
	ev = audit.NewEvent(p.User, inst.ID, audit.OpConverge).WithVnic(att.VnicID)
	if snap != nil {
		ev.WithAttempts(snap.Attempt)
	}
	p.record(ev, start, werr)
	if werr != nil {
		return res, fmt.Errorf("waiting for convergence: %w", werr)
	}
	return res, nil
}

// TeardownRequest identifies what Deprovision removes.
type TeardownRequest struct {
	VnicID string
	// PublicIPID releases the reserved IP too; empty leaves it
	// allocated for reuse.
	PublicIPID string
}

// Deprovision detaches the VNIC and optionally releases the reserved
// public IP, the teardown symmetric to Apply. The primary VNIC is
// refused; detaching it would cut the instance off.
func (p *Provisioner) Deprovision(ctx context.Context, req TeardownRequest) error {
	lock, err := acquireLock(p.LockPath)
	if err != nil {
		return err
	}
	defer lock.release()

	inst, err := p.Meta.Instance(ctx)
	if err != nil {
		return err
	}

	vnic, err := p.Cloud.GetVnic(ctx, req.VnicID)
	if err != nil {
		return err
	}
	if vnic.IsPrimary {
		return fmt.Errorf("refusing to detach primary VNIC %s", req.VnicID)
	}

	att, err := p.findAttachment(ctx, inst, req.VnicID)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.Cloud.DetachVnic(ctx, att.ID)
	p.record(audit.NewEvent(p.User, inst.ID, audit.OpVnicDetach).
		WithCompartment(inst.CompartmentID).
		WithVnic(req.VnicID), start, err)
	if err != nil {
		return fmt.Errorf("detaching VNIC: %w", err)
	}

	if req.PublicIPID == "" {
		return nil
	}

	start = time.Now()
	err = p.Cloud.DeletePublicIP(ctx, req.PublicIPID)
	p.record(audit.NewEvent(p.User, inst.ID, audit.OpPublicIPDelete).
		WithCompartment(inst.CompartmentID), start, err)
	if err != nil {
		return fmt.Errorf("releasing public IP: %w", err)
	}
	return nil
}

// findAttachment locates the live attachment binding vnicID to this
// instance. Detached attachments linger in listings, so state is
// checked.
func (p *Provisioner) findAttachment(ctx context.Context, inst *metadata.Instance, vnicID string) (*cloud.VnicAttachment, error) {
	atts, err := p.Cloud.ListVnicAttachments(ctx, inst.CompartmentID, inst.ID)
	if err != nil {
		return nil, err
	}
	for i := range atts {
		if atts[i].VnicID == vnicID && atts[i].State != "DETACHED" && atts[i].State != "DETACHING" {
			return &atts[i], nil
		}
	}
	return nil, fmt.Errorf("attachment for VNIC %s: %w", vnicID, util.ErrNotFound)
}

// record finishes a journal event with outcome and duration and writes
// it. Journal failures are logged, never fatal; losing an audit line
// must not abort provisioning.
func (p *Provisioner) record(e *audit.Event, start time.Time, opErr error) {
	e.WithDuration(time.Since(start)).WithExecuteMode(true)
	if opErr != nil {
		e.WithError(opErr)
	} else {
		e.WithSuccess()
	}

	var logErr error
	if p.Journal != nil {
		logErr = p.Journal.Log(e)
	} else {
		logErr = audit.Log(e)
	}
	if logErr != nil {
		util.Warnf("journal write failed: %v", logErr)
	}
}
