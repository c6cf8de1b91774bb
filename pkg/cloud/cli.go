package cloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vnicctl/vnicctl/pkg/agent"
	"github.com/vnicctl/vnicctl/pkg/util"
)

// CLIClient implements Client by shelling out to the oci binary. Auth
// is the CLI's own business (config file or instance principals); this
// process never touches credentials.
type CLIClient struct {
	Runner agent.Runner
	// Bin is the CLI binary, "oci" unless overridden.
	Bin string
	// Auth is passed as --auth when set (e.g. "instance_principal").
	Auth string
	// Profile is passed as --profile when set.
	Profile string
}

// NewCLIClient returns a client running oci commands through runner.
func NewCLIClient(runner agent.Runner) *CLIClient {
	return &CLIClient{Runner: runner, Bin: "oci"}
}

func (c *CLIClient) run(ctx context.Context, op string, args ...string) (gjson.Result, error) {
	argv := append(args, "--output", "json")
	if c.Auth != "" {
		argv = append(argv, "--auth", c.Auth)
	}
	if c.Profile != "" {
		argv = append(argv, "--profile", c.Profile)
	}

	bin := c.Bin
	if bin == "" {
		bin = "oci"
	}
	res := c.Runner.Run(ctx, bin, argv...)
	if res.Err != nil {
		return gjson.Result{}, fmt.Errorf("%s: %w", op, res.Err)
	}
	if res.ExitCode != 0 {
		cmd := bin + " " + strings.Join(args[:min(len(args), 3)], " ")
		return gjson.Result{}, fmt.Errorf("%s: %w", op, util.NewCommandError(cmd, res.ExitCode, res.Text()))
	}
	return gjson.ParseBytes(res.Output).Get("data"), nil
}

// CreateReservedPublicIP allocates an unassigned RESERVED public IP.
func (c *CLIClient) CreateReservedPublicIP(ctx context.Context, compartmentID, displayName string) (*PublicIP, error) {
	data, err := c.run(ctx, "create public ip",
		"network", "public-ip", "create",
		"--compartment-id", compartmentID,
		"--lifetime", "RESERVED",
		"--display-name", displayName)
	if err != nil {
		return nil, err
	}
	ip := &PublicIP{
		ID:         data.Get("id").String(),
		Address:    data.Get("ip-address").String(),
		Lifetime:   data.Get("lifetime").String(),
		AssignedTo: data.Get("assigned-entity-id").String(),
	}
	if ip.ID == "" {
		return nil, fmt.Errorf("create public ip: response carried no id")
	}
	util.WithOperation("publicip.create").Infof("reserved %s (%s)", ip.Address, ip.ID)
	return ip, nil
}

// DeletePublicIP releases a reserved public IP.
func (c *CLIClient) DeletePublicIP(ctx context.Context, publicIPID string) error {
	_, err := c.run(ctx, "delete public ip",
		"network", "public-ip", "delete",
		"--public-ip-id", publicIPID,
		"--force")
	return err
}

// AttachVnic creates a secondary VNIC on subnetID and attaches it,
// waiting for the ATTACHED state. The wait belongs to the CLI; this
// call stays single-shot.
func (c *CLIClient) AttachVnic(ctx context.Context, instanceID, subnetID, displayName string) (*VnicAttachment, error) {
	data, err := c.run(ctx, "attach vnic",
		"compute", "instance", "attach-vnic",
		"--instance-id", instanceID,
		"--subnet-id", subnetID,
		"--vnic-display-name", displayName,
		"--assign-public-ip", "false",
		"--wait")
	if err != nil {
		return nil, err
	}
	att := &VnicAttachment{
		ID:     data.Get("id").String(),
		VnicID: data.Get("vnic-id").String(),
		State:  data.Get("lifecycle-state").String(),
	}
	if att.VnicID == "" {
		return nil, fmt.Errorf("attach vnic: response carried no vnic-id")
	}
	util.WithOperation("vnic.attach").Infof("attached %s (%s)", att.VnicID, att.State)
	return att, nil
}

// DetachVnic detaches a VNIC by its attachment OCID.
func (c *CLIClient) DetachVnic(ctx context.Context, attachmentID string) error {
	_, err := c.run(ctx, "detach vnic",
		"compute", "instance", "detach-vnic",
		"--vnic-attachment-id", attachmentID,
		"--force")
	return err
}

// GetVnic reads one VNIC.
func (c *CLIClient) GetVnic(ctx context.Context, vnicID string) (*Vnic, error) {
	data, err := c.run(ctx, "get vnic",
		"network", "vnic", "get",
		"--vnic-id", vnicID)
	if err != nil {
		return nil, err
	}
	v := &Vnic{
		ID:        data.Get("id").String(),
		State:     data.Get("lifecycle-state").String(),
		SubnetID:  data.Get("subnet-id").String(),
		PrivateIP: data.Get("private-ip").String(),
		PublicIP:  data.Get("public-ip").String(),
		MAC:       data.Get("mac-address").String(),
		IsPrimary: data.Get("is-primary").Bool(),
	}
	if v.ID == "" {
		return nil, fmt.Errorf("get vnic: %s: %w", vnicID, util.ErrNotFound)
	}
	return v, nil
}

// PrimaryPrivateIP finds the primary private IP on a VNIC.
func (c *CLIClient) PrimaryPrivateIP(ctx context.Context, vnicID string) (*PrivateIP, error) {
	data, err := c.run(ctx, "list private ips",
		"network", "private-ip", "list",
		"--vnic-id", vnicID)
	if err != nil {
		return nil, err
	}
	var found *PrivateIP
	data.ForEach(func(_, v gjson.Result) bool {
		if !v.Get("is-primary").Bool() {
			return true
		}
		found = &PrivateIP{
			ID:      v.Get("id").String(),
			Address: v.Get("ip-address").String(),
			Primary: true,
		}
		return false
	})
	if found == nil {
		return nil, fmt.Errorf("primary private ip on %s: %w", vnicID, util.ErrNotFound)
	}
	return found, nil
}

// AssignPublicIP points a reserved public IP at a private IP.
func (c *CLIClient) AssignPublicIP(ctx context.Context, publicIPID, privateIPID string) error {
	_, err := c.run(ctx, "assign public ip",
		"network", "public-ip", "update",
		"--public-ip-id", publicIPID,
		"--private-ip-id", privateIPID)
	if err != nil {
		return err
	}
	util.WithOperation("publicip.assign").Infof("assigned %s to %s", publicIPID, privateIPID)
	return nil
}

// ListVnicAttachments lists the instance's VNIC attachments.
func (c *CLIClient) ListVnicAttachments(ctx context.Context, compartmentID, instanceID string) ([]VnicAttachment, error) {
	data, err := c.run(ctx, "list vnic attachments",
		"compute", "vnic-attachment", "list",
		"--compartment-id", compartmentID,
		"--instance-id", instanceID)
	if err != nil {
		return nil, err
	}
	var atts []VnicAttachment
	data.ForEach(func(_, v gjson.Result) bool {
		atts = append(atts, VnicAttachment{
			ID:     v.Get("id").String(),
			VnicID: v.Get("vnic-id").String(),
			State:  v.Get("lifecycle-state").String(),
		})
		return true
	})
	return atts, nil
}
