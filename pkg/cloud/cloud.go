// Package cloud talks to the cloud control plane for VNIC and public IP
// lifecycle. Every operation is single-shot and fails fast; the only
// retry loop in this program is OS-level convergence, never control
// plane calls.
package cloud

import "context"

// PublicIP is a reserved public IP resource.
type PublicIP struct {
	ID       string
	Address  string
	Lifetime string
	// AssignedTo is the private IP OCID currently holding this public
	// IP, empty while unassigned.
	AssignedTo string
}

// Vnic is a virtual network interface card.
type Vnic struct {
	ID        string
	State     string
	SubnetID  string
	PrivateIP string
	PublicIP  string
	MAC       string
	IsPrimary bool
}

// VnicAttachment binds a VNIC to an instance.
type VnicAttachment struct {
	ID     string
	VnicID string
	State  string
}

// PrivateIP is one private address on a VNIC.
type PrivateIP struct {
	ID      string
	Address string
	Primary bool
}

// Client is the control-plane surface the provisioner needs.
type Client interface {
	// CreateReservedPublicIP allocates a public IP with RESERVED
	// lifetime, unassigned.
	CreateReservedPublicIP(ctx context.Context, compartmentID, displayName string) (*PublicIP, error)
	// DeletePublicIP releases a reserved public IP.
	DeletePublicIP(ctx context.Context, publicIPID string) error
	// AttachVnic creates and attaches a secondary VNIC on subnetID and
	// waits for the ATTACHED state.
	AttachVnic(ctx context.Context, instanceID, subnetID, displayName string) (*VnicAttachment, error)
	// DetachVnic detaches by attachment OCID.
	DetachVnic(ctx context.Context, attachmentID string) error
	// GetVnic reads one VNIC.
	GetVnic(ctx context.Context, vnicID string) (*Vnic, error)
	// PrimaryPrivateIP finds the primary private IP on a VNIC.
	PrimaryPrivateIP(ctx context.Context, vnicID string) (*PrivateIP, error)
	// AssignPublicIP points a reserved public IP at a private IP.
	AssignPublicIP(ctx context.Context, publicIPID, privateIPID string) error
	// ListVnicAttachments lists the instance's VNIC attachments.
	ListVnicAttachments(ctx context.Context, compartmentID, instanceID string) ([]VnicAttachment, error)
}
