// Package metadata reads instance identity from the cloud metadata
// service (IMDS v2). The endpoint is link-local; only the instance
// itself can reach it. Calls are single-shot with a short timeout,
// outside the convergence loop's retry budget.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const defaultBaseURL = "http://169.254.169.254/opc/v2"

// Instance identifies this compute instance.
type Instance struct {
	ID                  string
	DisplayName         string
	CompartmentID       string
	Region              string
	CanonicalRegionName string
	AvailabilityDomain  string
	Shape               string
}

// Vnic is one attached VNIC as the metadata service reports it.
type Vnic struct {
	ID         string
	PrivateIP  string
	MAC        string
	SubnetCIDR string
}

// Client fetches from the metadata service.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for the standard IMDS v2 endpoint.
func NewClient() *Client {
	return &Client{
		base: defaultBaseURL,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the client at a different endpoint. Tests use this
// to serve canned responses.
func (c *Client) WithBaseURL(base string) *Client {
	c.base = base
	return c
}

// Instance fetches this instance's identity.
func (c *Client) Instance(ctx context.Context) (*Instance, error) {
	body, err := c.get(ctx, "/instance/")
	if err != nil {
		return nil, err
	}

	doc := gjson.ParseBytes(body)
	inst := &Instance{
		ID:                  doc.Get("id").String(),
		DisplayName:         doc.Get("displayName").String(),
		CompartmentID:       doc.Get("compartmentId").String(),
		Region:              doc.Get("region").String(),
		CanonicalRegionName: doc.Get("canonicalRegionName").String(),
		AvailabilityDomain:  doc.Get("availabilityDomain").String(),
		Shape:               doc.Get("shape").String(),
	}
	if inst.ID == "" || inst.CompartmentID == "" {
		return nil, fmt.Errorf("metadata response missing instance identity")
	}
	return inst, nil
}

// Vnics fetches the VNICs currently attached to this instance.
func (c *Client) Vnics(ctx context.Context) ([]Vnic, error) {
	body, err := c.get(ctx, "/vnics/")
	if err != nil {
		return nil, err
	}

	var vnics []Vnic
	gjson.ParseBytes(body).ForEach(func(_, v gjson.Result) bool {
		vnics = append(vnics, Vnic{
			ID:         v.Get("vnicId").String(),
			PrivateIP:  v.Get("privateIp").String(),
			MAC:        v.Get("macAddr").String(),
			SubnetCIDR: v.Get("subnetCidrBlock").String(),
		})
		return true
	})
	return vnics, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	// IMDS v2 rejects requests without this exact header.
	req.Header.Set("Authorization", "Bearer Oracle")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata service: %s returned %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
