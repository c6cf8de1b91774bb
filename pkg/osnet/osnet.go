// Package osnet queries live OS network state: the set of IPv4 addresses
// currently bound to a named interface. Results are never cached; every
// call reflects the kernel at that moment.
package osnet

import "context"

// Prober returns the IPv4 addresses bound to an interface, as canonical
// dotted quads with the prefix length stripped. A missing interface or
// an interface with no addresses yields an empty set, not an error;
// "no IP yet" is an expected transient state.
type Prober interface {
	Addrs(ctx context.Context, iface string) ([]string, error)
}
