package osnet

import (
	"context"
	"errors"
	"fmt"

	"github.com/vishvananda/netlink"
)

// NetlinkProber reads interface addresses from the local kernel over
// netlink. This is the prober for the normal case: the engine runs on
// the instance being converged.
type NetlinkProber struct{}

// Addrs returns the IPv4 addresses bound to iface.
func (NetlinkProber) Addrs(_ context.Context, iface string) ([]string, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("link %s: %w", iface, err)
	}

	addrList, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("addr list %s: %w", iface, err)
	}

	var addrs []string
	for _, addr := range addrList {
		if ip4 := addr.IP.To4(); ip4 != nil {
			addrs = append(addrs, ip4.String())
		}
	}
	return addrs, nil
}
