package osnet

import (
	"context"
	"strings"

	"github.com/vnicctl/vnicctl/pkg/agent"
	"github.com/vnicctl/vnicctl/pkg/util"
)

// CommandProber reads interface addresses by running `ip -o -4 addr
// show` through a Runner. It exists for the remote case (SSH), where
// netlink cannot reach the target kernel.
type CommandProber struct {
	Runner agent.Runner
}

// Addrs returns the IPv4 addresses bound to iface on the runner's host.
// `ip` exits non-zero for an unknown device; that is the empty set, not
// an error.
func (p *CommandProber) Addrs(ctx context.Context, iface string) ([]string, error) {
	res := p.Runner.Run(ctx, "ip", "-o", "-4", "addr", "show", "dev", iface)
	if res.Err != nil {
		return nil, res.Err
	}
	if res.ExitCode != 0 {
		return nil, nil
	}
	return parseIPAddrOutput(res.Text()), nil
}

// parseIPAddrOutput extracts addresses from one-line-per-address `ip -o`
// output. The address is the token after "inet", usually in CIDR form:
//
//	2: ens5  inet 10.0.0.5/24 brd 10.0.0.255 scope global ens5
func parseIPAddrOutput(out string) []string {
	var addrs []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		for i, f := range fields {
			if f != "inet" || i+1 >= len(fields) {
				continue
			}
			ip := util.StripPrefixLen(fields[i+1])
			if util.IsValidIPv4(ip) {
				addrs = append(addrs, ip)
			}
			break
		}
	}
	return addrs
}
