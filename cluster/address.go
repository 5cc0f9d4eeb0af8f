package cluster

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/maxpoletaev/gridlink/errs"
)

// DefaultPort is the first port a member listens on when none is given.
const DefaultPort = 5701

// DefaultPortCount is how many consecutive ports are tried for an address
// without an explicit port.
const DefaultPortCount = 3

type AddressType uint8

const (
	AddressHostname AddressType = iota
	AddressIPv4
	AddressIPv6
)

func (t AddressType) String() string {
	switch t {
	case AddressIPv4:
		return "ipv4"
	case AddressIPv6:
		return "ipv6"
	default:
		return "hostname"
	}
}

// Address is the location of a member. Two addresses are the same member
// address when host, port and type match; the IPv6 scope id does not take
// part in the comparison, so maps use Key() rather than the value itself.
type Address struct {
	Host    string
	Port    int
	Type    AddressType
	ScopeID string
}

// NewAddress creates an address and detects its type from the host.
func NewAddress(host string, port int) Address {
	addr := Address{Port: port}

	if i := strings.LastIndexByte(host, '%'); i >= 0 {
		addr.ScopeID = host[i+1:]
		host = host[:i]
	}

	addr.Host = host

	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			addr.Type = AddressIPv4
		} else {
			addr.Type = AddressIPv6
		}
	}

	return addr
}

// ParseAddress parses "host", "host:port", "[ipv6]:port" or a bare IPv6
// address. A missing port is returned as zero.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, errs.ErrConfig.Wrap(fmt.Errorf("empty address"))
	}

	// A bare IPv6 address has more than one colon and no brackets.
	if strings.Count(s, ":") > 1 && !strings.HasPrefix(s, "[") {
		return NewAddress(s, 0), nil
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return NewAddress(s[1:len(s)-1], 0), nil
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// No port at all.
		if !strings.Contains(s, ":") {
			return NewAddress(s, 0), nil
		}

		return Address{}, errs.ErrConfig.Wrap(fmt.Errorf("invalid address %q: %w", s, err))
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Address{}, errs.ErrConfig.Wrap(fmt.Errorf("invalid port in %q", s))
	}

	return NewAddress(host, port), nil
}

// Key returns the address without the scope id, suitable as a map key.
func (a Address) Key() Address {
	a.ScopeID = ""
	return a
}

func (a Address) Equal(other Address) bool {
	return a.Key() == other.Key()
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a.Host == "" && a.Port == 0
}

// DialAddr returns the address in the form accepted by net.Dial.
func (a Address) DialAddr() string {
	host := a.Host
	if a.ScopeID != "" {
		host = host + "%" + a.ScopeID
	}

	return net.JoinHostPort(host, strconv.Itoa(a.Port))
}

func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}
