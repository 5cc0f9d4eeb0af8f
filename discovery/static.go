package discovery

import (
	"context"

	"github.com/maxpoletaev/gridlink/cluster"
)

const defaultHost = "127.0.0.1"

// StaticProvider serves a fixed list of addresses. Translation is a
// passthrough.
type StaticProvider struct {
	addrs []cluster.Address
}

// NewStaticProvider parses the address list. An empty list means the local
// host. An address without a port expands into DefaultPortCount addresses
// starting at DefaultPort. The primary port of every host comes first.
func NewStaticProvider(addrs []string) (*StaticProvider, error) {
	if len(addrs) == 0 {
		addrs = []string{defaultHost}
	}

	var (
		primary   []cluster.Address
		secondary []cluster.Address
		seen      = make(map[cluster.Address]struct{})
	)

	add := func(list *[]cluster.Address, addr cluster.Address) {
		if _, ok := seen[addr.Key()]; ok {
			return
		}

		seen[addr.Key()] = struct{}{}
		*list = append(*list, addr)
	}

	for _, s := range addrs {
		addr, err := cluster.ParseAddress(s)
		if err != nil {
			return nil, err
		}

		if addr.Port != 0 {
			add(&primary, addr)
			continue
		}

		for i := 0; i < cluster.DefaultPortCount; i++ {
			expanded := addr
			expanded.Port = cluster.DefaultPort + i

			if i == 0 {
				add(&primary, expanded)
			} else {
				add(&secondary, expanded)
			}
		}
	}

	return &StaticProvider{
		addrs: append(primary, secondary...),
	}, nil
}

func (p *StaticProvider) Addresses(context.Context) ([]cluster.Address, error) {
	addrs := make([]cluster.Address, len(p.addrs))
	copy(addrs, p.addrs)

	return addrs, nil
}

func (p *StaticProvider) TranslateToPublic(_ context.Context, addr cluster.Address) (cluster.Address, bool) {
	return addr, true
}
