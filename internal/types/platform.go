package types

import "fmt"

// Platform identifies a bribe marketplace.
type Platform string

// Protocol identifies the governance token the bribes target.
type Protocol string

// Network identifies the chain used for price lookups.
type Network string

const (
	PlatformVotium     Platform = "votium"
	PlatformHiddenHand Platform = "hh"

	ProtocolConvexCrv Protocol = "cvx-crv"
	ProtocolAuraBal   Protocol = "aura-bal"

	NetworkEthereum Network = "ethereum"
)

// ParsePlatform maps a config string onto a known platform.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformVotium, PlatformHiddenHand:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// ParseProtocol maps a config string onto a known protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(s) {
	case ProtocolConvexCrv, ProtocolAuraBal:
		return Protocol(s), nil
	}
	return "", fmt.Errorf("unknown protocol %q", s)
}

func (p Platform) String() string { return string(p) }

func (p Protocol) String() string { return string(p) }

func (n Network) String() string { return string(n) }
