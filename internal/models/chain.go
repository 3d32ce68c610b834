package models

import (
	"fmt"
	"strings"
)

// Chain is one of the networks the bot supports.
type Chain string

const (
	ChainEthereum Chain = "Ethereum"
	ChainSolana   Chain = "Solana"
	ChainBnb      Chain = "Bnb"
)

// Chains is the fixed menu order.
var Chains = []Chain{ChainEthereum, ChainSolana, ChainBnb}

// Network returns the upstream path segment for the chain.
func (c Chain) Network() string {
	switch c {
	case ChainEthereum:
		return "ethereum"
	case ChainSolana:
		return "solana"
	case ChainBnb:
		return "bsc"
	}
	return strings.ToLower(string(c))
}

func (c Chain) String() string { return string(c) }

// ParseChain accepts display names, upstream segments and the short command names.
func ParseChain(s string) (Chain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ethereum", "eth":
		return ChainEthereum, nil
	case "solana", "sol":
		return ChainSolana, nil
	case "bnb", "bsc":
		return ChainBnb, nil
	}
	return "", fmt.Errorf("unknown chain %q", s)
}
