package utils

import "regexp"

var walletRegex = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{40}$`)

// IsValidWallet checks an EVM-style address: optional 0x prefix and 40 hex characters.
func IsValidWallet(address string) bool {
	return walletRegex.MatchString(address)
}

// MaskWallet keeps the first and last four characters for logging.
func MaskWallet(address string) string {
	if len(address) <= 10 {
		return "****"
	}
	return address[:6] + "..." + address[len(address)-4:]
}
