package model

import (
	"encoding/hex"
	"errors"
	"slices"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address errors.
var (
	// ErrEmptyAddress is returned when the address is empty.
	ErrEmptyAddress = errors.New("contract address cannot be empty")
	// ErrInvalidAddress is returned when the address is not 0x followed by 40 hex digits.
	ErrInvalidAddress = errors.New("invalid contract address format")
	// ErrAddressChecksum is returned when a mixed-case address fails EIP-55 verification.
	ErrAddressChecksum = errors.New("contract address checksum mismatch")
)

const (
	// addressPrefix is the hex prefix every address carries.
	addressPrefix = "0x"
	// addressHexLength is the number of hex digits in an address (20 bytes).
	addressHexLength = 40
)

// Address is a contract address normalised to lower case ("0x" + 40 hex digits).
// The normalised form is used for directory and file names so that the same
// contract always maps to the same path regardless of how the explorer cased it.
type Address string

// ParseAddress validates and normalises a contract address.
//
// All-lower-case and all-upper-case inputs are accepted as is. Mixed-case
// inputs are treated as EIP-55 checksummed and must verify, which catches
// addresses mangled by scraping.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyAddress
	}

	body, ok := strings.CutPrefix(s, addressPrefix)
	if !ok {
		body, ok = strings.CutPrefix(s, "0X")
		if !ok {
			return "", ErrInvalidAddress
		}
	}
	if len(body) != addressHexLength {
		return "", ErrInvalidAddress
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", ErrInvalidAddress
	}

	lower := strings.ToLower(body)
	if body != lower && body != strings.ToUpper(body) {
		if checksumHex(lower) != body {
			return "", ErrAddressChecksum
		}
	}

	return Address(addressPrefix + lower), nil
}

// MustParseAddress parses an address or panics if invalid.
// Use only for known-valid addresses in tests or initialization.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the normalised lower-case address.
func (a Address) String() string {
	return string(a)
}

// IsZero returns true if the address is empty.
func (a Address) IsZero() bool {
	return a == ""
}

// Checksum returns the EIP-55 mixed-case form of the address.
func (a Address) Checksum() string {
	body := strings.TrimPrefix(string(a), addressPrefix)
	return addressPrefix + checksumHex(body)
}

// checksumHex applies EIP-55 casing to 40 lower-case hex digits.
// A letter is upper-cased when the matching nibble of keccak256(hex) is >= 8.
func checksumHex(lower string) string {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(lower)) //nolint:errcheck // hash.Hash.Write never fails
	sum := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

// SortAddresses sorts addresses in place in lexical order.
func SortAddresses(addrs []Address) {
	slices.Sort(addrs)
}

// UniqueAddresses returns addrs with duplicates removed, preserving first occurrence order.
func UniqueAddresses(addrs []Address) []Address {
	seen := make(map[Address]struct{}, len(addrs))
	out := make([]Address, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
