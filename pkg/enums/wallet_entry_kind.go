package enums

import "fmt"

// WalletEntryKind labels why a wallet credit was issued.
type WalletEntryKind string

const (
	WalletEntryKindDriverCut     WalletEntryKind = "DRIVER_CUT"
	WalletEntryKindLaundromatCut WalletEntryKind = "LAUNDROMAT_CUT"
	WalletEntryKindTip           WalletEntryKind = "TIP"
)

var validWalletEntryKinds = []WalletEntryKind{
	WalletEntryKindDriverCut,
	WalletEntryKindLaundromatCut,
	WalletEntryKindTip,
}

// String implements fmt.Stringer.
func (k WalletEntryKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known WalletEntryKind.
func (k WalletEntryKind) IsValid() bool {
	for _, candidate := range validWalletEntryKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseWalletEntryKind converts raw input into a WalletEntryKind.
func ParseWalletEntryKind(value string) (WalletEntryKind, error) {
	for _, candidate := range validWalletEntryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet entry kind: %q", value)
}
