package common

import "strconv"

const (
	major = 0
	minor = 1
	patch = 0

	// Version is the numeric version of the ledger contract.
	Version = major*1_000_000 + minor*1_000 + patch

	// ContractName is the name the ledger records at initialization.
	ContractName = "splitter"
)

// VersionString returns dot-separated form of the numeric version.
func VersionString(v int) string {
	return strconv.Itoa(v/1_000_000) + "." + strconv.Itoa(v/1_000%1_000) + "." + strconv.Itoa(v%1_000)
}
