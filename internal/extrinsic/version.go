package extrinsic

// Version is the transaction format version. It is a closed two-valued
// type: every operation that depends on it switches exhaustively.
type Version uint8

const (
	// VersionLegacy is the v4 format: signed and unsigned transactions
	// with a fixed set of signed extensions.
	VersionLegacy Version = 4

	// VersionGeneral is the v5 format: bare and general transactions with
	// an open, chain-defined set of transaction extensions.
	VersionGeneral Version = 5
)

func (v Version) String() string {
	switch v {
	case VersionLegacy:
		return "legacy (v4)"
	case VersionGeneral:
		return "general (v5)"
	}
	return "unknown"
}

// VersionFromMetadata returns the transaction version to build for a chain.
// The metadata publishes which versions the chain accepts; legacy is
// preferred when both are, and ErrUnsupportedVersion is returned when
// neither is.
func VersionFromMetadata(meta *Metadata) (Version, error) {
	var hasLegacy, hasGeneral bool
	for _, v := range meta.ExtrinsicVersions {
		switch v {
		case uint8(VersionLegacy):
			hasLegacy = true
		case uint8(VersionGeneral):
			hasGeneral = true
		}
	}
	switch {
	case hasLegacy:
		return VersionLegacy, nil
	case hasGeneral:
		return VersionGeneral, nil
	default:
		return 0, ErrUnsupportedVersion
	}
}
