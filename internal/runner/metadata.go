package runner

import (
	"context"
	"fmt"

	"github.com/0xmhha/subtx/internal/client"
	"github.com/0xmhha/subtx/internal/config"
	"github.com/0xmhha/subtx/internal/extrinsic"
	subtypes "github.com/0xmhha/subtx/pkg/types"
)

// snapshotMetadata assembles the metadata snapshot the engine needs from
// RPC chain state plus the configured call locations.
func snapshotMetadata(ctx context.Context, cli *client.Client, cfg *config.Config) (*extrinsic.Metadata, subtypes.ChainInfo, error) {
	rv, err := cli.LatestRuntimeVersion(ctx)
	if err != nil {
		return nil, subtypes.ChainInfo{}, fmt.Errorf("failed to fetch runtime version: %w", err)
	}
	genesis, err := cli.GenesisHash(ctx)
	if err != nil {
		return nil, subtypes.ChainInfo{}, fmt.Errorf("failed to fetch genesis hash: %w", err)
	}

	// The format flag narrows which versions the snapshot advertises; the
	// engine then picks the version from the snapshot alone.
	var versions []uint8
	switch cfg.GetFormat() {
	case config.FormatLegacy:
		versions = []uint8{uint8(extrinsic.VersionLegacy)}
	case config.FormatGeneral:
		versions = []uint8{uint8(extrinsic.VersionGeneral)}
	default:
		versions = []uint8{uint8(extrinsic.VersionLegacy), uint8(extrinsic.VersionGeneral)}
	}

	meta := &extrinsic.Metadata{
		SpecVersion:                 rv.SpecVersion,
		TransactionVersion:          rv.TransactionVersion,
		GenesisHash:                 genesis,
		ExtrinsicVersions:           versions,
		TransactionExtensionVersion: 0,
		Pallets: map[string]extrinsic.PalletMetadata{
			"Balances": {
				Index: uint8(cfg.BalancesPalletIndex),
				Calls: map[string]extrinsic.CallMetadata{
					"transfer_keep_alive": {Index: uint8(cfg.TransferCallIndex)},
				},
			},
		},
	}
	chain := subtypes.ChainInfo{
		SpecName:           rv.SpecName,
		SpecVersion:        rv.SpecVersion,
		TransactionVersion: rv.TransactionVersion,
		GenesisHash:        genesis,
	}
	return meta, chain, nil
}
