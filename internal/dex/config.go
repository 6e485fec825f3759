package dex

import (
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
)

// Fee schedule ids every order-book style protocol must define
const (
	FeeMatchmaker = "matchmakerFee"
	FeeDeposit    = "deposit"
)

//go:embed protocols.json
var defaultProtocolsJSON []byte

// ProtocolConfig holds the on-chain constants of one protocol version
type ProtocolConfig struct {
	Identifier       string           `json:"identifier"`
	Version          int              `json:"version"`
	OrderAddress     string           `json:"order_address"`
	LPTokenPolicyID  string           `json:"lp_token_policy_id"`
	PoolNFTPolicyIDs []string         `json:"pool_nft_policy_ids"`
	FactoryToken     string           `json:"factory_token"`
	CancelRedeemer   string           `json:"cancel_redeemer"`
	OrderScript      models.Script    `json:"order_script"`
	SwapFees         []models.SwapFee `json:"swap_fees"`
}

// Protocols maps a protocol identifier to its configuration
type Protocols map[string]ProtocolConfig

// FactoryAsset returns the token marking valid pool outputs
func (c ProtocolConfig) FactoryAsset() (models.Asset, error) {
	return models.AssetFromID(c.FactoryToken, 0)
}

// FactoryPolicyID returns the policy part of the factory token
func (c ProtocolConfig) FactoryPolicyID() string {
	if len(c.FactoryToken) < models.PolicyIDLength {
		return c.FactoryToken
	}
	return strings.ToLower(c.FactoryToken[:models.PolicyIDLength])
}

// IsPoolNFTPolicy reports whether policyID identifies pool NFTs of the protocol
func (c ProtocolConfig) IsPoolNFTPolicy(policyID string) bool {
	for _, p := range c.PoolNFTPolicyIDs {
		if strings.EqualFold(p, policyID) {
			return true
		}
	}
	return false
}

// Validate checks that the record is usable by an adapter
func (c ProtocolConfig) Validate() error {
	if c.Identifier == "" {
		return fmt.Errorf("%w: identifier is required", ErrConfiguration)
	}
	if c.OrderAddress == "" {
		return fmt.Errorf("%w: %s: order_address is required", ErrConfiguration, c.Identifier)
	}
	if _, err := c.FactoryAsset(); err != nil {
		return fmt.Errorf("%w: %s: factory_token: %v", ErrConfiguration, c.Identifier, err)
	}
	if len(c.LPTokenPolicyID) != models.PolicyIDLength {
		return fmt.Errorf("%w: %s: lp_token_policy_id must be %d hex chars", ErrConfiguration, c.Identifier, models.PolicyIDLength)
	}
	if _, err := hex.DecodeString(c.CancelRedeemer); err != nil {
		return fmt.Errorf("%w: %s: cancel_redeemer is not hex", ErrConfiguration, c.Identifier)
	}
	for _, f := range c.SwapFees {
		if f.Value == nil || f.Value.Sign() < 0 {
			return fmt.Errorf("%w: %s: fee %s must be >= 0", ErrConfiguration, c.Identifier, f.ID)
		}
	}
	return nil
}

// DefaultProtocols returns the embedded protocol records
func DefaultProtocols() (Protocols, error) {
	return parseProtocols(defaultProtocolsJSON)
}

// LoadProtocols returns the embedded records overlaid with the records in path.
// An empty path returns the defaults.
func LoadProtocols(path string) (Protocols, error) {
	protocols, err := DefaultProtocols()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return protocols, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocols file: %w", err)
	}
	overrides, err := parseProtocols(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for name, cfg := range overrides {
		protocols[name] = cfg
	}
	return protocols, nil
}

// Names returns the configured identifiers in sorted order
func (p Protocols) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseProtocols(data []byte) (Protocols, error) {
	var raw Protocols
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse protocols: %w", err)
	}

	out := make(Protocols, len(raw))
	for key, cfg := range raw {
		if cfg.Identifier == "" {
			cfg.Identifier = key
		}
		if cfg.Identifier != key {
			return nil, fmt.Errorf("%w: record %q has identifier %q", ErrConfiguration, key, cfg.Identifier)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		out[key] = cfg
	}
	return out, nil
}
