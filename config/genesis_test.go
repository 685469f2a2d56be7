package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	operator = strings.Repeat("ab", 20)
	consKey  = strings.Repeat("01", 32)
)

func validGenesis() *Genesis {
	return &Genesis{
		ChainID:       "test",
		InitialHeight: 1,
		Params:        DefaultGenesisParams(),
		Assets:        []GenesisAsset{{Code: "STAKE", Transferable: true}},
		Balances:      []GenesisBalance{{Address: operator, Asset: "STAKE", Amount: 1000}},
		Validators:    []GenesisValidator{{PubKey: consKey, Operator: operator, SelfBond: 500}},
	}
}

func TestGenesisMarshalParse(t *testing.T) {
	g := validGenesis()
	doc, err := g.Marshal()
	require.NoError(t, err)

	parsed, err := ParseGenesis(doc)
	require.NoError(t, err)
	require.Equal(t, g, parsed)

	params := parsed.Params.LedgerParams(parsed.ChainID)
	require.Equal(t, "test", params.ChainID)
	require.NoError(t, params.Validate())
}

func TestParseGenesisDefaults(t *testing.T) {
	doc := "chain_id: devnet\nassets:\n  - code: STAKE\n"
	g, err := ParseGenesis([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, uint64(1), g.InitialHeight)
	require.Equal(t, DefaultGenesisParams(), g.Params)
}

func TestParseGenesisRejectsUnknownFields(t *testing.T) {
	_, err := ParseGenesis([]byte("chain_id: devnet\nbogus: 1\n"))
	require.Error(t, err)
}

func TestGenesisValidate(t *testing.T) {
	cases := []struct {
		name string
		edit func(*Genesis)
		err  string
	}{
		{"no chain id", func(g *Genesis) { g.ChainID = "" }, "chain_id"},
		{"bad params", func(g *Genesis) { g.Params.EpochLength = 0 }, "params"},
		{"bad asset code", func(g *Genesis) { g.Assets[0].Code = "stake" }, "assets[0]"},
		{"duplicate asset", func(g *Genesis) { g.Assets = append(g.Assets, g.Assets[0]) }, "duplicate asset"},
		{"missing staking asset", func(g *Genesis) { g.Params.StakingAsset = "BOND" }, "not defined"},
		{"bad balance address", func(g *Genesis) { g.Balances[0].Address = "xyz" }, "balances[0]"},
		{"unknown balance asset", func(g *Genesis) { g.Balances[0].Asset = "GOLD" }, "unknown asset"},
		{"short validator key", func(g *Genesis) { g.Validators[0].PubKey = "01" }, "pub_key"},
		{"duplicate validator", func(g *Genesis) { g.Validators = append(g.Validators, g.Validators[0]) }, "duplicate key"},
		{"bad operator", func(g *Genesis) { g.Validators[0].Operator = "" }, "validators[0]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := validGenesis()
			tc.edit(g)
			require.ErrorContains(t, g.Validate(), tc.err)
		})
	}
}

func TestGenesisValidatorKey(t *testing.T) {
	pk, err := GenesisValidator{PubKey: consKey}.Key()
	require.NoError(t, err)
	require.Len(t, pk.Data, 32)
	require.Equal(t, byte(0x01), pk.Data[31])
}
