package txtypes

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// TxArgs is the string based construction form used by CLIs and JSON inputs.
// Amounts are decimal wei strings, addresses are 0x hex, data is 0x hex
// bytes. Empty strings mean absent.
type TxArgs struct {
	ChainID              uint64              `json:"chainId"`
	Nonce                uint64              `json:"nonce"`
	MaxPriorityFeePerGas string              `json:"maxPriorityFeePerGas,omitempty"`
	MaxFeePerGas         string              `json:"maxFeePerGas,omitempty"`
	Gas                  uint64              `json:"gas"`
	To                   string              `json:"to,omitempty"`
	Value                string              `json:"value,omitempty"`
	Data                 string              `json:"data,omitempty"`
	FeeToken             string              `json:"feeToken,omitempty"`
	FeePayer             string              `json:"feePayer,omitempty"`
	AccessList           []AccessTupleArgs   `json:"accessList,omitempty"`
	AuthorizationList    []AuthorizationArgs `json:"authorizationList,omitempty"`
}

// AccessTupleArgs is the string form of one access list entry.
type AccessTupleArgs struct {
	Address     string   `json:"address"`
	StorageKeys []string `json:"storageKeys"`
}

// AuthorizationArgs is the string form of one EIP-7702 authorization.
type AuthorizationArgs struct {
	ChainID uint64 `json:"chainId"`
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
	YParity uint8  `json:"yParity"`
	R       string `json:"r"`
	S       string `json:"s"`
}

// NewFeeTokenTx builds an unsigned transaction from args, validating every
// field. Fee fields may be left absent for gas estimation; chainId is always
// required. The result is unsigned regardless of sponsorship intent.
func NewFeeTokenTx(args TxArgs) (*FeeTokenTx, error) {
	if args.ChainID == 0 {
		return nil, errors.Wrap(ErrValidation, "chainId is required")
	}
	tx := &FeeTokenTx{
		ChainID: uint256.NewInt(args.ChainID),
		Nonce:   args.Nonce,
		Gas:     args.Gas,
	}
	var err error
	if tx.GasTipCap, err = parseAmount(args.MaxPriorityFeePerGas, "maxPriorityFeePerGas"); err != nil {
		return nil, err
	}
	if tx.GasFeeCap, err = parseAmount(args.MaxFeePerGas, "maxFeePerGas"); err != nil {
		return nil, err
	}
	if tx.Value, err = parseAmount(args.Value, "value"); err != nil {
		return nil, err
	}
	if tx.To, err = parseOptionalAddress(args.To, "to"); err != nil {
		return nil, err
	}
	if tx.FeeToken, err = parseOptionalAddress(args.FeeToken, "feeToken"); err != nil {
		return nil, err
	}
	if tx.FeePayer, err = parseOptionalAddress(args.FeePayer, "feePayer"); err != nil {
		return nil, err
	}
	if tx.Data, err = parseData(args.Data); err != nil {
		return nil, err
	}
	if tx.AccessList, err = parseAccessList(args.AccessList); err != nil {
		return nil, err
	}
	if tx.AuthList, err = parseAuthorizationList(args.AuthorizationList); err != nil {
		return nil, err
	}
	return tx, nil
}

func parseAmount(s, field string) (*uint256.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrapf(ErrValidation, "%s: %v", field, err)
	}
	return v, nil
}

func parseOptionalAddress(s, field string) (*common.Address, error) {
	if s == "" {
		return nil, nil
	}
	if !common.IsHexAddress(s) {
		return nil, errors.Wrapf(ErrValidation, "%s: invalid address %q", field, s)
	}
	addr := common.HexToAddress(s)
	return &addr, nil
}

func parseData(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return nil, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(ErrValidation, "data: %v", err)
	}
	return b, nil
}

func parseAccessList(args []AccessTupleArgs) (types.AccessList, error) {
	if len(args) == 0 {
		return nil, nil
	}
	al := make(types.AccessList, 0, len(args))
	for i, t := range args {
		if !common.IsHexAddress(t.Address) {
			return nil, errors.Wrapf(ErrValidation, "accessList[%d]: invalid address %q", i, t.Address)
		}
		keys := make([]common.Hash, 0, len(t.StorageKeys))
		for j, k := range t.StorageKeys {
			b, err := hexutil.Decode(k)
			if err != nil || len(b) != common.HashLength {
				return nil, errors.Wrapf(ErrValidation, "accessList[%d].storageKeys[%d]: not a 32 byte hex value", i, j)
			}
			keys = append(keys, common.BytesToHash(b))
		}
		al = append(al, types.AccessTuple{
			Address:     common.HexToAddress(t.Address),
			StorageKeys: keys,
		})
	}
	return al, nil
}

func parseAuthorizationList(args []AuthorizationArgs) ([]types.SetCodeAuthorization, error) {
	if len(args) == 0 {
		return nil, nil
	}
	list := make([]types.SetCodeAuthorization, 0, len(args))
	for i, a := range args {
		if !common.IsHexAddress(a.Address) {
			return nil, errors.Wrapf(ErrValidation, "authorizationList[%d]: invalid address %q", i, a.Address)
		}
		if a.YParity > 1 {
			return nil, errors.Wrapf(ErrValidation, "authorizationList[%d]: yParity must be 0 or 1", i)
		}
		r, err := parseHexWord(a.R)
		if err != nil {
			return nil, errors.Wrapf(ErrValidation, "authorizationList[%d].r: %v", i, err)
		}
		s, err := parseHexWord(a.S)
		if err != nil {
			return nil, errors.Wrapf(ErrValidation, "authorizationList[%d].s: %v", i, err)
		}
		list = append(list, types.SetCodeAuthorization{
			ChainID: *uint256.NewInt(a.ChainID),
			Address: common.HexToAddress(a.Address),
			Nonce:   a.Nonce,
			V:       a.YParity,
			R:       *r,
			S:       *s,
		})
	}
	return list, nil
}

func parseHexWord(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	return uint256.FromHex(s)
}
