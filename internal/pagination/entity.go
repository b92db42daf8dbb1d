package pagination

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gabapcia/txpager/internal/pkg/validator"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrInvalidEntityKey is returned when an address, block identifier or
// filter cannot identify a listing.
var ErrInvalidEntityKey = errors.New("invalid entity key")

// EntityKind selects which transaction listing is paginated.
type EntityKind string

const (
	// EntityAddress paginates the transactions sent or received by an address.
	EntityAddress EntityKind = "address"

	// EntityBlock paginates the transactions included in a block.
	EntityBlock EntityKind = "block"
)

// Direction filters for address listings.
const (
	FilterAll  = ""
	FilterTo   = "to"
	FilterFrom = "from"
)

// EntityKey identifies one paginated listing: the network, the entity and
// every filter applied to it. Two requests belong to the same listing only
// when their keys are equal, so cursors are never shared across networks,
// entities or filters.
type EntityKey struct {
	Network string     `validate:"required,network"`
	Kind    EntityKind `validate:"required,oneof=address block"`
	ID      string     `validate:"required"`
	Filter  string     `validate:"omitempty,oneof=to from"`
}

// String renders the key in its canonical form, used by cursor stores as
// the storage key: "<network>:<kind>:<id>[:<filter>]".
func (k EntityKey) String() string {
	s := fmt.Sprintf("%s:%s:%s", k.Network, k.Kind, k.ID)
	if k.Filter != FilterAll {
		s += ":" + k.Filter
	}

	return s
}

func (k EntityKey) validate() error {
	if err := validator.Validate(k); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntityKey, err)
	}

	return nil
}

// NewAddressKey builds the key for an address listing. The address is
// validated and lower-cased so that checksummed and plain spellings of the
// same address share cursors. filter is FilterAll, FilterTo or FilterFrom.
func NewAddressKey(network, address, filter string) (EntityKey, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return EntityKey{}, fmt.Errorf("%w: %q is not an address", ErrInvalidEntityKey, address)
	}

	key := EntityKey{
		Network: network,
		Kind:    EntityAddress,
		ID:      strings.ToLower(common.HexToAddress(address).Hex()),
		Filter:  strings.ToLower(strings.TrimSpace(filter)),
	}

	return key, key.validate()
}

// NewBlockKey builds the key for a block listing. block is either a decimal
// block number or a 0x-prefixed block hash.
func NewBlockKey(network, block string) (EntityKey, error) {
	id, err := normalizeBlockID(strings.TrimSpace(block))
	if err != nil {
		return EntityKey{}, err
	}

	key := EntityKey{
		Network: network,
		Kind:    EntityBlock,
		ID:      id,
	}

	return key, key.validate()
}

func normalizeBlockID(block string) (string, error) {
	if strings.HasPrefix(block, "0x") || strings.HasPrefix(block, "0X") {
		raw, err := hexutil.Decode("0x" + block[2:])
		if err != nil || len(raw) != common.HashLength {
			return "", fmt.Errorf("%w: %q is not a block hash", ErrInvalidEntityKey, block)
		}

		return hexutil.Encode(raw), nil
	}

	n, err := strconv.ParseUint(block, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a block number", ErrInvalidEntityKey, block)
	}

	return strconv.FormatUint(n, 10), nil
}
