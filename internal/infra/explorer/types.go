package explorer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gabapcia/txpager/internal/pagination"
)

// quantity decodes integers the API renders either as JSON numbers or as
// decimal strings depending on the endpoint and server version.
type quantity uint64

func (q *quantity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %s: %w", data, err)
	}

	*q = quantity(v)
	return nil
}

// pageParams is the next_page_params object. Values are kept as their
// textual form and replayed as query parameters.
type pageParams map[string]json.RawMessage

func (p pageParams) cursor() (pagination.Cursor, error) {
	if len(p) == 0 {
		return nil, nil
	}

	cursor := make(pagination.Cursor, len(p))
	for name, raw := range p {
		raw = bytes.TrimSpace(raw)
		switch {
		case bytes.Equal(raw, []byte("null")):
			continue
		case len(raw) > 0 && raw[0] == '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("next_page_params.%s: %w", name, err)
			}
			cursor[name] = s
		default:
			cursor[name] = string(raw)
		}
	}

	if len(cursor) == 0 {
		return nil, nil
	}
	return cursor, nil
}

type addressRef struct {
	Hash string `json:"hash"`
}

type fee struct {
	Value string `json:"value"`
}

type transaction struct {
	Hash        string      `json:"hash"`
	Block       quantity    `json:"block"`
	BlockNumber quantity    `json:"block_number"`
	From        *addressRef `json:"from"`
	To          *addressRef `json:"to"`
	Value       string      `json:"value"`
	Fee         *fee        `json:"fee"`
	Method      *string     `json:"method"`
	Status      *string     `json:"status"`
	Timestamp   string      `json:"timestamp"`
}

func (t transaction) toDomain() pagination.Transaction {
	tx := pagination.Transaction{
		Hash:        t.Hash,
		BlockNumber: uint64(t.BlockNumber),
		Value:       t.Value,
	}

	if tx.BlockNumber == 0 {
		tx.BlockNumber = uint64(t.Block)
	}
	if t.From != nil {
		tx.From = t.From.Hash
	}
	if t.To != nil {
		tx.To = t.To.Hash
	}
	if t.Fee != nil {
		tx.Fee = t.Fee.Value
	}
	if t.Method != nil {
		tx.Method = *t.Method
	}
	if t.Status != nil {
		tx.Status = *t.Status
	}
	if ts, err := time.Parse(time.RFC3339Nano, t.Timestamp); err == nil {
		tx.Timestamp = ts.UTC()
	}

	return tx
}

type transactionList struct {
	Items          []transaction `json:"items"`
	NextPageParams pageParams    `json:"next_page_params"`
}

func (l transactionList) toDomain() (pagination.Page, error) {
	next, err := l.NextPageParams.cursor()
	if err != nil {
		return pagination.Page{}, err
	}

	items := make([]pagination.Transaction, 0, len(l.Items))
	for _, item := range l.Items {
		items = append(items, item.toDomain())
	}

	return pagination.Page{Items: items, Next: next}, nil
}

type addressCounters struct {
	TransactionsCount quantity `json:"transactions_count"`
}

type block struct {
	TransactionCount *quantity `json:"transaction_count"`
	TxCount          *quantity `json:"tx_count"`
}

func (b block) count() int64 {
	switch {
	case b.TransactionCount != nil:
		return int64(*b.TransactionCount)
	case b.TxCount != nil:
		return int64(*b.TxCount)
	default:
		return 0
	}
}
