package relayd

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github/chapool/go-chapay/txtypes"
)

// Ledger records countersigned transactions in postgres. All methods are
// no-ops when the relay runs without a database.
type Ledger struct {
	db    *sql.DB
	clock time2.Clock
}

func NewLedger(db *sql.DB, clock time2.Clock) *Ledger {
	return &Ledger{db: db, clock: clock}
}

// Enabled reports whether a database backs the ledger.
func (l *Ledger) Enabled() bool {
	return l != nil && l.db != nil
}

// RecordSponsorship inserts one countersigned transaction. Replays of the
// same transaction hash are ignored.
func (l *Ledger) RecordSponsorship(ctx context.Context, tx *txtypes.FeeTokenTx, sender common.Address) error {
	if !l.Enabled() {
		return nil
	}

	hash, err := tx.Hash()
	if err != nil {
		return errors.Wrap(err, "hashing transaction")
	}
	payer, err := txtypes.FeePayerAddress(tx)
	if err != nil {
		return errors.Wrap(err, "recovering fee payer")
	}

	feeToken := ""
	if tx.FeeToken != nil {
		feeToken = strings.ToLower(tx.FeeToken.Hex())
	}

	var chainID uint64
	if tx.ChainID != nil && tx.ChainID.IsUint64() {
		chainID = tx.ChainID.Uint64()
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO sponsorships (tx_hash, chain_id, sender, fee_payer, fee_token, gas_limit, sponsored_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		ON CONFLICT (tx_hash) DO NOTHING`,
		strings.ToLower(hash.Hex()), chainID, strings.ToLower(sender.Hex()),
		strings.ToLower(payer.Hex()), feeToken, tx.Gas, l.clock.Now())

	return errors.Wrap(err, "inserting sponsorship")
}

// CountForSenderSince counts the sponsorships recorded for sender after the
// given cutoff.
func (l *Ledger) CountForSenderSince(ctx context.Context, sender common.Address, since time.Time) (int, error) {
	if !l.Enabled() {
		return 0, nil
	}

	var n int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sponsorships WHERE sender = $1 AND sponsored_at >= $2`,
		strings.ToLower(sender.Hex()), since).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "counting sponsorships")
	}

	return n, nil
}
