/*
audit.go - Field-level edit history of payroll records

PURPOSE:
  Every changed field of every edit leaves one EditLog entry: who, when,
  which field, old and new value, and the reason given. Entries are
  append-only and die only with their record in the retention sweep.

TAMPER EVIDENCE:
  Entries of one record form a hash chain:

    Hash(n) = SHA-256(content(n) | Hash(n-1))

  and the record stores the head (EditHash) and length (EditCount). Editing,
  removing, reordering or truncating entries breaks either a link or the
  head, which VerifyChain reports.

SEE ALSO:
  - service.go: EditRecord builds the entries
*/
package payroll

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type EditLog struct {
	ID           string          `json:"id"`
	PayrollID    string          `json:"payroll_id"`
	Sequence     int             `json:"sequence"`
	EditedBy     string          `json:"edited_by"`
	EditedAt     time.Time       `json:"edited_at"`
	FieldChanged string          `json:"field_changed"`
	OldValue     decimal.Decimal `json:"old_value"`
	NewValue     decimal.Decimal `json:"new_value"`
	Reason       string          `json:"reason"`
	PrevHash     string          `json:"prev_hash"`
	Hash         string          `json:"hash"`
}

// ComputeHash hashes the entry's content chained to PrevHash.
func (l EditLog) ComputeHash() string {
	content := strings.Join([]string{
		l.ID,
		l.PayrollID,
		strconv.Itoa(l.Sequence),
		l.EditedBy,
		l.EditedAt.UTC().Format(time.RFC3339Nano),
		l.FieldChanged,
		l.OldValue.String(),
		l.NewValue.String(),
		l.Reason,
		l.PrevHash,
	}, "\x1f")
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// chainEntries links entries after a head of length count and hash head.
func chainEntries(entries []EditLog, count int, head string) []EditLog {
	prev := head
	for i := range entries {
		entries[i].Sequence = count + i + 1
		entries[i].PrevHash = prev
		entries[i].Hash = entries[i].ComputeHash()
		prev = entries[i].Hash
	}
	return entries
}

// VerifyChain checks logs (ordered by Sequence) against the record's head.
func VerifyChain(rec Record, logs []EditLog) error {
	prev := ""
	for i, l := range logs {
		if l.PayrollID != rec.ID {
			return &TamperedHistoryError{PayrollID: rec.ID, Index: i, Reason: "entry belongs to another record"}
		}
		if l.Sequence != i+1 {
			return &TamperedHistoryError{PayrollID: rec.ID, Index: i, Reason: "sequence gap"}
		}
		if l.PrevHash != prev {
			return &TamperedHistoryError{PayrollID: rec.ID, Index: i, Reason: "broken link"}
		}
		if l.ComputeHash() != l.Hash {
			return &TamperedHistoryError{PayrollID: rec.ID, Index: i, Reason: "content altered"}
		}
		prev = l.Hash
	}
	if len(logs) != rec.EditCount || prev != rec.EditHash {
		return &TamperedHistoryError{PayrollID: rec.ID, Index: -1, Reason: "chain head mismatch"}
	}
	return nil
}
