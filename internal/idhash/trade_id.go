package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade identity using SHA256.
// Formula: SHA256(tx_hash|log_index|account)
// The account component distinguishes the up-to-two trades a single swap
// event produces; a redelivered event hashes to the same identities.
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(txHash string, logIndex int, account string) string {
	data := fmt.Sprintf("%s|%d|%s", txHash, logIndex, account)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeSimilarityEventID computes a deterministic identity for a
// similarity event from the two trade identities it links.
// Formula: SHA256(reference_trade_id|suspect_trade_id)
func ComputeSimilarityEventID(referenceTradeID, suspectTradeID string) string {
	data := fmt.Sprintf("%s|%s", referenceTradeID, suspectTradeID)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
