package ledger

import (
	"fmt"
	"strings"
)

// PayloadTag identifies this system's memos among arbitrary Memo program
// traffic. It is the first segment of every anchored payload.
const PayloadTag = "NDRRMA"

// payloadSeparator joins the payload segments. Record IDs are UUIDs and
// fingerprints are hex, so the pipe can never appear inside a segment.
const payloadSeparator = "|"

// EncodePayload builds the on-chain memo text for a record fingerprint:
// NDRRMA|<record_id>|<fingerprint_hex>. The format is deliberately minimal,
// human-inspectable in any explorer, and far below the Memo program's size
// ceiling.
func EncodePayload(recordID, fingerprint string) string {
	return PayloadTag + payloadSeparator + recordID + payloadSeparator + fingerprint
}

// ParsePayload splits a memo payload back into its record ID and
// fingerprint, rejecting memos that were not produced by this system.
func ParsePayload(payload string) (recordID, fingerprint string, err error) {
	parts := strings.SplitN(payload, payloadSeparator, 3)
	if len(parts) != 3 || parts[0] != PayloadTag {
		return "", "", fmt.Errorf("not a %s memo payload: %q", PayloadTag, payload)
	}
	if parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("memo payload has empty segment: %q", payload)
	}
	return parts[1], parts[2], nil
}

// ExplorerURL returns the Solana Explorer link for a transaction on the
// given network ("devnet", "testnet", or "mainnet-beta"). Mainnet needs no
// cluster param, and an unset network gets none rather than an empty one.
func ExplorerURL(txRef, network string) string {
	url := "https://explorer.solana.com/tx/" + txRef
	if network != "" && network != "mainnet-beta" {
		url += "?cluster=" + network
	}
	return url
}
