// Package ledger is the client side of the Solana anchoring integration.
//
// It wraps the Solana JSON-RPC API behind the narrow Client interface so the
// anchor workflow can be tested against a mock and the network swapped by
// configuration. The package never implements consensus or on-chain logic;
// it only builds, signs, and submits single-instruction Memo transactions
// and looks them up again during verification.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/hamrosuraksha/reliefchain/internal/wallet"
	"go.uber.org/zap"
)

// memoProgramID is the official Solana Memo program (v2).
var memoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// Client is the narrow ledger interface consumed by the anchor workflow.
// *SolanaClient is the production implementation.
type Client interface {
	// Balance returns the wallet balance in lamports.
	Balance(ctx context.Context) (uint64, error)

	// SubmitMemo signs and broadcasts a Memo transaction carrying text.
	// It returns the base58 transaction signature. Confirmation is not
	// awaited; failures are returned as *SubmissionError.
	SubmitMemo(ctx context.Context, text string) (string, error)

	// LookupMemo fetches a transaction by reference and extracts its memo
	// payload. A definitively absent transaction yields Found=false with a
	// nil error; a nil *MemoLookup with a non-nil error means the network
	// could not be queried and nothing can be concluded.
	LookupMemo(ctx context.Context, txRef string) (*MemoLookup, error)
}

// MemoLookup is the result of an on-chain transaction lookup.
type MemoLookup struct {
	// Found reports whether the transaction exists on the ledger.
	Found bool
	// Decoded reports whether the memo instruction payload could be
	// extracted. When false, only transaction existence is known.
	Decoded bool
	// Payload is the raw memo text, set only when Decoded is true.
	Payload string
}

// Config holds the Solana client settings.
type Config struct {
	RPCURL  string
	Network string // devnet | testnet | mainnet-beta

	// MinBalanceLamports triggers a faucet top-up when the wallet balance
	// falls below it before a submission.
	MinBalanceLamports uint64
	// AirdropLamports is the faucet request size (devnet/testnet only).
	AirdropLamports uint64
	// AirdropGrace is how long to wait after a faucet request before
	// proceeding with the submission.
	AirdropGrace time.Duration
}

// SolanaClient talks to a Solana RPC node on behalf of the anchoring wallet.
type SolanaClient struct {
	rpc    *rpc.Client
	wallet *wallet.Wallet
	cfg    Config
	logger *zap.Logger
}

// NewSolanaClient creates a SolanaClient. Zero-valued top-up settings fall
// back to the devnet defaults (10k lamport floor, 2 SOL airdrop, 3s grace).
func NewSolanaClient(cfg Config, w *wallet.Wallet, logger *zap.Logger) *SolanaClient {
	if cfg.MinBalanceLamports == 0 {
		cfg.MinBalanceLamports = 10_000
	}
	if cfg.AirdropLamports == 0 {
		cfg.AirdropLamports = 2 * solana.LAMPORTS_PER_SOL
	}
	if cfg.AirdropGrace == 0 {
		cfg.AirdropGrace = 3 * time.Second
	}
	return &SolanaClient{
		rpc:    rpc.New(cfg.RPCURL),
		wallet: w,
		cfg:    cfg,
		logger: logger,
	}
}

// Balance implements Client.
func (c *SolanaClient) Balance(ctx context.Context) (uint64, error) {
	out, err := c.rpc.GetBalance(ctx, c.wallet.PublicKey(), rpc.CommitmentConfirmed)
	if err != nil {
		return 0, classify("get_balance", err)
	}
	return out.Value, nil
}

// SubmitMemo implements Client. It tops up the wallet from the faucet when
// the balance is low (best effort), then builds, signs, and broadcasts a
// single Memo instruction. Preflight is skipped and confirmation is not
// awaited: the caller treats a returned signature as anchoring success.
func (c *SolanaClient) SubmitMemo(ctx context.Context, text string) (string, error) {
	c.topUpIfLow(ctx)

	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", classify("get_latest_blockhash", err)
	}

	signer := c.wallet.PublicKey()
	ix := solana.NewInstruction(
		memoProgramID,
		solana.AccountMetaSlice{solana.NewAccountMeta(signer, true, true)},
		[]byte(text),
	)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		recent.Value.Blockhash,
		solana.TransactionPayer(signer),
	)
	if err != nil {
		return "", &SubmissionError{Kind: KindRejected, Op: "build_transaction", Err: err}
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(signer) {
			k := c.wallet.PrivateKey()
			return &k
		}
		return nil
	}); err != nil {
		return "", &SubmissionError{Kind: KindRejected, Op: "sign_transaction", Err: err}
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return "", classify("send_transaction", err)
	}

	c.logger.Debug("memo transaction submitted", zap.String("signature", sig.String()))
	return sig.String(), nil
}

// LookupMemo implements Client.
func (c *SolanaClient) LookupMemo(ctx context.Context, txRef string) (*MemoLookup, error) {
	sig, err := solana.SignatureFromBase58(txRef)
	if err != nil {
		// A reference that cannot even be a signature will never be found.
		return &MemoLookup{Found: false}, nil
	}

	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return &MemoLookup{Found: false}, nil
	}
	if err != nil {
		return nil, classify("get_transaction", err)
	}
	if out == nil || out.Transaction == nil {
		return &MemoLookup{Found: false}, nil
	}

	parsed, err := out.Transaction.GetTransaction()
	if err != nil || parsed == nil {
		c.logger.Debug("transaction found but envelope not decodable", zap.String("tx", txRef))
		return &MemoLookup{Found: true, Decoded: false}, nil
	}

	for _, ix := range parsed.Message.Instructions {
		idx := int(ix.ProgramIDIndex)
		if idx >= len(parsed.Message.AccountKeys) {
			continue
		}
		if parsed.Message.AccountKeys[idx].Equals(memoProgramID) {
			return &MemoLookup{Found: true, Decoded: true, Payload: string(ix.Data)}, nil
		}
	}

	// Exists on chain but carries no memo instruction we recognise.
	return &MemoLookup{Found: true, Decoded: false}, nil
}

// topUpIfLow requests devnet funds when the balance is below the operating
// floor, then waits a short grace period. Best effort only: submission
// proceeds regardless, and may still fail with insufficient funds.
func (c *SolanaClient) topUpIfLow(ctx context.Context) {
	bal, err := c.Balance(ctx)
	if err != nil {
		c.logger.Warn("balance check before submit failed", zap.Error(err))
		return
	}
	if bal >= c.cfg.MinBalanceLamports {
		return
	}

	c.logger.Info("wallet balance low, requesting airdrop",
		zap.Uint64("balance_lamports", bal),
		zap.Uint64("airdrop_lamports", c.cfg.AirdropLamports),
	)
	sig, err := c.rpc.RequestAirdrop(ctx, c.wallet.PublicKey(), c.cfg.AirdropLamports, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Warn("airdrop request failed (faucet may be rate-limited)", zap.Error(err))
		return
	}
	c.logger.Info("airdrop requested", zap.String("signature", sig.String()))

	select {
	case <-time.After(c.cfg.AirdropGrace):
	case <-ctx.Done():
	}
}
