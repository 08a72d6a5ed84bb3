package ledger

import (
	"errors"
	"testing"
)

func TestClassify_kinds(t *testing.T) {
	cases := []struct {
		msg  string
		want SubmissionErrorKind
	}{
		{"Blockhash not found", KindStaleBlockhash},
		{"Transaction simulation failed: BlockhashNotFound", KindStaleBlockhash},
		{"Attempt to debit an account but found no record of a prior credit", KindInsufficientFunds},
		{"insufficient funds for fee", KindInsufficientFunds},
		{"dial tcp: connection refused", KindUnreachable},
		{"context deadline exceeded", KindUnreachable},
		{"rpc error: code -32602", KindRejected},
	}

	for _, tc := range cases {
		got := classify("send_transaction", errors.New(tc.msg))
		if got.Kind != tc.want {
			t.Errorf("classify(%q).Kind = %s, want %s", tc.msg, got.Kind, tc.want)
		}
	}
}

func TestSubmissionError_unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &SubmissionError{Kind: KindUnreachable, Op: "get_balance", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to reach the wrapped error")
	}

	var subErr *SubmissionError
	var wrapped error = err
	if !errors.As(wrapped, &subErr) {
		t.Error("expected errors.As to recover *SubmissionError")
	}
}
