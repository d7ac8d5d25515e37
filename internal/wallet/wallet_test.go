package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestFetchBalanceMissingConfig(t *testing.T) {
	r := NewReader(Options{}, zerolog.Nop())
	if _, err := r.FetchBalance(context.Background(), "0x0000000000000000000000000000000000000001"); err == nil {
		t.Fatal("missing rpc url must error")
	}
}

func TestFetchBalanceInvalidAddress(t *testing.T) {
	r := NewReader(Options{RPCURL: "http://localhost:8545"}, zerolog.Nop())
	_, err := r.FetchBalance(context.Background(), "not-an-address")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("want ErrInvalidAddress, got %v", err)
	}
}
