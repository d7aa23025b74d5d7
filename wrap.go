package aggregator

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// NativeWrapper is a built-in venue for ActionWrap and ActionUnwrap.
// Wrapping is an exact 1:1 conversion between the native asset and its
// wrapped representation; no external quote is involved, so the adapter
// can live in-process.
type NativeWrapper struct {
	wrapped common.Address
}

// NewNativeWrapper creates a wrapper venue for the given wrapped token.
func NewNativeWrapper(wrapped common.Address) *NativeWrapper {
	return &NativeWrapper{wrapped: wrapped}
}

// WrappedToken returns the wrapped representation of the native asset.
func (w *NativeWrapper) WrappedToken() common.Address {
	return w.wrapped
}

// Execute implements Venue.
func (w *NativeWrapper) Execute(_ context.Context, call VenueCall) ([]Payment, error) {
	if len(call.Inputs) != 1 {
		return nil, errors.New("wrapper takes exactly one input")
	}
	in := call.Inputs[0]

	switch call.Action {
	case ActionWrap:
		if in.Token != NativeToken {
			return nil, errors.New("wrap input must be the native token")
		}
		return []Payment{{Token: w.wrapped, Amount: in.Amount}}, nil
	case ActionUnwrap:
		if in.Token != w.wrapped {
			return nil, errors.New("unwrap input must be the wrapped token")
		}
		return []Payment{{Token: NativeToken, Amount: in.Amount}}, nil
	default:
		return nil, errors.New("wrapper supports only wrap and unwrap")
	}
}
