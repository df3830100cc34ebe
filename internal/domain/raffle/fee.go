package raffle

import "errors"

// ErrValueExceeded blocks creation of raffles whose total potential value is
// above the top fee tier. Creation must fail, never silently cap.
var ErrValueExceeded = errors.New("total potential value exceeds fee schedule cap")

// FeeQuote is the server-authoritative creation fee for a raffle. The same
// table renders the client preview, but the server value is recomputed and
// billed.
type FeeQuote struct {
	Fee        Money
	Tier       string
	TotalValue Money
}

type feeTier struct {
	upTo  int64 // inclusive upper bound on total value, in cents
	fee   int64 // flat fee, in cents
	label string
}

// Closed ascending tiers; amounts in cents so the $500.00/$500.01 boundary
// is exact.
var feeTiers = []feeTier{
	{upTo: 50_000, fee: 100, label: "$500"},
	{upTo: 100_000, fee: 200, label: "$1,000"},
	{upTo: 300_000, fee: 300, label: "$3,000"},
	{upTo: 500_000, fee: 500, label: "$5,000"},
	{upTo: 1_000_000, fee: 1_000, label: "$10,000"},
}

// MaxTotalValue is the inclusive cap on unitPrice * quantity, in cents.
const MaxTotalValue = 1_000_000

// QuoteFee maps a raffle's total potential value to its flat creation fee.
// Pure and deterministic. A non-positive total quotes a zero fee with no
// tier; a total above the cap fails with ErrValueExceeded.
func QuoteFee(unitPrice Money, quantity int) (FeeQuote, error) {
	total := unitPrice.Mul(quantity)

	if total.Cents() <= 0 {
		return FeeQuote{Fee: NewMoney(0), Tier: "", TotalValue: total}, nil
	}

	for _, tier := range feeTiers {
		if total.Cents() <= tier.upTo {
			return FeeQuote{Fee: NewMoney(tier.fee), Tier: tier.label, TotalValue: total}, nil
		}
	}

	return FeeQuote{TotalValue: total}, ErrValueExceeded
}
