package raffle

import "errors"

type Money struct {
	cents int64
}

func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

func NewMoneyFromCents(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, errors.New("money cannot be negative")
	}
	return Money{cents: cents}, nil
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Dollars() float64 {
	return float64(m.cents) / 100.0
}

func (m Money) IsZero() bool {
	return m.cents == 0
}

func (m Money) Mul(quantity int) Money {
	return Money{cents: m.cents * int64(quantity)}
}

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

type Title struct {
	value string
}

func NewTitle(value string) (Title, error) {
	if value == "" {
		return Title{}, ErrEmptyTitle
	}
	if len(value) > MaxTitleLength {
		return Title{}, ErrTitleTooLong
	}
	return Title{value: value}, nil
}

// ReconstructTitle trusts persisted data and skips validation.
func ReconstructTitle(value string) Title {
	return Title{value: value}
}

func (t Title) String() string { return t.value }

type Description struct {
	value string
}

func NewDescription(value string) (Description, error) {
	if value == "" {
		return Description{}, ErrEmptyDescription
	}
	return Description{value: value}, nil
}

func ReconstructDescription(value string) Description {
	return Description{value: value}
}

func (d Description) String() string { return d.value }
