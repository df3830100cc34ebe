package ticket

import (
	"errors"
	"math/rand/v2"
	"sort"
)

var (
	ErrInvalidCapacity     = errors.New("pool capacity must be positive")
	ErrNumberOutOfRange    = errors.New("ticket number outside pool range")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInsufficientTickets = errors.New("not enough tickets available")
)

// Pool is the set of unsold ticket numbers for one raffle at a point in
// time. It is a pure in-memory structure: callers load the sold set under a
// row lock, draw, and persist the result in the same transaction.
type Pool struct {
	capacity int
	sold     map[int]struct{}
}

func NewPool(capacity int, sold []int) (*Pool, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	soldSet := make(map[int]struct{}, len(sold))
	for _, n := range sold {
		if n < 1 || n > capacity {
			return nil, ErrNumberOutOfRange
		}
		soldSet[n] = struct{}{}
	}
	return &Pool{capacity: capacity, sold: soldSet}, nil
}

func (p *Pool) Capacity() int  { return p.capacity }
func (p *Pool) SoldCount() int { return len(p.sold) }

// Available returns how many numbers remain unsold.
func (p *Pool) Available() int {
	return p.capacity - len(p.sold)
}

func (p *Pool) IsSold(number int) bool {
	_, ok := p.sold[number]
	return ok
}

// Draw picks quantity distinct unsold numbers uniformly at random without
// replacement and marks them sold. The result is sorted ascending for
// deterministic display. On ErrInsufficientTickets the pool is unchanged.
func (p *Pool) Draw(quantity int, rng *rand.Rand) ([]int, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	available := make([]int, 0, p.Available())
	for n := 1; n <= p.capacity; n++ {
		if _, taken := p.sold[n]; !taken {
			available = append(available, n)
		}
	}
	if len(available) < quantity {
		return nil, ErrInsufficientTickets
	}

	// Partial Fisher-Yates: each draw removes the chosen number from the
	// candidate set, so duplicates are impossible within one draw.
	for i := 0; i < quantity; i++ {
		j := i + rng.IntN(len(available)-i)
		available[i], available[j] = available[j], available[i]
	}

	drawn := available[:quantity]
	sort.Ints(drawn)
	for _, n := range drawn {
		p.sold[n] = struct{}{}
	}
	return drawn, nil
}
