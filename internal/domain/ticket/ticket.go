package ticket

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is one numbered entry in a raffle. Numbers are unique within a
// raffle and never reassigned once issued.
type Ticket struct {
	id        uuid.UUID
	raffleID  uuid.UUID
	ownerID   uuid.UUID
	number    int
	intentID  *uuid.UUID
	createdAt time.Time
}

func NewTicket(raffleID, ownerID uuid.UUID, number int, intentID *uuid.UUID) *Ticket {
	return &Ticket{
		id:       uuid.New(),
		raffleID: raffleID,
		ownerID:  ownerID,
		number:   number,
		intentID: intentID,
	}
}

func ReconstructTicket(id, raffleID, ownerID uuid.UUID, number int, intentID *uuid.UUID, createdAt time.Time) *Ticket {
	return &Ticket{
		id:        id,
		raffleID:  raffleID,
		ownerID:   ownerID,
		number:    number,
		intentID:  intentID,
		createdAt: createdAt,
	}
}

func (t *Ticket) ID() uuid.UUID        { return t.id }
func (t *Ticket) RaffleID() uuid.UUID  { return t.raffleID }
func (t *Ticket) OwnerID() uuid.UUID   { return t.ownerID }
func (t *Ticket) Number() int          { return t.number }
func (t *Ticket) IntentID() *uuid.UUID { return t.intentID }
func (t *Ticket) CreatedAt() time.Time { return t.createdAt }
