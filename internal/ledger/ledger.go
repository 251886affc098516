// Package ledger keeps the live pairwise balance matrix of one group.
//
// The matrix follows one convention throughout: balances[A][B] = +v means
// B owes A v, and balances[B][A] = -v always holds. Entries closer to zero
// than calculator.Epsilon are deleted rather than stored.
//
// A Ledger is a cache over the group's persisted history. Rebuild recreates
// it from expenses and settlements at any time.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrInvariantViolation means the matrix lost anti-symmetry or conservation.
	// It is unreachable in correct operation and should be treated as fatal.
	ErrInvariantViolation = errors.New("ledger invariant violated")

	ErrNotMember     = errors.New("participant is not a group member")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Ledger holds the balance matrix for one group.
// Writers are serialized; readers run concurrently with each other.
type Ledger struct {
	groupID string
	pub     Publisher
	now     func() time.Time

	mu       sync.RWMutex
	name     string
	members  map[string]struct{}
	balances map[string]map[string]decimal.Decimal
}

// New creates a ledger for a group with the given members and empty balances.
// pub may be nil.
func New(groupID, name string, members []string, pub Publisher) *Ledger {
	l := &Ledger{
		groupID:  groupID,
		name:     name,
		pub:      pub,
		now:      time.Now,
		members:  make(map[string]struct{}, len(members)),
		balances: make(map[string]map[string]decimal.Decimal, len(members)),
	}
	for _, m := range members {
		l.members[m] = struct{}{}
		l.balances[m] = make(map[string]decimal.Decimal)
	}
	return l
}

// GroupID returns the id of the group this ledger belongs to.
func (l *Ledger) GroupID() string {
	return l.groupID
}

// Rename changes the group name used in change messages.
func (l *Ledger) Rename(name string) {
	l.mu.Lock()
	l.name = name
	l.mu.Unlock()
}

// AddMember adds a participant with an empty balance row.
// It is a no-op returning false if the participant is already a member.
func (l *Ledger) AddMember(participantID string) bool {
	l.mu.Lock()
	if _, ok := l.members[participantID]; ok {
		l.mu.Unlock()
		return false
	}
	l.members[participantID] = struct{}{}
	l.balances[participantID] = make(map[string]decimal.Decimal)
	name := l.name
	l.mu.Unlock()

	l.emit(EventMemberAdded, fmt.Sprintf("Participant %s added to group %s", participantID, name))
	return true
}

// RemoveMember drops a participant together with their row and column.
// Outstanding balances with that participant are discarded, not settled.
func (l *Ledger) RemoveMember(participantID string) bool {
	l.mu.Lock()
	if _, ok := l.members[participantID]; !ok {
		l.mu.Unlock()
		return false
	}
	delete(l.members, participantID)
	delete(l.balances, participantID)
	for _, row := range l.balances {
		delete(row, participantID)
	}
	name := l.name
	l.mu.Unlock()

	l.emit(EventMemberRemoved, fmt.Sprintf("Participant %s removed from group %s", participantID, name))
	return true
}

// IsMember reports whether participantID belongs to the group.
func (l *Ledger) IsMember(participantID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.members[participantID]
	return ok
}

// Members returns the member ids, sorted.
func (l *Ledger) Members() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.members))
	for id := range l.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ApplySplit records that from owes to an extra amount:
// balances[from][to] -= amount and balances[to][from] += amount.
// A negative amount reduces the debt.
func (l *Ledger) ApplySplit(from, to string, amount decimal.Decimal) error {
	l.mu.Lock()
	if err := l.validatePairLocked(from, to); err != nil {
		l.mu.Unlock()
		return err
	}
	l.apply(from, to, amount)
	err := l.checkLocked()
	name := l.name
	l.mu.Unlock()

	if err != nil {
		return err
	}
	l.emit(EventBalanceUpdated, fmt.Sprintf("Group %s: %s owes %s %s", name, from, to, amount))
	return nil
}

// AddExpense divides exp.Amount among participants using policy and records
// a debt from every participant other than the payer to the payer.
//
// Validation happens before any balance changes: on error the matrix is untouched.
// The computed shares (payer included) are returned for persistence.
func (l *Ledger) AddExpense(exp models.Expense, policy calculator.Policy, participants []string, values []decimal.Decimal) (map[string]decimal.Decimal, error) {
	shares, err := policy.ComputeShares(exp.Amount, participants, values)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if _, ok := l.members[exp.PayerID]; !ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: payer %s", ErrNotMember, exp.PayerID)
	}
	for _, p := range participants {
		if _, ok := l.members[p]; !ok {
			l.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrNotMember, p)
		}
	}

	for _, p := range participants {
		if p == exp.PayerID {
			continue
		}
		l.apply(p, exp.PayerID, shares[p])
	}
	err = l.checkLocked()
	name := l.name
	l.mu.Unlock()

	if err != nil {
		return nil, err
	}
	l.emit(EventExpenseAdded, fmt.Sprintf("Expense '%s' of %s added to group %s", exp.Description, exp.Amount, name))
	return shares, nil
}

// Settle records a payment of amount from one member to another, reducing
// what from owes to.
func (l *Ledger) Settle(from, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: settlement must be positive, got %s", ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	if err := l.validatePairLocked(from, to); err != nil {
		l.mu.Unlock()
		return err
	}
	l.apply(from, to, amount.Neg())
	err := l.checkLocked()
	name := l.name
	l.mu.Unlock()

	if err != nil {
		return err
	}
	l.emit(EventPaymentSettled, fmt.Sprintf("Group %s: %s paid %s %s", name, from, to, amount))
	return nil
}

// Rebuild resets the matrix and replays persisted history into it.
// Debts involving non-members are skipped, the same outcome RemoveMember has.
// No events are emitted.
func (l *Ledger) Rebuild(expenses []models.Expense, settlements []models.Settlement) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id := range l.balances {
		l.balances[id] = make(map[string]decimal.Decimal)
	}

	for _, exp := range expenses {
		if _, ok := l.members[exp.PayerID]; !ok {
			continue
		}
		for _, s := range exp.Splits {
			if s.ParticipantID == exp.PayerID {
				continue
			}
			if _, ok := l.members[s.ParticipantID]; !ok {
				continue
			}
			l.apply(s.ParticipantID, exp.PayerID, s.Amount)
		}
	}

	for _, s := range settlements {
		if l.validatePairLocked(s.FromID, s.ToID) != nil {
			continue
		}
		l.apply(s.FromID, s.ToID, s.Amount.Neg())
	}

	return l.checkLocked()
}

// NetBalances returns each member's row sum.
// Positive = owed money overall, negative = owes money overall.
func (l *Ledger) NetBalances() map[string]decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return calculator.NetBalances(l.balances)
}

// Balances returns a copy of the full matrix.
func (l *Ledger) Balances() map[string]map[string]decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]map[string]decimal.Decimal, len(l.balances))
	for id, row := range l.balances {
		cp := make(map[string]decimal.Decimal, len(row))
		for other, v := range row {
			cp[other] = v
		}
		out[id] = cp
	}
	return out
}

// Balance returns balances[a][b]: positive when b owes a.
func (l *Ledger) Balance(a, b string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[a][b]
}

// Check verifies anti-symmetry and conservation.
func (l *Ledger) Check() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.checkLocked()
}

// apply is the single place the matrix changes.
func (l *Ledger) apply(from, to string, amount decimal.Decimal) {
	l.adjust(from, to, amount.Neg())
	l.adjust(to, from, amount)
}

func (l *Ledger) adjust(a, b string, delta decimal.Decimal) {
	row, ok := l.balances[a]
	if !ok {
		row = make(map[string]decimal.Decimal)
		l.balances[a] = row
	}
	v := row[b].Add(delta)
	if calculator.IsNegligible(v) {
		delete(row, b)
		return
	}
	row[b] = v
}

func (l *Ledger) validatePairLocked(from, to string) error {
	if from == to {
		return fmt.Errorf("%w: %s cannot owe themselves", ErrInvalidAmount, from)
	}
	if _, ok := l.members[from]; !ok {
		return fmt.Errorf("%w: %s", ErrNotMember, from)
	}
	if _, ok := l.members[to]; !ok {
		return fmt.Errorf("%w: %s", ErrNotMember, to)
	}
	return nil
}

func (l *Ledger) checkLocked() error {
	total := decimal.Zero
	for a, row := range l.balances {
		for b, v := range row {
			mirror, ok := l.balances[b][a]
			if !ok || !mirror.Equal(v.Neg()) {
				return fmt.Errorf("%w: group %s: [%s][%s]=%s but [%s][%s]=%s",
					ErrInvariantViolation, l.groupID, a, b, v, b, a, mirror)
			}
			total = total.Add(v)
		}
	}
	if !calculator.IsNegligible(total) {
		return fmt.Errorf("%w: group %s: net balances sum to %s", ErrInvariantViolation, l.groupID, total)
	}
	return nil
}

func (l *Ledger) emit(kind EventKind, msg string) {
	if l.pub == nil {
		return
	}
	l.pub.Publish(Event{GroupID: l.groupID, Kind: kind, Message: msg, At: l.now()})
}
