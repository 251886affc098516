package rpc

// Participant is a person who can pay for or share expenses.
type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
}

type CreateParticipantRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreateParticipantResponse struct {
	Participant *Participant `json:"participant"`
}

// GetParticipantRequest looks up by ParticipantID, or by Email when the id is empty.
type GetParticipantRequest struct {
	ParticipantID string `json:"participant_id,omitempty"`
	Email         string `json:"email,omitempty"`
}

type GetParticipantResponse struct {
	Participant *Participant `json:"participant"`
}

// UpdateParticipantRequest leaves empty fields unchanged.
type UpdateParticipantRequest struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
}

type UpdateParticipantResponse struct {
	Participant *Participant `json:"participant"`
}

type DeleteParticipantRequest struct {
	ParticipantID string `json:"participant_id"`
}

type DeleteParticipantResponse struct{}

type ListParticipantsRequest struct{}

type ListParticipantsResponse struct {
	Participants []*Participant `json:"participants"`
}

type GetParticipantBalancesRequest struct {
	ParticipantID string `json:"participant_id"`
}

// GroupPosition is a participant's standing inside one group.
type GroupPosition struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	Net       string `json:"net"`

	// Counterparties maps another member to what they owe this participant.
	// Negative amounts are owed by this participant.
	Counterparties map[string]string `json:"counterparties"`
}

type GetParticipantBalancesResponse struct {
	ParticipantID string           `json:"participant_id"`
	Groups        []*GroupPosition `json:"groups"`
	Net           string           `json:"net"`
	Shares        string           `json:"shares"`
}

// Group is a set of participants sharing one balance ledger.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

// ListGroupsRequest lists every group, or only those ParticipantID belongs to.
type ListGroupsRequest struct {
	ParticipantID string `json:"participant_id,omitempty"`
}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type RenameGroupRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

type RenameGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type AddMemberRequest struct {
	GroupID       string `json:"group_id"`
	ParticipantID string `json:"participant_id"`
}

type AddMemberResponse struct{}

type RemoveMemberRequest struct {
	GroupID       string `json:"group_id"`
	ParticipantID string `json:"participant_id"`
}

type RemoveMemberResponse struct{}

// GetBalancesRequest reads the live ledger unless Recomputed is set, in which
// case balances are derived from persisted history.
type GetBalancesRequest struct {
	GroupID    string `json:"group_id"`
	Recomputed bool   `json:"recomputed,omitempty"`
}

type GetBalancesResponse struct {
	// Net maps participant ID to net position. Positive means owed money.
	Net map[string]string `json:"net"`

	// Matrix maps A to B to amount, where a positive amount means B owes A.
	// Only filled for live reads.
	Matrix map[string]map[string]string `json:"matrix,omitempty"`
}

type SimplifyDebtsRequest struct {
	GroupID    string `json:"group_id"`
	Recomputed bool   `json:"recomputed,omitempty"`
}

// Transfer is one payment in a settlement plan.
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type SimplifyDebtsResponse struct {
	Transfers []*Transfer `json:"transfers"`
}

type SettleRequest struct {
	GroupID string `json:"group_id"`
	FromID  string `json:"from_id"`
	ToID    string `json:"to_id"`
	Amount  string `json:"amount"`
	Note    string `json:"note,omitempty"`
}

// Settlement is a recorded payment between two group members.
type Settlement struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	FromID    string `json:"from_id"`
	ToID      string `json:"to_id"`
	Amount    string `json:"amount"`
	Note      string `json:"note,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type SettleResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"group_id"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type GetSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

type GetSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type DeleteSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

type DeleteSettlementResponse struct{}

// ReconcileRequest checks one group, or all groups when GroupID is empty.
type ReconcileRequest struct {
	GroupID string `json:"group_id,omitempty"`
}

type ReconcileReport struct {
	GroupID   string   `json:"group_id"`
	Diverging []string `json:"diverging,omitempty"`
	Rebuilt   bool     `json:"rebuilt"`
}

type ReconcileResponse struct {
	Reports []*ReconcileReport `json:"reports"`
}

// Split is one participant's share of an expense.
type Split struct {
	ParticipantID string `json:"participant_id"`
	Amount        string `json:"amount"`
}

// Expense is an amount paid by one participant, optionally within a group.
type Expense struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Amount      string   `json:"amount"`
	PayerID     string   `json:"payer_id"`
	GroupID     string   `json:"group_id,omitempty"`
	SplitType   string   `json:"split_type"`
	Splits      []*Split `json:"splits,omitempty"`
	CreatedAt   int64    `json:"created_at"`
}

type RecordExpenseRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	PayerID     string `json:"payer_id"`

	// GroupID is empty for a personal expense.
	GroupID string `json:"group_id,omitempty"`

	// SplitType is one of EQUAL, PERCENTAGE, EXACT, BETWEEN. Defaults to EQUAL.
	SplitType string `json:"split_type,omitempty"`

	// Participants default to the group members in join order.
	Participants []string `json:"participants,omitempty"`

	// Values align with Participants: percentages or exact amounts.
	Values []string `json:"values,omitempty"`
}

type RecordExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

// ListExpensesRequest filters by GroupID or by PayerID, at most one of them.
// With neither set every expense is listed.
type ListExpensesRequest struct {
	GroupID string `json:"group_id,omitempty"`
	PayerID string `json:"payer_id,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}
