// Package kanban tracks each client's email production pipeline: cards
// move from idea through copy, design and review until the send is
// scheduled. One board per client, stored as a single document.
package kanban

import "time"

// Board is a client's production board.
type Board struct {
	ClientID     string    `json:"client_id"`
	LastModified time.Time `json:"last_modified"`
	Columns      []Column  `json:"columns"`
}

// Column is one pipeline stage.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
	Cards []Card `json:"cards"`
}

// Card is one email being produced.
type Card struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"` // "normal", "high", "critical"
	Assignee    string     `json:"assignee,omitempty"`
	CampaignRef string     `json:"campaign_ref,omitempty"` // links to a calendar entry
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedBy   string     `json:"created_by"`
	Labels      []string   `json:"labels,omitempty"`
	Order       int        `json:"order"`
}

// MoveCardRequest moves a card between columns or reorders in place.
type MoveCardRequest struct {
	CardID     string `json:"card_id"`
	FromColumn string `json:"from_column"`
	ToColumn   string `json:"to_column"`
	NewOrder   int    `json:"new_order"`
}

// CreateCardRequest creates a new card.
type CreateCardRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Assignee    string     `json:"assignee,omitempty"`
	CampaignRef string     `json:"campaign_ref,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ColumnID    string     `json:"column_id"`
	Labels      []string   `json:"labels,omitempty"`
}

// UpdateCardRequest patches a card; nil fields are left alone.
type UpdateCardRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Assignee    *string    `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
}

// DueTasksResponse groups cards by how soon they are due.
type DueTasksResponse struct {
	Overdue  []Card `json:"overdue"`
	DueToday []Card `json:"due_today"`
	DueSoon  []Card `json:"due_soon"`
}

// VelocityReport summarizes completion velocity for one month.
type VelocityReport struct {
	Month             string    `json:"month"`
	TotalCompleted    int       `json:"total_completed"`
	AvgCompletionTime float64   `json:"avg_completion_hours"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// Config holds board behavior knobs.
type Config struct {
	DueSoonThreshold time.Duration // what counts as "due soon"
	MaxCardsPerLane  int           // WIP limit per column, 0 = unlimited
}

// DefaultConfig returns the default board configuration.
func DefaultConfig() Config {
	return Config{
		DueSoonThreshold: 24 * time.Hour,
		MaxCardsPerLane:  0,
	}
}

// Priority constants
const (
	PriorityNormal   = "normal"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Column ID constants
const (
	ColumnIdeas     = "ideas"
	ColumnCopy      = "copy"
	ColumnDesign    = "design"
	ColumnReview    = "review"
	ColumnScheduled = "scheduled"
	ColumnDone      = "done"
)

// DefaultColumns returns the production pipeline stages in order.
func DefaultColumns() []Column {
	return []Column{
		{ID: ColumnIdeas, Title: "Ideas", Order: 0, Cards: []Card{}},
		{ID: ColumnCopy, Title: "Copywriting", Order: 1, Cards: []Card{}},
		{ID: ColumnDesign, Title: "Design", Order: 2, Cards: []Card{}},
		{ID: ColumnReview, Title: "Client Review", Order: 3, Cards: []Card{}},
		{ID: ColumnScheduled, Title: "Scheduled", Order: 4, Cards: []Card{}},
		{ID: ColumnDone, Title: "Done", Order: 5, Cards: []Card{}},
	}
}

// NewBoard creates an empty board for a client.
func NewBoard(clientID string) *Board {
	return &Board{
		ClientID:     clientID,
		Columns:      DefaultColumns(),
		LastModified: time.Now(),
	}
}
