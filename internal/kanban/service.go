package kanban

import (
	"fmt"
	"sort"
	"time"

	"context"

	"github.com/google/uuid"
)

// Service holds the board logic on top of a BoardStore.
type Service struct {
	store  BoardStore
	config Config
}

// NewService creates the board service, filling config defaults.
func NewService(store BoardStore, config Config) *Service {
	if config.DueSoonThreshold == 0 {
		config.DueSoonThreshold = 24 * time.Hour
	}
	return &Service{store: store, config: config}
}

// GetBoard returns a client's board.
func (s *Service) GetBoard(ctx context.Context, clientID string) (*Board, error) {
	return s.store.GetBoard(ctx, clientID)
}

// GetConfig returns the service configuration.
func (s *Service) GetConfig() Config {
	return s.config
}

// CreateCard adds a card to a column, defaulting to the ideas lane.
func (s *Service) CreateCard(ctx context.Context, clientID string, req CreateCardRequest) (*Card, error) {
	board, err := s.store.GetBoard(ctx, clientID)
	if err != nil {
		return nil, err
	}

	card := Card{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Assignee:    req.Assignee,
		CampaignRef: req.CampaignRef,
		DueDate:     req.DueDate,
		CreatedAt:   time.Now(),
		Labels:      req.Labels,
	}
	if card.Priority == "" {
		card.Priority = PriorityNormal
	}

	columnID := req.ColumnID
	if columnID == "" {
		columnID = ColumnIdeas
	}

	found := false
	for i, col := range board.Columns {
		if col.ID != columnID {
			continue
		}
		if s.config.MaxCardsPerLane > 0 && len(col.Cards) >= s.config.MaxCardsPerLane {
			return nil, fmt.Errorf("column %s is at its WIP limit (%d)", columnID, s.config.MaxCardsPerLane)
		}
		card.Order = len(col.Cards)
		board.Columns[i].Cards = append(board.Columns[i].Cards, card)
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("column not found: %s", columnID)
	}

	if err := s.store.SaveBoard(ctx, board); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard patches a card's editable fields.
func (s *Service) UpdateCard(ctx context.Context, clientID, cardID string, req UpdateCardRequest) (*Card, error) {
	board, err := s.store.GetBoard(ctx, clientID)
	if err != nil {
		return nil, err
	}

	var updated *Card
	for i, col := range board.Columns {
		for j, card := range col.Cards {
			if card.ID != cardID {
				continue
			}
			c := &board.Columns[i].Cards[j]
			if req.Title != nil {
				c.Title = *req.Title
			}
			if req.Description != nil {
				c.Description = *req.Description
			}
			if req.Priority != nil {
				c.Priority = *req.Priority
			}
			if req.Assignee != nil {
				c.Assignee = *req.Assignee
			}
			if req.DueDate != nil {
				c.DueDate = req.DueDate
			}
			if req.Labels != nil {
				c.Labels = req.Labels
			}
			updated = c
			break
		}
		if updated != nil {
			break
		}
	}
	if updated == nil {
		return nil, fmt.Errorf("card not found: %s", cardID)
	}

	if err := s.store.SaveBoard(ctx, board); err != nil {
		return nil, err
	}
	return updated, nil
}

// MoveCard moves a card between columns or reorders within one.
// Landing in Done stamps the completion time; leaving Done clears it.
func (s *Service) MoveCard(ctx context.Context, clientID string, req MoveCardRequest) error {
	board, err := s.store.GetBoard(ctx, clientID)
	if err != nil {
		return err
	}

	var card *Card
	for i, col := range board.Columns {
		if col.ID != req.FromColumn {
			continue
		}
		for j, c := range col.Cards {
			if c.ID == req.CardID {
				moved := c
				card = &moved
				board.Columns[i].Cards = append(col.Cards[:j], col.Cards[j+1:]...)
				break
			}
		}
		break
	}
	if card == nil {
		return fmt.Errorf("card not found: %s", req.CardID)
	}

	if req.ToColumn == ColumnDone && card.CompletedAt == nil {
		now := time.Now()
		card.CompletedAt = &now
	}
	if req.FromColumn == ColumnDone && req.ToColumn != ColumnDone {
		card.CompletedAt = nil
	}

	placed := false
	for i, col := range board.Columns {
		if col.ID != req.ToColumn {
			continue
		}
		if req.ToColumn != req.FromColumn && req.ToColumn != ColumnDone &&
			s.config.MaxCardsPerLane > 0 && len(col.Cards) >= s.config.MaxCardsPerLane {
			return fmt.Errorf("column %s is at its WIP limit (%d)", req.ToColumn, s.config.MaxCardsPerLane)
		}
		card.Order = req.NewOrder
		if req.NewOrder >= len(col.Cards) {
			board.Columns[i].Cards = append(col.Cards, *card)
		} else {
			cards := make([]Card, 0, len(col.Cards)+1)
			cards = append(cards, col.Cards[:req.NewOrder]...)
			cards = append(cards, *card)
			cards = append(cards, col.Cards[req.NewOrder:]...)
			board.Columns[i].Cards = cards
		}
		for j := range board.Columns[i].Cards {
			board.Columns[i].Cards[j].Order = j
		}
		placed = true
		break
	}
	if !placed {
		return fmt.Errorf("column not found: %s", req.ToColumn)
	}

	return s.store.SaveBoard(ctx, board)
}

// CompleteCard moves a card to Done from wherever it is.
func (s *Service) CompleteCard(ctx context.Context, clientID, cardID string) error {
	board, err := s.store.GetBoard(ctx, clientID)
	if err != nil {
		return err
	}

	var fromColumn string
	for _, col := range board.Columns {
		for _, c := range col.Cards {
			if c.ID == cardID {
				fromColumn = col.ID
				break
			}
		}
		if fromColumn != "" {
			break
		}
	}
	if fromColumn == "" {
		return fmt.Errorf("card not found: %s", cardID)
	}

	if fromColumn == ColumnDone {
		return nil
	}
	return s.MoveCard(ctx, clientID, MoveCardRequest{
		CardID:     cardID,
		FromColumn: fromColumn,
		ToColumn:   ColumnDone,
		NewOrder:   0,
	})
}

// DeleteCard removes a card from the board.
func (s *Service) DeleteCard(ctx context.Context, clientID, cardID string) error {
	board, err := s.store.GetBoard(ctx, clientID)
	if err != nil {
		return err
	}

	deleted := false
	for i, col := range board.Columns {
		for j, card := range col.Cards {
			if card.ID == cardID {
				board.Columns[i].Cards = append(col.Cards[:j], col.Cards[j+1:]...)
				deleted = true
				break
			}
		}
		if deleted {
			break
		}
	}
	if !deleted {
		return fmt.Errorf("card not found: %s", cardID)
	}

	return s.store.SaveBoard(ctx, board)
}

// GetDueTasks groups a client's unfinished cards by urgency.
func (s *Service) GetDueTasks(ctx context.Context, clientID string) (*DueTasksResponse, error) {
	board, err := s.store.GetBoard(ctx, clientID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	soon := now.Add(s.config.DueSoonThreshold)

	resp := &DueTasksResponse{
		Overdue:  []Card{},
		DueToday: []Card{},
		DueSoon:  []Card{},
	}

	for _, col := range board.Columns {
		if col.ID == ColumnDone {
			continue
		}
		for _, card := range col.Cards {
			if card.DueDate == nil {
				continue
			}
			due := *card.DueDate
			switch {
			case due.Before(now):
				resp.Overdue = append(resp.Overdue, card)
			case due.Before(endOfDay) || due.Equal(endOfDay):
				resp.DueToday = append(resp.DueToday, card)
			case due.Before(soon):
				resp.DueSoon = append(resp.DueSoon, card)
			}
		}
	}

	byDueDate := func(cards []Card) {
		sort.Slice(cards, func(i, j int) bool {
			return cards[i].DueDate.Before(*cards[j].DueDate)
		})
	}
	byDueDate(resp.Overdue)
	byDueDate(resp.DueToday)
	byDueDate(resp.DueSoon)

	return resp, nil
}

// VelocityStats reports completion velocity for the current month.
func (s *Service) VelocityStats(ctx context.Context, clientID string) (*VelocityReport, error) {
	board, err := s.store.GetBoard(ctx, clientID)
	if err != nil {
		return nil, err
	}

	month := time.Now().Format("2006-01")
	report := &VelocityReport{Month: month, GeneratedAt: time.Now()}

	totalHours := 0.0
	for _, col := range board.Columns {
		if col.ID != ColumnDone {
			continue
		}
		for _, card := range col.Cards {
			if card.CompletedAt == nil || card.CompletedAt.Format("2006-01") != month {
				continue
			}
			report.TotalCompleted++
			totalHours += card.CompletedAt.Sub(card.CreatedAt).Hours()
		}
	}
	if report.TotalCompleted > 0 {
		report.AvgCompletionTime = totalHours / float64(report.TotalCompleted)
	}
	return report, nil
}
