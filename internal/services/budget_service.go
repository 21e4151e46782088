package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"conti/internal/core"
)

// ErrForbidden is returned when the acting member is not allowed to perform
// the operation, e.g. removing the budget owner or touching a budget they
// are not part of.
var ErrForbidden = errors.New("operation not allowed")

// BudgetSnapshot is a budget together with the resolved member snapshots,
// fetched in parallel and joined before anything else runs.
type BudgetSnapshot struct {
	Budget  core.Budget
	Members map[string]core.Member
}

// BudgetService manages budgets, the member registry and budget membership.
type BudgetService struct {
	budgets BudgetStore
	members MemberStore
}

func NewBudgetService(budgets BudgetStore, members MemberStore) *BudgetService {
	return &BudgetService{budgets: budgets, members: members}
}

// RegisterMember stores a snapshot of a user account under a fresh id.
func (s *BudgetService) RegisterMember(ctx context.Context, name, email string) (core.Member, error) {
	m := core.Member{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
	}
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	if err := s.members.CreateMember(ctx, m); err != nil {
		return core.Member{}, fmt.Errorf("register member: %w", err)
	}
	return m, nil
}

// CreateBudget creates a shared wallet. The owner is always included in the
// member list whether or not the caller passed them.
func (s *BudgetService) CreateBudget(ctx context.Context, name, currency, ownerID string, memberIDs []string) (core.Budget, error) {
	ids := make([]string, 0, len(memberIDs)+1)
	seen := map[string]bool{}
	for _, id := range append([]string{ownerID}, memberIDs...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	b := core.Budget{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Currency:  currency,
		OwnerID:   ownerID,
		MemberIDs: ids,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	for _, id := range ids {
		if _, err := s.members.GetMember(ctx, id); err != nil {
			return core.Budget{}, fmt.Errorf("resolve member %s: %w", id, err)
		}
	}

	if err := s.budgets.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

// GetSnapshot loads the budget and its member snapshots in parallel.
func (s *BudgetService) GetSnapshot(ctx context.Context, budgetID string) (BudgetSnapshot, error) {
	var snap BudgetSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.budgets.GetBudget(gctx, budgetID)
		if err != nil {
			return fmt.Errorf("get budget: %w", err)
		}
		snap.Budget = b
		return nil
	})
	g.Go(func() error {
		members, err := s.members.GetBudgetMembers(gctx, budgetID)
		if err != nil {
			return fmt.Errorf("get members: %w", err)
		}
		snap.Members = members
		return nil
	})
	if err := g.Wait(); err != nil {
		return BudgetSnapshot{}, err
	}
	return snap, nil
}

func (s *BudgetService) ListBudgets(ctx context.Context, memberID string) ([]core.Budget, error) {
	return s.budgets.ListBudgetsByMember(ctx, memberID)
}

// AddMember adds a registered member to the budget.
func (s *BudgetService) AddMember(ctx context.Context, budgetID, memberID string) error {
	if _, err := s.members.GetMember(ctx, memberID); err != nil {
		return fmt.Errorf("resolve member: %w", err)
	}
	if _, err := s.budgets.GetBudget(ctx, budgetID); err != nil {
		return fmt.Errorf("get budget: %w", err)
	}
	if err := s.budgets.AddBudgetMember(ctx, budgetID, memberID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	slog.InfoContext(ctx, "Member added to budget",
		"budget_id", budgetID,
		"member_id", memberID)
	return nil
}

// RemoveMember removes a member from the budget. The owner cannot leave.
func (s *BudgetService) RemoveMember(ctx context.Context, budgetID, memberID string) error {
	b, err := s.budgets.GetBudget(ctx, budgetID)
	if err != nil {
		return fmt.Errorf("get budget: %w", err)
	}
	if memberID == b.OwnerID {
		return fmt.Errorf("%w: owner cannot be removed", ErrForbidden)
	}
	if err := s.budgets.RemoveBudgetMember(ctx, budgetID, memberID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	slog.InfoContext(ctx, "Member removed from budget",
		"budget_id", budgetID,
		"member_id", memberID)
	return nil
}
