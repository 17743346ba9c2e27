package coa

import (
	"context"
	"errors"
)

// PostingChecker reports whether any journal line references an account.
// Accounts are never hard-deleted once used.
type PostingChecker interface {
	HasPostings(ctx context.Context, accountCode string) (bool, error)
}

// Service owns chart-of-accounts mutations.
type Service struct {
	repo     Repository
	postings PostingChecker
}

// NewService wires the chart service.
func NewService(repo Repository, postings PostingChecker) *Service {
	return &Service{repo: repo, postings: postings}
}

// SetPostingChecker attaches the journal after both services exist. The
// chart and the journal reference each other, so one side is wired late.
func (s *Service) SetPostingChecker(postings PostingChecker) {
	s.postings = postings
}

// Register validates and stores a new account.
func (s *Service) Register(ctx context.Context, input Account) (Account, error) {
	if !input.Type.Valid() {
		return Account{}, ErrInvalidNature
	}
	if _, err := s.repo.GetAccount(ctx, input.Code); err == nil {
		return Account{}, ErrDuplicateCode
	} else if !errors.Is(err, ErrUnknownAccount) {
		return Account{}, err
	}
	input.Level = 1
	if input.ParentCode != "" {
		parent, err := s.repo.GetAccount(ctx, input.ParentCode)
		if errors.Is(err, ErrUnknownAccount) {
			return Account{}, ErrInvalidParent
		}
		if err != nil {
			return Account{}, err
		}
		if parent.Type != input.Type {
			return Account{}, ErrInvalidParent
		}
		if len(parent.Code) >= len(input.Code) || input.Code[:len(parent.Code)] != parent.Code {
			return Account{}, ErrInvalidParent
		}
		input.Level = parent.Level + 1
	}
	if err := s.repo.SaveAccount(ctx, input); err != nil {
		return Account{}, err
	}
	return input, nil
}

// Resolve returns the account registered under code.
func (s *Service) Resolve(ctx context.Context, code string) (Account, error) {
	return s.repo.GetAccount(ctx, code)
}

// Children returns direct children of code, ordered by code.
func (s *Service) Children(ctx context.Context, code string) ([]Account, error) {
	if _, err := s.repo.GetAccount(ctx, code); err != nil {
		return nil, err
	}
	return s.repo.ListChildren(ctx, code)
}

// List returns the whole chart ordered by code.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}

// Tree loads the chart into an arena tree for rollups.
func (s *Service) Tree(ctx context.Context) (*Tree, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(accounts)
}

// Delete removes an unused leaf account.
func (s *Service) Delete(ctx context.Context, code string) error {
	if _, err := s.repo.GetAccount(ctx, code); err != nil {
		return err
	}
	children, err := s.repo.ListChildren(ctx, code)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return ErrHasChildren
	}
	if s.postings != nil {
		used, err := s.postings.HasPostings(ctx, code)
		if err != nil {
			return err
		}
		if used {
			return ErrHasPostings
		}
	}
	return s.repo.DeleteAccount(ctx, code)
}
