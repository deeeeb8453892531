package accounts

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/gntoka/gntoka/internal/model"
)

// Service provides in-memory lookup over linked accounts.
type Service struct {
	accounts []*model.Account
	byID     map[string]*model.Account
	byName   map[string]*model.Account
}

// NewService creates a Service from linked accounts.
func NewService(accounts []*model.Account) *Service {
	byID := make(map[string]*model.Account, len(accounts))
	byName := make(map[string]*model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
		byName[a.FullName] = a
	}
	return &Service{accounts: accounts, byID: byID, byName: byName}
}

// LoadLinks reads the account mapping CSV at path.
func LoadLinks(path string) ([]model.Link, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening account mapping: %w", err)
	}
	defer f.Close()

	links, err := ReadLinks(f)
	if err != nil {
		return nil, fmt.Errorf("reading account mapping %s: %w", path, err)
	}
	return links, nil
}

// LoadExportList reads the export account list at path.
func LoadExportList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export list: %w", err)
	}
	defer f.Close()

	return ReadExportList(f)
}

// All returns all accounts in ledger order.
func (s *Service) All() []*model.Account {
	return s.accounts
}

// Get returns an account by ledger id.
func (s *Service) Get(id string) (*model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// ByFullName returns an account by its derived full name.
func (s *Service) ByFullName(name string) (*model.Account, bool) {
	a, ok := s.byName[name]
	return a, ok
}

// Unlinked returns the accounts that have no mapping entry.
func (s *Service) Unlinked() []*model.Account {
	var result []*model.Account
	for _, a := range s.accounts {
		if !a.Linked {
			result = append(result, a)
		}
	}
	return result
}

// ExportSet returns the ids of linked accounts whose full name is listed.
// Listed names that match no linked account are returned as missing.
func (s *Service) ExportSet(names []string) (ids map[string]bool, missing []string) {
	ids = make(map[string]bool, len(names))
	for _, name := range names {
		a, ok := s.byName[name]
		if !ok || !a.Linked {
			missing = append(missing, name)
			continue
		}
		ids[a.ID] = true
	}
	return ids, missing
}

// Links returns the current link of every account, sorted by full name,
// in the shape of the mapping file.
func (s *Service) Links() []model.Link {
	links := make([]model.Link, 0, len(s.accounts))
	for _, a := range s.accounts {
		links = append(links, a.AsLink())
	}
	slices.SortFunc(links, func(a, b model.Link) int {
		return strings.Compare(a.Name, b.Name)
	})
	return links
}
