// Package memory provides an in-memory crm.Store used by tests and local
// development.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/driftlabs/cascade/pkg/crm"
	"github.com/google/uuid"
)

// Store keeps contacts and deals in maps guarded by a mutex.
type Store struct {
	mu       sync.RWMutex
	contacts map[string]*crm.Contact
	deals    map[string]*crm.Deal
	stages   map[string]string
}

func NewStore() *Store {
	return &Store{
		contacts: make(map[string]*crm.Contact),
		deals:    make(map[string]*crm.Deal),
		stages:   make(map[string]string),
	}
}

// SeedContact inserts a contact, assigning an id when absent.
func (s *Store) SeedContact(contact *crm.Contact) *crm.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}

	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now().UTC()
	}

	s.contacts[contact.ID] = contact

	return contact
}

// SetFirstPipelineStage configures the stage returned for a company.
func (s *Store) SetFirstPipelineStage(companyID, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stages[companyID] = stage
}

func (s *Store) ContactByID(_ context.Context, companyID, contactID string) (*crm.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contact, ok := s.contacts[contactID]
	if !ok || contact.CompanyID != companyID {
		return nil, crm.ErrContactNotFound
	}

	clone := *contact
	clone.Tags = slices.Clone(contact.Tags)

	return &clone, nil
}

func (s *Store) AddContactTags(_ context.Context, companyID, contactID string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[contactID]
	if !ok || contact.CompanyID != companyID {
		return crm.ErrContactNotFound
	}

	for _, tag := range tags {
		if !slices.Contains(contact.Tags, tag) {
			contact.Tags = append(contact.Tags, tag)
		}
	}

	return nil
}

func (s *Store) CreateDeal(_ context.Context, deal *crm.Deal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[deal.ContactID]
	if !ok || contact.CompanyID != deal.CompanyID {
		return "", crm.ErrContactNotFound
	}

	stored := *deal
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	stored.CreatedAt = time.Now().UTC()
	s.deals[stored.ID] = &stored

	return stored.ID, nil
}

func (s *Store) FirstPipelineStage(_ context.Context, companyID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if stage, ok := s.stages[companyID]; ok {
		return stage, nil
	}

	return crm.DefaultDealStage, nil
}

// DealByID returns a stored deal, for test assertions.
func (s *Store) DealByID(dealID string) (*crm.Deal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deal, ok := s.deals[dealID]
	if !ok {
		return nil, false
	}

	clone := *deal

	return &clone, true
}
