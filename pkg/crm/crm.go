// Package crm abstracts the tenant data store the engine's actions mutate:
// contacts, deals and pipeline stages, always scoped to a company.
package crm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrContactNotFound indicates the contact does not exist for the company.
	ErrContactNotFound = errors.New("contact not found")

	// ErrDealNotFound indicates the deal does not exist for the company.
	ErrDealNotFound = errors.New("deal not found")
)

// DefaultDealStage is used when a company has no pipeline configured.
const DefaultDealStage = "lead"

// Contact is a tenant contact record. Tags behave as a set.
type Contact struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Deal is a sales opportunity attached to a contact.
type Deal struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	ContactID string    `json:"contact_id"`
	Title     string    `json:"title"`
	Stage     string    `json:"stage"`
	Value     float64   `json:"value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the company-scoped data access the action handlers rely on. All
// mutations are single-record operations; the engine holds no locks above
// the store.
type Store interface {
	// ContactByID returns ErrContactNotFound when the contact does not
	// exist under the company.
	ContactByID(ctx context.Context, companyID, contactID string) (*Contact, error)

	// AddContactTags appends tags to the contact's tag set. Adding a tag
	// that is already present is a no-op, not an error.
	AddContactTags(ctx context.Context, companyID, contactID string, tags []string) error

	// CreateDeal persists a new deal and returns its id. The deal's
	// CompanyID and ContactID must already be set; the referenced contact
	// must exist.
	CreateDeal(ctx context.Context, deal *Deal) (string, error)

	// FirstPipelineStage returns the first stage of the company's pipeline,
	// or DefaultDealStage when none is configured.
	FirstPipelineStage(ctx context.Context, companyID string) (string, error)
}
