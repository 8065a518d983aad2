package entity

import (
	"time"

	"github.com/google/uuid"
)

// ClaimRequest asks for an exclusive hold on slot for a provider and an
// optional staff member.
type ClaimRequest struct {
	ProviderID uuid.UUID
	StaffID    *uuid.UUID
	Slot       TimeSlot
}

// Resource identifies what a claim or booking occupies. A nil staff member is
// the provider-wide resource.
func (r ClaimRequest) Resource() Resource {
	return NewResource(r.ProviderID, r.StaffID)
}

// Resource is a bookable calendar: a provider, or one of its staff members.
type Resource struct {
	ProviderID uuid.UUID
	StaffID    uuid.UUID // uuid.Nil for provider-wide bookings
}

func NewResource(providerID uuid.UUID, staffID *uuid.UUID) Resource {
	r := Resource{ProviderID: providerID}
	if staffID != nil {
		r.StaffID = *staffID
	}
	return r
}

// StaffPtr returns the staff member or nil for the provider-wide resource.
func (r Resource) StaffPtr() *uuid.UUID {
	if r.StaffID == uuid.Nil {
		return nil
	}
	id := r.StaffID
	return &id
}

// Claim is a short-lived exclusive reservation created by a
// ReservationCoordinator.
type Claim struct {
	ID        uuid.UUID
	Resource  Resource
	Slot      TimeSlot
	ExpiresAt time.Time
}

func (c Claim) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Covers reports whether the claim holds exactly slot on resource.
func (c Claim) Covers(resource Resource, slot TimeSlot) bool {
	return c.Resource == resource && c.Slot.Equal(slot)
}
