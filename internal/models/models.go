package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           int64
	PublicID     uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	ID        int64
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Human struct {
	ID        int64
	PublicID  uuid.UUID
	DisplayID string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Owner types for directory entries. Only human-owned entries participate
// in contact resolution; account-owned entries exist for other CRM surfaces.
const (
	OwnerTypeHuman   = "human"
	OwnerTypeAccount = "account"
)

// EmailAddress is a primary-store directory entry mapping an email to its owner.
type EmailAddress struct {
	ID        int64
	OwnerType string
	OwnerID   int64
	Email     string
	CreatedAt time.Time
}

// PhoneNumber is a primary-store directory entry mapping a phone to its owner.
type PhoneNumber struct {
	ID        int64
	OwnerType string
	OwnerID   int64
	Phone     string
	CreatedAt time.Time
}

// RouteSignup is a secondary-store lead record: someone asked to be told
// when a route opens, identified only by email.
type RouteSignup struct {
	ID        int64
	PublicID  uuid.UUID
	Email     string
	RouteCode string
	CreatedAt time.Time
}

// BookingRequest is a secondary-store record submitted through the public
// website booking form. Contact details are free-form and unverified.
type BookingRequest struct {
	ID            int64
	PublicID      uuid.UUID
	ClientEmail   string
	NotifyEmail   string
	Phone         string
	WhatsAppPhone string
	CreatedAt     time.Time
}

// Activity types. The Front sync only ever produces the first three;
// online_meeting and phone_call are created by other parts of the CRM.
const (
	ActivityTypeEmail         = "email"
	ActivityTypeWhatsApp      = "whatsapp_message"
	ActivityTypeSocial        = "social_message"
	ActivityTypeOnlineMeeting = "online_meeting"
	ActivityTypePhoneCall     = "phone_call"
)

// Activity is a normalized record of one interaction with a contact.
// At most one of HumanID, RouteSignupID, BookingRequestID is set.
type Activity struct {
	ID                  int64
	PublicID            uuid.UUID
	DisplayID           string
	Type                string
	Subject             string
	Body                string
	Notes               string
	OccurredAt          time.Time
	HumanID             *int64
	RouteSignupID       *int64
	BookingRequestID    *int64
	FrontID             string
	FrontConversationID string
	CreatedByUserID     int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type ActivityCreateParams struct {
	DisplayID           string
	Type                string
	Subject             string
	Body                string
	Notes               string
	OccurredAt          time.Time
	HumanID             *int64
	RouteSignupID       *int64
	BookingRequestID    *int64
	FrontID             string
	FrontConversationID string
	CreatedByUserID     int64
}
