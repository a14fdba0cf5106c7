package users

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user row matches.
	ErrNotFound = errors.New("users: not found")

	// ErrDuplicateEmail is returned when the email unique constraint is violated.
	ErrDuplicateEmail = errors.New("users: email already registered")
)

// Profile holds the demographic and medical fields a patient can edit.
// Optional columns are nullable in storage and surface as nil.
type Profile struct {
	FullName              string  `json:"full_name"`
	Phone                 *string `json:"phone"`
	DateOfBirth           *string `json:"date_of_birth"`
	Address               *string `json:"address"`
	City                  *string `json:"city"`
	State                 *string `json:"state"`
	ZipCode               *string `json:"zip_code"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone"`

	Allergies     *string `json:"allergies"`
	Medications   *string `json:"medications"`
	Conditions    *string `json:"conditions"`
	Surgeries     *string `json:"surgeries"`
	FamilyHistory *string `json:"family_history"`
	BloodType     *string `json:"blood_type"`
	Height        *string `json:"height"`
	Weight        *string `json:"weight"`
}

// User is the credential + profile record.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Profile
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicProfile is a User without its password digest. It is the only shape
// that leaves the auth layer.
type PublicProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Profile
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public strips the digest.
func (u User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Email:     u.Email,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ProfilePatch is a partial profile update; nil fields are left untouched.
type ProfilePatch struct {
	FullName              *string `json:"full_name"`
	Phone                 *string `json:"phone"`
	DateOfBirth           *string `json:"date_of_birth" validate:"omitnil,datetime=2006-01-02"`
	Address               *string `json:"address"`
	City                  *string `json:"city"`
	State                 *string `json:"state"`
	ZipCode               *string `json:"zip_code"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone"`
	Allergies             *string `json:"allergies"`
	Medications           *string `json:"medications"`
	Conditions            *string `json:"conditions"`
	Surgeries             *string `json:"surgeries"`
	FamilyHistory         *string `json:"family_history"`
	BloodType             *string `json:"blood_type"`
	Height                *string `json:"height"`
	Weight                *string `json:"weight"`
}

// Apply merges the non-nil patch fields into p.
func (pp ProfilePatch) Apply(p *Profile) {
	if pp.FullName != nil {
		p.FullName = *pp.FullName
	}
	set := func(dst **string, src *string) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	set(&p.Phone, pp.Phone)
	set(&p.DateOfBirth, pp.DateOfBirth)
	set(&p.Address, pp.Address)
	set(&p.City, pp.City)
	set(&p.State, pp.State)
	set(&p.ZipCode, pp.ZipCode)
	set(&p.EmergencyContactName, pp.EmergencyContactName)
	set(&p.EmergencyContactPhone, pp.EmergencyContactPhone)
	set(&p.Allergies, pp.Allergies)
	set(&p.Medications, pp.Medications)
	set(&p.Conditions, pp.Conditions)
	set(&p.Surgeries, pp.Surgeries)
	set(&p.FamilyHistory, pp.FamilyHistory)
	set(&p.BloodType, pp.BloodType)
	set(&p.Height, pp.Height)
	set(&p.Weight, pp.Weight)
}
