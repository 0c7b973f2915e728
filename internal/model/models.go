package model

import "time"

// -------------------- ENUMS --------------------

// Role is the account role requested during an OTP challenge and fixed on the
// user at creation.
type Role string

const (
	RoleCandidate Role = "CANDIDATE"
	RoleEmployer  Role = "EMPLOYER"
)

func (r Role) Valid() bool {
	return r == RoleCandidate || r == RoleEmployer
}

// Intent is the purpose of an OTP challenge.
type Intent string

const (
	IntentRegister Intent = "REGISTER"
	IntentLogin    Intent = "LOGIN"
)

func (i Intent) Valid() bool {
	return i == IntentRegister || i == IntentLogin
}

// Channel is the delivery channel for a passcode. Stored on the OTP record for
// traceability; the dispatcher uses it to pick email vs SMS.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelPhone Channel = "PHONE"
)

func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelPhone
}

// Provider records where an account came from.
type Provider string

const (
	ProviderLocal    Provider = "LOCAL"
	ProviderGoogle   Provider = "GOOGLE"
	ProviderFacebook Provider = "FACEBOOK"
)

// LanguageLevel follows the CEFR scale plus NATIVE.
type LanguageLevel string

const (
	LevelA1     LanguageLevel = "A1"
	LevelA2     LanguageLevel = "A2"
	LevelB1     LanguageLevel = "B1"
	LevelB2     LanguageLevel = "B2"
	LevelC1     LanguageLevel = "C1"
	LevelC2     LanguageLevel = "C2"
	LevelNative LanguageLevel = "NATIVE"
)

// NormalizeLanguageLevel maps loose client input to the closed enum.
// NATIVE_SPEAKER is accepted as an alias for NATIVE.
func NormalizeLanguageLevel(raw string) (LanguageLevel, bool) {
	switch LanguageLevel(raw) {
	case LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2, LevelNative:
		return LanguageLevel(raw), true
	}
	if raw == "NATIVE_SPEAKER" {
		return LevelNative, true
	}
	return "", false
}

// -------------------- OTP MODEL --------------------

// OTP is one outstanding or historical passcode challenge. Only the salted
// digest of the code is ever stored.
type OTP struct {
	ID         string    `json:"otp_id" db:"id"`
	Identifier string    `json:"identifier" db:"identifier"` // normalized email or phone
	Role       Role      `json:"role" db:"role"`
	Intent     Intent    `json:"intent" db:"intent"`
	Channel    Channel   `json:"channel" db:"channel"`
	CodeHash   string    `json:"-" db:"code_hash"`
	CodeSalt   string    `json:"-" db:"code_salt"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the record is past its TTL at the given instant.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// -------------------- USER MODEL --------------------

// User is an authenticated account. Exactly one of Email/Phone is set,
// matching the identifier form used at registration.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     *string   `json:"email" db:"email"`
	Phone     *string   `json:"phone" db:"phone"`
	Name      *string   `json:"name,omitempty" db:"name"`
	Role      Role      `json:"role" db:"role"`
	Provider  Provider  `json:"provider" db:"provider"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// -------------------- PROFILE MODELS --------------------

type CandidateProfile struct {
	ID              string              `json:"id" db:"id"`
	UserID          string              `json:"user_id" db:"user_id"`
	FullName        string              `json:"full_name" db:"full_name"`
	Age             *int                `json:"age" db:"age"`
	City            *string             `json:"city" db:"city"`
	Country         *string             `json:"country" db:"country"`
	Experience      *string             `json:"experience" db:"experience"`
	Skills          []string            `json:"skills" db:"skills"`
	Education       *string             `json:"education" db:"education"`
	DesiredRole     *string             `json:"desired_role" db:"desired_role"`
	Salary          *int                `json:"salary" db:"salary"`
	Timezones       []string            `json:"timezones" db:"timezones"`
	PhotoURL        *string             `json:"photo_url" db:"photo_url"`
	ResumeURL       *string             `json:"resume_url" db:"resume_url"`
	CertificateURLs []string            `json:"certificate_urls" db:"certificate_urls"`
	VideoURL        *string             `json:"video_url" db:"video_url"`
	Languages       []CandidateLanguage `json:"languages" db:"-"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
}

type CandidateLanguage struct {
	ID          string        `json:"id" db:"id"`
	CandidateID string        `json:"candidate_id" db:"candidate_id"`
	Language    string        `json:"language" db:"language"`
	Level       LanguageLevel `json:"level" db:"level"`
}

type EmployerProfile struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	CompanyName string    `json:"company_name" db:"company_name"`
	Industry    *string   `json:"industry" db:"industry"`
	ContactName *string   `json:"contact_name" db:"contact_name"`
	Phone       *string   `json:"phone" db:"phone"`
	Email       *string   `json:"email" db:"email"`
	Description *string   `json:"description" db:"description"`
	LegalInfo   *string   `json:"legal_info" db:"legal_info"`
	LogoURL     *string   `json:"logo_url" db:"logo_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
