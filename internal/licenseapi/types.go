package licenseapi

import (
	"encoding/json"
	"time"
)

// Validation is the result of POST /v1/licenses/verify. Fields the API does
// not send stay zero.
type Validation struct {
	Valid       bool       `json:"valid"`
	Status      string     `json:"status,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Message     string     `json:"message,omitempty"`
	ID          string     `json:"id,omitempty"`
	LicenseID   string     `json:"licenseId,omitempty"`
	Plan        string     `json:"plan,omitempty"`
	IssuedTo    string     `json:"issuedTo,omitempty"`
	IssuedEmail string     `json:"issuedEmail,omitempty"`
	Email       string     `json:"email,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	Features    []string   `json:"features,omitempty"`
	Usage       *Usage     `json:"usage,omitempty"`
}

// Usage is the optional usage block of a validation.
type Usage struct {
	TotalValidations int64      `json:"totalValidations"`
	LastValidated    *time.Time `json:"lastValidated,omitempty"`
}

// LicenseRef returns the id to use for update/revoke calls, falling back to
// the key itself when the API did not return one.
func (v Validation) LicenseRef(key string) string {
	switch {
	case v.ID != "":
		return v.ID
	case v.LicenseID != "":
		return v.LicenseID
	default:
		return key
	}
}

// Expired reports whether the API rejected the key only because it expired.
func (v Validation) Expired() bool {
	return !v.Valid && (v.Reason == "License has expired" || v.Status == "EXPIRED" || v.Status == "expired")
}

// License is a license record as returned by create and list endpoints.
type License struct {
	ID          string     `json:"id"`
	Key         string     `json:"key,omitempty"`
	LicenseKey  string     `json:"licenseKey,omitempty"`
	Status      string     `json:"status,omitempty"`
	Plan        string     `json:"plan,omitempty"`
	IssuedTo    string     `json:"issuedTo,omitempty"`
	IssuedEmail string     `json:"issuedEmail,omitempty"`
	Email       string     `json:"email,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// KeyValue returns whichever of licenseKey/key the API populated.
func (l License) KeyValue() string {
	if l.LicenseKey != "" {
		return l.LicenseKey
	}
	return l.Key
}

// CreateRequest is the body of POST /v1/apps/{appId}/licenses.
type CreateRequest struct {
	Plan        string    `json:"plan"`
	IssuedTo    string    `json:"issuedTo,omitempty"`
	IssuedEmail string    `json:"issuedEmail,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Metadata    any       `json:"metadata,omitempty"`
}

// Patch is a partial license update. Only non-nil fields are sent. A patch
// that sets only Status goes to the dedicated status endpoint.
type Patch struct {
	Status      *string    `json:"status,omitempty"`
	Plan        *string    `json:"plan,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	IssuedTo    *string    `json:"issuedTo,omitempty"`
	IssuedEmail *string    `json:"issuedEmail,omitempty"`
}

func (p Patch) statusOnly() bool {
	return p.Status != nil && p.Plan == nil && p.ExpiresAt == nil && p.IssuedTo == nil && p.IssuedEmail == nil
}

// App is an application registered with the license service.
type App struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Stats is the body of GET /v1/licenses/stats.
type Stats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Expired int64 `json:"expired"`
	Revoked int64 `json:"revoked"`
}

// Analytics is the body of GET /v1/licenses/{id}/analytics.
type Analytics struct {
	Period           string     `json:"period"`
	TotalValidations int64      `json:"totalValidations"`
	UniqueDevices    int64      `json:"uniqueDevices"`
	LastValidated    *time.Time `json:"lastValidated,omitempty"`
}

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// decodeList accepts both {"<field>": [...]} and a bare JSON array.
func decodeList[T any](raw []byte, field string) ([]T, error) {
	var arr []T
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	inner, ok := obj[field]
	if !ok {
		return nil, nil
	}
	if err := json.Unmarshal(inner, &arr); err != nil {
		return nil, err
	}
	return arr, nil
}
