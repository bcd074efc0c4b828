// Package expiry classifies credential expiry dates for display. It never
// mutates a driver and never blocks a transition.
package expiry

import (
	"time"
)

type Status string

const (
	StatusValid        Status = "valid"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
)

// Window is how far ahead a credential is flagged as expiring soon.
const Window = 30 * 24 * time.Hour

// Classify returns Expired if date is before now, ExpiringSoon if it falls
// strictly within the next Window, and Valid otherwise. An absent date is Valid.
func Classify(date *time.Time, now time.Time) Status {
	if date == nil {
		return StatusValid
	}
	d := date.Sub(now)
	switch {
	case d < 0:
		return StatusExpired
	case d > 0 && d < Window:
		return StatusExpiringSoon
	default:
		return StatusValid
	}
}

func (s Status) rank() int {
	switch s {
	case StatusExpired:
		return 2
	case StatusExpiringSoon:
		return 1
	default:
		return 0
	}
}

// Credential names a dated credential held on the driver record.
type Credential string

const (
	CredentialLicense         Credential = "license"
	CredentialPoliceClearance Credential = "police_clearance"
	CredentialMedical         Credential = "medical"
	CredentialSltdaLicense    Credential = "sltda_license"
)

// Credentials are the expiry dates recorded for one driver.
type Credentials struct {
	License         *time.Time
	PoliceClearance *time.Time
	Medical         *time.Time
	SltdaLicense    *time.Time
}

func (c Credentials) each(fn func(Credential, *time.Time)) {
	fn(CredentialLicense, c.License)
	fn(CredentialPoliceClearance, c.PoliceClearance)
	fn(CredentialMedical, c.Medical)
	fn(CredentialSltdaLicense, c.SltdaLicense)
}

// Flag is the classification of one credential.
type Flag struct {
	Credential Credential `json:"credential"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Status     Status     `json:"status"`
}

// Report is the per-driver set of flags.
type Report struct {
	Flags []Flag `json:"flags"`
	Worst Status `json:"worst"`
}

// Evaluate classifies every recorded credential. Credentials without a date are
// omitted from Flags.
func Evaluate(c Credentials, now time.Time) Report {
	r := Report{Worst: StatusValid}
	c.each(func(name Credential, date *time.Time) {
		if date == nil {
			return
		}
		st := Classify(date, now)
		r.Flags = append(r.Flags, Flag{Credential: name, ExpiresAt: date, Status: st})
		if st.rank() > r.Worst.rank() {
			r.Worst = st
		}
	})
	return r
}

// Expired lists the credentials that have expired.
func (r Report) Expired() []Credential {
	var out []Credential
	for _, f := range r.Flags {
		if f.Status == StatusExpired {
			out = append(out, f.Credential)
		}
	}
	return out
}

// ExpiredAmong reports the expired credentials that appear in mandatory.
func (r Report) ExpiredAmong(mandatory []Credential) []Credential {
	want := make(map[Credential]struct{}, len(mandatory))
	for _, m := range mandatory {
		want[m] = struct{}{}
	}
	var out []Credential
	for _, c := range r.Expired() {
		if _, ok := want[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
