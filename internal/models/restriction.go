package models

import "time"

// PermanentExpiry is the expires_at sentinel for restrictions that never expire.
const PermanentExpiry int64 = -1

// Restriction stores one time-bounded denial (ban or communication block)
// keyed by a canonical identifier. The store keeps full history including
// lifted and expired rows; only active rows live in the in-memory cache.
type Restriction struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Identifier  string `gorm:"index;size:48;not null" json:"identifier"`
	SubjectName string `gorm:"size:64" json:"subject_name"`
	IssuedBy    string `gorm:"index;size:32" json:"issued_by"`
	IssuedAt    int64  `gorm:"not null" json:"issued_at"`
	ExpiresAt   int64  `gorm:"not null" json:"expires_at"`
	Reviewed    bool   `gorm:"default:false" json:"reviewed"`
	Reason      string `gorm:"type:text" json:"reason"`
	Notes       string `gorm:"type:text" json:"notes"`
	Lifted      bool   `gorm:"default:false" json:"lifted"`
	LiftedBy    string `gorm:"size:32;default:''" json:"lifted_by"`
}

// NewRestriction builds an unreviewed restriction starting now. Negative
// durations produce a permanent restriction.
func NewRestriction(identifier, subjectName, issuedBy string, duration int64, now time.Time) *Restriction {
	return &Restriction{
		Identifier:  identifier,
		SubjectName: subjectName,
		IssuedBy:    issuedBy,
		IssuedAt:    now.Unix(),
		ExpiresAt:   ExpiryFromDuration(duration, now),
		Reviewed:    false,
		Reason:      "",
		Notes:       "",
		Lifted:      false,
		LiftedBy:    "",
	}
}

// ExpiryFromDuration converts a duration in seconds to an absolute expiry
// timestamp, mapping any negative duration to the permanent sentinel.
func ExpiryFromDuration(duration int64, now time.Time) int64 {
	if duration < 0 {
		return PermanentExpiry
	}
	return now.Unix() + duration
}

// ExpiredAt reports whether the restriction has run out as of the given
// time. Permanent restrictions never expire. Both the cache's lazy
// eviction and the query engine's expired filter use this predicate.
func (r *Restriction) ExpiredAt(now time.Time) bool {
	return r.ExpiresAt >= 0 && r.ExpiresAt < now.Unix()
}

// ActiveAt reports whether the restriction still applies: not lifted and
// not expired.
func (r *Restriction) ActiveAt(now time.Time) bool {
	return !r.Lifted && !r.ExpiredAt(now)
}

// Erroneous reports whether the record qualifies for hard removal:
// never reviewed, never lifted, and already expired.
func (r *Restriction) Erroneous(now time.Time) bool {
	return !r.Reviewed && !r.Lifted && r.ExpiredAt(now)
}

// Clone returns a copy so cache readers never share memory with writers.
func (r *Restriction) Clone() *Restriction {
	c := *r
	return &c
}
