package domain

import (
	"strconv"
	"time"
)

// VersionState is the lifecycle state of a Version.
type VersionState string

const (
	VersionPending    VersionState = "PENDING"
	VersionProcessing VersionState = "PROCESSING"
	VersionReady      VersionState = "READY"
)

// BumpType selects which component of the semantic tuple a version-create
// request increments; the aggregation-pipeline allocator receives it as a
// variable and applies it to its single counters document.
type BumpType int

const (
	BumpMajor BumpType = iota
	BumpMinor
	BumpRevision
)

// ParseBumpType validates the wire-level {0,1,2} enum from the create-version
// request.
func ParseBumpType(v int) (BumpType, bool) {
	switch BumpType(v) {
	case BumpMajor, BumpMinor, BumpRevision:
		return BumpType(v), true
	default:
		return 0, false
	}
}

// Version is a semantic (major, minor, revision) release of the update
// payload.
type Version struct {
	VersionID   ID           `bson:"_id"          json:"versionId"`
	Major       int          `bson:"major"         json:"major"`
	Minor       int          `bson:"minor"         json:"minor"`
	Revision    int          `bson:"revision"      json:"revision"`
	Description string       `bson:"description"   json:"description"`
	State       VersionState `bson:"state"         json:"state"`
	CreatedAt   time.Time    `bson:"created_at"    json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updated_at"    json:"updatedAt"`
}

// String renders the semantic tuple as "{major}.{minor}.{revision}".
func (v Version) String() string {
	return formatTuple(v.Major, v.Minor, v.Revision)
}

func formatTuple(major, minor, revision int) string {
	return strconv.Itoa(major) + "." + strconv.Itoa(minor) + "." + strconv.Itoa(revision)
}

// FormatVersionTuple renders a bare (major, minor, revision) tuple without a
// Version value, used for the empty-catalog resolver response.
func FormatVersionTuple(major, minor, revision int) string {
	return formatTuple(major, minor, revision)
}
