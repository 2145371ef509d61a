package models

import "time"

type CopyStatus string

const (
	CopyAvailable CopyStatus = "AVAILABLE"
	CopyBorrowed  CopyStatus = "BORROWED"
	CopyLost      CopyStatus = "LOST"

	CopyEntity = "copy"
)

// Copy is one physical, independently lendable instance of a Book.
type Copy struct {
	ID        string     `bson:"_id" json:"_id"`
	BookID    string     `bson:"bookId" json:"bookId"`
	CopyCode  string     `bson:"copyCode" json:"copyCode"`
	Status    CopyStatus `bson:"status" json:"status"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

var ValidCopyStatuses = map[string]bool{
	string(CopyAvailable): true,
	string(CopyBorrowed):  true,
	string(CopyLost):      true,
}

func IsValidCopyStatus(status string) bool {
	return ValidCopyStatuses[status]
}
