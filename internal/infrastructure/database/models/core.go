package models

import (
	"time"
)

// CommitLog records every accepted Set message.
type CommitLog struct {
	ID       string    `json:"id" gorm:"primaryKey;type:text"` // transaction hash
	Sender   string    `json:"sender" gorm:"type:text;index"`
	Document string    `json:"document" gorm:"type:text"`
	Memo     string    `json:"memo" gorm:"type:text"`
	CDate    time.Time `json:"cdate" gorm:"autoCreateTime"`
}

// Document is the current value under (owner, collection, document_id). Documents are
// write-once: a different value for an existing key is a conflict.
type Document struct {
	Owner       string    `json:"owner" gorm:"primaryKey;type:text"`
	Collection  string    `json:"collection" gorm:"primaryKey;type:text"`
	DocumentID  string    `json:"documentId" gorm:"primaryKey;type:text"`
	Data        string    `json:"data" gorm:"type:text"`
	Digest      string    `json:"digest" gorm:"type:text"`
	Sender      string    `json:"sender" gorm:"type:text"`
	CommitLogID string    `json:"commitLogId" gorm:"type:text;index"`
	CommitLog   CommitLog `json:"-" gorm:"foreignKey:CommitLogID;references:ID;constraint:OnDelete:CASCADE;"`
	CDate       time.Time `json:"cdate" gorm:"autoCreateTime"`
}
