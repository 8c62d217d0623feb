package repository

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/zeebo/xxh3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/internal/infrastructure/database/models"
)

type DocumentRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

// NewDocumentRepository wires the gorm store. mc may be nil to disable the read cache.
func NewDocumentRepository(db *gorm.DB, mc *memcache.Client) *DocumentRepository {
	return &DocumentRepository{db: db, mc: mc}
}

func digestOf(data string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(data))
}

func cacheKey(owner, collection, documentID string) string {
	return fmt.Sprintf("doc:%016x", xxh3.HashString(carelog.ComposeDocumentURI(owner, collection, documentID)))
}

func (r *DocumentRepository) Set(ctx context.Context, doc carelog.Document) (carelog.Receipt, error) {
	digest := digestOf(doc.Data)
	uri := carelog.ComposeDocumentURI(doc.Owner, doc.Collection, doc.ID)

	message, err := json.Marshal(carelog.SetDocument{
		Owner:      doc.Owner,
		Collection: doc.Collection,
		DocumentID: doc.ID,
		Data:       doc.Data,
	})
	if err != nil {
		return carelog.Receipt{}, err
	}
	txHash := hex.EncodeToString(carelog.GetHash([]byte(uri + "|" + digest + "|" + doc.Sender)))

	var stored models.Document
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		err := tx.Where("owner = ? AND collection = ? AND document_id = ?", doc.Owner, doc.Collection, doc.ID).
			Take(&stored).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		commitLog := models.CommitLog{
			ID:       txHash,
			Sender:   doc.Sender,
			Document: string(message),
			Memo:     doc.Memo,
		}
		if err := tx.Clauses(clause.OnConflict{
			DoNothing: true,
		}).Create(&commitLog).Error; err != nil {
			return err
		}

		stored = models.Document{
			Owner:       doc.Owner,
			Collection:  doc.Collection,
			DocumentID:  doc.ID,
			Data:        doc.Data,
			Digest:      digest,
			Sender:      doc.Sender,
			CommitLogID: commitLog.ID,
		}
		result := tx.Clauses(clause.OnConflict{
			DoNothing: true,
		}).Create(&stored)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// lost a race with a concurrent Set of the same key
			return tx.Where("owner = ? AND collection = ? AND document_id = ?", doc.Owner, doc.Collection, doc.ID).
				Take(&stored).Error
		}
		return nil
	})
	if err != nil {
		return carelog.Receipt{}, err
	}

	if stored.Digest != digest {
		return carelog.Receipt{}, domain.ConflictError{URI: uri}
	}

	return carelog.Receipt{
		TransactionHash: stored.CommitLogID,
		Owner:           stored.Owner,
		Collection:      stored.Collection,
		DocumentID:      stored.DocumentID,
		CommittedAt:     stored.CDate,
	}, nil
}

func (r *DocumentRepository) Get(ctx context.Context, owner, collection, documentID string) (carelog.Document, error) {
	key := cacheKey(owner, collection, documentID)
	if r.mc != nil {
		item, err := r.mc.Get(key)
		if err == nil {
			var doc carelog.Document
			if err := json.Unmarshal(item.Value, &doc); err == nil {
				return doc, nil
			}
		} else if !errors.Is(err, memcache.ErrCacheMiss) {
			slog.WarnContext(
				ctx, "memcache get failed",
				slog.String("module", "repository"),
				slog.String("error", err.Error()),
			)
		}
	}

	var stored models.Document
	err := r.db.WithContext(ctx).
		Where("owner = ? AND collection = ? AND document_id = ?", owner, collection, documentID).
		Take(&stored).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return carelog.Document{}, domain.NotFoundError{Resource: "document"}
		}
		return carelog.Document{}, err
	}

	doc := toDocument(stored)

	// documents never change once written, so a cached copy cannot go stale
	if r.mc != nil {
		if value, err := json.Marshal(doc); err == nil {
			r.mc.Set(&memcache.Item{Key: key, Value: value})
		}
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context, owner, collection string) ([]carelog.Document, error) {
	var stored []models.Document
	err := r.db.WithContext(ctx).
		Where("owner = ? AND collection = ?", owner, collection).
		Order("c_date asc").
		Find(&stored).Error
	if err != nil {
		return nil, err
	}

	docs := make([]carelog.Document, 0, len(stored))
	for _, s := range stored {
		docs = append(docs, toDocument(s))
	}
	return docs, nil
}

func toDocument(m models.Document) carelog.Document {
	return carelog.Document{
		ID:         m.DocumentID,
		Owner:      m.Owner,
		Collection: m.Collection,
		Data:       m.Data,
		Sender:     m.Sender,
		CreatedAt:  m.CDate,
	}
}
