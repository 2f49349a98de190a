// Package mongo stores the statement projection, one document per affected account
// of every terminal transaction.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/shared"
	"github.com/finance-ledger/internal/domain/statement"
)

const (
	// StatementCollectionName is the name of the statement projection collection
	StatementCollectionName = "statement_entries"
)

// entryDocument is the stored shape of statement.Entry, with the amount as Decimal128
type entryDocument struct {
	TransactionID             string               `bson:"transaction_id"`
	AccountNumber             string               `bson:"account_number"`
	Type                      string               `bson:"type"`
	Direction                 string               `bson:"direction"`
	Amount                    primitive.Decimal128 `bson:"amount"`
	Status                    string               `bson:"status"`
	CounterpartyAccountNumber string               `bson:"counterparty_account_number,omitempty"`
	Description               string               `bson:"description,omitempty"`
	FailureReason             string               `bson:"failure_reason,omitempty"`
	CorrelationID             string               `bson:"correlation_id,omitempty"`
	CreatedAt                 time.Time            `bson:"created_at"`
	ProcessedAt               *time.Time           `bson:"processed_at,omitempty"`
	ProjectedAt               time.Time            `bson:"projected_at"`
}

// StatementRepository implements the statement.Repository interface for MongoDB
type StatementRepository struct {
	db     *mongo.Database
	logger *slog.Logger
	now    func() time.Time
}

var _ statement.Repository = (*StatementRepository)(nil)

// NewStatementRepository creates a new MongoDB statement repository
func NewStatementRepository(logger *slog.Logger, db *mongo.Database) *StatementRepository {
	return &StatementRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureIndexes creates the uniqueness and feed indexes. It is safe to call on every start.
func (r *StatementRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(StatementCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}, {Key: "account_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("transaction_account_unique"),
		},
		{
			Keys:    bson.D{{Key: "account_number", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("account_feed"),
		},
	})
	if err != nil {
		r.logger.Error("Failed to create statement indexes", "error", err)
		return fmt.Errorf("failed to create statement indexes: %w", err)
	}

	return nil
}

// Upsert writes entry keyed by (transaction id, account number). Replaying the same
// event rewrites the same document.
func (r *StatementRepository) Upsert(ctx context.Context, entry *statement.Entry) error {
	collection := r.db.Collection(StatementCollectionName)

	doc, err := r.toDocument(entry)
	if err != nil {
		return err
	}

	filter := bson.M{
		"transaction_id": entry.TransactionID,
		"account_number": entry.AccountNumber,
	}
	_, err = collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		// Two concurrent upserts of one event race on the unique index; the loser's
		// document is identical to the winner's
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Debug("Statement entry already projected",
				"transaction_id", entry.TransactionID,
				"account_number", entry.AccountNumber)
			return nil
		}
		r.logger.Error("Failed to upsert statement entry",
			"transaction_id", entry.TransactionID,
			"account_number", entry.AccountNumber,
			"error", err)
		return fmt.Errorf("failed to upsert statement entry: %w", err)
	}

	return nil
}

// GetByAccount retrieves paginated entries for an account, newest first
func (r *StatementRepository) GetByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]*statement.Entry, error) {
	collection := r.db.Collection(StatementCollectionName)

	filter := bson.M{"account_number": accountNumber}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "transaction_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get statement entries",
			"account_number", accountNumber,
			"error", err)
		return nil, fmt.Errorf("failed to get statement entries: %w", err)
	}
	defer cursor.Close(ctx)

	return r.decodeAll(ctx, cursor)
}

// CountByAccount counts the projected entries of an account
func (r *StatementRepository) CountByAccount(ctx context.Context, accountNumber string) (int64, error) {
	collection := r.db.Collection(StatementCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"account_number": accountNumber})
	if err != nil {
		r.logger.Error("Failed to count statement entries",
			"account_number", accountNumber,
			"error", err)
		return 0, fmt.Errorf("failed to count statement entries: %w", err)
	}

	return count, nil
}

// GetByTransactionID returns every entry projected for a transaction.
// Returns ErrEntryNotFound if the transaction has not been projected.
func (r *StatementRepository) GetByTransactionID(ctx context.Context, transactionID string) ([]*statement.Entry, error) {
	collection := r.db.Collection(StatementCollectionName)

	opts := options.Find().SetSort(bson.D{{Key: "direction", Value: -1}})
	cursor, err := collection.Find(ctx, bson.M{"transaction_id": transactionID}, opts)
	if err != nil {
		r.logger.Error("Failed to get statement entries by transaction",
			"transaction_id", transactionID,
			"error", err)
		return nil, fmt.Errorf("failed to get statement entries by transaction: %w", err)
	}
	defer cursor.Close(ctx)

	entries, err := r.decodeAll(ctx, cursor)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, statement.ErrEntryNotFound{TransactionID: transactionID}
	}

	return entries, nil
}

func (r *StatementRepository) decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]*statement.Entry, error) {
	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode statement entries", "error", err)
		return nil, fmt.Errorf("failed to decode statement entries: %w", err)
	}

	entries := make([]*statement.Entry, 0, len(docs))
	for i := range docs {
		entry, err := fromDocument(&docs[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *StatementRepository) toDocument(entry *statement.Entry) (*entryDocument, error) {
	amount, err := primitive.ParseDecimal128(entry.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("failed to encode amount for %s: %w", entry.TransactionID, err)
	}

	return &entryDocument{
		TransactionID:             entry.TransactionID,
		AccountNumber:             entry.AccountNumber,
		Type:                      entry.Type,
		Direction:                 string(entry.Direction),
		Amount:                    amount,
		Status:                    entry.Status,
		CounterpartyAccountNumber: entry.CounterpartyAccountNumber,
		Description:               entry.Description,
		FailureReason:             entry.FailureReason,
		CorrelationID:             entry.CorrelationID,
		CreatedAt:                 entry.CreatedAt,
		ProcessedAt:               entry.ProcessedAt,
		ProjectedAt:               r.now().UTC(),
	}, nil
}

func fromDocument(doc *entryDocument) (*statement.Entry, error) {
	amount, err := money.Parse(doc.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid amount for %s: %w", doc.TransactionID, err)
	}

	return &statement.Entry{
		TransactionID:             doc.TransactionID,
		AccountNumber:             doc.AccountNumber,
		Type:                      doc.Type,
		Direction:                 shared.EntryDirection(doc.Direction),
		Amount:                    amount,
		Status:                    doc.Status,
		CounterpartyAccountNumber: doc.CounterpartyAccountNumber,
		Description:               doc.Description,
		FailureReason:             doc.FailureReason,
		CorrelationID:             doc.CorrelationID,
		CreatedAt:                 doc.CreatedAt,
		ProcessedAt:               doc.ProcessedAt,
	}, nil
}
