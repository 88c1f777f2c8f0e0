package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

const collectionExpenses = "expenses"

type ExpenseRepository struct {
	col *mongo.Collection
}

func NewExpenseRepository(db *mongo.Database) *ExpenseRepository {
	return &ExpenseRepository{col: db.Collection(collectionExpenses)}
}

// expenseDoc stores dates as midnight UTC and amounts as Decimal128.
type expenseDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	UserID      string               `bson:"user_id"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Date        time.Time            `bson:"date"`
	Description string               `bson:"description"`
	Category    string               `bson:"category"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func newExpenseDoc(e *domain.Expense) (expenseDoc, error) {
	amount, err := toDecimal128(e.Amount)
	if err != nil {
		return expenseDoc{}, err
	}
	return expenseDoc{
		UserID:      e.UserID,
		Amount:      amount,
		Date:        domain.DateOf(e.Date),
		Description: e.Description,
		Category:    string(e.Category),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}, nil
}

func (d expenseDoc) toDomain() (*domain.Expense, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	return &domain.Expense{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Amount:      amount,
		Date:        domain.DateOf(d.Date.UTC()),
		Description: d.Description,
		Category:    domain.Category(d.Category),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

func (r *ExpenseRepository) Create(ctx context.Context, e *domain.Expense) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := newExpenseDoc(e)
	if err != nil {
		return err
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert expense: unexpected id type %T", res.InsertedID)
	}
	e.ID = oid.Hex()
	return nil
}

// FindByID treats a malformed id like a missing one.
func (r *ExpenseRepository) FindByID(ctx context.Context, ownerID, id string) (*domain.Expense, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrExpenseNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc expenseDoc
	err = r.col.FindOne(ctx, bson.M{"_id": oid, "user_id": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return doc.toDomain()
}

func (r *ExpenseRepository) List(ctx context.Context, ownerID string, f domain.ExpenseFilter) ([]*domain.Expense, error) {
	q, err := buildFilter(ownerID, f)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, q, options.Find().SetSort(buildSort(f.Ordering)))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer cur.Close(ctx)

	var docs []expenseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}

	out := make([]*domain.Expense, 0, len(docs))
	for _, d := range docs {
		e, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Update matches on both id and owner, so a foreign expense is never touched.
func (r *ExpenseRepository) Update(ctx context.Context, e *domain.Expense) error {
	oid, err := primitive.ObjectIDFromHex(e.ID)
	if err != nil {
		return domain.ErrExpenseNotFound
	}
	doc, err := newExpenseDoc(e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "user_id": e.UserID},
		bson.M{"$set": bson.M{
			"amount":      doc.Amount,
			"date":        doc.Date,
			"description": doc.Description,
			"category":    doc.Category,
			"updated_at":  doc.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, ownerID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrExpenseNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "user_id": ownerID})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

type categoryGroup struct {
	Category string               `bson:"_id"`
	Count    int64                `bson:"count"`
	Total    primitive.Decimal128 `bson:"total"`
}

// Summarize groups the matching expenses by category on the server.
func (r *ExpenseRepository) Summarize(ctx context.Context, ownerID string, f domain.ExpenseFilter) (*domain.ExpenseSummary, error) {
	q, err := buildFilter(ownerID, f)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: q}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	defer cur.Close(ctx)

	var groups []categoryGroup
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}

	sum := &domain.ExpenseSummary{Total: decimal.Zero}
	for _, g := range groups {
		total, err := fromDecimal128(g.Total)
		if err != nil {
			return nil, err
		}
		sum.Count += g.Count
		sum.Total = sum.Total.Add(total)
		sum.ByCategory = append(sum.ByCategory, domain.CategoryTotal{
			Category: domain.Category(g.Category),
			Count:    g.Count,
			Total:    total,
		})
	}
	sort.Slice(sum.ByCategory, func(i, j int) bool {
		return sum.ByCategory[i].Category < sum.ByCategory[j].Category
	})
	return sum, nil
}

// EnsureIndexes creates the owner-prefixed indexes used by listing.
func (r *ExpenseRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "amount", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
