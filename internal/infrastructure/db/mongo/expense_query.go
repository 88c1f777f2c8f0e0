package mongo

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

var sortFields = map[domain.SortField]string{
	domain.SortByDate:      "date",
	domain.SortByAmount:    "amount",
	domain.SortByCreatedAt: "created_at",
}

// buildFilter translates f into a query document. The owner predicate is
// always present.
func buildFilter(ownerID string, f domain.ExpenseFilter) (bson.M, error) {
	q := bson.M{"user_id": ownerID}

	if f.DateFrom != nil || f.DateTo != nil {
		dr := bson.M{}
		if f.DateFrom != nil {
			dr["$gte"] = *f.DateFrom
		}
		if f.DateTo != nil {
			dr["$lte"] = *f.DateTo
		}
		q["date"] = dr
	}

	if f.Category != "" {
		q["category"] = string(f.Category)
	}

	if f.MinAmount != nil || f.MaxAmount != nil {
		ar := bson.M{}
		if f.MinAmount != nil {
			v, err := toDecimal128(*f.MinAmount)
			if err != nil {
				return nil, err
			}
			ar["$gte"] = v
		}
		if f.MaxAmount != nil {
			v, err := toDecimal128(*f.MaxAmount)
			if err != nil {
				return nil, err
			}
			ar["$lte"] = v
		}
		q["amount"] = ar
	}

	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"description": pattern},
			bson.M{"category": pattern},
		}
	}

	return q, nil
}

// buildSort orders by the requested field, then by _id descending.
func buildSort(o domain.Ordering) bson.D {
	field, ok := sortFields[o.Field]
	if !ok {
		o = domain.DefaultOrdering
		field = sortFields[o.Field]
	}
	dir := 1
	if o.Desc {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: -1}}
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("amount %s: %w", v, err)
	}
	return d, nil
}
