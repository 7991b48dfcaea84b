package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

// DispatchLogDocument は 1 回の送信結果一覧を MongoDB 上で表現したもの。
type DispatchLogDocument struct {
	ID           primitive.ObjectID       `bson:"_id,omitempty"`
	SubmissionID string                   `bson:"submissionId"`
	Role         string                   `bson:"role"`
	Delivered    bool                     `bson:"delivered"`
	Results      []DispatchResultDocument `bson:"results"`
	CreatedAt    time.Time                `bson:"createdAt"`
}

// DispatchResultDocument はチャネル 1 件分の送信結果。
type DispatchResultDocument struct {
	Service string `bson:"service"`
	Success bool   `bson:"success"`
	Result  string `bson:"result,omitempty"`
	Error   string `bson:"error,omitempty"`
}

func newDispatchLogDocument(entry domain.DispatchLogEntry) DispatchLogDocument {
	results := make([]DispatchResultDocument, 0, len(entry.Results))
	for _, r := range entry.Results {
		results = append(results, DispatchResultDocument{
			Service: r.Service,
			Success: r.Success,
			Result:  string(r.Result),
			Error:   r.Error,
		})
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return DispatchLogDocument{
		SubmissionID: entry.SubmissionID,
		Role:         entry.Role.String(),
		Delivered:    entry.Delivered(),
		Results:      results,
		CreatedAt:    createdAt.UTC(),
	}
}

func mapDispatchLogDocument(doc DispatchLogDocument) domain.DispatchLogEntry {
	results := make([]domain.DispatchResult, 0, len(doc.Results))
	for _, r := range doc.Results {
		result := domain.DispatchResult{
			Service: r.Service,
			Success: r.Success,
			Error:   r.Error,
		}
		if r.Result != "" {
			result.Result = []byte(r.Result)
		}
		results = append(results, result)
	}
	return domain.DispatchLogEntry{
		SubmissionID: doc.SubmissionID,
		Role:         domain.Role(doc.Role),
		Results:      results,
		CreatedAt:    doc.CreatedAt.UTC(),
	}
}
