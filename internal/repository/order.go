package repository

import (
	"context"
	"fmt"

	"catalog/storefront/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type OrderIntentRepository interface {
	// SaveOrderIntent is idempotent on intent.ID, queued intents may be delivered more than once.
	SaveOrderIntent(ctx context.Context, intent *domain.OrderIntent) error
}

type orderIntentRepository struct {
	db *pgxpool.Pool
}

func NewOrderIntentRepository(db *pgxpool.Pool) OrderIntentRepository {
	return &orderIntentRepository{
		db: db,
	}
}

func (r *orderIntentRepository) SaveOrderIntent(ctx context.Context, intent *domain.OrderIntent) error {
	query := `
	INSERT INTO order_intents (intent_id, product_id, product_name, session_id, checkout_url, created_at, data)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (intent_id)
	DO NOTHING`
	_, err := r.db.Exec(ctx, query,
		intent.ID,
		intent.ProductID,
		intent.ProductName,
		intent.SessionID,
		intent.CheckoutURL,
		intent.CreatedAt,
		intent,
	)
	if err != nil {
		return fmt.Errorf("failed to save order intent for product %d: %w", intent.ProductID, err)
	}

	return nil
}

type logOrderIntentRepository struct{}

// NewLogOrderIntentRepository only logs intents. Used when no database is configured.
func NewLogOrderIntentRepository() OrderIntentRepository {
	return logOrderIntentRepository{}
}

func (logOrderIntentRepository) SaveOrderIntent(_ context.Context, intent *domain.OrderIntent) error {
	log.WithFields(log.Fields{
		"intent_id":  intent.ID,
		"product_id": intent.ProductID,
		"session_id": intent.SessionID,
		"checkout":   intent.CheckoutURL,
	}).Info("🛒 Order intent recorded")
	return nil
}
