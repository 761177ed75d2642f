package services

import (
	"fmt"
	"log"
	"time"

	"concretera-backend/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ExpiryService notifies budget creators about pending budgets whose
// validity window is about to close.
type ExpiryService struct {
	db *gorm.DB
}

func NewExpiryService(db *gorm.DB) *ExpiryService {
	return &ExpiryService{db: db}
}

// StartScheduler runs the sweep every morning at 8.
func (s *ExpiryService) StartScheduler() {
	c := cron.New()

	c.AddFunc("0 8 * * *", func() {
		s.ProcessExpiring()
	})

	c.Start()
	log.Println("Budget expiry scheduler started")
}

// ProcessExpiring finds pending budgets expiring within three days and
// notifies their creators.
func (s *ExpiryService) ProcessExpiring() {
	now := time.Now()
	cutoff := now.AddDate(0, 0, 3)

	var budgets []models.Budget
	if err := s.db.Where("status = ? AND valid_until BETWEEN ? AND ?",
		models.BudgetPending, now, cutoff).Find(&budgets).Error; err != nil {
		log.Printf("Expiry sweep query failed: %v", err)
		return
	}

	for _, b := range budgets {
		budgetID := b.ID
		msg := fmt.Sprintf("El presupuesto %q vence el %s", b.Title, b.ValidUntil.Format("02/01/2006"))
		notification, err := Notify(s.db, b.CreatorID, "budget.expiring", msg, &budgetID)
		if err != nil {
			log.Printf("Failed to notify expiring budget %s: %v", b.ID, err)
			continue
		}
		Dispatch(s.db, notification)
	}

	if len(budgets) > 0 {
		log.Printf("Expiry sweep notified %d budgets", len(budgets))
	}
}
