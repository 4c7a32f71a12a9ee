package database

import (
	"fmt"

	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/utils"
	"gorm.io/gorm"
)

// Models lists every table owned by this service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Service{},
		&models.ServiceSubcategory{},
		&models.Worker{},
		&models.WorkerService{},
		&models.Booking{},
		&models.BookingStatusEvent{},
		&models.PaymentTransaction{},
		&models.Review{},
	}
}

// Migrate creates or updates the schema, then installs the database-side
// guards for the current dialect.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Worker{}, "Services", &models.WorkerService{}); err != nil {
		return fmt.Errorf("setup service_workers join table: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	return ExecuteTriggers(db)
}

// freezePricingTrigger rejects updates that touch a booking's frozen terms.
const freezePricingTrigger = `
CREATE TRIGGER bookings_freeze_pricing
BEFORE UPDATE ON bookings
FOR EACH ROW
BEGIN
	IF NEW.quantity <> OLD.quantity
		OR NEW.unit_price <> OLD.unit_price
		OR NEW.subtotal_amount <> OLD.subtotal_amount
		OR NEW.shift_type <> OLD.shift_type
		OR NEW.shift_charge_percent <> OLD.shift_charge_percent
		OR NEW.total_amount <> OLD.total_amount
		OR NEW.customer_id <> OLD.customer_id
		OR NEW.service_id <> OLD.service_id
		OR NEW.service_subcategory_id <> OLD.service_subcategory_id THEN
		SIGNAL SQLSTATE '45000' SET MESSAGE_TEXT = 'booking pricing is immutable';
	END IF;
END`

const freezePricingTriggerSQLite = `
CREATE TRIGGER IF NOT EXISTS bookings_freeze_pricing
BEFORE UPDATE ON bookings
FOR EACH ROW
WHEN NEW.quantity <> OLD.quantity
	OR NEW.unit_price <> OLD.unit_price
	OR NEW.subtotal_amount <> OLD.subtotal_amount
	OR NEW.shift_type <> OLD.shift_type
	OR NEW.shift_charge_percent <> OLD.shift_charge_percent
	OR NEW.total_amount <> OLD.total_amount
	OR NEW.customer_id <> OLD.customer_id
	OR NEW.service_id <> OLD.service_id
	OR NEW.service_subcategory_id <> OLD.service_subcategory_id
BEGIN
	SELECT RAISE(ABORT, 'booking pricing is immutable');
END`

// ExecuteTriggers installs the pricing guard. MySQL has no CREATE TRIGGER
// IF NOT EXISTS before 8.0.29, so the trigger is dropped and recreated.
func ExecuteTriggers(db *gorm.DB) error {
	var statements []string
	switch db.Dialector.Name() {
	case "mysql":
		statements = []string{"DROP TRIGGER IF EXISTS bookings_freeze_pricing", freezePricingTrigger}
	case "sqlite":
		statements = []string{freezePricingTriggerSQLite}
	default:
		utils.InfoLogger.Printf("No triggers for dialect %s", db.Dialector.Name())
		return nil
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install trigger: %w", err)
		}
	}
	utils.InfoLogger.Printf("Trigger verified: bookings_freeze_pricing (%s)", db.Dialector.Name())
	return nil
}
