package functions

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/models"
)

// SeedStatus is the outcome for one demo account.
type SeedStatus string

const (
	SeedCreated       SeedStatus = "created"
	SeedAlreadyExists SeedStatus = "already_exists"
	SeedFailed        SeedStatus = "error"
)

// TestAccount is one fixed demo login.
type TestAccount struct {
	Email    string      `json:"email"`
	Password string      `json:"-"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

// TestAccounts are the demo logins, one per role.
var TestAccounts = []TestAccount{
	{Email: "manager@fleetdash.test", Password: "Manager#2024", FullName: "Morgan Fleet", Role: models.RoleFleetManager},
	{Email: "operations@fleetdash.test", Password: "Operations#2024", FullName: "Oli Dispatch", Role: models.RoleOperations},
	{Email: "driver@fleetdash.test", Password: "Driver#2024", FullName: "Dana Road", Role: models.RoleDriver},
	{Email: "finance@fleetdash.test", Password: "Finance#2024", FullName: "Frankie Ledger", Role: models.RoleFinance},
}

// SeedResult reports what happened to one account.
type SeedResult struct {
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	Status SeedStatus  `json:"status"`
	Error  string      `json:"error,omitempty"`
}

// SeedTestAccounts creates every demo account that does not exist yet. It is
// idempotent: running it again reports already_exists for each account.
func (s *Service) SeedTestAccounts(ctx context.Context) []SeedResult {
	results := make([]SeedResult, 0, len(TestAccounts))
	for _, acct := range TestAccounts {
		res := SeedResult{Email: acct.Email, Role: acct.Role}
		err := s.seedOne(ctx, acct)
		switch {
		case err == nil:
			res.Status = SeedCreated
		case errors.Is(err, ErrEmailTaken):
			res.Status = SeedAlreadyExists
		default:
			res.Status = SeedFailed
			res.Error = err.Error()
			log.WithError(err).WithField("email", acct.Email).Error("Failed to seed test account")
		}
		results = append(results, res)
	}
	return results
}

func (s *Service) seedOne(ctx context.Context, acct TestAccount) error {
	user, err := s.createAccount(ctx, acct.Email, acct.Password, acct.FullName, "", acct.Role, false)
	if err != nil {
		return err
	}
	if acct.Role != models.RoleDriver {
		return nil
	}
	driver := &models.Driver{
		ProfileID:        &user.ID,
		LicenseNumber:    "DEMO-0001",
		PerformanceScore: models.DefaultPerformanceScore,
	}
	if err := s.drivers.InsertDriver(ctx, driver); err != nil && !errors.Is(err, db.ErrDuplicate) {
		s.rollback(ctx, user.ID)
		return err
	}
	return nil
}
