package entity

import "time"

// Firm representa una firma contable (tenant del portal).
type Firm struct {
	ID                int64
	Name              string
	Email             string
	UsageCurrentMonth int
	PlanLimit         int
	WhopPlanID        string // plan del proveedor de cobros; se traduce con domain/plan
	WhopMembershipID  string
	ManageURL         string
	IsActive          bool
	CreatedAt         time.Time
}
