package payroll

// =============================================================================
// ACCESS POLICY - Who may generate and edit payroll
// =============================================================================

// ActorRole is the caller's system role, distinct from the employee Role used
// for compensation.
type ActorRole string

const (
	ActorAdmin          ActorRole = "admin"
	ActorHRManager      ActorRole = "hr_manager"
	ActorPayrollOfficer ActorRole = "payroll_officer"
	ActorEmployee       ActorRole = "employee"
	ActorSystem         ActorRole = "system"
)

// Actor identifies who performs an operation.
type Actor struct {
	ID   string    `json:"id"`
	Role ActorRole `json:"role"`
}

type Operation string

const (
	OpGenerate Operation = "generate payroll"
	OpEdit     Operation = "edit payroll"
)

// DefaultRestrictedBatchLimit is the batch ceiling for restricted roles.
const DefaultRestrictedBatchLimit = 10

// AccessPolicy lists the roles permitted per operation and the batch ceiling
// of restricted roles. Roles absent from BatchLimits are unbounded.
type AccessPolicy struct {
	Generate    map[ActorRole]bool
	Edit        map[ActorRole]bool
	BatchLimits map[ActorRole]int
}

// DefaultAccessPolicy lets admins and HR managers generate without bound and
// payroll officers generate up to restrictedLimit employees per call.
func DefaultAccessPolicy(restrictedLimit int) AccessPolicy {
	if restrictedLimit <= 0 {
		restrictedLimit = DefaultRestrictedBatchLimit
	}
	return AccessPolicy{
		Generate: map[ActorRole]bool{
			ActorAdmin:          true,
			ActorHRManager:      true,
			ActorPayrollOfficer: true,
		},
		Edit: map[ActorRole]bool{
			ActorAdmin:     true,
			ActorHRManager: true,
		},
		BatchLimits: map[ActorRole]int{
			ActorPayrollOfficer: restrictedLimit,
		},
	}
}

func (p AccessPolicy) check(allowed map[ActorRole]bool, actor Actor, op Operation) error {
	if !allowed[actor.Role] {
		return &PermissionError{Role: actor.Role, Operation: op}
	}
	return nil
}

func (p AccessPolicy) CanGenerate(actor Actor) error { return p.check(p.Generate, actor, OpGenerate) }
func (p AccessPolicy) CanEdit(actor Actor) error     { return p.check(p.Edit, actor, OpEdit) }

// CheckBatchSize enforces the role's batch ceiling.
func (p AccessPolicy) CheckBatchSize(actor Actor, size int) error {
	limit, restricted := p.BatchLimits[actor.Role]
	if restricted && size > limit {
		return &BatchTooLargeError{Role: actor.Role, Size: size, Limit: limit}
	}
	return nil
}
