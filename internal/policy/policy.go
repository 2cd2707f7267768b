// Package policy decides whether an actor may perform an action on a resource.
// Every ownership and role rule of the API lives here.
package policy

import (
	"fmt"

	"github.com/google/uuid"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
)

// Action is a verb applied to a resource kind.
type Action string

const (
	JobUpdate           Action = "job:update"
	JobDelete           Action = "job:delete"
	ApplicationView     Action = "application:view"
	ApplicationReview   Action = "application:review"
	ApplicationWithdraw Action = "application:withdraw"
	CertificateView     Action = "certificate:view"
	CertificateDelete   Action = "certificate:delete"
	CertificateVerify   Action = "certificate:verify"
	ChatAccess          Action = "chat:access"
	NotificationAccess  Action = "notification:access"
	MockTestManage      Action = "mocktest:manage"
	PlanManage          Action = "plan:manage"
	UserManage          Action = "user:manage"
)

// Resource is what an action targets. Owners lists every user that owns it
// in some capacity; the rule decides which of them count.
type Resource struct {
	Kind   string
	Owners []Owner
}

// Owner ties a user id to the role in which it owns the resource.
type Owner struct {
	UserID uuid.UUID
	Role   model.Role
}

type rule struct {
	admin      bool
	ownerRoles []model.Role
}

var rules = map[Action]rule{
	JobUpdate:           {admin: true, ownerRoles: []model.Role{model.RoleEmployer}},
	JobDelete:           {admin: true, ownerRoles: []model.Role{model.RoleEmployer}},
	ApplicationView:     {admin: true, ownerRoles: []model.Role{model.RoleStudent, model.RoleEmployer}},
	ApplicationReview:   {admin: true, ownerRoles: []model.Role{model.RoleEmployer}},
	ApplicationWithdraw: {ownerRoles: []model.Role{model.RoleStudent}},
	CertificateView:     {admin: true, ownerRoles: []model.Role{model.RoleStudent}},
	CertificateDelete:   {admin: true, ownerRoles: []model.Role{model.RoleStudent}},
	CertificateVerify:   {admin: true},
	ChatAccess:          {ownerRoles: []model.Role{model.RoleStudent, model.RoleEmployer, model.RoleAdmin}},
	NotificationAccess:  {ownerRoles: []model.Role{model.RoleStudent, model.RoleEmployer, model.RoleAdmin}},
	MockTestManage:      {admin: true},
	PlanManage:          {admin: true},
	UserManage:          {admin: true},
}

// Authorize returns nil when actor may perform action on res, and an error
// wrapping ErrForbidden otherwise. Unknown actions are always denied.
func Authorize(actor *model.User, action Action, res Resource) error {
	r, ok := rules[action]
	if !ok || actor == nil || !actor.IsActive {
		return deny(action, res)
	}
	if r.admin && actor.Role == model.RoleAdmin {
		return nil
	}
	for _, o := range res.Owners {
		if o.UserID != actor.ID || o.Role != actor.Role {
			continue
		}
		for _, role := range r.ownerRoles {
			if role == actor.Role {
				return nil
			}
		}
	}
	return deny(action, res)
}

func deny(action Action, res Resource) error {
	return fmt.Errorf("%w: %s not allowed on %s", apperrors.ErrForbidden, action, res.Kind)
}

// Job is owned by the employer who posted it.
func Job(j *model.Job) Resource {
	return Resource{Kind: "job", Owners: []Owner{{UserID: j.PostedBy, Role: model.RoleEmployer}}}
}

// Application is owned by the applicant and by the employer of the job.
func Application(a *model.Application) Resource {
	return Resource{Kind: "application", Owners: []Owner{
		{UserID: a.StudentID, Role: model.RoleStudent},
		{UserID: a.EmployerID, Role: model.RoleEmployer},
	}}
}

// Certificate is owned by the student who uploaded it.
func Certificate(c *model.Certificate) Resource {
	return Resource{Kind: "certificate", Owners: []Owner{{UserID: c.StudentID, Role: model.RoleStudent}}}
}

// Chat is owned by its two participants, whatever their role.
func Chat(c *model.Chat, actor *model.User) Resource {
	res := Resource{Kind: "chat"}
	if c.HasParticipant(actor.ID) {
		res.Owners = []Owner{{UserID: actor.ID, Role: actor.Role}}
	}
	return res
}

// Notification is owned by its recipient.
func Notification(n *model.Notification, actor *model.User) Resource {
	res := Resource{Kind: "notification"}
	if n.UserID == actor.ID {
		res.Owners = []Owner{{UserID: actor.ID, Role: actor.Role}}
	}
	return res
}

// Admin is a resource only admins may act upon.
func Admin(kind string) Resource {
	return Resource{Kind: kind}
}
