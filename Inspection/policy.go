package Inspection

import "golang.org/x/exp/slices"

// Role of an authenticated principal. RoleNone stands for an
// unauthenticated visitor.
type Role string

const (
	RoleNone      Role = ""
	RoleClient    Role = "CLIENT"
	RoleInspector Role = "INSPECTOR"
	RoleAdmin     Role = "ADMIN"
)

// Action identifies one gated operation. The .self/.own suffix marks
// operations limited to the caller's own records, .any the unrestricted
// variant.
type Action string

const (
	ActionAuthLogin            Action = "auth.login"
	ActionAuthRegister         Action = "auth.register"
	ActionVehicleCreateSelf    Action = "vehicle.create.self"
	ActionVehicleCreateAny     Action = "vehicle.create.any"
	ActionVehicleDeleteOwn     Action = "vehicle.delete.own"
	ActionVehicleDeleteAny     Action = "vehicle.delete.any"
	ActionAppointmentCreateOwn Action = "appointment.create.own"
	ActionAppointmentCreateAny Action = "appointment.create.any"
	ActionAppointmentCancelOwn Action = "appointment.cancel.own"
	ActionAppointmentCancelAny Action = "appointment.cancel.any"
	ActionInspectionComplete   Action = "inspection.complete"
	ActionSlotManage           Action = "slot.manage"
	ActionCheckItemManage      Action = "checkitem.manage"
	ActionInspectorManage      Action = "inspector.manage"
	ActionUserManage           Action = "user.manage"
	ActionReportExport         Action = "report.export"
	ActionResultViewOwn        Action = "result.view.own"
	ActionResultViewAny        Action = "result.view.any"
)

// policy is the single declarative role table. Handlers and the UI both
// consult it through Allowed so role checks never drift apart. Roles get
// exactly what is listed, nothing is inherited. The backend handlers stay
// the authoritative enforcers; serving this table to clients only drives
// what the UI offers.
var policy = map[Action][]Role{
	ActionAuthLogin:            {RoleNone},
	ActionAuthRegister:         {RoleNone},
	ActionVehicleCreateSelf:    {RoleClient},
	ActionVehicleCreateAny:     {RoleAdmin},
	ActionVehicleDeleteOwn:     {RoleClient},
	ActionVehicleDeleteAny:     {RoleAdmin},
	ActionAppointmentCreateOwn: {RoleClient},
	ActionAppointmentCreateAny: {RoleAdmin},
	ActionAppointmentCancelOwn: {RoleClient},
	ActionAppointmentCancelAny: {RoleAdmin},
	ActionInspectionComplete:   {RoleInspector},
	ActionSlotManage:           {RoleAdmin},
	ActionCheckItemManage:      {RoleAdmin},
	ActionInspectorManage:      {RoleAdmin},
	ActionUserManage:           {RoleAdmin},
	ActionReportExport:         {RoleAdmin},
	ActionResultViewOwn:        {RoleClient, RoleInspector},
	ActionResultViewAny:        {RoleAdmin},
}

// Allowed reports whether the role may perform the action. Pure lookup,
// no hidden state. Unknown actions are denied for every role.
func Allowed(role Role, action Action) bool {
	return slices.Contains(policy[action], role)
}

// AllActions lists every declared action in stable order.
func AllActions() []Action {
	actions := make([]Action, 0, len(policy))
	for action := range policy {
		actions = append(actions, action)
	}
	slices.Sort(actions)
	return actions
}

// ActionsFor lists the actions the role may perform, in stable order.
// Feeds the permissions endpoint the UI uses for button visibility.
func ActionsFor(role Role) []Action {
	actions := make([]Action, 0, len(policy))
	for action, roles := range policy {
		if slices.Contains(roles, role) {
			actions = append(actions, action)
		}
	}
	slices.Sort(actions)
	return actions
}
