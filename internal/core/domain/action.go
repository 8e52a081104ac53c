package domain

type Action string

const (
	ActionChargeBattery    Action = "charge_battery"
	ActionSendToGrid       Action = "send_to_grid"
	ActionDischargeBattery Action = "discharge_battery"
	ActionUseGrid          Action = "use_grid"
	ActionMaintainState    Action = "maintain_state"
)

var Actions = []Action{
	ActionChargeBattery,
	ActionSendToGrid,
	ActionDischargeBattery,
	ActionUseGrid,
	ActionMaintainState,
}

func (a Action) String() string {
	return string(a)
}

// Decision is the full outcome of one dispatch call.
//
// CurtailedWatt is the surplus a charge could not absorb and UnmetWatt the deficit
// a discharge could not cover. Neither is routed to GridUse.
type Decision struct {
	Action        Action        `json:"action"`
	Snapshot      StateSnapshot `json:"snapshot"`
	CurtailedWatt float64       `json:"curtailed_watt"`
	UnmetWatt     float64       `json:"unmet_watt"`
}
