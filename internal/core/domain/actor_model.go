package domain

import (
	"fmt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/berfenger/sundispatch/pkg/sunspec_modbus"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_DISPATCH     = "dispatch"
	ACTOR_ID_TELEMETRY    = "telemetry"
	ACTOR_ID_MODBUS       = "modbus"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type ActorRef actor.PID

type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

// Requests served by the dispatch actor. The master routes anything that
// implements this interface to it.

type DispatchActorRequest interface {
	ActorRequest
	DispatchCommand() string
}

type DispatchRequestMixIn struct {
	ActorRequestMixIn
}

func (r DispatchRequestMixIn) DispatchCommand() string {
	return fmt.Sprintf("%T", r)
}

type DispatchRequest struct {
	DispatchRequestMixIn
	Reading Reading
}

type DispatchResponse struct {
	ActorResponseMixIn
	Decision Decision
}

type ResetRequest struct {
	DispatchRequestMixIn
}

type ResetResponse struct {
	ActorResponseMixIn
	Snapshot StateSnapshot
}

type GetSnapshotRequest struct {
	DispatchRequestMixIn
}

type GetSnapshotResponse struct {
	ActorResponseMixIn
	Preset     Preset
	LastAction Action
	Snapshot   StateSnapshot
}

// Telemetry

type GetDevicesInfoRequest struct {
	ActorRequestMixIn
}

type GetDevicesInfoResponse struct {
	ActorResponseMixIn
	Inverter *sunspec_modbus.InverterInfo
	ACMeter  *sunspec_modbus.ACMeterInfo
}

type GetReadingRequest struct {
	ActorRequestMixIn
}

type GetReadingResponse struct {
	ActorResponseMixIn
	Reading *Reading
}

// MQTT

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
	Buttons []GenericButton
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

// Health

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}

// ensure interface compliance
var _ DispatchActorRequest = (*DispatchRequest)(nil)
var _ DispatchActorRequest = (*ResetRequest)(nil)
var _ DispatchActorRequest = (*GetSnapshotRequest)(nil)
