package config

type WorkerKeyStruct struct {
	PersistLeaveEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistLeaveEventsQueue: "persist_leave_events_queue",
}
