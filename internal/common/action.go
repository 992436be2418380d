package common

type Action string

const (
	ActionAllow  Action = "ALLOW"
	ActionReject Action = "REJECT"
)
