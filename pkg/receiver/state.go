package receiver

type State int

const (
	Idle State = iota
	AwaitStartPreamble
	RecordingUntilEndPreamble
	Demodulating
	Validating
	Success
	Failed
)

var stateNames = [...]string{
	Idle:                      "Idle",
	AwaitStartPreamble:        "AwaitStartPreamble",
	RecordingUntilEndPreamble: "RecordingUntilEndPreamble",
	Demodulating:              "Demodulating",
	Validating:                "Validating",
	Success:                   "Success",
	Failed:                    "Failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(?)"
}
