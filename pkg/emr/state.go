package emr

import (
	"context"

	"github.com/looplab/fsm"
	log "github.com/sirupsen/logrus"
)

// ----------------------------------
// bootstrap events
// ----------------------------------
type bootstrapEvent int

const (
	createUI bootstrapEvent = iota
	describeUI
	obtainURL
	establishSession
)

func (be bootstrapEvent) String() string {
	return [...]string{"createUI", "describeUI", "obtainURL", "establishSession"}[be]
}

// ----------------------------------
// bootstrap states
// ----------------------------------
type bootstrapState int

const (
	stateNew bootstrapState = iota
	stateCreated
	stateDescribed
	stateURLObtained
	stateSessionEstablished
)

func (bs bootstrapState) String() string {
	return [...]string{"New", "Created", "Described", "URLObtained", "SessionEstablished"}[bs]
}

// newBootstrapState builds the strictly linear bootstrap machine.  Each
// event is valid from exactly one state, so a skipped or repeated step
// is a transition error, never a silent no-op.
func newBootstrapState(logger *log.Entry) *fsm.FSM {
	return fsm.NewFSM(
		stateNew.String(), fsm.Events{
			{
				Name: createUI.String(),
				Src:  []string{stateNew.String()},
				Dst:  stateCreated.String(),
			}, {
				Name: describeUI.String(),
				Src:  []string{stateCreated.String()},
				Dst:  stateDescribed.String(),
			}, {
				Name: obtainURL.String(),
				Src:  []string{stateDescribed.String()},
				Dst:  stateURLObtained.String(),
			}, {
				Name: establishSession.String(),
				Src:  []string{stateURLObtained.String()},
				Dst:  stateSessionEstablished.String(),
			},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, event *fsm.Event) {
				logger.WithFields(log.Fields{
					"source":      event.Src,
					"destination": event.Dst,
					"event":       event.Event,
				}).Debug("Bootstrap state transition")
			},
		},
	)
}
