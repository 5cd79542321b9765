// Package flowstate remembers the CSRF state of logins that are waiting for
// the authorization server to call back.
package flowstate

import "time"

type FlowState struct {
	ReturnURL string
	CreatedAt time.Time
}

type Repo interface {
	Upsert(state string, flow *FlowState) error
	Get(state string) (*FlowState, error)
	Delete(state string) error
	// DeleteCreatedBefore drops abandoned logins and reports how many went.
	DeleteCreatedBefore(t time.Time) int
}
