package welcome

import (
	"github.com/omniscale/osmwelcome/changeset"
	"github.com/omniscale/osmwelcome/osmapi"
)

// Presenter displays the progress and result of a run. UserInfo can be
// called concurrently with the other methods.
type Presenter interface {
	// Status is called on every state change. Done and Error end any
	// progress indicator.
	Status(s State)
	FirstEdit(summary string)
	Returning(meta *changeset.Meta, changes *changeset.Changes)
	UserInfo(user *osmapi.User)
	Error(err *Failure)
}

type NopPresenter struct{}

func (NopPresenter) Status(State)                                  {}
func (NopPresenter) FirstEdit(string)                              {}
func (NopPresenter) Returning(*changeset.Meta, *changeset.Changes) {}
func (NopPresenter) UserInfo(*osmapi.User)                         {}
func (NopPresenter) Error(*Failure)                                {}
