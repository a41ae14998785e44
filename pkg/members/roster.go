package members

import (
	"context"

	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/viewstate"
)

// NoMembersMessage is shown when a successful load finds nobody.
const NoMembersMessage = "No members found."

// Roster is the librarian's member list. A refresh that finishes after the
// roster was closed is dropped.
type Roster struct {
	svc   *Service
	state viewstate.State[[]*Member]
}

func NewRoster(svc *Service) *Roster {
	return &Roster{svc: svc}
}

// Refresh reloads the list in the background. The channel reports whether
// the result was applied.
func (r *Roster) Refresh(ctx context.Context, opts ListMembersOptions) <-chan bool {
	return viewstate.Fetch(ctx, &r.state, func(ctx context.Context) ([]*Member, error) {
		members, err := r.svc.ListMembers(ctx, opts)
		return members, backend.UserError(err)
	})
}

// Snapshot returns the current list. Message explains an empty or failed
// load.
func (r *Roster) Snapshot() viewstate.Snapshot[[]*Member] {
	snap := r.state.Snapshot()
	if snap.Data == nil {
		snap.Data = []*Member{}
	}
	if !snap.Loading && snap.Err == nil && len(snap.Data) == 0 {
		snap.Message = NoMembersMessage
	}
	return snap
}

func (r *Roster) Close() {
	r.state.Release()
}
